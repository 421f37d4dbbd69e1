package crop

import "mspro-labs/crop-weather/internal/forecast"

// BaseTemperature is the growing threshold for accumulated heat (積溫).
const BaseTemperature = 10.0

// Stats summarises a forecast week.
type Stats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	// Accumulated is the sum of daily degrees above BaseTemperature.
	Accumulated float64 `json:"accumulated"`
}

// Summarize computes Stats for the series.
func Summarize(s forecast.Series) Stats {
	st := Stats{Mean: s.Mean(), Min: s[0], Max: s[0]}
	for _, v := range s {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		if v > BaseTemperature {
			st.Accumulated += v - BaseTemperature
		}
	}
	return st
}
