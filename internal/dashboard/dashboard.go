// Package dashboard assembles what the terminal and HTML views display.
package dashboard

import (
	"fmt"
	"time"

	"mspro-labs/crop-weather/internal/crop"
	"mspro-labs/crop-weather/internal/forecast"
	"mspro-labs/crop-weather/internal/snapshot"
)

// Day is one row of the forecast table.
type Day struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"temperature"`
}

// View is the display model for one crop against the latest snapshot.
type View struct {
	HasData      bool            `json:"has_data"`
	Snapshot     string          `json:"snapshot,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
	Source       forecast.Source `json:"source"`
	Degraded     bool            `json:"degraded"`
	Series       forecast.Series `json:"series"`
	Days         []Day           `json:"days"`
	Stats        crop.Stats      `json:"stats"`
	Crop         string          `json:"crop"`
	KnownCrop    bool            `json:"known_crop"`
	Profile      crop.Profile    `json:"profile"`
	Verdict      crop.Verdict    `json:"verdict"`
}

// Build runs the display path against the newest snapshot in dir.
// With no snapshot the view still carries the fallback series, flagged by HasData=false.
func Build(dir, cropID string, today time.Time) (View, error) {
	snap, err := snapshot.LoadLatest(dir)
	if err != nil {
		return View{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return FromSnapshot(snap, cropID, today), nil
}

// FromSnapshot builds a View; snap may be nil.
func FromSnapshot(snap *snapshot.Snapshot, cropID string, today time.Time) View {
	v := View{Crop: cropID}

	reading := forecast.Reading{Series: forecast.Fallback, Source: forecast.SourceFallback}
	if snap != nil {
		v.HasData = true
		v.Snapshot = snap.Name
		if snap.IsErrorMarker() {
			v.ErrorMessage = snap.Err.Error()
		} else {
			reading = forecast.Resolve(snap.Doc)
		}
	}

	v.Series = reading.Series
	v.Source = reading.Source
	v.Degraded = reading.Source.Degraded()
	v.Profile = crop.Lookup(cropID)
	v.KnownCrop = crop.Known(cropID)
	v.Stats = crop.Summarize(reading.Series)
	v.Verdict = crop.Evaluate(reading.Series, v.Profile)

	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	for i, t := range reading.Series {
		v.Days = append(v.Days, Day{Date: start.AddDate(0, 0, i), Temperature: t})
	}
	return v
}
