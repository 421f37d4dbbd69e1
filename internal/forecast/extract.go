// Package forecast pulls a seven-day temperature series out of a snapshot.
//
// The upstream payload shape has not been pinned down, so Extract is a
// heuristic: it takes the last seven plausible numbers it can find. That is a
// display convenience, not a contract with the data provider. ExtractStrict
// understands the agricultural weekly forecast layout and fails loudly when
// the payload does not match; Resolve prefers it and drops to the heuristic
// as a labelled degraded mode.
package forecast

import (
	"encoding/json"
	"strconv"
	"strings"

	"mspro-labs/crop-weather/internal/snapshot"
)

// Days is the forecast horizon.
const Days = 7

// Plausible daily mean temperature bounds in °C.
const (
	MinPlausible = -10.0
	MaxPlausible = 45.0
)

// Series holds one daily mean temperature per forecast day, in °C.
type Series [Days]float64

// Fallback is used whenever no real series can be found.
var Fallback = Series{18, 20, 22, 23, 21, 19, 18}

// Extract never fails: malformed, empty or ambiguous documents yield Fallback.
func Extract(doc snapshot.Document) Series {
	s, ok := extractHeuristic(doc)
	if !ok {
		return Fallback
	}
	return s
}

func extractHeuristic(doc snapshot.Document) (Series, bool) {
	nums := collectNumbers(doc)
	if len(nums) < Days {
		return Series{}, false
	}

	var plausible []float64
	for _, n := range nums[len(nums)-Days:] {
		n = round1(n)
		if n >= MinPlausible && n <= MaxPlausible {
			plausible = append(plausible, n)
		}
	}
	if len(plausible) < Days {
		return Series{}, false
	}

	var s Series
	copy(s[:], plausible[len(plausible)-Days:])
	return s, true
}

// collectNumbers gathers numeric leaves and numeric strings in document order.
// A document that stops parsing part way keeps whatever was read before the error.
func collectNumbers(doc snapshot.Document) []float64 {
	var nums []float64
	_ = doc.Leaves(func(v any) {
		switch x := v.(type) {
		case json.Number:
			if f, err := x.Float64(); err == nil {
				nums = append(nums, f)
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				nums = append(nums, f)
			}
		}
	})
	return nums
}

// round1 rounds the exact binary value to one decimal, ties to even, so 45.05
// (stored just below) becomes 45.0 and 2.25 becomes 2.2.
func round1(f float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 1, 64), 64)
	if err != nil {
		return f
	}
	return r
}

// Mean is the arithmetic mean of the series.
func (s Series) Mean() float64 {
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / Days
}
