package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mspro-labs/crop-weather/internal/snapshot"
)

// Source says where a Reading's series came from.
type Source string

const (
	SourceSchema    Source = "schema"
	SourceHeuristic Source = "heuristic"
	SourceFallback  Source = "fallback"
)

// Degraded reports whether the series is a guess rather than a schema read.
func (s Source) Degraded() bool { return s != SourceSchema }

// Reading is a series plus its provenance.
type Reading struct {
	Series Series
	Source Source
	// SchemaErr explains why the strict path was not used.
	SchemaErr error
}

// SchemaError means the document is not the agricultural weekly forecast layout.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "forecast schema mismatch: " + e.Reason
}

// Resolve tries ExtractStrict, then the heuristic, then Fallback.
func Resolve(doc snapshot.Document) Reading {
	s, err := ExtractStrict(doc)
	if err == nil {
		return Reading{Series: s, Source: SourceSchema}
	}
	if s, ok := extractHeuristic(doc); ok {
		return Reading{Series: s, Source: SourceHeuristic, SchemaErr: err}
	}
	return Reading{Series: Fallback, Source: SourceFallback, SchemaErr: err}
}

// ExtractStrict reads every location's weatherElements.MaxT/MinT daily
// temperatures and averages (max+min)/2 across locations for each of the
// first seven days.
func ExtractStrict(doc snapshot.Document) (Series, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return Series{}, &SchemaError{Reason: fmt.Sprintf("not JSON: %v", err)}
	}

	var elements []map[string]any
	findWeatherElements(root, &elements)
	if len(elements) == 0 {
		return Series{}, &SchemaError{Reason: "no weatherElements found"}
	}

	var sums Series
	for i, el := range elements {
		highs, err := dailyTemperatures(el, "MaxT")
		if err != nil {
			return Series{}, &SchemaError{Reason: fmt.Sprintf("location %d: %v", i, err)}
		}
		lows, err := dailyTemperatures(el, "MinT")
		if err != nil {
			return Series{}, &SchemaError{Reason: fmt.Sprintf("location %d: %v", i, err)}
		}
		for d := 0; d < Days; d++ {
			sums[d] += (highs[d] + lows[d]) / 2
		}
	}

	var s Series
	for d := range sums {
		v := round1(sums[d] / float64(len(elements)))
		if v < MinPlausible || v > MaxPlausible {
			return Series{}, &SchemaError{Reason: fmt.Sprintf("day %d mean %.1f°C outside plausible range", d+1, v)}
		}
		s[d] = v
	}
	return s, nil
}

func findWeatherElements(v any, out *[]map[string]any) {
	switch x := v.(type) {
	case map[string]any:
		if el, ok := x["weatherElements"].(map[string]any); ok {
			*out = append(*out, el)
			return
		}
		for _, child := range x {
			findWeatherElements(child, out)
		}
	case []any:
		for _, child := range x {
			findWeatherElements(child, out)
		}
	}
}

func dailyTemperatures(elements map[string]any, name string) ([Days]float64, error) {
	var out [Days]float64

	el, ok := elements[name].(map[string]any)
	if !ok {
		return out, fmt.Errorf("%s missing", name)
	}
	daily, ok := el["daily"].([]any)
	if !ok {
		return out, fmt.Errorf("%s.daily missing", name)
	}
	if len(daily) < Days {
		return out, fmt.Errorf("%s.daily has %d entries, want %d", name, len(daily), Days)
	}

	for d := 0; d < Days; d++ {
		entry, ok := daily[d].(map[string]any)
		if !ok {
			return out, fmt.Errorf("%s.daily[%d] is not an object", name, d)
		}
		f, err := toFloat(entry["temperature"])
		if err != nil {
			return out, fmt.Errorf("%s.daily[%d].temperature: %w", name, d, err)
		}
		out[d] = f
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
