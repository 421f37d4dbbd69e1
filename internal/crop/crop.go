// Package crop judges a weekly temperature series against a crop's optimal range.
package crop

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"mspro-labs/crop-weather/internal/forecast"
)

// Profile is an inclusive optimal daily mean temperature range in °C.
type Profile struct {
	Name string
	Min  float64
	Max  float64
}

// DefaultProfile applies to any crop not in the table.
var DefaultProfile = Profile{Name: "default", Min: 18, Max: 28}

var profiles = []Profile{
	{Name: "水稻", Min: 20, Max: 30},
	{Name: "玉米", Min: 18, Max: 30},
	{Name: "高麗菜", Min: 15, Max: 25},
	{Name: "番茄", Min: 18, Max: 28},
}

var aliases = map[string]string{
	"rice":    "水稻",
	"corn":    "玉米",
	"maize":   "玉米",
	"cabbage": "高麗菜",
	"tomato":  "番茄",
}

var english = map[string]string{
	"水稻":  "rice",
	"玉米":  "corn",
	"高麗菜": "cabbage",
	"番茄":  "tomato",
}

// Names lists the known crops in display order.
func Names() []string {
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = p.Name
	}
	return out
}

// Lookup finds the profile for id, accepting English aliases and
// full-width or decomposed input. Unknown ids get DefaultProfile.
func Lookup(id string) Profile {
	key := normalize(id)
	if alias, ok := aliases[strings.ToLower(key)]; ok {
		key = alias
	}
	for _, p := range profiles {
		if p.Name == key {
			return p
		}
	}
	return DefaultProfile
}

// Known reports whether id maps to a row of the table.
func Known(id string) bool {
	return Lookup(id) != DefaultProfile
}

// EnglishName is the title-cased English name of a known crop, or "".
func (p Profile) EnglishName() string {
	if en, ok := english[p.Name]; ok {
		return cases.Title(language.English).String(en)
	}
	return ""
}

func normalize(id string) string {
	return strings.TrimSpace(norm.NFKC.String(id))
}

// Level classifies a mean temperature against a profile.
type Level string

const (
	BelowRange  Level = "below-range"
	WithinRange Level = "within-range"
	AboveRange  Level = "above-range"
)

// Verdict is the suitability judgement shown on the dashboard.
type Verdict struct {
	Level       Level   `json:"level"`
	Label       string  `json:"label"`
	Icon        string  `json:"icon"`
	Explanation string  `json:"explanation"`
	Mean        float64 `json:"mean"`
}

// Evaluate compares the series mean with the profile. Bounds are inclusive.
func Evaluate(series forecast.Series, p Profile) Verdict {
	mean := series.Mean()
	switch {
	case mean < p.Min:
		return Verdict{
			Level:       BelowRange,
			Label:       "偏低",
			Icon:        "⚠️",
			Explanation: "temperature low, growth rate may slow, monitor cold-stress risk",
			Mean:        mean,
		}
	case mean > p.Max:
		return Verdict{
			Level:       AboveRange,
			Label:       "偏高",
			Icon:        "⚠️",
			Explanation: "temperature high, heat-stress risk increased, monitor water management",
			Mean:        mean,
		}
	default:
		return Verdict{
			Level:       WithinRange,
			Label:       "適宜",
			Icon:        "✅",
			Explanation: "conditions favorable for normal growth",
			Mean:        mean,
		}
	}
}
