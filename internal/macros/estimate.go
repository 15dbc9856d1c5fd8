package macros

import (
	"regexp"
	"strings"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/units"
)

// Breakdown is a fully numeric macro estimate.
type Breakdown struct {
	CaloriesKcal float64 `json:"calories_kcal"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
	FiberG       float64 `json:"fiber_g"`
	// Matched is the keyword that selected a table entry, empty for the default.
	Matched string `json:"matched,omitempty"`
}

var defaultMacros = Breakdown{CaloriesKcal: 200, ProteinG: 7, CarbsG: 26, FatG: 8, FiberG: 2}

// Estimate returns heuristic macros for a food description and quantity.
//
// When the text matches a table entry and the quantity unit is compatible with
// the entry's base unit, the entry is scaled by value/baseAmount. When the unit
// is incompatible or missing, the raw value is used as the multiplier. Unknown
// quantities scale by 1.
func Estimate(text string, q meal.Quantity) Breakdown {
	lower := strings.ToLower(text)
	for i, e := range table {
		for j, kw := range e.keywords {
			if !tablePatterns[i][j].MatchString(lower) {
				continue
			}
			out := e.macros.scale(multiplier(e, q))
			out.Matched = kw
			return out
		}
	}

	m := 1.0
	if q.Value != nil {
		m = *q.Value
	}
	return defaultMacros.scale(m)
}

// tablePatterns mirrors table. Keywords match whole words with an optional
// plural suffix, so "watermelon" does not hit "water".
var tablePatterns = compilePatterns(table)

func compilePatterns(entries []entry) [][]*regexp.Regexp {
	out := make([][]*regexp.Regexp, len(entries))
	for i, e := range entries {
		out[i] = make([]*regexp.Regexp, len(e.keywords))
		for j, kw := range e.keywords {
			out[i][j] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `(?:s|es)?\b`)
		}
	}
	return out
}

func multiplier(e entry, q meal.Quantity) float64 {
	if q.Value == nil {
		return 1
	}
	if q.Unit != nil && units.Equivalent(*q.Unit, e.baseUnit) && e.baseAmount > 0 {
		return *q.Value / e.baseAmount
	}
	return *q.Value
}

func (b Breakdown) scale(m float64) Breakdown {
	return Breakdown{
		CaloriesKcal: meal.Round2(b.CaloriesKcal * m),
		ProteinG:     meal.Round2(b.ProteinG * m),
		CarbsG:       meal.Round2(b.CarbsG * m),
		FatG:         meal.Round2(b.FatG * m),
		FiberG:       meal.Round2(b.FiberG * m),
	}
}

// Estimate converts the breakdown into a nullable nutrition estimate.
func (b Breakdown) Estimate(source meal.Source, confidence meal.Confidence) *meal.NutritionEstimate {
	return &meal.NutritionEstimate{
		CaloriesKcal: meal.Float(b.CaloriesKcal),
		ProteinG:     meal.Float(b.ProteinG),
		CarbsG:       meal.Float(b.CarbsG),
		FatG:         meal.Float(b.FatG),
		FiberG:       meal.Float(b.FiberG),
		Source:       source,
		Confidence:   confidence,
	}
}

// Heuristic is the estimate attached by the heuristic tiers.
func Heuristic(text string, q meal.Quantity) *meal.NutritionEstimate {
	return Estimate(text, q).Estimate(meal.SourceHeuristic, meal.ConfidenceLow)
}
