package meal

import "math"

// MergeEstimate combines two estimates field by field: an incoming non-nil value
// wins, otherwise the existing value is kept. Source and confidence follow the
// same rule. Neither argument is modified.
func MergeEstimate(existing, incoming *NutritionEstimate) *NutritionEstimate {
	if existing == nil && incoming == nil {
		return nil
	}
	var base, next NutritionEstimate
	if existing != nil {
		base = *existing
	}
	if incoming != nil {
		next = *incoming
	}

	out := NutritionEstimate{
		CaloriesKcal: pick(next.CaloriesKcal, base.CaloriesKcal),
		ProteinG:     pick(next.ProteinG, base.ProteinG),
		CarbsG:       pick(next.CarbsG, base.CarbsG),
		FatG:         pick(next.FatG, base.FatG),
		FiberG:       pick(next.FiberG, base.FiberG),
		Source:       base.Source,
		Confidence:   base.Confidence,
	}
	if next.Source != "" {
		out.Source = next.Source
	}
	if next.Confidence != "" {
		out.Confidence = next.Confidence
	}
	return &out
}

func pick(incoming, existing *float64) *float64 {
	if incoming != nil {
		v := *incoming
		return &v
	}
	if existing != nil {
		v := *existing
		return &v
	}
	return nil
}

// SumTotals adds up the known macro fields of all items. It returns nil when no
// item carries any number, so unknown stays distinct from zero.
func SumTotals(items []Item) *NutritionEstimate {
	var totals NutritionEstimate
	found := false
	for _, it := range items {
		e := it.NutritionEstimate
		if !e.HasNumbers() {
			continue
		}
		found = true
		totals.CaloriesKcal = add(totals.CaloriesKcal, e.CaloriesKcal)
		totals.ProteinG = add(totals.ProteinG, e.ProteinG)
		totals.CarbsG = add(totals.CarbsG, e.CarbsG)
		totals.FatG = add(totals.FatG, e.FatG)
		totals.FiberG = add(totals.FiberG, e.FiberG)
	}
	if !found {
		return nil
	}
	return &totals
}

func add(sum, v *float64) *float64 {
	if v == nil {
		return sum
	}
	if sum == nil {
		return Float(Round2(*v))
	}
	return Float(Round2(*sum + *v))
}

// InferConfidence is medium when any item still needs a lookup, high otherwise.
func InferConfidence(items []Item) Confidence {
	for _, it := range items {
		if it.Flags.NeedsLookup {
			return ConfidenceMedium
		}
	}
	return ConfidenceHigh
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
