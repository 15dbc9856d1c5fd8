package mealparse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fdg312/coach-hub/internal/ai"
	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/units"
)

const extractionInstructions = `You convert a person's description of what they ate or drank into structured JSON.
Reply with exactly one JSON object and nothing else, using this shape:
{
  "meal_type": "breakfast|lunch|dinner|snack|drink|unknown",
  "context_note": string or null,
  "confidence": "low|medium|high",
  "items": [
    {
      "raw_text": "exact substring of the input for this item",
      "name": "normalized food name",
      "brand": string or null,
      "preparation": [string],
      "quantity": {"value": number or null, "unit": string or null, "display": string or null},
      "size_hint": "small|medium|large" or null,
      "alcohol": {"is_alcohol": bool, "abv_pct": number or null, "volume_ml": number or null} or null,
      "nutrition_estimate": {"calories_kcal": number or null, "protein_g": number or null, "carbs_g": number or null, "fat_g": number or null, "fiber_g": number or null, "source": "llm", "confidence": "low|medium|high"} or null,
      "lookup": {"status": "pending|matched|ambiguous", "candidates": []},
      "flags": {"needs_lookup": bool, "needs_portion": bool},
      "confidence": "low|medium|high"
    }
  ]
}
Units must be one of: g, kg, mg, oz, oz_fl, lb, ml, l, cup, tbsp, tsp, piece, count, slice, serving, bottle, can, glass, pint, shot, bowl, scoop, handful, other.
Use oz_fl for drinks measured in ounces. Use null for any value you do not know. Never invent brands.`

type remoteQuantity struct {
	Value   *float64 `json:"value"`
	Unit    *string  `json:"unit"`
	Display *string  `json:"display"`
}

type remoteEstimate struct {
	CaloriesKcal *float64 `json:"calories_kcal"`
	ProteinG     *float64 `json:"protein_g"`
	CarbsG       *float64 `json:"carbs_g"`
	FatG         *float64 `json:"fat_g"`
	FiberG       *float64 `json:"fiber_g"`
	Source       string   `json:"source"`
	Confidence   string   `json:"confidence"`
}

type remoteItem struct {
	RawText           string          `json:"raw_text"`
	Name              string          `json:"name"`
	Brand             *string         `json:"brand"`
	Preparation       []string        `json:"preparation"`
	Quantity          *remoteQuantity `json:"quantity"`
	SizeHint          *string         `json:"size_hint"`
	Alcohol           *meal.Alcohol   `json:"alcohol"`
	NutritionEstimate *remoteEstimate `json:"nutrition_estimate"`
	Lookup            *struct {
		Status     string           `json:"status"`
		Candidates []meal.Candidate `json:"candidates"`
	} `json:"lookup"`
	Flags *struct {
		NeedsLookup  *bool `json:"needs_lookup"`
		NeedsPortion *bool `json:"needs_portion"`
	} `json:"flags"`
	Confidence string `json:"confidence"`
}

type remoteResult struct {
	MealType    string          `json:"meal_type"`
	ContextNote *string         `json:"context_note"`
	Confidence  string          `json:"confidence"`
	Items       []remoteItem    `json:"items"`
	Totals      *remoteEstimate `json:"totals"`
}

// decodeRemoteResult validates a remote reply and converts it into the shared
// parse result shape. Any deviation from the expected shape is an error.
func decodeRemoteResult(reply string) (meal.ParseResult, error) {
	raw, err := ai.ExtractJSONObject(reply)
	if err != nil {
		return meal.ParseResult{}, err
	}

	var in remoteResult
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return meal.ParseResult{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(in.Items) == 0 {
		return meal.ParseResult{}, fmt.Errorf("items must not be empty")
	}

	out := meal.ParseResult{ContextNote: nonEmpty(in.ContextNote)}

	if in.MealType != "" {
		t, ok := meal.ParseType(strings.ToLower(in.MealType))
		if !ok {
			return meal.ParseResult{}, fmt.Errorf("invalid meal_type %q", in.MealType)
		}
		out.MealType = t
	}
	if in.Confidence != "" {
		c, ok := meal.ParseConfidence(strings.ToLower(in.Confidence))
		if !ok {
			return meal.ParseResult{}, fmt.Errorf("invalid confidence %q", in.Confidence)
		}
		out.Confidence = c
	}

	out.Items = make([]meal.Item, 0, len(in.Items))
	for i, ri := range in.Items {
		item, err := convertRemoteItem(ri)
		if err != nil {
			return meal.ParseResult{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		out.Items = append(out.Items, item)
	}

	if in.Totals != nil {
		totals, err := convertEstimate(in.Totals)
		if err != nil {
			return meal.ParseResult{}, fmt.Errorf("totals: %w", err)
		}
		if totals.HasNumbers() {
			out.Totals = totals
		}
	}

	return out, nil
}

func convertRemoteItem(ri remoteItem) (meal.Item, error) {
	item := meal.Item{
		RawText:     strings.TrimSpace(ri.RawText),
		Name:        strings.TrimSpace(ri.Name),
		Brand:       nonEmpty(ri.Brand),
		Preparation: ri.Preparation,
		Alcohol:     ri.Alcohol,
		Lookup:      meal.Lookup{Status: meal.LookupPending, Candidates: []meal.Candidate{}},
		Confidence:  meal.ConfidenceMedium,
	}
	if item.Name == "" {
		item.Name = item.RawText
	}
	if item.Preparation == nil {
		item.Preparation = []string{}
	}

	if q := ri.Quantity; q != nil {
		if q.Value != nil {
			if *q.Value <= 0 {
				return meal.Item{}, fmt.Errorf("quantity.value must be positive or null")
			}
			item.Quantity.Value = meal.Float(*q.Value)
		}
		if q.Unit != nil {
			if u, ok := units.Normalize(*q.Unit); ok {
				item.Quantity.Unit = &u
			}
		}
		item.Quantity.Display = nonEmpty(q.Display)
	}

	if ri.SizeHint != nil && strings.TrimSpace(*ri.SizeHint) != "" {
		h, ok := meal.ParseSizeHint(strings.ToLower(*ri.SizeHint))
		if !ok {
			return meal.Item{}, fmt.Errorf("invalid size_hint %q", *ri.SizeHint)
		}
		item.SizeHint = &h
	}

	if ri.NutritionEstimate != nil {
		est, err := convertEstimate(ri.NutritionEstimate)
		if err != nil {
			return meal.Item{}, fmt.Errorf("nutrition_estimate: %w", err)
		}
		if est.HasNumbers() {
			if est.Source == "" {
				est.Source = meal.SourceLLM
			}
			item.NutritionEstimate = est
		}
	}

	if ri.Lookup != nil {
		if ri.Lookup.Status != "" {
			st, ok := meal.ParseLookupStatus(strings.ToLower(ri.Lookup.Status))
			if !ok {
				return meal.Item{}, fmt.Errorf("invalid lookup.status %q", ri.Lookup.Status)
			}
			item.Lookup.Status = st
		}
		if ri.Lookup.Candidates != nil {
			item.Lookup.Candidates = ri.Lookup.Candidates
		}
	}

	item.Flags = meal.Flags{
		NeedsLookup:  item.NutritionEstimate == nil,
		NeedsPortion: item.Quantity.Value == nil,
	}
	if ri.Flags != nil {
		if ri.Flags.NeedsLookup != nil {
			item.Flags.NeedsLookup = *ri.Flags.NeedsLookup || item.NutritionEstimate == nil
		}
		if ri.Flags.NeedsPortion != nil {
			item.Flags.NeedsPortion = *ri.Flags.NeedsPortion
		}
	}

	if ri.Confidence != "" {
		c, ok := meal.ParseConfidence(strings.ToLower(ri.Confidence))
		if !ok {
			return meal.Item{}, fmt.Errorf("invalid confidence %q", ri.Confidence)
		}
		item.Confidence = c
	}

	if err := item.Validate(); err != nil {
		return meal.Item{}, err
	}
	return item, nil
}

func convertEstimate(re *remoteEstimate) (*meal.NutritionEstimate, error) {
	est := &meal.NutritionEstimate{
		CaloriesKcal: re.CaloriesKcal,
		ProteinG:     re.ProteinG,
		CarbsG:       re.CarbsG,
		FatG:         re.FatG,
		FiberG:       re.FiberG,
	}
	for name, v := range map[string]*float64{
		"calories_kcal": re.CaloriesKcal,
		"protein_g":     re.ProteinG,
		"carbs_g":       re.CarbsG,
		"fat_g":         re.FatG,
		"fiber_g":       re.FiberG,
	} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%s must not be negative", name)
		}
	}
	if re.Source != "" {
		src, ok := meal.ParseSource(strings.ToLower(re.Source))
		if !ok {
			return nil, fmt.Errorf("invalid source %q", re.Source)
		}
		est.Source = src
	}
	if re.Confidence != "" {
		c, ok := meal.ParseConfidence(strings.ToLower(re.Confidence))
		if !ok {
			return nil, fmt.Errorf("invalid confidence %q", re.Confidence)
		}
		est.Confidence = c
	}
	return est, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
