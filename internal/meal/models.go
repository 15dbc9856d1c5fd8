package meal

import (
	"fmt"

	"github.com/fdg312/coach-hub/internal/units"
)

// Type is the meal slot of a parsed utterance.
type Type string

const (
	Breakfast Type = "breakfast"
	Lunch     Type = "lunch"
	Dinner    Type = "dinner"
	Snack     Type = "snack"
	Drink     Type = "drink"
	Unknown   Type = "unknown"
)

// Confidence is a qualitative trust signal.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Source tells where a nutrition estimate came from.
type Source string

const (
	SourceUSDA      Source = "usda"
	SourceBrand     Source = "brand"
	SourceHeuristic Source = "heuristic"
	SourceUser      Source = "user"
	SourceLLM       Source = "llm"
)

// SizeHint describes portion size when no numeric quantity exists.
type SizeHint string

const (
	SizeSmall  SizeHint = "small"
	SizeMedium SizeHint = "medium"
	SizeLarge  SizeHint = "large"
)

// LookupStatus tracks whether an item matched a food database entry.
type LookupStatus string

const (
	LookupPending   LookupStatus = "pending"
	LookupMatched   LookupStatus = "matched"
	LookupAmbiguous LookupStatus = "ambiguous"
)

// ParsePath records which parser tier produced a result.
type ParsePath string

const (
	PathLLM       ParsePath = "llm"
	PathHeuristic ParsePath = "heuristic"
)

// Quantity keeps the canonical value/unit pair along with the original phrasing.
type Quantity struct {
	Value   *float64    `json:"value"`
	Unit    *units.Unit `json:"unit"`
	Display *string     `json:"display"`
}

// HasValue reports whether the quantity carries a number.
func (q Quantity) HasValue() bool {
	return q.Value != nil
}

type Alcohol struct {
	IsAlcohol bool     `json:"is_alcohol"`
	ABVPct    *float64 `json:"abv_pct"`
	VolumeML  *float64 `json:"volume_ml"`
}

// NutritionEstimate holds independently nullable macro fields.
type NutritionEstimate struct {
	CaloriesKcal *float64   `json:"calories_kcal"`
	ProteinG     *float64   `json:"protein_g"`
	CarbsG       *float64   `json:"carbs_g"`
	FatG         *float64   `json:"fat_g"`
	FiberG       *float64   `json:"fiber_g"`
	Source       Source     `json:"source,omitempty"`
	Confidence   Confidence `json:"confidence,omitempty"`
}

// HasNumbers reports whether any macro field is known.
func (e *NutritionEstimate) HasNumbers() bool {
	if e == nil {
		return false
	}
	return e.CaloriesKcal != nil || e.ProteinG != nil || e.CarbsG != nil || e.FatG != nil || e.FiberG != nil
}

type Candidate struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

type Lookup struct {
	Status     LookupStatus `json:"status"`
	Candidates []Candidate  `json:"candidates"`
}

type Flags struct {
	NeedsLookup  bool `json:"needs_lookup"`
	NeedsPortion bool `json:"needs_portion"`
}

// Item is one structured food item derived from user text.
type Item struct {
	RawText           string             `json:"raw_text"`
	Name              string             `json:"name"`
	Brand             *string            `json:"brand"`
	Preparation       []string           `json:"preparation"`
	Quantity          Quantity           `json:"quantity"`
	SizeHint          *SizeHint          `json:"size_hint"`
	Alcohol           *Alcohol           `json:"alcohol"`
	NutritionEstimate *NutritionEstimate `json:"nutrition_estimate"`
	Lookup            Lookup             `json:"lookup"`
	Flags             Flags              `json:"flags"`
	Confidence        Confidence         `json:"confidence"`
}

// Validate checks the item invariants shared by every parser tier.
func (it Item) Validate() error {
	if it.RawText == "" {
		return fmt.Errorf("raw_text is required")
	}
	if it.Quantity.Value != nil && *it.Quantity.Value <= 0 {
		return fmt.Errorf("quantity.value must be positive, got %v", *it.Quantity.Value)
	}
	return nil
}

type Audit struct {
	InputText     string    `json:"input_text"`
	ParsePath     ParsePath `json:"parse_path"`
	ParserVersion string    `json:"parser_version"`
}

// ParseResult is the output of parsing one meal utterance.
type ParseResult struct {
	MealType    Type               `json:"meal_type"`
	ContextNote *string            `json:"context_note"`
	Items       []Item             `json:"items"`
	Totals      *NutritionEstimate `json:"totals"`
	Confidence  Confidence         `json:"confidence"`
	Audit       Audit              `json:"audit"`
}

// ParseType validates a meal type string.
func ParseType(s string) (Type, bool) {
	switch t := Type(s); t {
	case Breakfast, Lunch, Dinner, Snack, Drink, Unknown:
		return t, true
	}
	return "", false
}

// ParseConfidence validates a confidence string.
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(s); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c, true
	}
	return "", false
}

// ParseSource validates a nutrition source string.
func ParseSource(s string) (Source, bool) {
	switch src := Source(s); src {
	case SourceUSDA, SourceBrand, SourceHeuristic, SourceUser, SourceLLM:
		return src, true
	}
	return "", false
}

// ParseSizeHint validates a size hint string.
func ParseSizeHint(s string) (SizeHint, bool) {
	switch h := SizeHint(s); h {
	case SizeSmall, SizeMedium, SizeLarge:
		return h, true
	}
	return "", false
}

// ParseLookupStatus validates a lookup status string.
func ParseLookupStatus(s string) (LookupStatus, bool) {
	switch st := LookupStatus(s); st {
	case LookupPending, LookupMatched, LookupAmbiguous:
		return st, true
	}
	return "", false
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
