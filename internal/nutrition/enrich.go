package nutrition

import (
	"context"
	"fmt"
	"log"

	"github.com/fdg312/coach-hub/internal/macros"
	"github.com/fdg312/coach-hub/internal/meal"
)

// LookupRequest describes one item that still needs nutrition data. Index is
// the item's position in the full list handed to Enrich.
type LookupRequest struct {
	Index    int           `json:"index"`
	RawText  string        `json:"raw_text"`
	Name     string        `json:"name"`
	Quantity meal.Quantity `json:"quantity"`
}

type Batch struct {
	ContextNote *string         `json:"context_note,omitempty"`
	Items       []LookupRequest `json:"items"`
}

type LookupResult struct {
	Index    int                     `json:"index"`
	Estimate *meal.NutritionEstimate `json:"estimate"`
}

// Lookup is the remote nutrition collaborator.
type Lookup interface {
	Lookup(ctx context.Context, batch Batch) ([]LookupResult, error)
	// Source tags the estimates this lookup produces.
	Source() meal.Source
}

type Enrichment struct {
	Items      []meal.Item     `json:"items"`
	Confidence meal.Confidence `json:"confidence"`
	Source     meal.Source     `json:"source"`
}

type Enricher struct {
	lookup Lookup
}

// NewEnricher returns an enricher. A nil lookup leaves only the heuristic path.
func NewEnricher(lookup Lookup) *Enricher {
	return &Enricher{lookup: lookup}
}

// HasLookup reports whether a remote lookup is configured.
func (e *Enricher) HasLookup() bool {
	return e.lookup != nil
}

// Enrich fills in nutrition for items that lack it. The input slice is not
// modified.
//
// An item lacks nutrition when it has no estimate or still carries the
// needs_lookup flag (a provisional heuristic estimate). Remote results are
// merged field by field over whatever the item already had. Any lookup error
// sends the whole batch down the heuristic path, since index correlation
// cannot be trusted after a partial response.
func (e *Enricher) Enrich(ctx context.Context, items []meal.Item, contextNote *string) Enrichment {
	out := make([]meal.Item, len(items))
	copy(out, items)

	var pending []int
	for i, it := range out {
		if needsEnrichment(it) {
			pending = append(pending, i)
		}
	}

	if e.lookup == nil {
		fillHeuristic(out, pending)
		return Enrichment{Items: out, Confidence: meal.ConfidenceLow, Source: meal.SourceHeuristic}
	}

	if len(pending) == 0 {
		return Enrichment{Items: out, Confidence: meal.ConfidenceHigh, Source: meal.SourceUSDA}
	}

	batch := Batch{ContextNote: contextNote, Items: make([]LookupRequest, 0, len(pending))}
	for _, i := range pending {
		batch.Items = append(batch.Items, LookupRequest{
			Index:    i,
			RawText:  out[i].RawText,
			Name:     out[i].Name,
			Quantity: out[i].Quantity,
		})
	}

	results, err := e.lookup.Lookup(ctx, batch)
	if err == nil {
		err = validateResults(results, pending)
	}
	if err != nil {
		log.Printf("WARN nutrition: lookup failed, using heuristic for %d item(s): %v", len(pending), err)
		fillHeuristic(out, pending)
		return Enrichment{Items: out, Confidence: meal.ConfidenceLow, Source: meal.SourceHeuristic}
	}

	source := e.lookup.Source()
	covered := make(map[int]bool, len(results))
	for _, r := range results {
		incoming := *r.Estimate
		if incoming.Source == "" {
			incoming.Source = source
		}
		if incoming.Confidence == "" {
			incoming.Confidence = meal.ConfidenceMedium
		}

		item := &out[r.Index]
		item.NutritionEstimate = meal.MergeEstimate(item.NutritionEstimate, &incoming)
		item.Lookup.Status = meal.LookupMatched
		item.Flags.NeedsLookup = false
		covered[r.Index] = true
	}

	var uncovered []int
	for _, i := range pending {
		if !covered[i] {
			uncovered = append(uncovered, i)
		}
	}
	fillHeuristic(out, uncovered)

	return Enrichment{Items: out, Confidence: meal.ConfidenceMedium, Source: source}
}

func needsEnrichment(it meal.Item) bool {
	return it.Flags.NeedsLookup || !it.NutritionEstimate.HasNumbers()
}

// fillHeuristic gives an estimate to items that have none. Items already
// carrying numbers are left as they are.
func fillHeuristic(items []meal.Item, indices []int) {
	for _, i := range indices {
		if items[i].NutritionEstimate.HasNumbers() {
			continue
		}
		name := items[i].Name
		if name == "" {
			name = items[i].RawText
		}
		items[i].NutritionEstimate = macros.Heuristic(name, items[i].Quantity)
	}
}

func validateResults(results []LookupResult, pending []int) error {
	allowed := make(map[int]bool, len(pending))
	for _, i := range pending {
		allowed[i] = true
	}

	seen := make(map[int]bool, len(results))
	for _, r := range results {
		if !allowed[r.Index] {
			return fmt.Errorf("result index %d was not requested", r.Index)
		}
		if seen[r.Index] {
			return fmt.Errorf("duplicate result index %d", r.Index)
		}
		seen[r.Index] = true

		if r.Estimate == nil {
			return fmt.Errorf("result %d has no estimate", r.Index)
		}
		if err := checkNonNegative(r.Estimate); err != nil {
			return fmt.Errorf("result %d: %w", r.Index, err)
		}
	}
	return nil
}

func checkNonNegative(e *meal.NutritionEstimate) error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"calories_kcal", e.CaloriesKcal},
		{"protein_g", e.ProteinG},
		{"carbs_g", e.CarbsG},
		{"fat_g", e.FatG},
		{"fiber_g", e.FiberG},
	}
	for _, f := range fields {
		if f.v != nil && *f.v < 0 {
			return fmt.Errorf("%s must not be negative", f.name)
		}
	}
	return nil
}
