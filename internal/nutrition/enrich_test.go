package nutrition

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	results []LookupResult
	err     error
	source  meal.Source
	batches []Batch
}

func (f *fakeLookup) Lookup(ctx context.Context, batch Batch) ([]LookupResult, error) {
	f.batches = append(f.batches, batch)
	return f.results, f.err
}

func (f *fakeLookup) Source() meal.Source {
	if f.source == "" {
		return meal.SourceLLM
	}
	return f.source
}

func estimated(name string, kcal float64) meal.Item {
	return meal.Item{
		RawText: name,
		Name:    name,
		NutritionEstimate: &meal.NutritionEstimate{
			CaloriesKcal: meal.Float(kcal),
			Source:       meal.SourceLLM,
			Confidence:   meal.ConfidenceMedium,
		},
		Lookup: meal.Lookup{Status: meal.LookupMatched},
	}
}

func bare(name string) meal.Item {
	return meal.Item{
		RawText: name,
		Name:    name,
		Lookup:  meal.Lookup{Status: meal.LookupPending},
		Flags:   meal.Flags{NeedsLookup: true},
	}
}

func TestEnrichWithoutLookupUsesHeuristic(t *testing.T) {
	items := []meal.Item{bare("banana"), estimated("toast", 80)}

	out := NewEnricher(nil).Enrich(context.Background(), items, nil)

	assert.Equal(t, meal.ConfidenceLow, out.Confidence)
	assert.Equal(t, meal.SourceHeuristic, out.Source)
	require.Len(t, out.Items, 2)

	require.NotNil(t, out.Items[0].NutritionEstimate)
	assert.Equal(t, 105.0, *out.Items[0].NutritionEstimate.CaloriesKcal)
	assert.Equal(t, meal.SourceHeuristic, out.Items[0].NutritionEstimate.Source)

	assert.Equal(t, 80.0, *out.Items[1].NutritionEstimate.CaloriesKcal)
	assert.Nil(t, items[0].NutritionEstimate, "input must not be modified")
}

func TestEnrichSkipsLookupWhenEverythingEstimated(t *testing.T) {
	lookup := &fakeLookup{}
	items := []meal.Item{estimated("toast", 80), estimated("egg", 72)}

	out := NewEnricher(lookup).Enrich(context.Background(), items, nil)

	assert.Empty(t, lookup.batches)
	assert.Equal(t, meal.ConfidenceHigh, out.Confidence)
	assert.Equal(t, meal.SourceUSDA, out.Source)
	assert.Equal(t, items, out.Items)
}

func TestEnrichMergesByIndex(t *testing.T) {
	partial := bare("rice")
	partial.NutritionEstimate = &meal.NutritionEstimate{
		CaloriesKcal: meal.Float(100),
		FiberG:       meal.Float(1),
		Source:       meal.SourceHeuristic,
		Confidence:   meal.ConfidenceLow,
	}
	cup := units.Cup
	partial.Quantity = meal.Quantity{Value: meal.Float(0.5), Unit: &cup}

	lookup := &fakeLookup{results: []LookupResult{
		{Index: 2, Estimate: &meal.NutritionEstimate{CaloriesKcal: meal.Float(60)}},
		{Index: 1, Estimate: &meal.NutritionEstimate{CaloriesKcal: meal.Float(103), ProteinG: meal.Float(2.1)}},
	}}
	note := "after the gym"
	items := []meal.Item{estimated("toast", 80), partial, bare("miso soup")}

	out := NewEnricher(lookup).Enrich(context.Background(), items, &note)

	require.Len(t, lookup.batches, 1)
	batch := lookup.batches[0]
	require.NotNil(t, batch.ContextNote)
	assert.Equal(t, note, *batch.ContextNote)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, 1, batch.Items[0].Index)
	assert.Equal(t, "rice", batch.Items[0].Name)
	assert.Equal(t, 0.5, *batch.Items[0].Quantity.Value)
	assert.Equal(t, 2, batch.Items[1].Index)

	assert.Equal(t, meal.ConfidenceMedium, out.Confidence)
	assert.Equal(t, meal.SourceLLM, out.Source)

	rice := out.Items[1]
	assert.Equal(t, 103.0, *rice.NutritionEstimate.CaloriesKcal)
	assert.Equal(t, 2.1, *rice.NutritionEstimate.ProteinG)
	assert.Equal(t, 1.0, *rice.NutritionEstimate.FiberG, "existing field kept when lookup has none")
	assert.Equal(t, meal.SourceLLM, rice.NutritionEstimate.Source)
	assert.Equal(t, meal.LookupMatched, rice.Lookup.Status)
	assert.False(t, rice.Flags.NeedsLookup)

	soup := out.Items[2]
	assert.Equal(t, 60.0, *soup.NutritionEstimate.CaloriesKcal)
	assert.Equal(t, meal.LookupMatched, soup.Lookup.Status)

	assert.True(t, items[1].Flags.NeedsLookup, "input must not be modified")
}

func TestEnrichUncoveredItemsGetHeuristic(t *testing.T) {
	lookup := &fakeLookup{
		source: meal.SourceUSDA,
		results: []LookupResult{
			{Index: 0, Estimate: &meal.NutritionEstimate{CaloriesKcal: meal.Float(95)}},
		},
	}
	items := []meal.Item{bare("apple"), bare("bagel")}

	out := NewEnricher(lookup).Enrich(context.Background(), items, nil)

	assert.Equal(t, meal.ConfidenceMedium, out.Confidence)
	assert.Equal(t, meal.SourceUSDA, out.Source)
	assert.Equal(t, meal.SourceUSDA, out.Items[0].NutritionEstimate.Source)

	bagel := out.Items[1]
	require.NotNil(t, bagel.NutritionEstimate)
	assert.Equal(t, meal.SourceHeuristic, bagel.NutritionEstimate.Source)
	assert.Equal(t, 270.0, *bagel.NutritionEstimate.CaloriesKcal)
	assert.Equal(t, meal.LookupPending, bagel.Lookup.Status)
}

func TestEnrichFallsBackOnBadLookup(t *testing.T) {
	kcal := func(v float64) *meal.NutritionEstimate {
		return &meal.NutritionEstimate{CaloriesKcal: meal.Float(v)}
	}

	tests := []struct {
		name    string
		results []LookupResult
		err     error
	}{
		{name: "transport error", err: errors.New("connection reset")},
		{name: "index out of range", results: []LookupResult{{Index: 7, Estimate: kcal(10)}}},
		{name: "index not requested", results: []LookupResult{{Index: 0, Estimate: kcal(10)}}},
		{name: "duplicate index", results: []LookupResult{{Index: 1, Estimate: kcal(10)}, {Index: 1, Estimate: kcal(20)}}},
		{name: "negative value", results: []LookupResult{{Index: 1, Estimate: &meal.NutritionEstimate{FatG: meal.Float(-1)}}}},
		{name: "missing estimate", results: []LookupResult{{Index: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{results: tt.results, err: tt.err}
			items := []meal.Item{estimated("toast", 80), bare("banana"), bare("egg")}

			out := NewEnricher(lookup).Enrich(context.Background(), items, nil)

			assert.Len(t, lookup.batches, 1)
			assert.Equal(t, meal.ConfidenceLow, out.Confidence)
			assert.Equal(t, meal.SourceHeuristic, out.Source)
			assert.Equal(t, 80.0, *out.Items[0].NutritionEstimate.CaloriesKcal)
			assert.Equal(t, 105.0, *out.Items[1].NutritionEstimate.CaloriesKcal)
			assert.Equal(t, 72.0, *out.Items[2].NutritionEstimate.CaloriesKcal)
			assert.Equal(t, meal.SourceHeuristic, out.Items[2].NutritionEstimate.Source)
		})
	}
}

func TestDecodeLLMLookup(t *testing.T) {
	reply := "```json\n{\"items\":[{\"index\":0,\"calories_kcal\":210,\"protein_g\":4,\"confidence\":\"high\"},{\"index\":2,\"fat_g\":null}]}\n```"

	results, err := decodeLLMLookup(reply)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 210.0, *results[0].Estimate.CaloriesKcal)
	assert.Equal(t, meal.ConfidenceHigh, results[0].Estimate.Confidence)
	assert.Equal(t, meal.SourceLLM, results[0].Estimate.Source)

	assert.Equal(t, 2, results[1].Index)
	assert.Nil(t, results[1].Estimate.FatG)
	assert.Equal(t, meal.ConfidenceMedium, results[1].Estimate.Confidence)
}

func TestDecodeLLMLookupRejectsBadShape(t *testing.T) {
	for name, reply := range map[string]string{
		"no json":        "sorry, I can't help",
		"no items":       `{"foods":[]}`,
		"missing index":  `{"items":[{"calories_kcal":5}]}`,
		"bad confidence": `{"items":[{"index":0,"confidence":"certain"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeLLMLookup(reply)
			assert.Error(t, err)
		})
	}
}

type fakeRequester struct {
	reply  string
	system string
	user   string
}

func (f *fakeRequester) Request(ctx context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, nil
}

func TestLLMLookupThroughEnricher(t *testing.T) {
	req := &fakeRequester{reply: `{"items":[{"index":0,"calories_kcal":330,"protein_g":20,"carbs_g":30,"fat_g":12}]}`}
	out := NewEnricher(NewLLMLookup(req)).Enrich(context.Background(), []meal.Item{bare("poke bowl")}, nil)

	assert.Contains(t, req.user, `"name":"poke bowl"`)
	assert.Equal(t, lookupInstructions, req.system)
	assert.Equal(t, meal.SourceLLM, out.Source)
	assert.Equal(t, 330.0, *out.Items[0].NutritionEstimate.CaloriesKcal)
	assert.False(t, out.Items[0].Flags.NeedsLookup)
}
