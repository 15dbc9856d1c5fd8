package meal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEstimateKeepsExistingFields(t *testing.T) {
	existing := &NutritionEstimate{ProteinG: Float(20), Source: SourceHeuristic, Confidence: ConfidenceLow}
	incoming := &NutritionEstimate{CaloriesKcal: Float(300), Source: SourceLLM}

	got := MergeEstimate(existing, incoming)
	require.NotNil(t, got)
	require.NotNil(t, got.CaloriesKcal)
	require.NotNil(t, got.ProteinG)
	assert.Equal(t, 300.0, *got.CaloriesKcal)
	assert.Equal(t, 20.0, *got.ProteinG)
	assert.Nil(t, got.FiberG)
	assert.Equal(t, SourceLLM, got.Source)
	assert.Equal(t, ConfidenceLow, got.Confidence)

	// inputs stay untouched
	assert.Nil(t, existing.CaloriesKcal)
	assert.Nil(t, incoming.ProteinG)
}

func TestMergeEstimateNilSides(t *testing.T) {
	assert.Nil(t, MergeEstimate(nil, nil))

	only := &NutritionEstimate{FatG: Float(4)}
	got := MergeEstimate(nil, only)
	require.NotNil(t, got)
	assert.Equal(t, 4.0, *got.FatG)

	got = MergeEstimate(only, nil)
	require.NotNil(t, got)
	assert.Equal(t, 4.0, *got.FatG)
}

func TestSumTotals(t *testing.T) {
	t.Run("no numbers gives nil", func(t *testing.T) {
		items := []Item{{RawText: "a"}, {RawText: "b", NutritionEstimate: &NutritionEstimate{Source: SourceLLM}}}
		assert.Nil(t, SumTotals(items))
	})

	t.Run("sums present fields only", func(t *testing.T) {
		items := []Item{
			{RawText: "a", NutritionEstimate: &NutritionEstimate{CaloriesKcal: Float(100.5), ProteinG: Float(3)}},
			{RawText: "b", NutritionEstimate: &NutritionEstimate{CaloriesKcal: Float(50.25)}},
			{RawText: "c"},
		}
		got := SumTotals(items)
		require.NotNil(t, got)
		assert.Equal(t, 150.75, *got.CaloriesKcal)
		assert.Equal(t, 3.0, *got.ProteinG)
		assert.Nil(t, got.FatG)
	})
}

func TestInferConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, InferConfidence(nil))
	assert.Equal(t, ConfidenceMedium, InferConfidence([]Item{{RawText: "x", Flags: Flags{NeedsLookup: true}}}))
}

func TestItemValidate(t *testing.T) {
	assert.Error(t, Item{}.Validate())
	assert.Error(t, Item{RawText: "x", Quantity: Quantity{Value: Float(0)}}.Validate())
	assert.NoError(t, Item{RawText: "x", Quantity: Quantity{Value: Float(0.5)}}.Validate())
}
