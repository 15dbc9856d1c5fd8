package macros

import (
	"testing"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/units"
	"github.com/stretchr/testify/assert"
)

func qty(v float64, u units.Unit) meal.Quantity {
	q := meal.Quantity{Value: meal.Float(v)}
	if u != "" {
		q.Unit = &u
	}
	return q
}

func TestEstimateDefault(t *testing.T) {
	got := Estimate("mystery casserole", meal.Quantity{})
	assert.Equal(t, 200.0, got.CaloriesKcal)
	assert.Equal(t, 7.0, got.ProteinG)
	assert.Equal(t, 26.0, got.CarbsG)
	assert.Equal(t, 8.0, got.FatG)
	assert.Empty(t, got.Matched)

	got = Estimate("mystery casserole", qty(2, ""))
	assert.Equal(t, 400.0, got.CaloriesKcal)
}

func TestEstimateScaling(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		q        meal.Quantity
		wantKcal float64
	}{
		{"compatible unit divides by base", "lager", qty(16, units.FluidOunce), 200},
		{"oz matches oz_fl", "beer", qty(24, units.Ounce), 300},
		{"count matches piece", "eggs", qty(3, units.Count), 216},
		{"incompatible unit uses raw value", "rice", qty(100, units.Gram), 20600},
		{"missing unit uses raw value", "banana", qty(2, ""), 210},
		{"unknown quantity scales by one", "soft pretzel", meal.Quantity{}, 390},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(tt.text, tt.q)
			assert.Equal(t, tt.wantKcal, got.CaloriesKcal)
		})
	}
}

func TestEstimateFirstMatchWins(t *testing.T) {
	got := Estimate("Large Soft Pretzel", meal.Quantity{})
	assert.Equal(t, "soft pretzel", got.Matched)

	got = Estimate("light beer", meal.Quantity{})
	assert.Equal(t, "light beer", got.Matched)
}

func TestEstimateRoundsToTwoDecimals(t *testing.T) {
	got := Estimate("lager", qty(16, units.FluidOunce))
	// 1.6 * 16/12 = 2.1333...
	assert.Equal(t, 2.13, got.ProteinG)
}

func TestHeuristicEstimate(t *testing.T) {
	e := Heuristic("apple", meal.Quantity{})
	assert.Equal(t, meal.SourceHeuristic, e.Source)
	assert.Equal(t, meal.ConfidenceLow, e.Confidence)
	assert.Equal(t, 95.0, *e.CaloriesKcal)
}

func TestEstimateMatchesWholeWords(t *testing.T) {
	for _, text := range []string{"watermelon", "eggplant parmesan", "glazed doughnuts", "licorice"} {
		t.Run(text, func(t *testing.T) {
			got := Estimate(text, meal.Quantity{})
			assert.Empty(t, got.Matched)
			assert.Equal(t, 200.0, got.CaloriesKcal)
		})
	}

	assert.Equal(t, "egg", Estimate("scrambled eggs", meal.Quantity{}).Matched)
	assert.Equal(t, "sandwich", Estimate("two sandwiches", meal.Quantity{}).Matched)
	assert.Equal(t, "water", Estimate("sparkling water", meal.Quantity{}).Matched)
}
