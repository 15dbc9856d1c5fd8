package nutrition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdamamLookup(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/nutrition-data", r.URL.Path)
		assert.Equal(t, "id-1", r.URL.Query().Get("app_id"))
		assert.Equal(t, "key-1", r.URL.Query().Get("app_key"))
		seen = append(seen, r.URL.Query().Get("ingr"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"calories":206,"totalNutrients":{
			"ENERC_KCAL":{"label":"Energy","quantity":205.4,"unit":"kcal"},
			"PROCNT":{"label":"Protein","quantity":4.25,"unit":"g"},
			"CHOCDF":{"label":"Carbs","quantity":44.5,"unit":"g"},
			"FAT":{"label":"Fat","quantity":0.44,"unit":"g"}
		}}`))
	}))
	defer srv.Close()

	cup := units.Cup
	lookup := NewEdamamLookup("id-1", "key-1", srv.URL+"/")
	results, err := lookup.Lookup(context.Background(), Batch{Items: []LookupRequest{
		{Index: 3, RawText: "a cup of rice", Name: "rice", Quantity: meal.Quantity{Value: meal.Float(1), Unit: &cup}},
		{Index: 5, RawText: "some rice"},
	}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"1 cup rice", "some rice"}, seen)
	assert.Equal(t, 3, results[0].Index)
	est := results[0].Estimate
	assert.Equal(t, 205.4, *est.CaloriesKcal)
	assert.Equal(t, 4.25, *est.ProteinG)
	assert.Equal(t, 44.5, *est.CarbsG)
	assert.Equal(t, 0.44, *est.FatG)
	assert.Nil(t, est.FiberG)
	assert.Equal(t, meal.SourceUSDA, est.Source)
	assert.Equal(t, meal.SourceUSDA, lookup.Source())
}

func TestEdamamLookupFailsBatchOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ingr") == "mystery" {
			http.Error(w, `{"error":"low_quality"}`, http.StatusUnprocessableEntity)
			return
		}
		w.Write([]byte(`{"totalNutrients":{"ENERC_KCAL":{"quantity":95}}}`))
	}))
	defer srv.Close()

	lookup := NewEdamamLookup("id", "key", srv.URL)
	_, err := lookup.Lookup(context.Background(), Batch{Items: []LookupRequest{
		{Index: 0, Name: "apple"},
		{Index: 1, Name: "mystery"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	out := NewEnricher(lookup).Enrich(context.Background(), []meal.Item{bare("apple"), bare("mystery")}, nil)
	assert.Equal(t, meal.SourceHeuristic, out.Source)
	assert.Equal(t, meal.ConfidenceLow, out.Confidence)
}

func TestEdamamLookupEmptyAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"calories":0,"totalNutrients":{}}`))
	}))
	defer srv.Close()

	_, err := NewEdamamLookup("id", "key", srv.URL).Lookup(context.Background(), Batch{Items: []LookupRequest{{Index: 0, Name: "xyz"}}})
	assert.Error(t, err)
}

func TestIngredientLine(t *testing.T) {
	floz := units.FluidOunce
	other := units.Other

	tests := []struct {
		name string
		req  LookupRequest
		want string
	}{
		{"fluid ounces", LookupRequest{Name: "lager", Quantity: meal.Quantity{Value: meal.Float(16), Unit: &floz}}, "16 fl oz lager"},
		{"unitless", LookupRequest{Name: "pretzels", Quantity: meal.Quantity{Value: meal.Float(3)}}, "3 pretzels"},
		{"other unit dropped", LookupRequest{Name: "dumplings", Quantity: meal.Quantity{Value: meal.Float(2.5), Unit: &other}}, "2.5 dumplings"},
		{"no quantity uses raw text", LookupRequest{RawText: "a large soft pretzel", Name: "soft pretzel"}, "a large soft pretzel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ingredientLine(tt.req))
		})
	}
}
