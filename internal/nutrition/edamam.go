package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/units"
)

// EdamamLookup resolves items one by one against the Edamam nutrition-data API.
type EdamamLookup struct {
	appID, appKey string
	baseURL       string
	client        *http.Client
}

func NewEdamamLookup(appID, appKey, baseURL string) *EdamamLookup {
	if baseURL == "" {
		baseURL = "https://api.edamam.com"
	}
	return &EdamamLookup{
		appID:   appID,
		appKey:  appKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (e *EdamamLookup) Source() meal.Source {
	return meal.SourceUSDA
}

type nutritionDataResponse struct {
	Calories       float64 `json:"calories"`
	TotalNutrients map[string]struct {
		Quantity float64 `json:"quantity"`
	} `json:"totalNutrients"`
}

// Lookup fails the whole batch on the first item error.
func (e *EdamamLookup) Lookup(ctx context.Context, batch Batch) ([]LookupResult, error) {
	results := make([]LookupResult, 0, len(batch.Items))
	for _, req := range batch.Items {
		est, err := e.analyze(ctx, ingredientLine(req))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", req.Index, err)
		}
		results = append(results, LookupResult{Index: req.Index, Estimate: est})
	}
	return results, nil
}

func (e *EdamamLookup) analyze(ctx context.Context, ingr string) (*meal.NutritionEstimate, error) {
	u := fmt.Sprintf(
		"%s/api/nutrition-data?app_id=%s&app_key=%s&nutrition-type=logging&ingr=%s",
		e.baseURL, url.QueryEscape(e.appID), url.QueryEscape(e.appKey), url.QueryEscape(ingr),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create edamam request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call edamam nutrition-data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read edamam response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edamam nutrition-data API error %d: %s", resp.StatusCode, string(body))
	}

	var nr nutritionDataResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, fmt.Errorf("failed to parse edamam JSON: %w", err)
	}
	if len(nr.TotalNutrients) == 0 {
		return nil, fmt.Errorf("edamam could not analyze %q", ingr)
	}

	est := &meal.NutritionEstimate{
		Source:     meal.SourceUSDA,
		Confidence: meal.ConfidenceHigh,
	}
	if n, ok := nr.TotalNutrients["ENERC_KCAL"]; ok {
		est.CaloriesKcal = meal.Float(meal.Round2(n.Quantity))
	} else if nr.Calories > 0 {
		est.CaloriesKcal = meal.Float(meal.Round2(nr.Calories))
	}
	if n, ok := nr.TotalNutrients["PROCNT"]; ok {
		est.ProteinG = meal.Float(meal.Round2(n.Quantity))
	}
	if n, ok := nr.TotalNutrients["CHOCDF"]; ok {
		est.CarbsG = meal.Float(meal.Round2(n.Quantity))
	}
	if n, ok := nr.TotalNutrients["FAT"]; ok {
		est.FatG = meal.Float(meal.Round2(n.Quantity))
	}
	if n, ok := nr.TotalNutrients["FIBTG"]; ok {
		est.FiberG = meal.Float(meal.Round2(n.Quantity))
	}
	return est, nil
}

// ingredientLine renders "2 cup rice" style text for the analysis endpoint.
func ingredientLine(req LookupRequest) string {
	name := req.Name
	if name == "" {
		name = req.RawText
	}
	q := req.Quantity
	if q.Value == nil {
		if req.RawText != "" {
			return req.RawText
		}
		return name
	}

	parts := []string{strconv.FormatFloat(*q.Value, 'f', -1, 64)}
	if q.Unit != nil && *q.Unit != units.Other {
		parts = append(parts, edamamUnit(*q.Unit))
	}
	parts = append(parts, name)
	return strings.Join(parts, " ")
}

func edamamUnit(u units.Unit) string {
	switch u {
	case units.FluidOunce:
		return "fl oz"
	case units.Count:
		return "piece"
	}
	return string(u)
}
