package nutrition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fdg312/coach-hub/internal/ai"
	"github.com/fdg312/coach-hub/internal/meal"
)

const lookupInstructions = `You estimate nutrition for food items.
The user message is a JSON object {"context_note": string or null, "items": [{"index": int, "raw_text": string, "name": string, "quantity": {...}}]}.
Reply with exactly one JSON object and nothing else:
{"items": [{"index": int, "calories_kcal": number or null, "protein_g": number or null, "carbs_g": number or null, "fat_g": number or null, "fiber_g": number or null, "confidence": "low|medium|high"}]}
Copy each index from the request. Estimate for the stated quantity, or a typical serving when none is given. Use null for unknown values.`

// Requester is the text-in/text-out collaborator behind LLMLookup.
type Requester interface {
	Request(ctx context.Context, system, user string) (string, error)
}

// LLMLookup asks a language model for estimates of the whole batch at once.
type LLMLookup struct {
	requester Requester
}

func NewLLMLookup(requester Requester) *LLMLookup {
	return &LLMLookup{requester: requester}
}

func (l *LLMLookup) Source() meal.Source {
	return meal.SourceLLM
}

type llmLookupItem struct {
	Index        *int     `json:"index"`
	CaloriesKcal *float64 `json:"calories_kcal"`
	ProteinG     *float64 `json:"protein_g"`
	CarbsG       *float64 `json:"carbs_g"`
	FatG         *float64 `json:"fat_g"`
	FiberG       *float64 `json:"fiber_g"`
	Confidence   string   `json:"confidence"`
}

func (l *LLMLookup) Lookup(ctx context.Context, batch Batch) ([]LookupResult, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lookup batch: %w", err)
	}

	reply, err := l.requester.Request(ctx, lookupInstructions, string(payload))
	if err != nil {
		return nil, err
	}
	return decodeLLMLookup(reply)
}

func decodeLLMLookup(reply string) ([]LookupResult, error) {
	raw, err := ai.ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	var in struct {
		Items []llmLookupItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if in.Items == nil {
		return nil, fmt.Errorf("items missing")
	}

	results := make([]LookupResult, 0, len(in.Items))
	for i, it := range in.Items {
		if it.Index == nil {
			return nil, fmt.Errorf("items[%d]: index missing", i)
		}
		est := &meal.NutritionEstimate{
			CaloriesKcal: it.CaloriesKcal,
			ProteinG:     it.ProteinG,
			CarbsG:       it.CarbsG,
			FatG:         it.FatG,
			FiberG:       it.FiberG,
			Source:       meal.SourceLLM,
			Confidence:   meal.ConfidenceMedium,
		}
		if it.Confidence != "" {
			c, ok := meal.ParseConfidence(it.Confidence)
			if !ok {
				return nil, fmt.Errorf("items[%d]: invalid confidence %q", i, it.Confidence)
			}
			est.Confidence = c
		}
		results = append(results, LookupResult{Index: *it.Index, Estimate: est})
	}
	return results, nil
}
