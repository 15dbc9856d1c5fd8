package nutrition

import (
	"log"

	"github.com/fdg312/coach-hub/internal/ai"
	"github.com/fdg312/coach-hub/internal/config"
)

// NewLookup picks the lookup for NUTRITION_LOOKUP_MODE. It returns nil when
// nothing usable is configured, which leaves enrichment on the heuristic path.
func NewLookup(cfg *config.Config, provider ai.Provider) Lookup {
	remote := ai.IsRemote(provider)

	switch cfg.NutritionLookupMode {
	case config.LookupModeNone:
		return nil
	case config.LookupModeEdamam:
		if !cfg.Edamam.IsConfigured() {
			log.Printf("WARN nutrition: NUTRITION_LOOKUP_MODE=edamam but EDAMAM_APP_ID/EDAMAM_APP_KEY not set, lookup disabled")
			return nil
		}
		return NewEdamamLookup(cfg.Edamam.AppID, cfg.Edamam.AppKey, cfg.Edamam.BaseURL)
	case config.LookupModeLLM:
		if !remote {
			log.Printf("WARN nutrition: NUTRITION_LOOKUP_MODE=llm needs AI_MODE=openai|bedrock, lookup disabled")
			return nil
		}
		return NewLLMLookup(ai.NewRequester(provider, ai.PurposeNutritionLookup))
	default:
		if cfg.Edamam.IsConfigured() {
			return NewEdamamLookup(cfg.Edamam.AppID, cfg.Edamam.AppKey, cfg.Edamam.BaseURL)
		}
		if remote {
			return NewLLMLookup(ai.NewRequester(provider, ai.PurposeNutritionLookup))
		}
		return nil
	}
}
