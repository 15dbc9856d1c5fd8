package ai

import (
	"context"
	"log"
	"strings"

	"github.com/fdg312/coach-hub/internal/config"
)

const (
	ModeMock    = config.AIModeMock
	ModeOpenAI  = config.AIModeOpenAI
	ModeBedrock = config.AIModeBedrock
)

func NewProvider(ctx context.Context, cfg *config.Config) Provider {
	mode := strings.ToLower(strings.TrimSpace(cfg.AIMode))
	if mode == "" {
		mode = ModeMock
	}

	switch mode {
	case ModeOpenAI:
		return NewOpenAIProvider(cfg)
	case ModeBedrock:
		p, err := NewBedrockProviderFromConfig(ctx, cfg)
		if err != nil {
			log.Printf("WARN ai: bedrock unavailable, fallback to mock: %v", err)
			return NewMockProvider()
		}
		return p
	default:
		return NewMockProvider()
	}
}

// IsRemote reports whether the provider can handle structured extraction.
func IsRemote(p Provider) bool {
	_, mock := p.(*MockProvider)
	return p != nil && !mock
}
