package ai

import (
	"context"
	"fmt"
	"strings"
)

// Requester adapts a Provider to the text-in/text-out collaborator shape used by
// the meal parser, nutrition lookup and coach responder.
type Requester struct {
	provider Provider
	purpose  Purpose
}

func NewRequester(provider Provider, purpose Purpose) *Requester {
	return &Requester{provider: provider, purpose: purpose}
}

// Request sends one system prompt and one user message and returns the reply text.
func (r *Requester) Request(ctx context.Context, system, user string) (string, error) {
	resp, err := r.provider.Reply(ctx, ReplyRequest{
		Purpose: r.purpose,
		System:  system,
		Messages: []ChatMessage{
			{Role: "user", Content: user},
		},
		JSON: true,
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", r.purpose, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// ExtractJSONObject returns the outermost {...} span of a model reply, dropping
// markdown fences and any prose around it.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in reply")
	}
	return text[start : end+1], nil
}
