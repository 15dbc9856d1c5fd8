package ai

import (
	"context"
	"encoding/json"
	"strings"
)

// MockProvider answers coach replies deterministically and refuses structured
// extraction so the heuristic tiers run in local mode.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Reply(ctx context.Context, req ReplyRequest) (ReplyResponse, error) {
	_ = ctx

	if req.Purpose != PurposeCoachReply {
		return ReplyResponse{}, ErrUnsupported
	}

	lastUserMessage := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}
	lowered := strings.ToLower(lastUserMessage)

	message := "Thanks for the update. Keep going, small steps add up."
	insight := "none"
	switch {
	case strings.Contains(lowered, "intent: logmeal"):
		message = "Logged it as a draft. Review the items and confirm when they look right."
		insight = "Logs meals with drinks; may want a running tally of alcohol calories."
	case strings.Contains(lowered, "intent: logworkout"):
		message = "Nice work getting that session in. It counts toward this week's plan."
		insight = "Stays consistent with workouts when logging right after training."
	case strings.Contains(lowered, "intent: statusupdate"):
		message = "Thanks for checking in. Listen to your body today and keep things manageable."
	case strings.Contains(lowered, "intent: smalltalk"):
		message = "Hey! Tell me what you ate or how you moved today and I will keep track."
	}

	body, err := json.Marshal(map[string]string{
		"message": message,
		"insight": insight,
	})
	if err != nil {
		return ReplyResponse{}, err
	}
	return ReplyResponse{Text: string(body)}, nil
}
