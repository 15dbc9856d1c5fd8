package ai

import (
	"context"
	"errors"
	"time"
)

// Purpose tags a request so providers and logs can tell the pipelines apart.
type Purpose string

const (
	PurposeMealParse       Purpose = "meal_parse"
	PurposeNutritionLookup Purpose = "nutrition_lookup"
	PurposeCoachReply      Purpose = "coach_reply"
)

var (
	ErrEmptyReply  = errors.New("ai: empty reply")
	ErrUnsupported = errors.New("ai: purpose not supported by provider")
)

type Provider interface {
	Reply(ctx context.Context, req ReplyRequest) (ReplyResponse, error)
}

type ChatMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

type ReplyRequest struct {
	Purpose  Purpose
	System   string
	Messages []ChatMessage
	// JSON asks the provider for a single JSON object when it supports that.
	JSON bool
}

type ReplyResponse struct {
	Text string
}
