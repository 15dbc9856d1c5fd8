package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fdg312/coach-hub/internal/ai"
	"github.com/fdg312/coach-hub/internal/intent"
)

// TextGenerator produces coaching text. ai.Requester satisfies it.
type TextGenerator interface {
	Request(ctx context.Context, system, user string) (string, error)
}

const coachInstructions = `You are a friendly, concise nutrition and fitness coach inside a logging app.
Reply with a single JSON object and nothing else:
{"message": "<1-3 sentences to the user>", "insight": "<one durable observation about the user's habits, or none>"}
Use only the facts provided. Never invent numbers. Do not give medical advice.`

// Prompt is the input of one coaching call.
type Prompt struct {
	Intent      intent.Kind
	UserMessage string
	Facts       []string
	History     []string
}

// Reply is a validated coaching answer.
type Reply struct {
	Message string
	Insight *string
}

type Responder struct {
	gen TextGenerator
}

// NewResponder returns a responder. A nil generator always uses the fallback.
func NewResponder(gen TextGenerator) *Responder {
	return &Responder{gen: gen}
}

// Reply asks the generator for a coaching reply. On any failure it returns the
// fallback message and reports false.
func (r *Responder) Reply(ctx context.Context, p Prompt, fallback string) (Reply, bool) {
	if r == nil || r.gen == nil {
		return Reply{Message: fallback}, false
	}

	text, err := r.gen.Request(ctx, coachInstructions, renderPrompt(p))
	if err != nil {
		if !errors.Is(err, ai.ErrUnsupported) {
			log.Printf("WARN coach: coaching request failed, using template: %v", err)
		}
		return Reply{Message: fallback}, false
	}

	reply, err := decodeReply(text)
	if err != nil {
		log.Printf("WARN coach: coaching reply rejected, using template: %v", err)
		return Reply{Message: fallback}, false
	}
	return reply, true
}

func renderPrompt(p Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n", p.Intent)
	fmt.Fprintf(&b, "User message: %s\n", p.UserMessage)
	if len(p.Facts) > 0 {
		b.WriteString("Facts:\n")
		for _, f := range p.Facts {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(p.History) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, h := range p.History {
			fmt.Fprintf(&b, "%s\n", h)
		}
	}
	return b.String()
}

type replyPayload struct {
	Message *string `json:"message"`
	Insight *string `json:"insight"`
}

func decodeReply(text string) (Reply, error) {
	raw, err := ai.ExtractJSONObject(text)
	if err != nil {
		return Reply{}, err
	}

	var payload replyPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if payload.Message == nil || strings.TrimSpace(*payload.Message) == "" {
		return Reply{}, fmt.Errorf("reply has no message")
	}

	reply := Reply{Message: strings.TrimSpace(*payload.Message)}
	if payload.Insight != nil {
		insight := strings.TrimSpace(*payload.Insight)
		if insight != "" && !strings.EqualFold(insight, "none") {
			reply.Insight = &insight
		}
	}
	return reply, nil
}
