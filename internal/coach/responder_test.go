package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/coach-hub/internal/ai"
	"github.com/fdg312/coach-hub/internal/intent"
)

type fakeGenerator struct {
	reply    string
	replies  []string
	err      error
	calls    int
	lastUser string
}

func (f *fakeGenerator) Request(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) > 0 {
		r := f.replies[0]
		f.replies = f.replies[1:]
		return r, nil
	}
	return f.reply, nil
}

func TestResponderValidReply(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"message\": \" Great lunch! \", \"insight\": \"Eats lunch late\"}\n```"}
	r := NewResponder(gen)

	reply, ok := r.Reply(context.Background(), Prompt{
		Intent:      intent.LogMeal,
		UserMessage: "had a burrito",
		Facts:       []string{"Projected today: 900 kcal"},
	}, "fallback")

	require.True(t, ok)
	assert.Equal(t, "Great lunch!", reply.Message)
	require.NotNil(t, reply.Insight)
	assert.Equal(t, "Eats lunch late", *reply.Insight)
	assert.Contains(t, gen.lastUser, "Intent: logMeal\n")
	assert.Contains(t, gen.lastUser, "- Projected today: 900 kcal")
}

func TestResponderInsightNone(t *testing.T) {
	r := NewResponder(&fakeGenerator{reply: `{"message":"ok","insight":"None"}`})
	reply, ok := r.Reply(context.Background(), Prompt{Intent: intent.SmallTalk}, "fallback")
	require.True(t, ok)
	assert.Nil(t, reply.Insight)
}

func TestResponderFallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  TextGenerator
	}{
		{"no generator", nil},
		{"request error", &fakeGenerator{err: errors.New("timeout")}},
		{"unsupported", &fakeGenerator{err: ai.ErrUnsupported}},
		{"not json", &fakeGenerator{reply: "Sure! Sounds good."}},
		{"empty message", &fakeGenerator{reply: `{"message":"  ","insight":"x"}`}},
		{"missing message", &fakeGenerator{reply: `{"insight":"x"}`}},
		{"broken json", &fakeGenerator{reply: `{"message": }`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := NewResponder(tt.gen).Reply(context.Background(), Prompt{Intent: intent.LogWorkout}, "template text")
			assert.False(t, ok)
			assert.Equal(t, "template text", reply.Message)
			assert.Nil(t, reply.Insight)
		})
	}
}

func TestResponderWithMockProvider(t *testing.T) {
	r := NewResponder(ai.NewRequester(ai.NewMockProvider(), ai.PurposeCoachReply))

	reply, ok := r.Reply(context.Background(), Prompt{Intent: intent.LogWorkout, UserMessage: "ran 5k"}, "fallback")
	require.True(t, ok)
	assert.Contains(t, reply.Message, "Nice work")
	require.NotNil(t, reply.Insight)

	reply, ok = r.Reply(context.Background(), Prompt{Intent: intent.StatusUpdate}, "fallback")
	require.True(t, ok)
	assert.Nil(t, reply.Insight)
}
