package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/coach-hub/internal/config"
)

type stubProvider struct {
	got  ReplyRequest
	text string
	err  error
}

func (s *stubProvider) Reply(ctx context.Context, req ReplyRequest) (ReplyResponse, error) {
	s.got = req
	return ReplyResponse{Text: s.text}, s.err
}

func TestRequester(t *testing.T) {
	t.Run("passes purpose and prompts", func(t *testing.T) {
		p := &stubProvider{text: "  {\"ok\":true} "}
		out, err := NewRequester(p, PurposeMealParse).Request(context.Background(), "sys", "user text")
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, out)
		assert.Equal(t, PurposeMealParse, p.got.Purpose)
		assert.Equal(t, "sys", p.got.System)
		require.Len(t, p.got.Messages, 1)
		assert.Equal(t, "user text", p.got.Messages[0].Content)
		assert.True(t, p.got.JSON)
	})

	t.Run("empty reply is an error", func(t *testing.T) {
		_, err := NewRequester(&stubProvider{text: "   "}, PurposeCoachReply).Request(context.Background(), "s", "u")
		assert.ErrorIs(t, err, ErrEmptyReply)
	})

	t.Run("provider error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewRequester(&stubProvider{err: boom}, PurposeCoachReply).Request(context.Background(), "s", "u")
		assert.ErrorIs(t, err, boom)
	})
}

func TestExtractJSONObject(t *testing.T) {
	got, err := ExtractJSONObject("```json\n{\"a\":{\"b\":1}}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":1}}`, got)

	_, err = ExtractJSONObject("no json here")
	assert.Error(t, err)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()

	_, err := p.Reply(context.Background(), ReplyRequest{Purpose: PurposeMealParse})
	assert.ErrorIs(t, err, ErrUnsupported)

	resp, err := p.Reply(context.Background(), ReplyRequest{
		Purpose:  PurposeCoachReply,
		Messages: []ChatMessage{{Role: "user", Content: "Intent: logMeal\nItems: pretzel"}},
	})
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &body))
	assert.NotEmpty(t, body["message"])
	assert.NotEqual(t, "none", body["insight"])
}

func TestOpenAIProvider(t *testing.T) {
	var captured chatCompletionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"message\":\"hi\"} "}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&config.Config{
		OpenAIAPIKey:      "test-key",
		OpenAIModel:       "gpt-test",
		OpenAIBaseURL:     srv.URL,
		AIMaxOutputTokens: 100,
	})

	resp, err := p.Reply(context.Background(), ReplyRequest{
		System:   "be brief",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
		JSON:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"message":"hi"}`, resp.Text)
	assert.Equal(t, "gpt-test", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestOpenAIProviderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&config.Config{OpenAIBaseURL: srv.URL})
	_, err := p.Reply(context.Background(), ReplyRequest{Messages: []ChatMessage{{Role: "user", Content: "x"}}})
	assert.Error(t, err)
}

type mockBedrockClient struct {
	input    *bedrockruntime.ConverseInput
	response *bedrockruntime.ConverseOutput
	err      error
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func TestNewBedrockProviderDefaults(t *testing.T) {
	p := NewBedrockProvider(&mockBedrockClient{}, BedrockOptions{ModelID: "m"})
	assert.Equal(t, BedrockOptions{
		ModelID:     "m",
		MaxTokens:   defaultBedrockMaxTokens,
		Temperature: defaultBedrockTemperature,
		TopP:        defaultBedrockTopP,
	}, p.opts)
}

func TestBedrockProviderReply(t *testing.T) {
	tests := []struct {
		name    string
		output  *bedrockruntime.ConverseOutput
		err     error
		want    string
		wantErr bool
	}{
		{
			name: "text blocks are joined",
			output: &bedrockruntime.ConverseOutput{
				StopReason: types.StopReasonEndTurn,
				Output: &types.ConverseOutputMemberMessage{Value: types.Message{
					Role: types.ConversationRoleAssistant,
					Content: []types.ContentBlock{
						&types.ContentBlockMemberText{Value: `{"message":"ok",`},
						&types.ContentBlockMemberText{Value: `"insight":"none"}`},
					},
				}},
			},
			want: "{\"message\":\"ok\",\n\"insight\":\"none\"}",
		},
		{
			name:    "max tokens fails",
			output:  &bedrockruntime.ConverseOutput{StopReason: types.StopReasonMaxTokens},
			wantErr: true,
		},
		{
			name:    "empty output fails",
			output:  &bedrockruntime.ConverseOutput{StopReason: types.StopReasonEndTurn},
			wantErr: true,
		},
		{
			name:    "client error",
			err:     errors.New("throttled"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockBedrockClient{response: tt.output, err: tt.err}
			p := NewBedrockProvider(client, BedrockOptions{ModelID: "model"})

			resp, err := p.Reply(context.Background(), ReplyRequest{
				System:   "sys",
				Messages: []ChatMessage{{Role: "user", Content: "hi"}},
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Text)
			require.NotNil(t, client.input)
			assert.Len(t, client.input.System, 1)
			assert.Equal(t, "model", *client.input.ModelId)
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.False(t, IsRemote(NewMockProvider()))
	assert.False(t, IsRemote(nil))
	assert.True(t, IsRemote(&stubProvider{}))
}
