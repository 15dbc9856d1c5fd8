package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/fdg312/coach-hub/internal/config"
)

const (
	defaultBedrockMaxTokens   = 1024
	defaultBedrockTemperature = 0.2
	defaultBedrockTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type BedrockOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// BedrockProvider talks to the Bedrock Converse API.
type BedrockProvider struct {
	brc  bedrockRuntimeClient
	opts BedrockOptions
}

func NewBedrockProvider(brc bedrockRuntimeClient, opts BedrockOptions) *BedrockProvider {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultBedrockMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultBedrockTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultBedrockTopP
	}
	return &BedrockProvider{brc: brc, opts: opts}
}

// NewBedrockProviderFromConfig loads AWS credentials from the default chain.
func NewBedrockProviderFromConfig(ctx context.Context, cfg *config.Config) (*BedrockProvider, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRetryMaxAttempts(3)}
	if cfg.Bedrock.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Bedrock.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return NewBedrockProvider(bedrockruntime.NewFromConfig(awsCfg), BedrockOptions{
		ModelID:     cfg.Bedrock.ModelID,
		MaxTokens:   int32(cfg.AIMaxOutputTokens),
		Temperature: float32(cfg.AITemperature),
		TopP:        cfg.Bedrock.TopP,
	}), nil
}

func (p *BedrockProvider) Reply(ctx context.Context, req ReplyRequest) (ReplyResponse, error) {
	var sys []types.SystemContentBlock
	if strings.TrimSpace(req.System) != "" {
		sys = append(sys, &types.SystemContentBlockMemberText{Value: req.System})
	}

	msgs := make([]types.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := types.ConversationRoleUser
		if m.Role == "assistant" {
			role = types.ConversationRoleAssistant
		}
		msgs = append(msgs, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.opts.ModelID),
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(p.opts.MaxTokens),
			Temperature: aws.Float32(p.opts.Temperature),
			TopP:        aws.Float32(p.opts.TopP),
		},
	}

	out, err := p.brc.Converse(ctx, in)
	if err != nil {
		log.Printf("WARN ai: bedrock converse failed (purpose=%s): %v", req.Purpose, err)
		return ReplyResponse{}, err
	}

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		return ReplyResponse{}, fmt.Errorf("model hit MaxTokens limit")
	case types.StopReasonContentFiltered, types.StopReasonGuardrailIntervened:
		return ReplyResponse{}, fmt.Errorf("model response blocked by bedrock safety filters")
	}

	text := textFromOutput(out)
	if text == "" {
		return ReplyResponse{}, ErrEmptyReply
	}
	return ReplyResponse{Text: text}, nil
}

// textFromOutput joins the text blocks of the assistant message.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}
