// Package anthropic provides a backend adapter for the Anthropic API
// using the official SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

const defaultMaxTokens = 2000

// Backend implements the domain.Backend interface for Anthropic.
type Backend struct {
	client anthropic.Client
	name   string
}

// NewBackend creates a new Anthropic backend.
func NewBackend(config Config) (*Backend, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &Backend{
		client: anthropic.NewClient(opts...),
		name:   "anthropic",
	}, nil
}

// Complete sends a completion request and returns the full response.
func (b *Backend) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic API")

	msg, err := b.client.Messages.New(ctx, b.toSDKParams(req))
	if err != nil {
		logger.Error("Anthropic API call failed", observability.Error(err))
		return nil, fmt.Errorf("Anthropic API call failed: %w", err)
	}

	logger.Debug("Anthropic API call succeeded",
		observability.Int("input_tokens", int(msg.Usage.InputTokens)),
		observability.Int("output_tokens", int(msg.Usage.OutputTokens)),
	)

	return b.toDomainResponse(req.Model, msg), nil
}

// Name returns the provider family identifier.
func (b *Backend) Name() string {
	return b.name
}

// toSDKParams converts a domain request to SDK MessageNewParams. System
// messages map to the dedicated system field; the SDK rejects them in
// the message list.
func (b *Backend) toSDKParams(req *domain.CompletionRequest) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	var system []anthropic.TextBlockParam

	for _, msg := range req.Messages {
		switch msg.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
		System:    system,
	}

	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	return params
}

// toDomainResponse converts an SDK message to a domain response.
func (b *Backend) toDomainResponse(model string, msg *anthropic.Message) *domain.CompletionResponse {
	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	inputTokens := int(msg.Usage.InputTokens)
	outputTokens := int(msg.Usage.OutputTokens)

	return &domain.CompletionResponse{
		ID:       msg.ID,
		Model:    model,
		Provider: b.name,
		Content:  content.String(),
		Usage: domain.Usage{
			PromptTokens:     inputTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      inputTokens + outputTokens,
		},
		FinishTime: time.Now(),
	}
}
