// Package cohere provides a backend adapter for the Cohere chat API
// using the official SDK.
package cohere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	cohereoption "github.com/cohere-ai/cohere-go/v2/option"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

// Backend implements the domain.Backend interface for Cohere.
type Backend struct {
	client *cohereclient.Client
	name   string
}

// NewBackend creates a new Cohere backend.
func NewBackend(config Config) (*Backend, error) {
	if config.APIKey == "" {
		return nil, errors.New("Cohere API key is required")
	}

	opts := []cohereoption.RequestOption{
		cohereoption.WithToken(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, cohereoption.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, cohereoption.WithHTTPClient(&http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		}))
	}

	return &Backend{
		client: cohereclient.NewClient(opts...),
		name:   "cohere",
	}, nil
}

// Complete sends a completion request and returns the full response.
func (b *Backend) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	chatReq, err := b.toSDKRequest(req)
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Cohere API")

	resp, err := b.client.Chat(ctx, chatReq)
	if err != nil {
		logger.Error("Cohere API call failed", observability.Error(err))
		return nil, fmt.Errorf("Cohere API call failed: %w", err)
	}

	logger.Debug("Cohere API call succeeded")

	return b.toDomainResponse(req.Model, resp), nil
}

// Name returns the provider family identifier.
func (b *Backend) Name() string {
	return b.name
}

// toSDKRequest converts a domain request to a Cohere chat request. The
// last user message becomes the prompt; earlier turns go to the chat
// history and system messages to the preamble.
func (b *Backend) toSDKRequest(req *domain.CompletionRequest) (*cohere.ChatRequest, error) {
	var (
		message  string
		preamble string
		history  []*cohere.Message
	)

	lastUser := -1
	for i, msg := range req.Messages {
		if msg.Role == "user" {
			lastUser = i
		}
	}
	if lastUser < 0 {
		return nil, errors.New("request must contain a user message")
	}
	message = req.Messages[lastUser].Content

	for i, msg := range req.Messages {
		if i == lastUser {
			continue
		}
		switch msg.Role {
		case "system":
			preamble = msg.Content
		case "assistant":
			history = append(history, &cohere.Message{
				Role:    "CHATBOT",
				Chatbot: &cohere.ChatMessage{Message: msg.Content},
			})
		default:
			history = append(history, &cohere.Message{
				Role: "USER",
				User: &cohere.ChatMessage{Message: msg.Content},
			})
		}
	}

	chatReq := &cohere.ChatRequest{
		Message:     message,
		Model:       cohere.String(req.Model),
		ChatHistory: history,
	}

	if preamble != "" {
		chatReq.Preamble = cohere.String(preamble)
	}

	if req.Temperature > 0 {
		chatReq.Temperature = cohere.Float64(req.Temperature)
	}

	if req.MaxTokens > 0 {
		chatReq.MaxTokens = cohere.Int(req.MaxTokens)
	}

	return chatReq, nil
}

// toDomainResponse converts a Cohere response to a domain response.
func (b *Backend) toDomainResponse(model string, resp *cohere.NonStreamedChatResponse) *domain.CompletionResponse {
	id := ""
	if resp.GenerationId != nil {
		id = *resp.GenerationId
	}

	var usage domain.Usage
	if resp.Meta != nil && resp.Meta.Tokens != nil {
		if resp.Meta.Tokens.InputTokens != nil {
			usage.PromptTokens = int(*resp.Meta.Tokens.InputTokens)
		}
		if resp.Meta.Tokens.OutputTokens != nil {
			usage.CompletionTokens = int(*resp.Meta.Tokens.OutputTokens)
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &domain.CompletionResponse{
		ID:         id,
		Model:      model,
		Provider:   b.name,
		Content:    resp.Text,
		Usage:      usage,
		FinishTime: time.Now(),
	}
}
