// Package gemini provides a backend adapter for the Google Gemini API
// using the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

// Backend implements the domain.Backend interface for Gemini.
type Backend struct {
	client *genai.Client
	name   string
}

// NewBackend creates a new Gemini backend. The genai client carries its
// own HTTP plumbing, so construction needs a context.
func NewBackend(ctx context.Context, config Config) (*Backend, error) {
	if config.APIKey == "" {
		return nil, errors.New("Google API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Backend{
		client: client,
		name:   "gemini",
	}, nil
}

// Complete sends a completion request and returns the full response.
func (b *Backend) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	contents, genConfig := b.toSDKRequest(req)

	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini API")

	resp, err := b.client.Models.GenerateContent(ctx, req.Model, contents, genConfig)
	if err != nil {
		logger.Error("Gemini API call failed", observability.Error(err))
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	logger.Debug("Gemini API call succeeded")

	return b.toDomainResponse(req.Model, resp), nil
}

// Name returns the provider family identifier.
func (b *Backend) Name() string {
	return b.name
}

// toSDKRequest converts a domain request to genai contents and config.
// Gemini uses "model" for assistant turns and carries system text in the
// generation config.
func (b *Backend) toSDKRequest(req *domain.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	genConfig := &genai.GenerateContentConfig{}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case "system":
			genConfig.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	if req.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(float32(req.Temperature))
	}

	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	return contents, genConfig
}

// toDomainResponse converts a genai response to a domain response.
func (b *Backend) toDomainResponse(model string, resp *genai.GenerateContentResponse) *domain.CompletionResponse {
	var usage domain.Usage
	if resp.UsageMetadata != nil {
		usage = domain.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &domain.CompletionResponse{
		ID:         resp.ResponseID,
		Model:      model,
		Provider:   b.name,
		Content:    resp.Text(),
		Usage:      usage,
		FinishTime: time.Now(),
	}
}
