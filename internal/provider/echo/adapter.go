// Package echo provides a deterministic backend that echoes back input
// messages. It implements the domain.Backend interface without making
// external API calls, for testing and development purposes.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

const providerName = "echo"

// Backend implements the domain.Backend interface for echo testing.
type Backend struct {
	name string
}

// NewBackend creates a new echo backend.
// No configuration is required as this backend operates entirely in-memory.
func NewBackend() *Backend {
	return &Backend{
		name: providerName,
	}
}

// Complete sends a completion request and returns the echoed response.
func (b *Backend) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	echoContent := buildEchoContent(req.Messages)

	// Count tokens (simple word-based counting)
	promptTokens := countTokens(echoContent)
	completionTokens := promptTokens // Echo returns same size

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	return &domain.CompletionResponse{
		ID:       fmt.Sprintf("echo-%d", time.Now().UnixNano()),
		Model:    req.Model,
		Provider: b.name,
		Content:  echoContent,
		Usage: domain.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Name returns the provider family identifier.
func (b *Backend) Name() string {
	return b.name
}

// buildEchoContent joins message contents into the echoed body.
func buildEchoContent(messages []domain.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n")
}

// countTokens approximates token usage by word count.
func countTokens(text string) int {
	return len(strings.Fields(text))
}
