package domain

import (
	"context"
	"time"
)

// Backend represents an invocable model handle. The model manager hands
// backends out but never invokes them; network I/O is the caller's job.
type Backend interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider family identifier.
	Name() string
}

// Evaluator scores responses and selects the best one.
type Evaluator interface {
	// Evaluate scores a single response against the originating question.
	Evaluate(ctx context.Context, question, response string, usage Usage, elapsed time.Duration) Evaluation

	// SelectBest returns the model id with the highest weighted score.
	SelectBest(evaluations map[string]Evaluation) (string, error)

	// Validate reports whether a response meets minimum quality criteria.
	Validate(response string) bool
}

// ResponseCache stores dispatch results keyed by request fingerprint.
type ResponseCache interface {
	// Get retrieves a cached result. Returns ErrCacheMiss when absent.
	Get(ctx context.Context, key string) (*DispatchResult, error)

	// Set stores a result under the given key.
	Set(ctx context.Context, key string, result *DispatchResult) error
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
