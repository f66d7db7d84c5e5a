package domain

import "time"

// CompletionRequest represents a unified LLM request.
type CompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []Message         `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// CompletionResponse represents a unified LLM response.
type CompletionResponse struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Content    string    `json:"content"`
	Usage      Usage     `json:"usage"`
	FinishTime time.Time `json:"finish_time"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Evaluation holds normalized per-criterion scores for a single response.
// All scores are in [0, 1]; higher is better.
type Evaluation struct {
	Accuracy     float64 `json:"accuracy"`
	Coherence    float64 `json:"coherence"`
	Relevance    float64 `json:"relevance"`
	ResponseTime float64 `json:"response_time"`
	TokenUsage   float64 `json:"token_usage"`
}

// ModelResult is one model's contribution to a multi-model dispatch.
// RequestedID and ResolvedID differ when fallback substituted a model;
// callers use the pair to disclose the substitution.
type ModelResult struct {
	RequestedID string              `json:"requested_id"`
	ResolvedID  string              `json:"resolved_id"`
	Response    *CompletionResponse `json:"response"`
	Evaluation  Evaluation          `json:"evaluation"`
}

// DispatchResult aggregates responses from a multi-model dispatch,
// keyed by resolved model id.
type DispatchResult struct {
	Results map[string]ModelResult `json:"results"`
	Best    string                 `json:"best"`
}

// Comparison summarizes how responses from different models stack up.
type Comparison struct {
	BestModel  string `json:"best_model"`
	ModelCount int    `json:"model_count"`
	Analysis   string `json:"analysis"`
}
