// Package agent dispatches a single message to multiple models, scores
// the responses, and selects the best one.
package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

// Config controls dispatch parameters.
type Config struct {
	Temperature  float64 `env:"AGENT_TEMPERATURE"   envDefault:"0.7"`
	MaxTokens    int     `env:"AGENT_MAX_TOKENS"    envDefault:"2000"`
	HistoryLimit int     `env:"AGENT_HISTORY_LIMIT" envDefault:"100"`
}

// ModelSource resolves model ids to backends and tracks their health.
// Implemented by *model.Manager.
type ModelSource interface {
	Get(ctx context.Context, id string, useFallback bool) (string, domain.Backend, error)
	MarkError(ctx context.Context, id string)
	ResetStatus(ctx context.Context, id string)
	ErrorCount(id string) (int, bool)
	DefaultModels() []string
}

// HistoryEntry records one processed interaction.
type HistoryEntry struct {
	ID        string                 `json:"id"`
	Message   string                 `json:"message"`
	Result    *domain.DispatchResult `json:"result"`
	Timestamp time.Time              `json:"timestamp"`
}

// Agent orchestrates multi-model dispatch. It resolves each requested id
// through the model source (fallback enabled), invokes the backend,
// reports failures back so the registry can degrade the model, and
// selects the best response via the evaluator.
type Agent struct {
	models    ModelSource
	evaluator domain.Evaluator
	cache     domain.ResponseCache
	events    domain.EventPublisher
	cfg       Config

	historyMu sync.Mutex
	history   []HistoryEntry
}

// New creates an agent. cache and events may be nil.
func New(
	models ModelSource,
	eval domain.Evaluator,
	cache domain.ResponseCache,
	events domain.EventPublisher,
	cfg Config,
) *Agent {
	return &Agent{
		models:    models,
		evaluator: eval,
		cache:     cache,
		events:    events,
		cfg:       cfg,
	}
}

// Process dispatches a message to the given models and returns their
// responses with evaluations and the best response. When modelIDs is
// empty the configured defaults are used. Per-model failures are
// recovered: the model is marked errored and dispatch continues with its
// siblings. An error is returned only when no model produced a response.
func (a *Agent) Process(ctx context.Context, message string, modelIDs []string) (*domain.DispatchResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("message cannot be empty")
	}

	if len(modelIDs) == 0 {
		modelIDs = a.models.DefaultModels()
	}

	logger := observability.FromContext(ctx)

	key := cacheKey(message, modelIDs)
	if a.cache != nil {
		cached, err := a.cache.Get(ctx, key)
		if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
			logger.Warn("cache get failed, continuing without cache", observability.Error(err))
		}
		if cached != nil {
			logger.Info("cache hit", observability.String("best", cached.Best))
			return cached, nil
		}
	}

	results := make(map[string]domain.ModelResult, len(modelIDs))
	evaluations := make(map[string]domain.Evaluation, len(modelIDs))
	var lastErr error

	for _, requested := range modelIDs {
		result, err := a.invoke(ctx, requested, message)
		if err != nil {
			lastErr = err
			logger.Warn("model dispatch failed",
				observability.String("model", requested),
				observability.Error(err),
			)
			continue
		}

		results[result.ResolvedID] = *result
		evaluations[result.ResolvedID] = result.Evaluation
	}

	if len(results) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("all models failed: %w", lastErr)
		}
		return nil, errors.New("no models produced a response")
	}

	best, err := a.evaluator.SelectBest(evaluations)
	if err != nil {
		return nil, fmt.Errorf("failed to select best response: %w", err)
	}

	dispatch := &domain.DispatchResult{
		Results: results,
		Best:    best,
	}

	a.addToHistory(message, dispatch)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, dispatch); err != nil {
			logger.Warn("failed to store in cache", observability.Error(err))
		}
	}

	logger.Info("dispatch completed",
		observability.Int("models", len(results)),
		observability.String("best", best),
	)

	return dispatch, nil
}

// Compare dispatches to the given models and adds a comparison report.
func (a *Agent) Compare(ctx context.Context, message string, modelIDs []string) (*domain.DispatchResult, *domain.Comparison, error) {
	dispatch, err := a.Process(ctx, message, modelIDs)
	if err != nil {
		return nil, nil, err
	}

	responses := make(map[string]string, len(dispatch.Results))
	evaluations := make(map[string]domain.Evaluation, len(dispatch.Results))
	for id, result := range dispatch.Results {
		responses[id] = result.Response.Content
		evaluations[id] = result.Evaluation
	}

	comparison, err := compare(a.evaluator, responses, evaluations)
	if err != nil {
		return nil, nil, err
	}

	return dispatch, comparison, nil
}

// invoke resolves one model, calls its backend, and updates its health.
func (a *Agent) invoke(ctx context.Context, requested, message string) (*domain.ModelResult, error) {
	resolved, backend, err := a.models.Get(ctx, requested, true)
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	if resolved != requested {
		logger.Info("model substituted by fallback",
			observability.String("requested", requested),
			observability.String("resolved", resolved),
		)
		a.publish(ctx, "model_substituted", map[string]interface{}{
			"requested": requested,
			"resolved":  resolved,
		})
	}

	req := &domain.CompletionRequest{
		Model:       resolved,
		Messages:    []domain.Message{{Role: "user", Content: message}},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	start := time.Now()
	resp, err := backend.Complete(observability.WithModel(ctx, resolved), req)
	elapsed := time.Since(start)

	if err != nil {
		a.models.MarkError(ctx, resolved)
		a.publish(ctx, "model_error", map[string]interface{}{
			"model":    resolved,
			"provider": backend.Name(),
		})
		return nil, fmt.Errorf("model %q failed: %w", resolved, err)
	}

	// A success after accumulated errors clears the slate; the common
	// path stays read-only.
	if count, ok := a.models.ErrorCount(resolved); ok && count > 0 {
		a.models.ResetStatus(ctx, resolved)
	}

	eval := a.evaluator.Evaluate(ctx, message, resp.Content, resp.Usage, elapsed)

	return &domain.ModelResult{
		RequestedID: requested,
		ResolvedID:  resolved,
		Response:    resp,
		Evaluation:  eval,
	}, nil
}

func (a *Agent) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if a.events != nil {
		a.events.Publish(ctx, eventType, data)
	}
}

// addToHistory appends an interaction, evicting the oldest entries past
// the configured limit.
func (a *Agent) addToHistory(message string, result *domain.DispatchResult) {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()

	a.history = append(a.history, HistoryEntry{
		ID:        uuid.New().String(),
		Message:   message,
		Result:    result,
		Timestamp: time.Now(),
	})

	if limit := a.cfg.HistoryLimit; limit > 0 && len(a.history) > limit {
		a.history = a.history[len(a.history)-limit:]
	}
}

// History returns a copy of the interaction history, oldest first.
func (a *Agent) History() []HistoryEntry {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()

	out := make([]HistoryEntry, len(a.history))
	copy(out, a.history)
	return out
}

// cacheKey fingerprints a dispatch by message and requested model set.
func cacheKey(message string, modelIDs []string) string {
	ids := append([]string(nil), modelIDs...)
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(message))
	for _, id := range ids {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return "dispatch:" + hex.EncodeToString(h.Sum(nil))
}

// compare delegates to the evaluator's Compare when available, falling
// back to the best-only report for foreign Evaluator implementations.
func compare(
	eval domain.Evaluator,
	responses map[string]string,
	evaluations map[string]domain.Evaluation,
) (*domain.Comparison, error) {
	type comparer interface {
		Compare(map[string]string, map[string]domain.Evaluation) (*domain.Comparison, error)
	}

	if c, ok := eval.(comparer); ok {
		return c.Compare(responses, evaluations)
	}

	best, err := eval.SelectBest(evaluations)
	if err != nil {
		return nil, err
	}
	return &domain.Comparison{
		BestModel:  best,
		ModelCount: len(responses),
		Analysis:   "Best performing model: " + best + "\n",
	}, nil
}
