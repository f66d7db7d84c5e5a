package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/davidbz/ensemble/internal/agent"
	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/model"
	"github.com/davidbz/ensemble/internal/observability"
	"go.uber.org/zap"
)

// Handler handles HTTP requests.
type Handler struct {
	agent  *agent.Agent
	models *model.Manager
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(agent *agent.Agent, models *model.Manager) *Handler {
	return &Handler{
		agent:  agent,
		models: models,
	}
}

// MessageRequest is the body for message dispatch requests.
type MessageRequest struct {
	Message string   `json:"message"`
	Models  []string `json:"models,omitempty"`
}

// HandleMessage dispatches a message across the requested models and
// returns the per-model results together with the best response.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Early validation.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(ctx)
	logger.Info("message request received",
		zap.Int("models", len(req.Models)),
	)

	result, err := h.agent.Process(ctx, req.Message, req.Models)
	if err != nil {
		logger.Error("message dispatch failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrModelNotFound) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	logger.Info("message dispatch succeeded",
		zap.String("best", result.Best),
		zap.Int("results", len(result.Results)),
	)

	w.Header().Set("Content-Type", "application/json")
	if encodeErr := json.NewEncoder(w).Encode(result); encodeErr != nil {
		logger.Error("failed to encode response", zap.Error(encodeErr))
		http.Error(w, fmt.Sprintf("failed to encode response: %v", encodeErr), http.StatusInternalServerError)
		return
	}
}

// CompareResponse pairs a dispatch result with its comparison report.
type CompareResponse struct {
	Result     *domain.DispatchResult `json:"result"`
	Comparison *domain.Comparison     `json:"comparison"`
}

// HandleCompare dispatches a message across the requested models and
// returns the results together with a cross-model comparison report.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(ctx)

	result, comparison, err := h.agent.Compare(ctx, req.Message, req.Models)
	if err != nil {
		logger.Error("comparison failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrModelNotFound) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	logger.Info("comparison succeeded",
		zap.String("best", comparison.BestModel),
		zap.Int("models", comparison.ModelCount),
	)

	w.Header().Set("Content-Type", "application/json")
	if encodeErr := json.NewEncoder(w).Encode(CompareResponse{
		Result:     result,
		Comparison: comparison,
	}); encodeErr != nil {
		logger.Error("failed to encode response", zap.Error(encodeErr))
		http.Error(w, fmt.Sprintf("failed to encode response: %v", encodeErr), http.StatusInternalServerError)
		return
	}
}

// ModelsResponse lists the currently available model identifiers.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// HandleModels lists available models, optionally filtered by tier.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ids []string
	if raw := r.URL.Query().Get("tier"); raw != "" {
		tier, err := model.ParseTier(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ids = h.models.ListAvailableInTier(tier)
	} else {
		ids = h.models.ListAvailable()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ModelsResponse{Models: ids}); err != nil {
		observability.FromContext(r.Context()).Error("failed to encode response", zap.Error(err))
	}
}

// ResetRequest is the body for model health reset requests.
type ResetRequest struct {
	Model string `json:"model"`
}

// HandleReset clears the error count for a model and restores it to the pool.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		http.Error(w, "model not specified", http.StatusBadRequest)
		return
	}

	if _, ok := h.models.TierOf(req.Model); !ok {
		http.Error(w, fmt.Sprintf("model %q not registered", req.Model), http.StatusNotFound)
		return
	}

	h.models.ResetStatus(ctx, req.Model)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "reset",
		"model":  req.Model,
	}); err != nil {
		observability.FromContext(ctx).Error("failed to encode response", zap.Error(err))
	}
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}
