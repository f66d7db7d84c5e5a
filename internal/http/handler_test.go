package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/ensemble/internal/agent"
	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/evaluator"
	ensemblehttp "github.com/davidbz/ensemble/internal/http"
	"github.com/davidbz/ensemble/internal/model"
)

type stubBackend struct {
	name    string
	content string
	err     error
}

func (b *stubBackend) Complete(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &domain.CompletionResponse{
		ID:         "resp-" + req.Model,
		Model:      req.Model,
		Provider:   b.name,
		Content:    b.content,
		Usage:      domain.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		FinishTime: time.Now(),
	}, nil
}

func (b *stubBackend) Name() string { return b.name }

func newHandler(t *testing.T) (*ensemblehttp.Handler, *model.Manager) {
	t.Helper()

	mgr := model.NewManager(model.Config{MaxErrors: 3, DefaultModels: []string{"alpha", "beta"}}, nil)
	ctx := context.Background()
	mgr.Register(ctx, "alpha", &stubBackend{name: "stub", content: "Go routines are lightweight threads managed by the runtime."}, model.TierPremium)
	mgr.Register(ctx, "beta", &stubBackend{name: "stub", content: "Short answer."}, model.TierStandard)

	eval := evaluator.New(evaluator.DefaultWeights())
	ag := agent.New(mgr, eval, nil, nil, agent.Config{Temperature: 0.7, MaxTokens: 2000, HistoryLimit: 100})

	return ensemblehttp.NewHandler(ag, mgr), mgr
}

func TestHandleMessage(t *testing.T) {
	t.Run("should dispatch to requested models and return best", func(t *testing.T) {
		handler, _ := newHandler(t)

		body, err := json.Marshal(ensemblehttp.MessageRequest{
			Message: "explain go routines",
			Models:  []string{"alpha", "beta"},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleMessage(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var result domain.DispatchResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		require.Len(t, result.Results, 2)
		require.Contains(t, result.Results, "alpha")
		require.Contains(t, result.Results, "beta")
		require.NotEmpty(t, result.Best)
	})

	t.Run("should reject non-POST requests", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
		w := httptest.NewRecorder()

		handler.HandleMessage(w, req)

		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		handler.HandleMessage(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return 400 on empty message", func(t *testing.T) {
		handler, _ := newHandler(t)

		body, err := json.Marshal(ensemblehttp.MessageRequest{Message: "   "})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleMessage(w, req)

		// Empty message surfaces as a dispatch failure.
		require.NotEqual(t, http.StatusOK, w.Code)
	})
}

func TestHandleCompare(t *testing.T) {
	t.Run("should return results with a comparison report", func(t *testing.T) {
		handler, _ := newHandler(t)

		body, err := json.Marshal(ensemblehttp.MessageRequest{
			Message: "explain go routines",
			Models:  []string{"alpha", "beta"},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/compare", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleCompare(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp ensemblehttp.CompareResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Result.Results, 2)
		require.Equal(t, resp.Result.Best, resp.Comparison.BestModel)
		require.Equal(t, 2, resp.Comparison.ModelCount)
		require.Contains(t, resp.Comparison.Analysis, "alpha")
		require.Contains(t, resp.Comparison.Analysis, "beta")
	})

	t.Run("should reject non-POST requests", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/v1/compare", nil)
		w := httptest.NewRecorder()

		handler.HandleCompare(w, req)

		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/v1/compare", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		handler.HandleCompare(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleModels(t *testing.T) {
	t.Run("should list all available models", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
		w := httptest.NewRecorder()

		handler.HandleModels(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp ensemblehttp.ModelsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Equal(t, []string{"alpha", "beta"}, resp.Models)
	})

	t.Run("should filter by tier", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/v1/models?tier=premium", nil)
		w := httptest.NewRecorder()

		handler.HandleModels(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp ensemblehttp.ModelsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Equal(t, []string{"alpha"}, resp.Models)
	})

	t.Run("should reject unknown tier", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/v1/models?tier=platinum", nil)
		w := httptest.NewRecorder()

		handler.HandleModels(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject non-GET requests", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/v1/models", nil)
		w := httptest.NewRecorder()

		handler.HandleModels(w, req)

		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleReset(t *testing.T) {
	t.Run("should reset model health", func(t *testing.T) {
		handler, mgr := newHandler(t)
		ctx := context.Background()

		// Degrade alpha past the error threshold.
		for i := 0; i < 3; i++ {
			mgr.MarkError(ctx, "alpha")
		}
		require.NotContains(t, mgr.ListAvailable(), "alpha")

		body, err := json.Marshal(ensemblehttp.ResetRequest{Model: "alpha"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/models/reset", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleReset(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, mgr.ListAvailable(), "alpha")
	})

	t.Run("should return 404 for unregistered model", func(t *testing.T) {
		handler, _ := newHandler(t)

		body, err := json.Marshal(ensemblehttp.ResetRequest{Model: "ghost"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/models/reset", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleReset(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should reject empty model id", func(t *testing.T) {
		handler, _ := newHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/v1/models/reset", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		handler.HandleReset(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	handler, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "healthy", resp["status"])
}
