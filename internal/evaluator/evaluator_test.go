package evaluator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/evaluator"
)

func TestService_Evaluate(t *testing.T) {
	svc := evaluator.New(evaluator.DefaultWeights())
	ctx := context.Background()

	t.Run("should score an on-topic response higher than an off-topic one", func(t *testing.T) {
		question := "what is the capital of france"

		onTopic := svc.Evaluate(ctx, question,
			"The capital of France is Paris, a city on the Seine.",
			domain.Usage{TotalTokens: 20}, time.Second)
		offTopic := svc.Evaluate(ctx, question,
			"Bananas are an excellent source of potassium indeed.",
			domain.Usage{TotalTokens: 20}, time.Second)

		require.Greater(t, svc.Score(onTopic), svc.Score(offTopic))
	})

	t.Run("should penalize slow and token-heavy responses", func(t *testing.T) {
		question := "what is the capital of france"
		response := "The capital of France is Paris."

		cheap := svc.Evaluate(ctx, question, response, domain.Usage{TotalTokens: 20}, time.Second)
		expensive := svc.Evaluate(ctx, question, response, domain.Usage{TotalTokens: 3900}, 29*time.Second)

		require.Greater(t, cheap.ResponseTime, expensive.ResponseTime)
		require.Greater(t, cheap.TokenUsage, expensive.TokenUsage)
		require.Greater(t, svc.Score(cheap), svc.Score(expensive))
	})

	t.Run("should keep all scores within the unit interval", func(t *testing.T) {
		eval := svc.Evaluate(ctx, "anything at all", "something entirely different!",
			domain.Usage{TotalTokens: 100}, 5*time.Second)

		for _, score := range []float64{
			eval.Accuracy, eval.Coherence, eval.Relevance, eval.ResponseTime, eval.TokenUsage,
		} {
			require.GreaterOrEqual(t, score, 0.0)
			require.LessOrEqual(t, score, 1.0)
		}
	})
}

func TestService_SelectBest(t *testing.T) {
	svc := evaluator.New(evaluator.DefaultWeights())

	t.Run("should pick the highest weighted score", func(t *testing.T) {
		best, err := svc.SelectBest(map[string]domain.Evaluation{
			"gpt-4":    {Accuracy: 0.9, Coherence: 0.9, Relevance: 0.9, ResponseTime: 0.5, TokenUsage: 0.5},
			"claude-2": {Accuracy: 0.5, Coherence: 0.5, Relevance: 0.5, ResponseTime: 1.0, TokenUsage: 1.0},
		})
		require.NoError(t, err)
		require.Equal(t, "gpt-4", best)
	})

	t.Run("should weight accuracy above response time", func(t *testing.T) {
		best, err := svc.SelectBest(map[string]domain.Evaluation{
			"accurate-but-slow": {Accuracy: 1.0, ResponseTime: 0.0},
			"fast-but-wrong":    {Accuracy: 0.0, ResponseTime: 1.0},
		})
		require.NoError(t, err)
		require.Equal(t, "accurate-but-slow", best)
	})

	t.Run("should break ties deterministically", func(t *testing.T) {
		same := domain.Evaluation{Accuracy: 0.7, Coherence: 0.7}
		for i := 0; i < 10; i++ {
			best, err := svc.SelectBest(map[string]domain.Evaluation{
				"b-model": same,
				"a-model": same,
			})
			require.NoError(t, err)
			require.Equal(t, "a-model", best)
		}
	})

	t.Run("should fail on empty input", func(t *testing.T) {
		_, err := svc.SelectBest(nil)
		require.Error(t, err)
	})
}

func TestService_Validate(t *testing.T) {
	svc := evaluator.New(evaluator.DefaultWeights())

	t.Run("should reject empty and too-short responses", func(t *testing.T) {
		require.False(t, svc.Validate(""))
		require.False(t, svc.Validate("   "))
		require.False(t, svc.Validate("too short"))
	})

	t.Run("should accept a complete sentence", func(t *testing.T) {
		require.True(t, svc.Validate("This response is long enough to pass validation."))
	})
}

func TestService_Compare(t *testing.T) {
	svc := evaluator.New(evaluator.DefaultWeights())

	responses := map[string]string{
		"gpt-4":    "Paris is the capital of France.",
		"claude-2": "France.",
	}
	evaluations := map[string]domain.Evaluation{
		"gpt-4":    {Accuracy: 0.9, Coherence: 0.9, Relevance: 0.9},
		"claude-2": {Accuracy: 0.4, Coherence: 0.3, Relevance: 0.4},
	}

	comparison, err := svc.Compare(responses, evaluations)
	require.NoError(t, err)
	require.Equal(t, "gpt-4", comparison.BestModel)
	require.Equal(t, 2, comparison.ModelCount)
	require.Contains(t, comparison.Analysis, "gpt-4")
	require.Contains(t, comparison.Analysis, "claude-2")
}
