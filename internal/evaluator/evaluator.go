// Package evaluator scores model responses on weighted criteria and
// selects the best response from a multi-model dispatch.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

const (
	minResponseLength = 10
	minCoherence      = 0.3

	// Normalization anchors: a response slower than slowTime or larger
	// than largeTokenBudget scores near zero on that criterion.
	slowTime         = 30 * time.Second
	largeTokenBudget = 4000
)

// Weights assigns the relative importance of each criterion. They are
// expected to sum to 1.
type Weights struct {
	Accuracy     float64 `env:"EVAL_WEIGHT_ACCURACY"      envDefault:"0.4"`
	Coherence    float64 `env:"EVAL_WEIGHT_COHERENCE"     envDefault:"0.3"`
	Relevance    float64 `env:"EVAL_WEIGHT_RELEVANCE"     envDefault:"0.2"`
	ResponseTime float64 `env:"EVAL_WEIGHT_RESPONSE_TIME" envDefault:"0.05"`
	TokenUsage   float64 `env:"EVAL_WEIGHT_TOKEN_USAGE"   envDefault:"0.05"`
}

// DefaultWeights returns the standard criteria weighting.
func DefaultWeights() Weights {
	return Weights{
		Accuracy:     0.4,
		Coherence:    0.3,
		Relevance:    0.2,
		ResponseTime: 0.05,
		TokenUsage:   0.05,
	}
}

// Service implements domain.Evaluator with lexical heuristics.
type Service struct {
	weights Weights
}

// New creates an evaluator with the given weights.
func New(weights Weights) *Service {
	return &Service{weights: weights}
}

// Evaluate scores a single response. Scores are deterministic lexical
// heuristics; response time and token usage are normalized so that
// cheaper and faster responses score higher.
func (s *Service) Evaluate(
	ctx context.Context,
	question, response string,
	usage domain.Usage,
	elapsed time.Duration,
) domain.Evaluation {
	eval := domain.Evaluation{
		Accuracy:     overlapScore(question, response),
		Coherence:    coherenceScore(response),
		Relevance:    overlapScore(question, response),
		ResponseTime: timeScore(elapsed),
		TokenUsage:   tokenScore(usage.TotalTokens),
	}

	observability.FromContext(ctx).Debug("response evaluated",
		observability.Float64("accuracy", eval.Accuracy),
		observability.Float64("coherence", eval.Coherence),
		observability.Float64("relevance", eval.Relevance),
		observability.Float64("weighted", s.Score(eval)),
	)

	return eval
}

// Score computes the weighted average for an evaluation.
func (s *Service) Score(eval domain.Evaluation) float64 {
	return eval.Accuracy*s.weights.Accuracy +
		eval.Coherence*s.weights.Coherence +
		eval.Relevance*s.weights.Relevance +
		eval.ResponseTime*s.weights.ResponseTime +
		eval.TokenUsage*s.weights.TokenUsage
}

// SelectBest returns the model id with the highest weighted score.
// Ties break to the lexicographically first id so selection is stable.
func (s *Service) SelectBest(evaluations map[string]domain.Evaluation) (string, error) {
	if len(evaluations) == 0 {
		return "", errors.New("no evaluations to select from")
	}

	ids := make([]string, 0, len(evaluations))
	for id := range evaluations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := ids[0]
	bestScore := s.Score(evaluations[best])
	for _, id := range ids[1:] {
		if score := s.Score(evaluations[id]); score > bestScore {
			best = id
			bestScore = score
		}
	}

	return best, nil
}

// Validate reports whether a response meets minimum quality criteria.
func (s *Service) Validate(response string) bool {
	if len(strings.TrimSpace(response)) < minResponseLength {
		return false
	}
	return coherenceScore(response) >= minCoherence
}

// Compare builds a comparison report across model responses.
func (s *Service) Compare(
	responses map[string]string,
	evaluations map[string]domain.Evaluation,
) (*domain.Comparison, error) {
	best, err := s.SelectBest(evaluations)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Best performing model: " + best + "\n")
	ids := make([]string, 0, len(evaluations))
	for id := range evaluations {
		ids = append(ids, id)
	}
	sort.Sort(byScore{ids: ids, evals: evaluations, svc: s})
	for _, id := range ids {
		fmt.Fprintf(&b, "%s: %.2f\n", id, s.Score(evaluations[id]))
	}

	return &domain.Comparison{
		BestModel:  best,
		ModelCount: len(responses),
		Analysis:   b.String(),
	}, nil
}

// byScore orders ids by descending weighted score, then lexically.
type byScore struct {
	ids   []string
	evals map[string]domain.Evaluation
	svc   *Service
}

func (b byScore) Len() int      { return len(b.ids) }
func (b byScore) Swap(i, j int) { b.ids[i], b.ids[j] = b.ids[j], b.ids[i] }
func (b byScore) Less(i, j int) bool {
	si, sj := b.svc.Score(b.evals[b.ids[i]]), b.svc.Score(b.evals[b.ids[j]])
	if si != sj {
		return si > sj
	}
	return b.ids[i] < b.ids[j]
}

// overlapScore measures how much of the question's vocabulary the
// response covers. A rough stand-in for semantic similarity.
func overlapScore(question, response string) float64 {
	questionWords := tokenize(question)
	if len(questionWords) == 0 {
		return 0
	}

	responseWords := make(map[string]struct{})
	for _, w := range tokenize(response) {
		responseWords[w] = struct{}{}
	}

	matched := 0
	seen := make(map[string]struct{}, len(questionWords))
	total := 0
	for _, w := range questionWords {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		total++
		if _, ok := responseWords[w]; ok {
			matched++
		}
	}

	return float64(matched) / float64(total)
}

// coherenceScore rewards responses built from complete, reasonably sized
// sentences.
func coherenceScore(response string) float64 {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return 0
	}

	score := 0.5
	if strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?") {
		score += 0.25
	}

	words := tokenize(trimmed)
	if len(words) >= 5 {
		score += 0.25
	}

	return score
}

func timeScore(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 1
	}
	if elapsed >= slowTime {
		return 0
	}
	return 1 - float64(elapsed)/float64(slowTime)
}

func tokenScore(totalTokens int) float64 {
	if totalTokens <= 0 {
		return 1
	}
	if totalTokens >= largeTokenBudget {
		return 0
	}
	return 1 - float64(totalTokens)/float64(largeTokenBudget)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}
