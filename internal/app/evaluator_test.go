package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"excel-interviewer/internal/app"
	"excel-interviewer/internal/domain"
)

// scriptedGen returns queued responses in order, then errors.
type scriptedGen struct {
	responses []string
}

func (g *scriptedGen) Generate(context.Context, string, int, float64) (string, error) {
	if len(g.responses) == 0 {
		return "", errors.New("no more scripted responses")
	}
	next := g.responses[0]
	g.responses = g.responses[1:]
	return next, nil
}

func sampleAnswers(n int) []domain.Answer {
	answers := make([]domain.Answer, n)
	for i := range answers {
		answers[i] = domain.Answer{
			QuestionID:   "basic_q1_deadbeef",
			QuestionText: "What is a cell reference?",
			Response:     "An address of a cell.",
			Category:     domain.CategoryBasic,
			Difficulty:   domain.DifficultyEasy,
		}
	}
	return answers
}

func TestEvaluateAllClampsAndTruncates(t *testing.T) {
	longFeedback := strings.Repeat("x", 600)
	gen := &scriptedGen{responses: []string{
		`[{"score": 137, "feedback": "great"},
		  {"score": -5, "feedback": "poor"},
		  {"score": 72.5, "feedback": "` + longFeedback + `"}]`,
	}}
	evaluator := app.NewEvaluator(gen, zap.NewNop())

	scored := evaluator.EvaluateAll(context.Background(), sampleAnswers(3))
	if len(scored) != 3 {
		t.Fatalf("expected 3 results, got %d", len(scored))
	}
	if scored[0].Score != 100 {
		t.Fatalf("expected clamp to 100, got %v", scored[0].Score)
	}
	if scored[1].Score != 0 {
		t.Fatalf("expected clamp to 0, got %v", scored[1].Score)
	}
	if scored[2].Score != 72.5 {
		t.Fatalf("expected 72.5, got %v", scored[2].Score)
	}
	if len(scored[2].Feedback) != 500 {
		t.Fatalf("expected feedback truncated to 500, got %d", len(scored[2].Feedback))
	}
}

func TestEvaluateAllChunksSequentially(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		`[{"score": 80, "feedback": "a"}, {"score": 81, "feedback": "b"}, {"score": 82, "feedback": "c"}]`,
		`[{"score": 90, "feedback": "d"}]`,
	}}
	evaluator := app.NewEvaluator(gen, zap.NewNop())

	scored := evaluator.EvaluateAll(context.Background(), sampleAnswers(4))
	if len(scored) != 4 {
		t.Fatalf("expected 4 results, got %d", len(scored))
	}
	want := []float64{80, 81, 82, 90}
	for i, w := range want {
		if scored[i].Score != w {
			t.Fatalf("result %d: expected %v, got %v", i, w, scored[i].Score)
		}
	}
}

func TestEvaluateAllLengthMismatchFallsBack(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		`[{"score": 80, "feedback": "only one"}]`,
	}}
	evaluator := app.NewEvaluator(gen, zap.NewNop())

	scored := evaluator.EvaluateAll(context.Background(), sampleAnswers(3))
	if len(scored) != 3 {
		t.Fatalf("expected 3 results, got %d", len(scored))
	}
	for i, s := range scored {
		if s.Score != 60 {
			t.Fatalf("result %d: expected chunk fallback 60, got %v", i, s.Score)
		}
		if !strings.Contains(s.Feedback, "Manual review recommended") {
			t.Fatalf("result %d: unexpected fallback feedback %q", i, s.Feedback)
		}
	}
}

func TestEvaluateAllInvalidElementGetsNeutralScore(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		`[{"score": 80, "feedback": "fine"},
		  {"feedback": "no score here"},
		  {"score": "88", "feedback": "string score"}]`,
	}}
	evaluator := app.NewEvaluator(gen, zap.NewNop())

	scored := evaluator.EvaluateAll(context.Background(), sampleAnswers(3))
	if scored[0].Score != 80 {
		t.Fatalf("expected 80, got %v", scored[0].Score)
	}
	if scored[1].Score != 50 {
		t.Fatalf("expected invalid-element fallback 50, got %v", scored[1].Score)
	}
	if scored[2].Score != 88 {
		t.Fatalf("expected string score coerced to 88, got %v", scored[2].Score)
	}
}

func TestEvaluateAllBackendFailureFallsBack(t *testing.T) {
	gen := &scriptedGen{} // exhausted: every call errors
	evaluator := app.NewEvaluator(gen, zap.NewNop())

	scored := evaluator.EvaluateAll(context.Background(), sampleAnswers(5))
	if len(scored) != 5 {
		t.Fatalf("expected 5 results, got %d", len(scored))
	}
	for i, s := range scored {
		if s.Score != 60 {
			t.Fatalf("result %d: expected fallback 60, got %v", i, s.Score)
		}
	}
}

func TestEvaluateAllEmptyInput(t *testing.T) {
	evaluator := app.NewEvaluator(&scriptedGen{}, zap.NewNop())
	if scored := evaluator.EvaluateAll(context.Background(), nil); len(scored) != 0 {
		t.Fatalf("expected no results, got %d", len(scored))
	}
}
