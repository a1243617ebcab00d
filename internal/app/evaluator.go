package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"excel-interviewer/internal/domain"
	"excel-interviewer/internal/llm"
)

const (
	evaluationChunkSize = 3
	maxFeedbackLength   = 500

	invalidElementScore    = 50.0
	invalidElementFeedback = "Evaluation could not be completed. Manual review recommended."

	chunkFallbackScore    = 60.0
	chunkFallbackFeedback = "System evaluation unavailable. Response shows basic Excel understanding. Manual review recommended for detailed feedback."
)

// ScoredAnswer is the evaluation outcome for one answer.
type ScoredAnswer struct {
	Score    float64
	Feedback string
}

// Evaluator scores a session's answers in fixed-size chunks. Chunk failures
// are isolated; any chunk the backend cannot score gets a neutral fallback
// so the batch always produces a result per input.
type Evaluator struct {
	gen    Generator
	logger *zap.Logger
}

func NewEvaluator(gen Generator, logger *zap.Logger) *Evaluator {
	return &Evaluator{gen: gen, logger: logger}
}

// EvaluateAll scores every answer, preserving input order and length.
// Chunks are processed sequentially to bound backend load.
func (e *Evaluator) EvaluateAll(ctx context.Context, answers []domain.Answer) []ScoredAnswer {
	results := make([]ScoredAnswer, 0, len(answers))
	for start := 0; start < len(answers); start += evaluationChunkSize {
		end := start + evaluationChunkSize
		if end > len(answers) {
			end = len(answers)
		}
		results = append(results, e.evaluateChunk(ctx, answers[start:end])...)
	}
	return results
}

func (e *Evaluator) evaluateChunk(ctx context.Context, chunk []domain.Answer) []ScoredAnswer {
	content, err := e.gen.Generate(ctx, evaluationPrompt(chunk), 1000, 0.2)
	if err != nil {
		e.logger.Error("chunk evaluation failed", zap.Int("chunk_size", len(chunk)), zap.Error(err))
		return fallbackChunk(len(chunk))
	}

	raw, ok := llm.ExtractJSON(content, e.logger)
	if !ok {
		return fallbackChunk(len(chunk))
	}

	drafts, err := llm.DecodeEvaluations(raw)
	if err != nil || len(drafts) != len(chunk) {
		e.logger.Warn("evaluation payload unusable",
			zap.Int("chunk_size", len(chunk)),
			zap.Int("got", len(drafts)),
			zap.Error(err),
		)
		return fallbackChunk(len(chunk))
	}

	scored := make([]ScoredAnswer, len(drafts))
	for i, draft := range drafts {
		if !draft.Valid {
			scored[i] = ScoredAnswer{Score: invalidElementScore, Feedback: invalidElementFeedback}
			continue
		}
		scored[i] = ScoredAnswer{
			Score:    clampScore(draft.Score),
			Feedback: truncate(draft.Feedback, maxFeedbackLength),
		}
	}
	return scored
}

func fallbackChunk(n int) []ScoredAnswer {
	scored := make([]ScoredAnswer, n)
	for i := range scored {
		scored[i] = ScoredAnswer{Score: chunkFallbackScore, Feedback: chunkFallbackFeedback}
	}
	return scored
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func evaluationPrompt(chunk []domain.Answer) string {
	type promptAnswer struct {
		Question          string   `json:"question"`
		CandidateResponse string   `json:"candidate_response"`
		Category          string   `json:"category"`
		Difficulty        string   `json:"difficulty"`
		ExpectedTopics    []string `json:"expected_topics"`
	}
	payload := make([]promptAnswer, len(chunk))
	for i, a := range chunk {
		payload[i] = promptAnswer{
			Question:          a.QuestionText,
			CandidateResponse: a.Response,
			Category:          string(a.Category),
			Difficulty:        string(a.Difficulty),
			ExpectedTopics:    []string{},
		}
	}
	encoded, _ := json.MarshalIndent(payload, "", "  ")

	return fmt.Sprintf(`You are an expert Excel interviewer evaluating candidate responses.

EVALUATION CRITERIA:
- Technical Accuracy (40%%): Is the answer technically correct?
- Completeness (30%%): Does it fully address the question?
- Clarity (20%%): Is the explanation clear and well-structured?
- Practical Application (10%%): Shows real-world understanding?

SCORING SCALE:
- 90-100: Excellent, comprehensive answer with advanced insights
- 80-89: Good answer, covers most key points accurately
- 70-79: Adequate answer, basic understanding demonstrated
- 60-69: Partial answer, some gaps in knowledge
- 50-59: Weak answer, significant misunderstandings
- Below 50: Incorrect or inadequate response

ANSWERS TO EVALUATE:
%s

Respond ONLY with a valid JSON array. Do NOT include any explanation, markdown, or extra text.
[
  {
    "score": <number between 0-100>,
    "feedback": "<specific, constructive feedback explaining the score>"
  }
]`, encoded)
}
