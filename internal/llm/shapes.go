package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// This file is the single conversion point between untrusted backend text and
// trusted internal values. Drafts are loosely coerced (models return numbers
// as strings and vice versa) and then checked for required fields; consumers
// substitute deterministic fallbacks when decoding reports an error.

// QuestionDraft is the expected shape of a generated question.
type QuestionDraft struct {
	Question       string
	Category       string
	Difficulty     string
	ExpectedTopics []string
	SampleAnswer   string
}

// DecodeQuestion validates raw against the question shape.
func DecodeQuestion(raw json.RawMessage) (*QuestionDraft, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	draft := &QuestionDraft{
		Question:       coerceString(fields["question"]),
		Category:       coerceString(fields["category"]),
		Difficulty:     coerceString(fields["difficulty"]),
		ExpectedTopics: coerceStringSlice(fields["expected_topics"]),
		SampleAnswer:   coerceString(fields["sample_answer"]),
	}
	if draft.Question == "" {
		return nil, fmt.Errorf("question draft missing question text")
	}
	if draft.Category == "" || draft.Difficulty == "" {
		return nil, fmt.Errorf("question draft missing category or difficulty")
	}
	if _, ok := fields["expected_topics"]; !ok {
		return nil, fmt.Errorf("question draft missing expected_topics")
	}
	return draft, nil
}

// EvaluationDraft is one element of an evaluation array. Valid is false when
// the element failed field validation and needs the per-record fallback.
type EvaluationDraft struct {
	Score    float64
	Feedback string
	Valid    bool
}

// DecodeEvaluations validates raw against the array-of-evaluations shape.
// An error means the array itself is unusable; individual elements that fail
// validation come back with Valid=false instead.
func DecodeEvaluations(raw json.RawMessage) ([]EvaluationDraft, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("evaluation payload is not an array: %w", err)
	}

	drafts := make([]EvaluationDraft, len(elements))
	for i, element := range elements {
		fields, err := decodeObject(element)
		if err != nil {
			continue
		}
		scoreRaw, hasScore := fields["score"]
		feedbackRaw, hasFeedback := fields["feedback"]
		if !hasScore || !hasFeedback {
			continue
		}
		score, ok := coerceFloat(scoreRaw)
		if !ok {
			continue
		}
		drafts[i] = EvaluationDraft{
			Score:    score,
			Feedback: coerceString(feedbackRaw),
			Valid:    true,
		}
	}
	return drafts, nil
}

// ReportDraft is the expected shape of the narrative report payload.
type ReportDraft struct {
	ExecutiveSummary string
	ProficiencyLevel string
	Strengths        []string
	Weaknesses       []string
	Recommendations  []string
	DetailedAnalysis string
	NextSteps        string
}

var reportRequiredKeys = []string{
	"executive_summary",
	"proficiency_level",
	"strengths",
	"weaknesses",
	"recommendations",
	"detailed_analysis",
	"next_steps",
}

// DecodeReport validates raw against the report shape. Every key must be
// present; string fields may be empty.
func DecodeReport(raw json.RawMessage) (*ReportDraft, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	for _, key := range reportRequiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("report draft missing %s", key)
		}
	}
	return &ReportDraft{
		ExecutiveSummary: coerceString(fields["executive_summary"]),
		ProficiencyLevel: coerceString(fields["proficiency_level"]),
		Strengths:        coerceStringSlice(fields["strengths"]),
		Weaknesses:       coerceStringSlice(fields["weaknesses"]),
		Recommendations:  coerceStringSlice(fields["recommendations"]),
		DetailedAnalysis: coerceString(fields["detailed_analysis"]),
		NextSteps:        coerceString(fields["next_steps"]),
	}, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return fields, nil
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func coerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
