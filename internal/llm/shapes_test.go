package llm_test

import (
	"encoding/json"
	"testing"

	"excel-interviewer/internal/llm"
)

func TestDecodeQuestionValid(t *testing.T) {
	raw := json.RawMessage(`{
		"question": "How do you use VLOOKUP?",
		"category": "intermediate",
		"difficulty": "medium",
		"expected_topics": ["VLOOKUP", "lookup"],
		"sample_answer": "Use =VLOOKUP(...)"
	}`)
	draft, err := llm.DecodeQuestion(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if draft.Question != "How do you use VLOOKUP?" || draft.Category != "intermediate" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if len(draft.ExpectedTopics) != 2 {
		t.Fatalf("expected 2 topics, got %v", draft.ExpectedTopics)
	}
}

func TestDecodeQuestionMissingFields(t *testing.T) {
	cases := []string{
		`{"category": "basic", "difficulty": "easy", "expected_topics": []}`,
		`{"question": "q", "difficulty": "easy", "expected_topics": []}`,
		`{"question": "q", "category": "basic", "difficulty": "easy"}`,
		`[1, 2, 3]`,
	}
	for _, c := range cases {
		if _, err := llm.DecodeQuestion(json.RawMessage(c)); err == nil {
			t.Fatalf("expected error for %s", c)
		}
	}
}

func TestDecodeEvaluationsCoercion(t *testing.T) {
	raw := json.RawMessage(`[
		{"score": 85, "feedback": "good"},
		{"score": "72", "feedback": "string number"},
		{"score": "not a number", "feedback": "x"},
		{"feedback": "missing score"}
	]`)
	drafts, err := llm.DecodeEvaluations(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(drafts) != 4 {
		t.Fatalf("expected 4 drafts, got %d", len(drafts))
	}
	if !drafts[0].Valid || drafts[0].Score != 85 {
		t.Fatalf("unexpected first draft: %+v", drafts[0])
	}
	if !drafts[1].Valid || drafts[1].Score != 72 {
		t.Fatalf("expected string score coerced: %+v", drafts[1])
	}
	if drafts[2].Valid || drafts[3].Valid {
		t.Fatalf("expected invalid drafts: %+v %+v", drafts[2], drafts[3])
	}
}

func TestDecodeEvaluationsNotAnArray(t *testing.T) {
	if _, err := llm.DecodeEvaluations(json.RawMessage(`{"score": 80}`)); err == nil {
		t.Fatalf("expected error for non-array payload")
	}
}

func TestDecodeReportRequiresAllKeys(t *testing.T) {
	full := map[string]any{
		"executive_summary": "s",
		"proficiency_level": "beginner",
		"strengths":         []string{"a"},
		"weaknesses":        []string{"b"},
		"recommendations":   []string{"c"},
		"detailed_analysis": "d",
		"next_steps":        "e",
	}

	raw, _ := json.Marshal(full)
	draft, err := llm.DecodeReport(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if draft.ProficiencyLevel != "beginner" || draft.NextSteps != "e" {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	for key := range full {
		partial := map[string]any{}
		for k, v := range full {
			if k != key {
				partial[k] = v
			}
		}
		raw, _ := json.Marshal(partial)
		if _, err := llm.DecodeReport(raw); err == nil {
			t.Fatalf("expected error when %s is missing", key)
		}
	}
}
