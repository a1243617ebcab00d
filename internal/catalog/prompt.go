package catalog

import (
	"fmt"

	"excel-interviewer/internal/domain"
)

func questionPrompt(category domain.Category, difficulty domain.Difficulty, prior []domain.Answer) string {
	return fmt.Sprintf(`Generate a specific Excel interview question.

CATEGORY: %s
DIFFICULTY: %s

CATEGORY DEFINITIONS:
- basic: Navigation, simple formulas (SUM, AVERAGE), basic formatting
- intermediate: VLOOKUP, pivot tables, conditional formatting, data validation
- advanced: Complex formulas, charts, data analysis tools
- scenario: Real business problems requiring Excel solutions

%s

QUESTION REQUIREMENTS:
- Be specific and actionable
- Include clear context if needed
- Avoid yes/no questions
- Focus on practical application

Respond with valid JSON:
{
  "question": "Clear, specific question about Excel functionality",
  "category": "%s",
  "difficulty": "%s",
  "expected_topics": ["topic1", "topic2", "topic3"],
  "sample_answer": "Comprehensive model answer"
}`, category, difficulty, performanceContext(prior), category, difficulty)
}

// performanceContext summarizes prior performance so generated questions can
// track the candidate's level.
func performanceContext(prior []domain.Answer) string {
	if len(prior) == 0 {
		return "CONTEXT: This is the candidate's first question."
	}

	var sum float64
	var n int
	for _, a := range prior {
		if a.Score > 0 {
			sum += a.Score
			n++
		}
	}
	if n == 0 {
		return "CONTEXT: Previous responses available but not yet evaluated."
	}

	mean := sum / float64(n)
	performance, adjustment := "needs improvement", "Focus on fundamental concepts."
	switch {
	case mean >= 80:
		performance, adjustment = "excellent", "Challenge them with advanced concepts."
	case mean >= 65:
		performance, adjustment = "good", "Maintain current difficulty level."
	}

	return fmt.Sprintf(`CONTEXT:
- Questions answered: %d
- Average performance: %s (%.1f/100)
- Adjustment: %s`, len(prior), performance, mean, adjustment)
}
