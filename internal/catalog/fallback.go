package catalog

import (
	"excel-interviewer/internal/domain"
	"excel-interviewer/internal/llm"
)

type fallbackEntry struct {
	question string
	topics   []string
	sample   string
}

// fallbackQuestions covers the category/difficulty pairs most likely to need
// generation; everything else degrades to the basic/easy entry.
var fallbackQuestions = map[domain.Category]map[domain.Difficulty]fallbackEntry{
	domain.CategoryBasic: {
		domain.DifficultyEasy: {
			question: "Walk me through how you would create a formula to calculate the total of cells A1 through A10, and explain what happens when you copy this formula to another column.",
			topics:   []string{"SUM function", "cell references", "formula copying", "relative references"},
			sample:   "I would use =SUM(A1:A10). When copied to column B, it automatically becomes =SUM(B1:B10) due to relative referencing.",
		},
		domain.DifficultyMedium: {
			question: "Describe how you would format a range of cells to highlight values above a certain threshold, and explain the business value of this approach.",
			topics:   []string{"conditional formatting", "formatting rules", "data visualization", "business application"},
			sample:   "Use conditional formatting with a rule like 'Cell Value > threshold' to apply highlighting. This helps quickly identify outliers or targets in business data.",
		},
	},
	domain.CategoryIntermediate: {
		domain.DifficultyMedium: {
			question: "Explain the difference between VLOOKUP and INDEX-MATCH functions, and when you would choose one over the other.",
			topics:   []string{"VLOOKUP", "INDEX", "MATCH", "lookup functions", "performance comparison"},
			sample:   "VLOOKUP searches left-to-right only and can be slower. INDEX-MATCH can look in any direction and is more flexible and faster for large datasets.",
		},
	},
}

// fallbackQuestion returns a deterministic question when generation fails.
func fallbackQuestion(category domain.Category, difficulty domain.Difficulty) *llm.QuestionDraft {
	entry, ok := fallbackQuestions[category][difficulty]
	if !ok {
		entry = fallbackQuestions[domain.CategoryBasic][domain.DifficultyEasy]
	}
	return &llm.QuestionDraft{
		Question:       entry.question,
		Category:       string(category),
		Difficulty:     string(difficulty),
		ExpectedTopics: entry.topics,
		SampleAnswer:   entry.sample,
	}
}
