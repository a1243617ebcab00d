package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"excel-interviewer/internal/domain"
	"excel-interviewer/internal/llm"
)

//go:embed questions.json
var defaultBankJSON []byte

// Generator produces raw text from a prompt (the generation gateway).
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// BankQuestion is a fixed catalog entry.
type BankQuestion struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Difficulty     string   `json:"difficulty"`
	ExpectedTopics []string `json:"expected_topics"`
}

// Catalog supplies the next question for a category: the fixed bank first,
// then on-demand generation once the bank is exhausted. Selection never fails;
// generation problems degrade to static fallback questions.
type Catalog struct {
	bank   map[string][]BankQuestion
	gen    Generator
	logger *zap.Logger
}

func New(bank map[string][]BankQuestion, gen Generator, logger *zap.Logger) *Catalog {
	if bank == nil {
		bank = map[string][]BankQuestion{}
	}
	return &Catalog{bank: bank, gen: gen, logger: logger}
}

// DefaultBank parses the embedded question bank.
func DefaultBank() (map[string][]BankQuestion, error) {
	return parseBank(defaultBankJSON)
}

// LoadBank reads a question bank from path, falling back to the embedded
// default when the file is absent.
func LoadBank(path string) (map[string][]BankQuestion, error) {
	if path == "" {
		return DefaultBank()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultBank()
		}
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return parseBank(data)
}

func parseBank(data []byte) (map[string][]BankQuestion, error) {
	var bank map[string][]BankQuestion
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	return bank, nil
}

// Next returns the question for the given category. The bank is consumed
// in order, one entry per prior answer of the category; once exhausted,
// questions are generated at an adaptively chosen difficulty.
func (c *Catalog) Next(ctx context.Context, category domain.Category, prior []domain.Answer) domain.Question {
	used := countCategory(prior, category)

	if entries := c.bank[string(category)]; used < len(entries) {
		entry := entries[used]
		return domain.Question{
			ID:             fmt.Sprintf("%s_%s_%s", category, entry.ID, idSuffix()),
			Text:           entry.Question,
			Category:       category,
			Difficulty:     domain.Difficulty(entry.Difficulty),
			ExpectedTopics: entry.ExpectedTopics,
		}
	}

	difficulty := NextDifficulty(category, prior)
	draft := c.generateQuestion(ctx, category, difficulty, prior)
	return domain.Question{
		ID:             fmt.Sprintf("%s_%s_%d_%s", category, difficulty, used, idSuffix()),
		Text:           draft.Question,
		Category:       domain.Category(draft.Category),
		Difficulty:     domain.Difficulty(draft.Difficulty),
		ExpectedTopics: draft.ExpectedTopics,
	}
}

func (c *Catalog) generateQuestion(ctx context.Context, category domain.Category, difficulty domain.Difficulty, prior []domain.Answer) *llm.QuestionDraft {
	prompt := questionPrompt(category, difficulty, prior)

	content, err := c.gen.Generate(ctx, prompt, 500, 0.4)
	if err != nil {
		c.logger.Error("question generation failed", zap.String("category", string(category)), zap.Error(err))
		return fallbackQuestion(category, difficulty)
	}

	raw, ok := llm.ExtractJSON(content, c.logger)
	if !ok {
		return fallbackQuestion(category, difficulty)
	}

	draft, err := llm.DecodeQuestion(raw)
	if err != nil {
		c.logger.Warn("question validation failed", zap.String("category", string(category)), zap.Error(err))
		return fallbackQuestion(category, difficulty)
	}
	return draft
}

// FindByID recovers question data from a question identifier. Bank entries are
// matched by their embedded bank ID; generated identifiers are decoded from
// their category/difficulty prefix.
func (c *Catalog) FindByID(questionID string) (domain.Question, bool) {
	for category, entries := range c.bank {
		for _, entry := range entries {
			if strings.HasPrefix(questionID, fmt.Sprintf("%s_%s_", category, entry.ID)) {
				return domain.Question{
					ID:             questionID,
					Text:           entry.Question,
					Category:       domain.Category(category),
					Difficulty:     domain.Difficulty(entry.Difficulty),
					ExpectedTopics: entry.ExpectedTopics,
				}, true
			}
		}
	}

	parts := strings.Split(questionID, "_")
	if len(parts) >= 2 {
		return domain.Question{
			ID:             questionID,
			Text:           "Generated question",
			Category:       domain.Category(parts[0]),
			Difficulty:     domain.Difficulty(parts[1]),
			ExpectedTopics: []string{"Excel skills", "Problem solving"},
		}, true
	}
	return domain.Question{}, false
}

func countCategory(answers []domain.Answer, category domain.Category) int {
	n := 0
	for _, a := range answers {
		if a.Category == category {
			n++
		}
	}
	return n
}

// idSuffix is a short random tail that keeps question IDs unique even when
// the same catalog entry recurs. Collision avoidance, not security.
func idSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
