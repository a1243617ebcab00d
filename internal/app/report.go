package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"excel-interviewer/internal/domain"
	"excel-interviewer/internal/llm"
)

// Reporter aggregates scored answers into the final evaluation. The numeric
// skill vector is deterministic; only the narrative fields come from the
// backend, with a fixed score-band report when generation fails.
type Reporter struct {
	gen    Generator
	logger *zap.Logger
}

func NewReporter(gen Generator, logger *zap.Logger) *Reporter {
	return &Reporter{gen: gen, logger: logger}
}

// Synthesize builds the evaluation record for a completed session's scored
// answers. It never fails; backend problems degrade to the heuristic report.
func (r *Reporter) Synthesize(ctx context.Context, sessionID string, answers []domain.Answer) *domain.Evaluation {
	skills := skillScores(answers)
	overall := overallScore(skills)

	draft := r.narrative(ctx, answers, skills, overall)

	return &domain.Evaluation{
		SessionID:        sessionID,
		Skills:           skills,
		OverallScore:     overall,
		ProficiencyLevel: draft.ProficiencyLevel,
		Strengths:        draft.Strengths,
		Weaknesses:       draft.Weaknesses,
		Recommendations:  draft.Recommendations,
		DetailedReport:   draft.DetailedAnalysis,
	}
}

func (r *Reporter) narrative(ctx context.Context, answers []domain.Answer, skills domain.SkillScores, overall float64) *llm.ReportDraft {
	content, err := r.gen.Generate(ctx, reportPrompt(answers, skills, overall), 1200, 0.3)
	if err != nil {
		r.logger.Error("report generation failed", zap.Error(err))
		return fallbackReport(overall)
	}

	raw, ok := llm.ExtractJSON(content, r.logger)
	if !ok {
		return fallbackReport(overall)
	}

	draft, err := llm.DecodeReport(raw)
	if err != nil {
		r.logger.Warn("report validation failed", zap.Error(err))
		return fallbackReport(overall)
	}
	return draft
}

// skillScores maps per-category means onto the five fixed skill slots.
// The "intermediate" category covers two phases, so its mean is written to
// both the formula_proficiency and data_management slots; categories that
// never ran stay at zero.
func skillScores(answers []domain.Answer) domain.SkillScores {
	sums := map[domain.Category]float64{}
	counts := map[domain.Category]int{}
	for _, a := range answers {
		sums[a.Category] += a.Score
		counts[a.Category]++
	}
	mean := func(c domain.Category) float64 {
		if counts[c] == 0 {
			return 0
		}
		return sums[c] / float64(counts[c])
	}

	intermediate := mean(domain.CategoryIntermediate)
	return domain.SkillScores{
		BasicOperations:       mean(domain.CategoryBasic),
		FormulaProficiency:    intermediate,
		DataManagement:        intermediate,
		AnalysisVisualization: mean(domain.CategoryAdvanced),
		AdvancedFeatures:      mean(domain.CategoryScenario),
	}
}

// overallScore is the arithmetic mean of the five skill slots. Missing skills
// count as zero, biasing the mean downward when a phase never ran.
func overallScore(skills domain.SkillScores) float64 {
	values := skills.Values()
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func reportPrompt(answers []domain.Answer, skills domain.SkillScores, overall float64) string {
	breakdown, _ := json.MarshalIndent(skills, "", "  ")

	return fmt.Sprintf(`Generate a comprehensive Excel skills assessment report.

INTERVIEW DATA:
- Total Questions: %d
- Overall Score: %.1f/100
- Skill Breakdown: %s

PERFORMANCE ANALYSIS:
%s

REPORT REQUIREMENTS:
- Professional tone
- Specific, actionable feedback
- Evidence-based conclusions
- Clear improvement roadmap

Respond with valid JSON:
{
  "executive_summary": "2-3 sentence professional overview",
  "proficiency_level": "beginner|intermediate|advanced|expert",
  "strengths": ["strength1", "strength2", "strength3"],
  "weaknesses": ["weakness1", "weakness2", "weakness3"],
  "recommendations": ["actionable recommendation1", "actionable recommendation2"],
  "detailed_analysis": "Comprehensive paragraph analyzing performance across all areas",
  "next_steps": "Specific learning path with priorities"
}`, len(answers), overall, breakdown, categoryAnalysis(answers))
}

// categoryAnalysis summarizes per-category performance for the report prompt.
func categoryAnalysis(answers []domain.Answer) string {
	sums := map[domain.Category]float64{}
	counts := map[domain.Category]int{}
	for _, a := range answers {
		sums[a.Category] += a.Score
		counts[a.Category]++
	}
	if len(counts) == 0 {
		return "- Limited response data available"
	}

	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	lines := make([]string, 0, len(categories))
	for _, c := range categories {
		cat := domain.Category(c)
		label := strings.ToUpper(c[:1]) + c[1:]
		lines = append(lines, fmt.Sprintf("- %s: %.1f/100 (%d questions)",
			label, sums[cat]/float64(counts[cat]), counts[cat]))
	}
	return strings.Join(lines, "\n")
}

// fallbackReport builds the deterministic score-band report. Boundary values
// 85/70/55 belong to the higher band.
func fallbackReport(overall float64) *llm.ReportDraft {
	var proficiency, summary string
	switch {
	case overall >= 85:
		proficiency = "advanced"
		summary = "demonstrates strong Excel proficiency with advanced skills"
	case overall >= 70:
		proficiency = "intermediate"
		summary = "shows solid Excel fundamentals with room for advanced growth"
	case overall >= 55:
		proficiency = "beginner"
		summary = "displays basic Excel understanding requiring significant development"
	default:
		proficiency = "novice"
		summary = "needs foundational Excel training before advancing"
	}

	return &llm.ReportDraft{
		ExecutiveSummary: fmt.Sprintf("Candidate %s based on comprehensive skills assessment.", summary),
		ProficiencyLevel: proficiency,
		Strengths:        []string{"Shows willingness to learn", "Communicates clearly", "Attempts problem-solving"},
		Weaknesses:       []string{"Needs more hands-on practice", "Should strengthen core concepts"},
		Recommendations: []string{
			"Complete structured Excel fundamentals course",
			"Practice daily with real datasets",
			"Focus on formula and function mastery",
		},
		DetailedAnalysis: fmt.Sprintf("Assessment completed with overall performance of %.1f/100. Systematic improvement in identified weak areas will enhance Excel capabilities significantly.", overall),
		NextSteps:        "Begin with Excel basics certification, then progress to intermediate features based on improved competency.",
	}
}
