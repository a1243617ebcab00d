package catalog

import "excel-interviewer/internal/domain"

// NextDifficulty maps rolling performance in a category to a difficulty tier.
// Pure function, recomputed on every call: no prior answers means easy,
// otherwise the mean score picks the band.
func NextDifficulty(category domain.Category, answers []domain.Answer) domain.Difficulty {
	var sum float64
	var n int
	for _, a := range answers {
		if a.Category == category {
			sum += a.Score
			n++
		}
	}
	if n == 0 {
		return domain.DifficultyEasy
	}

	mean := sum / float64(n)
	switch {
	case mean >= 80:
		return domain.DifficultyHard
	case mean >= 60:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyEasy
	}
}
