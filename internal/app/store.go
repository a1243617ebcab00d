package app

import (
	"context"

	"excel-interviewer/internal/domain"
)

// Store abstracts how interview sessions are persisted (in-memory, Redis,
// Postgres). Answers must come back in insertion order.
type Store interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	SaveSession(ctx context.Context, session *domain.Session) error

	AppendAnswer(ctx context.Context, sessionID string, answer domain.Answer) error
	ListAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error)
	// ReplaceAnswers overwrites the full answer log, preserving order. Used
	// once per session to write back batch-evaluation scores.
	ReplaceAnswers(ctx context.Context, sessionID string, answers []domain.Answer) error

	SaveEvaluation(ctx context.Context, evaluation *domain.Evaluation) error
	GetEvaluation(ctx context.Context, sessionID string) (*domain.Evaluation, error)

	// DeleteSession removes the session and cascades to its answers and evaluation.
	DeleteSession(ctx context.Context, sessionID string) error
}
