package memory

import (
	"context"
	"sync"

	"excel-interviewer/internal/domain"
)

// Store is an in-memory implementation of app.Store. Useful for tests and
// single-instance deployments without Redis/Postgres.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]domain.Session
	answers     map[string][]domain.Answer
	evaluations map[string]domain.Evaluation
}

func NewStore() *Store {
	return &Store{
		sessions:    make(map[string]domain.Session),
		answers:     make(map[string][]domain.Answer),
		evaluations: make(map[string]domain.Evaluation),
	}
}

func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Store) SaveSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *Store) AppendAnswer(_ context.Context, sessionID string, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.answers[sessionID] = append(s.answers[sessionID], answer)
	return nil
}

func (s *Store) ListAnswers(_ context.Context, sessionID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers := make([]domain.Answer, len(s.answers[sessionID]))
	copy(answers, s.answers[sessionID])
	return answers, nil
}

func (s *Store) ReplaceAnswers(_ context.Context, sessionID string, answers []domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := make([]domain.Answer, len(answers))
	copy(replaced, answers)
	s.answers[sessionID] = replaced
	return nil
}

func (s *Store) SaveEvaluation(_ context.Context, evaluation *domain.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations[evaluation.SessionID] = *evaluation
	return nil
}

func (s *Store) GetEvaluation(_ context.Context, sessionID string) (*domain.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evaluation, ok := s.evaluations[sessionID]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return &evaluation, nil
}

func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	delete(s.answers, sessionID)
	delete(s.evaluations, sessionID)
	return nil
}
