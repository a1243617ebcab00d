package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"excel-interviewer/internal/domain"
)

// Store persists interviews in Redis. Sessions and evaluations are JSON
// values; the answer log is an RPUSH list so insertion order is preserved.
// All keys of a session share the same TTL, refreshed on every write.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	return s.writeJSON(ctx, s.sessionKey(session.ID), session)
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *Store) SaveSession(ctx context.Context, session *domain.Session) error {
	exists, err := s.client.Exists(ctx, s.sessionKey(session.ID)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound
	}
	return s.writeJSON(ctx, s.sessionKey(session.ID), session)
}

func (s *Store) AppendAnswer(ctx context.Context, sessionID string, answer domain.Answer) error {
	exists, err := s.client.Exists(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound
	}

	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	key := s.answersKey(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	items, err := s.client.LRange(ctx, s.answersKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answers := make([]domain.Answer, 0, len(items))
	for _, item := range items {
		var answer domain.Answer
		if err := json.Unmarshal([]byte(item), &answer); err != nil {
			return nil, fmt.Errorf("unmarshal answer: %w", err)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func (s *Store) ReplaceAnswers(ctx context.Context, sessionID string, answers []domain.Answer) error {
	key := s.answersKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, answer := range answers {
		data, err := json.Marshal(answer)
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace answers: %w", err)
	}
	return nil
}

func (s *Store) SaveEvaluation(ctx context.Context, evaluation *domain.Evaluation) error {
	return s.writeJSON(ctx, s.evaluationKey(evaluation.SessionID), evaluation)
}

func (s *Store) GetEvaluation(ctx context.Context, sessionID string) (*domain.Evaluation, error) {
	data, err := s.client.Get(ctx, s.evaluationKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	var evaluation domain.Evaluation
	if err := json.Unmarshal(data, &evaluation); err != nil {
		return nil, fmt.Errorf("unmarshal evaluation: %w", err)
	}
	return &evaluation, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	deleted, err := s.client.Del(ctx,
		s.sessionKey(sessionID),
		s.answersKey(sessionID),
		s.evaluationKey(sessionID),
	).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) writeJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) sessionKey(sessionID string) string {
	return "interview:session:" + sessionID
}

func (s *Store) answersKey(sessionID string) string {
	return "interview:answers:" + sessionID
}

func (s *Store) evaluationKey(sessionID string) string {
	return "interview:evaluation:" + sessionID
}
