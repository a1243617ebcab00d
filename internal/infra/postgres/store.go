package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"excel-interviewer/internal/domain"
)

// Store persists interviews in Postgres. Answer order is the insertion order
// of the serial primary key.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO interviews (session_id, candidate_name, status, current_phase, current_question_index, total_score, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.CandidateName, session.Status, session.Phase,
		session.QuestionIndex, session.TotalScore, session.CreatedAt, session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	var completedAt *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, candidate_name, status, current_phase, current_question_index, total_score, created_at, completed_at
		FROM interviews WHERE session_id=$1`, sessionID,
	).Scan(&session.ID, &session.CandidateName, &session.Status, &session.Phase,
		&session.QuestionIndex, &session.TotalScore, &session.CreatedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	session.CompletedAt = completedAt
	return &session, nil
}

func (s *Store) SaveSession(ctx context.Context, session *domain.Session) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE interviews
		SET status=$2, current_phase=$3, current_question_index=$4, total_score=$5, completed_at=$6
		WHERE session_id=$1`,
		session.ID, session.Status, session.Phase, session.QuestionIndex,
		session.TotalScore, session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) AppendAnswer(ctx context.Context, sessionID string, answer domain.Answer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO answers (session_id, question_id, question_text, candidate_response, category, difficulty, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sessionID, answer.QuestionID, answer.QuestionText, answer.Response,
		answer.Category, answer.Difficulty, answer.Score, answer.Feedback, answer.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT question_id, question_text, candidate_response, category, difficulty, score, feedback, created_at
		FROM answers WHERE session_id=$1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.QuestionID, &a.QuestionText, &a.Response, &a.Category,
			&a.Difficulty, &a.Score, &a.Feedback, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *Store) ReplaceAnswers(ctx context.Context, sessionID string, answers []domain.Answer) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}
	for _, answer := range answers {
		if _, err := tx.Exec(ctx, `
			INSERT INTO answers (session_id, question_id, question_text, candidate_response, category, difficulty, score, feedback, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			sessionID, answer.QuestionID, answer.QuestionText, answer.Response,
			answer.Category, answer.Difficulty, answer.Score, answer.Feedback, answer.Timestamp,
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) SaveEvaluation(ctx context.Context, evaluation *domain.Evaluation) error {
	strengths, _ := json.Marshal(evaluation.Strengths)
	weaknesses, _ := json.Marshal(evaluation.Weaknesses)
	recommendations, _ := json.Marshal(evaluation.Recommendations)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO evaluations (session_id, basic_operations_score, formula_proficiency_score, data_management_score,
			analysis_visualization_score, advanced_features_score, overall_score, proficiency_level,
			strengths, weaknesses, recommendations, detailed_report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO NOTHING`,
		evaluation.SessionID,
		evaluation.Skills.BasicOperations, evaluation.Skills.FormulaProficiency,
		evaluation.Skills.DataManagement, evaluation.Skills.AnalysisVisualization,
		evaluation.Skills.AdvancedFeatures,
		evaluation.OverallScore, evaluation.ProficiencyLevel,
		strengths, weaknesses, recommendations,
		evaluation.DetailedReport, evaluation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (s *Store) GetEvaluation(ctx context.Context, sessionID string) (*domain.Evaluation, error) {
	var evaluation domain.Evaluation
	var strengths, weaknesses, recommendations []byte
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, basic_operations_score, formula_proficiency_score, data_management_score,
			analysis_visualization_score, advanced_features_score, overall_score, proficiency_level,
			strengths, weaknesses, recommendations, detailed_report, created_at
		FROM evaluations WHERE session_id=$1`, sessionID,
	).Scan(&evaluation.SessionID,
		&evaluation.Skills.BasicOperations, &evaluation.Skills.FormulaProficiency,
		&evaluation.Skills.DataManagement, &evaluation.Skills.AnalysisVisualization,
		&evaluation.Skills.AdvancedFeatures,
		&evaluation.OverallScore, &evaluation.ProficiencyLevel,
		&strengths, &weaknesses, &recommendations,
		&evaluation.DetailedReport, &evaluation.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select evaluation: %w", err)
	}

	if err := json.Unmarshal(strengths, &evaluation.Strengths); err != nil {
		return nil, fmt.Errorf("unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal(weaknesses, &evaluation.Weaknesses); err != nil {
		return nil, fmt.Errorf("unmarshal weaknesses: %w", err)
	}
	if err := json.Unmarshal(recommendations, &evaluation.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	return &evaluation, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM interviews WHERE session_id=$1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
