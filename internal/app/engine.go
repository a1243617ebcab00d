package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"excel-interviewer/internal/domain"
)

// QuestionSource supplies the next question for a category and resolves
// question identifiers back into question data.
type QuestionSource interface {
	Next(ctx context.Context, category domain.Category, prior []domain.Answer) domain.Question
	FindByID(questionID string) (domain.Question, bool)
}

// Generator produces raw text from a prompt (the generation gateway).
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Interviewer owns interview progression: phase transitions, answer
// recording, and report generation. Mutating operations on the same session
// are serialized through a per-session mutex; the state machine assumes
// at most one in-flight request per session.
type Interviewer struct {
	store     Store
	questions QuestionSource
	evaluator *Evaluator
	reporter  *Reporter
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	reportGroup singleflight.Group
}

func NewInterviewer(store Store, questions QuestionSource, gen Generator, logger *zap.Logger) *Interviewer {
	return &Interviewer{
		store:     store,
		questions: questions,
		evaluator: NewEvaluator(gen, logger),
		reporter:  NewReporter(gen, logger),
		logger:    logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// WithClock is test-only for deterministic timestamps.
func (i *Interviewer) WithClock(now func() time.Time) *Interviewer {
	i.now = now
	return i
}

// Start creates a session in (introduction, 0, started) and returns it with
// the welcome text.
func (i *Interviewer) Start(ctx context.Context, candidateName string) (*domain.Session, string, error) {
	session := &domain.Session{
		ID:            uuid.NewString(),
		CandidateName: candidateName,
		Status:        domain.StatusStarted,
		Phase:         domain.PhaseIntroduction,
		CreatedAt:     i.now(),
	}
	if err := i.store.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	i.logger.Info("interview started",
		zap.String("session_id", session.ID),
		zap.String("candidate", candidateName),
	)
	return session, welcomeMessage(candidateName), nil
}

// NextQuestion returns the question the candidate should answer next, or nil
// once the session has concluded. Calling it repeatedly without submitting an
// answer returns an equivalent question and does not advance progression.
func (i *Interviewer) NextQuestion(ctx context.Context, sessionID string) (*domain.Question, error) {
	unlock := i.lockSession(sessionID)
	defer unlock()

	session, err := i.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Phase == domain.PhaseIntroduction {
		session.Phase = domain.PhaseBasicOperations
		session.Status = domain.StatusInProgress
		session.QuestionIndex = 0
		if err := i.store.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}

	if session.Phase == domain.PhaseConclusion {
		return nil, nil
	}

	question, err := i.questionForPhase(ctx, session, session.Phase)
	if err != nil {
		return nil, err
	}
	return question, nil
}

// SubmitResult reports the progression outcome of one answer. No score is
// returned synchronously; scoring happens at report time.
type SubmitResult struct {
	Advanced     bool             `json:"advanced"`
	NextQuestion *domain.Question `json:"nextQuestion,omitempty"`
	Completed    bool             `json:"interviewComplete"`
}

// SubmitAnswer records the candidate's response and evaluates progression:
// after the phase quota is met the session moves to the next phase (or
// completes), otherwise the next question of the same phase is returned.
func (i *Interviewer) SubmitAnswer(ctx context.Context, sessionID, questionID, response string) (*SubmitResult, error) {
	unlock := i.lockSession(sessionID)
	defer unlock()

	session, err := i.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.StatusCompleted {
		return &SubmitResult{Completed: true}, nil
	}

	question, ok := i.questions.FindByID(questionID)
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}

	answer := domain.Answer{
		QuestionID:   questionID,
		QuestionText: question.Text,
		Response:     response,
		Category:     question.Category,
		Difficulty:   question.Difficulty,
		Timestamp:    i.now(),
	}
	if err := i.store.AppendAnswer(ctx, sessionID, answer); err != nil {
		return nil, fmt.Errorf("append answer: %w", err)
	}

	return i.evaluateProgression(ctx, session)
}

// evaluateProgression applies the quota rule to the freshly extended answer
// log and either pre-fetches the next question or completes the session.
func (i *Interviewer) evaluateProgression(ctx context.Context, session *domain.Session) (*SubmitResult, error) {
	answers, err := i.store.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	category, _ := domain.CategoryFor(session.Phase)
	answered := countCategory(answers, category)

	if answered < domain.QuestionsPerPhase {
		question, err := i.questionForPhase(ctx, session, session.Phase)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{NextQuestion: question}, nil
	}

	next := domain.NextPhase(session.Phase)
	if next == domain.PhaseConclusion {
		i.complete(session)
		if err := i.store.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		i.logger.Info("interview completed", zap.String("session_id", session.ID))
		return &SubmitResult{Advanced: true, Completed: true}, nil
	}

	session.Phase = next
	session.QuestionIndex = 0
	if err := i.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	question, err := i.questionForPhase(ctx, session, next)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Advanced: true, NextQuestion: question}, nil
}

// questionForPhase selects the next question and keeps the stored question
// index in sync with the answer count for the phase's category.
func (i *Interviewer) questionForPhase(ctx context.Context, session *domain.Session, phase domain.Phase) (*domain.Question, error) {
	category, ok := domain.CategoryFor(phase)
	if !ok {
		return nil, nil
	}

	answers, err := i.store.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	question := i.questions.Next(ctx, category, answers)

	index := countCategory(answers, category)
	if index != session.QuestionIndex {
		session.QuestionIndex = index
		if err := i.store.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return &question, nil
}

// Status returns a progress snapshot for the session.
func (i *Interviewer) Status(ctx context.Context, sessionID string) (*domain.Status, error) {
	session, err := i.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := i.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return &domain.Status{
		SessionID:         sessionID,
		Status:            session.Status,
		Phase:             session.Phase,
		QuestionsAnswered: len(answers),
		TotalQuestions:    estimatedTotalQuestions,
		CurrentScore:      session.TotalScore,
		ElapsedMinutes:    i.now().Sub(session.CreatedAt).Minutes(),
	}, nil
}

// EndEarly forces the session into its terminal state regardless of progress.
func (i *Interviewer) EndEarly(ctx context.Context, sessionID string) error {
	unlock := i.lockSession(sessionID)
	defer unlock()

	session, err := i.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	i.complete(session)
	if err := i.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	i.logger.Info("interview ended early", zap.String("session_id", sessionID))
	return nil
}

// Answers returns the session together with its full answer log.
func (i *Interviewer) Answers(ctx context.Context, sessionID string) (*domain.Session, []domain.Answer, error) {
	session, err := i.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	answers, err := i.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("list answers: %w", err)
	}
	return session, answers, nil
}

// Delete removes the session, its answers, and its evaluation.
func (i *Interviewer) Delete(ctx context.Context, sessionID string) error {
	unlock := i.lockSession(sessionID)
	defer unlock()

	if _, err := i.store.GetSession(ctx, sessionID); err != nil {
		return err
	}
	return i.store.DeleteSession(ctx, sessionID)
}

// Report produces the final report for a completed session. The first call
// scores all answers and persists the evaluation; later calls return the
// stored record. Concurrent calls for the same session share one synthesis.
func (i *Interviewer) Report(ctx context.Context, sessionID string) (*domain.Report, error) {
	result, err, _ := i.reportGroup.Do(sessionID, func() (interface{}, error) {
		return i.buildReport(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Report), nil
}

func (i *Interviewer) buildReport(ctx context.Context, sessionID string) (*domain.Report, error) {
	session, err := i.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.StatusCompleted {
		return nil, domain.ErrSessionNotCompleted
	}

	if stored, err := i.store.GetEvaluation(ctx, sessionID); err == nil && stored != nil {
		return i.reportFromEvaluation(session, stored), nil
	}

	answers, err := i.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(answers) == 0 {
		return nil, domain.ErrReportNotFound
	}

	scored := i.evaluator.EvaluateAll(ctx, answers)
	for idx := range answers {
		answers[idx].Score = scored[idx].Score
		answers[idx].Feedback = scored[idx].Feedback
	}
	if err := i.store.ReplaceAnswers(ctx, sessionID, answers); err != nil {
		return nil, fmt.Errorf("store scores: %w", err)
	}

	evaluation := i.reporter.Synthesize(ctx, sessionID, answers)
	evaluation.CreatedAt = i.now()
	if err := i.store.SaveEvaluation(ctx, evaluation); err != nil {
		return nil, fmt.Errorf("save evaluation: %w", err)
	}

	session.TotalScore = evaluation.OverallScore
	if err := i.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	i.logger.Info("final report generated",
		zap.String("session_id", sessionID),
		zap.Float64("overall_score", evaluation.OverallScore),
	)
	return i.reportFromEvaluation(session, evaluation), nil
}

func (i *Interviewer) reportFromEvaluation(session *domain.Session, evaluation *domain.Evaluation) *domain.Report {
	completed := i.now()
	if session.CompletedAt != nil {
		completed = *session.CompletedAt
	}
	return &domain.Report{
		SessionID:        session.ID,
		OverallScore:     evaluation.OverallScore,
		ProficiencyLevel: evaluation.ProficiencyLevel,
		Skills:           evaluation.Skills,
		Strengths:        evaluation.Strengths,
		Weaknesses:       evaluation.Weaknesses,
		Recommendations:  evaluation.Recommendations,
		DetailedFeedback: evaluation.DetailedReport,
		DurationMinutes:  completed.Sub(session.CreatedAt).Minutes(),
	}
}

func (i *Interviewer) complete(session *domain.Session) {
	now := i.now()
	session.Status = domain.StatusCompleted
	session.Phase = domain.PhaseConclusion
	session.CompletedAt = &now
}

func (i *Interviewer) lockSession(sessionID string) func() {
	i.mu.Lock()
	lock, ok := i.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		i.locks[sessionID] = lock
	}
	i.mu.Unlock()

	lock.Lock()
	return lock.Unlock
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

// estimatedTotalQuestions is the advertised interview length for status
// reporting; the real count depends on how categories share phases.
const estimatedTotalQuestions = 15

func welcomeMessage(candidateName string) string {
	return fmt.Sprintf(`Hello %s! Welcome to the Excel Skills Assessment Interview.

I'm your AI interviewer, and I'll be evaluating your Excel knowledge through a series of questions.

What to expect:
- The interview will take approximately 25-35 minutes
- Questions will cover different Excel skill levels
- You can explain your answers in detail - the more specific, the better
- There are no trick questions - just demonstrate your knowledge

We'll cover:
- Basic Excel operations and navigation
- Formulas and functions
- Data management and analysis
- Advanced features and real-world scenarios

Ready to begin? Let's start with some foundational questions!`, candidateName)
}
