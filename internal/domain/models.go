package domain

import "time"

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

const (
	StatusStarted    SessionStatus = "started"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Session tracks one candidate's progress through the interview.
type Session struct {
	ID            string        `json:"sessionId"`
	CandidateName string        `json:"candidateName"`
	Status        SessionStatus `json:"status"`
	Phase         Phase         `json:"currentPhase"`
	QuestionIndex int           `json:"currentQuestionIndex"`
	TotalScore    float64       `json:"totalScore"`
	CreatedAt     time.Time     `json:"createdAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
}

// Answer is one recorded candidate response. Score and feedback stay zero
// until batch evaluation at report time.
type Answer struct {
	QuestionID   string     `json:"questionId"`
	QuestionText string     `json:"questionText"`
	Response     string     `json:"candidateResponse"`
	Category     Category   `json:"category"`
	Difficulty   Difficulty `json:"difficulty"`
	Score        float64    `json:"score"`
	Feedback     string     `json:"feedback"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Question is what the candidate is asked next.
type Question struct {
	ID             string     `json:"questionId"`
	Text           string     `json:"questionText"`
	Category       Category   `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	ExpectedTopics []string   `json:"expectedTopics"`
}

// SkillScores holds the five fixed skill slots, each 0-100.
type SkillScores struct {
	BasicOperations       float64 `json:"basic_operations"`
	FormulaProficiency    float64 `json:"formula_proficiency"`
	DataManagement        float64 `json:"data_management"`
	AnalysisVisualization float64 `json:"analysis_visualization"`
	AdvancedFeatures      float64 `json:"advanced_features"`
}

// Values returns the skill slots in report order.
func (s SkillScores) Values() [5]float64 {
	return [5]float64{
		s.BasicOperations,
		s.FormulaProficiency,
		s.DataManagement,
		s.AnalysisVisualization,
		s.AdvancedFeatures,
	}
}

// Evaluation is the persisted summary produced once per completed session.
type Evaluation struct {
	SessionID        string      `json:"sessionId"`
	Skills           SkillScores `json:"skillScores"`
	OverallScore     float64     `json:"overallScore"`
	ProficiencyLevel string      `json:"proficiencyLevel"`
	Strengths        []string    `json:"strengths"`
	Weaknesses       []string    `json:"weaknesses"`
	Recommendations  []string    `json:"recommendations"`
	DetailedReport   string      `json:"detailedReport"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// Report is the caller-facing view of a finished interview.
type Report struct {
	SessionID        string      `json:"sessionId"`
	OverallScore     float64     `json:"overallScore"`
	ProficiencyLevel string      `json:"proficiencyLevel"`
	Skills           SkillScores `json:"skillScores"`
	Strengths        []string    `json:"strengths"`
	Weaknesses       []string    `json:"weaknesses"`
	Recommendations  []string    `json:"recommendations"`
	DetailedFeedback string      `json:"detailedFeedback"`
	DurationMinutes  float64     `json:"interviewDurationMinutes"`
}

// Status is the caller-facing progress snapshot of a session.
type Status struct {
	SessionID         string        `json:"sessionId"`
	Status            SessionStatus `json:"status"`
	Phase             Phase         `json:"currentPhase"`
	QuestionsAnswered int           `json:"questionsAnswered"`
	TotalQuestions    int           `json:"totalQuestions"`
	CurrentScore      float64       `json:"currentScore"`
	ElapsedMinutes    float64       `json:"elapsedTimeMinutes"`
}
