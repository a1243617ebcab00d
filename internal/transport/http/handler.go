package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"excel-interviewer/internal/app"
	"excel-interviewer/internal/domain"
)

// Handler exposes the interview use cases over REST.
type Handler struct {
	service *app.Interviewer
	logger  *zap.Logger
}

func NewHandler(service *app.Interviewer, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Router builds the chi router with the full API surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.handleHealth)

	r.Route("/api/v1/interviews", func(r chi.Router) {
		r.Post("/start", h.handleStart)
		r.Post("/answer", h.handleSubmitAnswer)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/next-question", h.handleNextQuestion)
			r.Get("/status", h.handleStatus)
			r.Post("/end", h.handleEnd)
			r.Get("/report", h.handleReport)
			r.Get("/responses", h.handleResponses)
			r.Delete("/", h.handleDelete)
		})
	})

	return r
}

type startRequest struct {
	CandidateName string `json:"candidateName"`
}

type startResponse struct {
	SessionID    string               `json:"sessionId"`
	Status       domain.SessionStatus `json:"status"`
	CurrentPhase domain.Phase         `json:"currentPhase"`
	Message      string               `json:"message"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CandidateName == "" {
		respondError(w, http.StatusBadRequest, "candidateName is required")
		return
	}

	session, welcome, err := h.service.Start(r.Context(), req.CandidateName)
	if err != nil {
		h.logger.Error("start interview failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to start interview")
		return
	}

	respondJSON(w, http.StatusCreated, startResponse{
		SessionID:    session.ID,
		Status:       session.Status,
		CurrentPhase: session.Phase,
		Message:      welcome,
	})
}

func (h *Handler) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	question, err := h.service.NextQuestion(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, "next question", sessionID, err)
		return
	}
	if question == nil {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Interview completed or no more questions available",
		})
		return
	}
	respondJSON(w, http.StatusOK, question)
}

type answerRequest struct {
	SessionID  string `json:"sessionId"`
	QuestionID string `json:"questionId"`
	Response   string `json:"response"`
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.QuestionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId and questionId are required")
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), req.SessionID, req.QuestionID, req.Response)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondServiceError(w, "submit answer", req.SessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	status, err := h.service.Status(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, "status", sessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.service.EndEarly(r.Context(), sessionID); err != nil {
		h.respondServiceError(w, "end interview", sessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Interview ended by candidate."})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	report, err := h.service.Report(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotCompleted) || errors.Is(err, domain.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "Report not available. Interview may not be completed.")
			return
		}
		h.respondServiceError(w, "report", sessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleResponses(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, answers, err := h.service.Answers(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, "responses", sessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId":     session.ID,
		"candidateName": session.CandidateName,
		"status":        session.Status,
		"responses":     answers,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.service.Delete(r.Context(), sessionID); err != nil {
		h.respondServiceError(w, "delete interview", sessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Interview deleted successfully"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "Excel Mock Interviewer API",
	})
}

// respondServiceError maps domain errors onto HTTP statuses; unexpected
// failures are logged and returned opaque.
func (h *Handler) respondServiceError(w http.ResponseWriter, op, sessionID string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "Interview not found")
		return
	}
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
