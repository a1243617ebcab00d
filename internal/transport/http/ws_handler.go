package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"excel-interviewer/internal/app"
)

// WSHandler runs a live interview over one websocket connection: the server
// drives questions, the client sends answers, and the final report is pushed
// when the session completes.
type WSHandler struct {
	service  *app.Interviewer
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Interviewer, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Response   string `json:"response"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type welcomePayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, starts a session for the candidate named in
// the query string, and runs the question/answer loop until completion or
// disconnect. One connection means one in-flight request per session, which
// is what the state machine assumes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	candidateName := r.URL.Query().Get("name")
	if candidateName == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()

	session, welcome, err := h.service.Start(ctx, candidateName)
	if err != nil {
		h.writeError(conn, "failed to start interview")
		return
	}

	h.write(conn, outboundMessage{Type: "welcome", Payload: welcomePayload{
		SessionID: session.ID,
		Message:   welcome,
	}})

	question, err := h.service.NextQuestion(ctx, session.ID)
	if err != nil || question == nil {
		h.writeError(conn, "failed to fetch first question")
		return
	}
	h.write(conn, outboundMessage{Type: "question", Payload: question})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.writeError(conn, "invalid answer payload")
				continue
			}
			if h.handleAnswer(ctx, conn, session.ID, payload) {
				return
			}
		case "end":
			if err := h.service.EndEarly(ctx, session.ID); err != nil {
				h.writeError(conn, err.Error())
				continue
			}
			h.sendReport(ctx, conn, session.ID)
			return
		default:
			h.writeError(conn, "unsupported message type")
		}
	}
}

// handleAnswer submits one answer and pushes the follow-up. Returns true when
// the interview finished and the connection should close.
func (h *WSHandler) handleAnswer(ctx context.Context, conn *websocket.Conn, sessionID string, payload answerPayload) bool {
	result, err := h.service.SubmitAnswer(ctx, sessionID, payload.QuestionID, payload.Response)
	if err != nil {
		h.writeError(conn, err.Error())
		return false
	}

	if result.Completed {
		h.write(conn, outboundMessage{Type: "completed", Payload: map[string]string{
			"message": "Interview complete. Generating your report...",
		}})
		h.sendReport(ctx, conn, sessionID)
		return true
	}

	if result.NextQuestion != nil {
		h.write(conn, outboundMessage{Type: "question", Payload: result.NextQuestion})
	}
	return false
}

func (h *WSHandler) sendReport(ctx context.Context, conn *websocket.Conn, sessionID string) {
	report, err := h.service.Report(ctx, sessionID)
	if err != nil {
		h.writeError(conn, "report not available")
		return
	}
	h.write(conn, outboundMessage{Type: "report", Payload: report})
}

func (h *WSHandler) write(conn *websocket.Conn, msg outboundMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("ws write failed", zap.Error(err))
	}
}

func (h *WSHandler) writeError(conn *websocket.Conn, message string) {
	h.write(conn, outboundMessage{Type: "error", Payload: errorPayload{Message: message}})
}
