package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"excel-interviewer/internal/app"
	"excel-interviewer/internal/catalog"
	"excel-interviewer/internal/infra/memory"
	transport "excel-interviewer/internal/transport/http"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	bank, err := catalog.DefaultBank()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	questions := catalog.New(bank, downGen{}, zap.NewNop())
	service := app.NewInterviewer(memory.NewStore(), questions, downGen{}, zap.NewNop())
	handler := transport.NewWSHandler(service, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dialWS(t *testing.T, server *httptest.Server, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWSRequiresName(t *testing.T) {
	server := newWSServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without name")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func TestWSWelcomeAndFirstQuestion(t *testing.T) {
	server := newWSServer(t)
	conn := dialWS(t, server, "Alice")

	welcome := readMessage(t, conn)
	if welcome.Type != "welcome" {
		t.Fatalf("expected welcome, got %s", welcome.Type)
	}
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(welcome.Payload, &payload); err != nil {
		t.Fatalf("unmarshal welcome: %v", err)
	}
	if payload.SessionID == "" || !strings.Contains(payload.Message, "Alice") {
		t.Fatalf("unexpected welcome payload: %+v", payload)
	}

	question := readMessage(t, conn)
	if question.Type != "question" {
		t.Fatalf("expected question, got %s", question.Type)
	}
}

func TestWSAnswerLoopAndEnd(t *testing.T) {
	server := newWSServer(t)
	conn := dialWS(t, server, "Alice")

	readMessage(t, conn) // welcome
	question := readMessage(t, conn)

	var q struct {
		QuestionID string `json:"questionId"`
	}
	if err := json.Unmarshal(question.Payload, &q); err != nil {
		t.Fatalf("unmarshal question: %v", err)
	}

	answer := map[string]any{
		"type": "answer",
		"payload": map[string]string{
			"questionId": q.QuestionID,
			"response":   "I would use freeze panes.",
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	next := readMessage(t, conn)
	if next.Type != "question" {
		t.Fatalf("expected follow-up question, got %s", next.Type)
	}

	if err := conn.WriteJSON(map[string]any{"type": "end"}); err != nil {
		t.Fatalf("write end: %v", err)
	}
	report := readMessage(t, conn)
	if report.Type != "report" {
		t.Fatalf("expected report, got %s", report.Type)
	}
	var r struct {
		ProficiencyLevel string `json:"proficiencyLevel"`
	}
	if err := json.Unmarshal(report.Payload, &r); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if r.ProficiencyLevel == "" {
		t.Fatalf("expected proficiency level in report")
	}
}

func TestWSUnsupportedMessageType(t *testing.T) {
	server := newWSServer(t)
	conn := dialWS(t, server, "Alice")

	readMessage(t, conn) // welcome
	readMessage(t, conn) // question

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
}
