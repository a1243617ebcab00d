package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"excel-interviewer/internal/app"
	"excel-interviewer/internal/catalog"
	"excel-interviewer/internal/infra/memory"
	transport "excel-interviewer/internal/transport/http"
)

type downGen struct{}

func (downGen) Generate(context.Context, string, int, float64) (string, error) {
	return "", errors.New("backend down")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	bank, err := catalog.DefaultBank()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	questions := catalog.New(bank, downGen{}, zap.NewNop())
	service := app.NewInterviewer(memory.NewStore(), questions, downGen{}, zap.NewNop())
	server := httptest.NewServer(transport.NewHandler(service, zap.NewNop()).Router())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func startInterview(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, body := postJSON(t, server.URL+"/api/v1/interviews/start", `{"candidateName": "Alice"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}
	id, _ := body["sessionId"].(string)
	if id == "" {
		t.Fatalf("missing session id in %v", body)
	}
	return id
}

func TestStartValidation(t *testing.T) {
	server := newTestServer(t)

	resp, _ := postJSON(t, server.URL+"/api/v1/interviews/start", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, server.URL+"/api/v1/interviews/start", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid body, got %d", resp.StatusCode)
	}
}

func TestStartReturnsWelcome(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/api/v1/interviews/start", `{"candidateName": "Alice"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if body["status"] != "started" || body["currentPhase"] != "introduction" {
		t.Fatalf("unexpected body: %v", body)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "Alice") {
		t.Fatalf("welcome message missing name: %v", body["message"])
	}
}

func TestNextQuestionAndAnswerFlow(t *testing.T) {
	server := newTestServer(t)
	sessionID := startInterview(t, server)

	resp, question := getJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/next-question")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	questionID, _ := question["questionId"].(string)
	if questionID == "" || question["category"] != "basic" {
		t.Fatalf("unexpected question: %v", question)
	}

	payload := fmt.Sprintf(`{"sessionId": %q, "questionId": %q, "response": "I would freeze the top row."}`,
		sessionID, questionID)
	resp, result := postJSON(t, server.URL+"/api/v1/interviews/answer", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, result)
	}
	if result["interviewComplete"] != false || result["nextQuestion"] == nil {
		t.Fatalf("unexpected submit result: %v", result)
	}

	resp, status := getJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if status["questionsAnswered"] != 1.0 || status["status"] != "in_progress" {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestAnswerUnknownQuestion(t *testing.T) {
	server := newTestServer(t)
	sessionID := startInterview(t, server)

	payload := fmt.Sprintf(`{"sessionId": %q, "questionId": "bogus", "response": "x"}`, sessionID)
	resp, _ := postJSON(t, server.URL+"/api/v1/interviews/answer", payload)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	server := newTestServer(t)

	for _, url := range []string{
		server.URL + "/api/v1/interviews/missing/next-question",
		server.URL + "/api/v1/interviews/missing/status",
		server.URL + "/api/v1/interviews/missing/responses",
	} {
		resp, _ := getJSON(t, url)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", url, resp.StatusCode)
		}
	}
}

func TestReportBeforeCompletionIs404(t *testing.T) {
	server := newTestServer(t)
	sessionID := startInterview(t, server)

	resp, body := getJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/report")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "not be completed") {
		t.Fatalf("unexpected error message: %v", body)
	}
}

func TestEndThenReport(t *testing.T) {
	server := newTestServer(t)
	sessionID := startInterview(t, server)

	// Answer one question so the report has data.
	_, question := getJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/next-question")
	questionID, _ := question["questionId"].(string)
	payload := fmt.Sprintf(`{"sessionId": %q, "questionId": %q, "response": "answer"}`, sessionID, questionID)
	postJSON(t, server.URL+"/api/v1/interviews/answer", payload)

	resp, _ := postJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/end", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on end, got %d", resp.StatusCode)
	}

	resp, report := getJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/report")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on report, got %d: %v", resp.StatusCode, report)
	}
	if report["proficiencyLevel"] == "" || report["skillScores"] == nil {
		t.Fatalf("unexpected report: %v", report)
	}
}

func TestResponsesAndDelete(t *testing.T) {
	server := newTestServer(t)
	sessionID := startInterview(t, server)

	resp, body := getJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/responses")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["candidateName"] != "Alice" {
		t.Fatalf("unexpected responses body: %v", body)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/interviews/"+sessionID+"/", nil)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	decodeBody(t, resp2)
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp2.StatusCode)
	}

	resp, _ = getJSON(t, server.URL+"/api/v1/interviews/"+sessionID+"/status")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, body := getJSON(t, server.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected health body: %v", body)
	}
}
