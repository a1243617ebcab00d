package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"excel-interviewer/internal/domain"
	"excel-interviewer/internal/llm"
)

func noSleep(time.Duration) {}

func TestGenerateSuccess(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  hello world \n"})
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "test-model", zap.NewNop(), llm.WithSleep(noSleep))

	content, err := client.Generate(context.Background(), "say hello", 100, 0.5)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if content != "hello world" {
		t.Fatalf("expected trimmed response, got %q", content)
	}
	if gotBody["model"] != "test-model" {
		t.Fatalf("expected model in request, got %v", gotBody["model"])
	}
	if gotBody["stream"] != false {
		t.Fatalf("expected stream=false, got %v", gotBody["stream"])
	}
}

func TestGenerateErrorStatusIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "m", zap.NewNop(),
		llm.WithRetry(3, time.Millisecond, time.Millisecond),
		llm.WithSleep(noSleep),
	)

	_, err := client.Generate(context.Background(), "p", 100, 0.5)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestGenerateMalformedBodyIsNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "m", zap.NewNop(), llm.WithSleep(noSleep))

	_, err := client.Generate(context.Background(), "p", 100, 0.5)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGenerateRetriesEmptyResponse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			_ = json.NewEncoder(w).Encode(map[string]string{"response": "   "})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "finally"})
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "m", zap.NewNop(),
		llm.WithRetry(3, time.Millisecond, time.Millisecond),
		llm.WithSleep(noSleep),
	)

	content, err := client.Generate(context.Background(), "p", 100, 0.5)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if content != "finally" {
		t.Fatalf("expected third attempt to win, got %q", content)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGenerateCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "m", zap.NewNop(), llm.WithSleep(noSleep))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "p", 100, 0.5)
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected timeout error on canceled context, got %v", err)
	}
}

func TestGenerateExhaustedRetriesReturnTimeoutFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from now on

	var slept int
	client := llm.NewClient(server.URL, "m", zap.NewNop(),
		llm.WithRetry(3, time.Millisecond, time.Millisecond),
		llm.WithSleep(func(time.Duration) { slept++ }),
	)

	content, err := client.Generate(context.Background(), "p", 100, 0.5)
	if err != nil {
		t.Fatalf("expected fallback with nil error, got %v", err)
	}
	if slept != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", slept)
	}

	// The fallback must parse as a report-shaped value with an explicit
	// timed-out marker.
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		t.Fatalf("fallback is not valid JSON: %v", err)
	}
	if payload["proficiency_level"] != "unknown" {
		t.Fatalf("unexpected fallback payload: %v", payload)
	}
	if !strings.Contains(content, "timed out") {
		t.Fatalf("fallback missing timed-out marker: %q", content)
	}
}
