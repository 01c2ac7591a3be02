package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

const keyEnv = "MEDBOT_TEST_LLM_KEY"

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, answer string, lastReq *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if lastReq != nil {
			_ = json.NewDecoder(r.Body).Decode(lastReq)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gemma2-9b-it",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": answer},
				"finish_reason": "stop",
			}},
		})
	}))
}

func errorServer(status int, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
}

func TestNewMissingCredential(t *testing.T) {
	t.Setenv(keyEnv, "")
	_, err := New(Config{APIKeyEnv: keyEnv})
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
}

func TestComplete(t *testing.T) {
	var req chatRequest
	srv := completionServer(t, "Aspirin reduces fever and pain.", &req)
	defer srv.Close()

	t.Setenv(keyEnv, "gsk-test")
	c, err := New(Config{BaseURL: srv.URL, APIKeyEnv: keyEnv})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Complete(context.Background(), "What is aspirin used for?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Aspirin reduces fever and pain." {
		t.Errorf("answer = %q", got)
	}
	if req.Model != DefaultModel || len(req.Messages) != 1 || req.Messages[0].Role != "user" ||
		req.Messages[0].Content != "What is aspirin used for?" {
		t.Errorf("request = %+v", req)
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model() = %q", c.Model())
	}
}

func TestCompleteUnauthorizedIsRemoteModelError(t *testing.T) {
	var calls atomic.Int32
	srv := errorServer(http.StatusUnauthorized, &calls)
	defer srv.Close()

	t.Setenv(keyEnv, "gsk-bad")
	c, _ := New(Config{BaseURL: srv.URL, APIKeyEnv: keyEnv, MaxRetries: 3})
	c.retryBase = time.Millisecond
	_, err := c.Complete(context.Background(), "q")
	if !errors.Is(err, domain.ErrRemoteModel) {
		t.Fatalf("err = %v, want ErrRemoteModel", err)
	}
	var rme *domain.RemoteModelError
	if !errors.As(err, &rme) || rme.Model != DefaultModel {
		t.Fatalf("err = %#v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, 401 must not be retried", calls.Load())
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := errorServer(http.StatusServiceUnavailable, &calls)
	defer srv.Close()

	t.Setenv(keyEnv, "gsk-test")
	c, _ := New(Config{BaseURL: srv.URL, APIKeyEnv: keyEnv, MaxRetries: 2})
	c.retryBase = time.Millisecond
	if _, err := c.Complete(context.Background(), "q"); !errors.Is(err, domain.ErrRemoteModel) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestCompleteNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := errorServer(http.StatusInternalServerError, &calls)
	defer srv.Close()

	t.Setenv(keyEnv, "gsk-test")
	c, _ := New(Config{BaseURL: srv.URL, APIKeyEnv: keyEnv})
	_, _ = c.Complete(context.Background(), "q")
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRetryDelayCapped(t *testing.T) {
	c := &Client{retryBase: 200 * time.Millisecond}
	if d := c.retryDelay(0); d != 200*time.Millisecond {
		t.Errorf("delay(0) = %v", d)
	}
	if d := c.retryDelay(10); d != 5*time.Second {
		t.Errorf("delay(10) = %v", d)
	}
}
