package kie

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"modelkiosk/sources/tracing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &KieConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		PollInterval:   5 * time.Millisecond,
		MaxPollTime:    2 * time.Second,
		RequestTimeout: time.Second,
	}
	return NewClient(config, server.Client())
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestGenerateSucceedsAfterPolling(t *testing.T) {
	var polls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/jobs/createTask", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "google/nano-banana" {
			t.Errorf("model = %q", req.Model)
		}
		writeJSON(t, w, map[string]any{"code": 200, "data": map[string]any{"taskId": "task-1"}})
	})
	mux.HandleFunc("/api/v1/jobs/recordInfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("taskId"); got != "task-1" {
			t.Errorf("taskId = %q", got)
		}
		if polls.Add(1) < 3 {
			writeJSON(t, w, map[string]any{"code": 200, "data": map[string]any{"taskId": "task-1", "state": "generating"}})
			return
		}
		writeJSON(t, w, map[string]any{"code": 200, "data": map[string]any{
			"taskId":     "task-1",
			"state":      "success",
			"resultJson": `{"resultUrls":["https://cdn.example/out.png"]}`,
		}})
	})

	client := testClient(t, mux)
	result, err := client.Generate(context.Background(), tracing.NewConsoleLogger(), "google/nano-banana", map[string]any{"prompt": "a cat"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !result.Success {
		t.Fatalf("result not successful: %+v", result)
	}
	if len(result.ResultURLs) != 1 || result.ResultURLs[0] != "https://cdn.example/out.png" {
		t.Fatalf("result urls = %v", result.ResultURLs)
	}
	if polls.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", polls.Load())
	}
}

func TestGenerateFailedTaskIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/jobs/createTask", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"code": 200, "data": map[string]any{"taskId": "task-2"}})
	})
	mux.HandleFunc("/api/v1/jobs/recordInfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"code": 200, "data": map[string]any{
			"taskId":   "task-2",
			"state":    "fail",
			"failCode": "422",
			"failMsg":  "prompt rejected",
		}})
	})

	client := testClient(t, mux)
	result, err := client.Generate(context.Background(), tracing.NewConsoleLogger(), "google/nano-banana", map[string]any{"prompt": "a cat"})
	if err != nil {
		t.Fatalf("upstream failure must not surface as an error, got %v", err)
	}
	if result.Success {
		t.Fatal("failed task reported as success")
	}
	if result.Message != "prompt rejected" || result.ErrorCode != "422" {
		t.Fatalf("result = %+v", result)
	}
}

func TestGenerateRejectedCreateTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/jobs/createTask", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"code": 402, "msg": "insufficient credits"})
	})

	client := testClient(t, mux)
	if _, err := client.Generate(context.Background(), tracing.NewConsoleLogger(), "google/nano-banana", nil); err == nil {
		t.Fatal("expected an error for a rejected createTask")
	}
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	client := NewClient(&KieConfig{}, http.DefaultClient)
	if _, err := client.Generate(context.Background(), tracing.NewConsoleLogger(), "google/nano-banana", nil); err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestStateInProgress(t *testing.T) {
	for _, state := range []string{"waiting", "queued", "queueing", "queuing", "generating", "processing"} {
		if !stateInProgress(state) {
			t.Errorf("state %q must count as in progress", state)
		}
	}
	for _, state := range []string{"success", "fail", "", "unknown"} {
		if stateInProgress(state) {
			t.Errorf("state %q must not count as in progress", state)
		}
	}
}
