package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-relay/internal/domain"
	"voice-relay/internal/infra/gemini"
)

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
}

func TestClient_ExtractTasks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-goog-api-key") != "test-key" || r.URL.RawQuery != "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(`{"tasks":[{"title":"Book dentist","priority":"low","notes":"whenever"}]}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "gemini-test", "", server.URL)

	extraction, err := client.Extract(context.Background(), "book the dentist at some point", domain.ContextTodo)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if len(extraction.Tasks) != 1 {
		t.Fatalf("Tasks: got %d, want 1", len(extraction.Tasks))
	}
	if extraction.Tasks[0].Priority != domain.PriorityLow {
		t.Errorf("Priority: got %s, want low", extraction.Tasks[0].Priority)
	}
}

func TestClient_ExtractEmptyEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(`{"events":[]}`))
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "gemini-test", "", server.URL)

	extraction, err := client.Extract(context.Background(), "hmm", domain.ContextCalendar)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if extraction.Events == nil || len(extraction.Events) != 0 {
		t.Errorf("Events: got %#v, want empty slice", extraction.Events)
	}
}

func TestClient_ErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "quota exhausted", "code": 429},
		})
	}))
	defer server.Close()

	client := gemini.NewClientWithURL("test-key", "gemini-test", "", server.URL)

	_, err := client.Extract(context.Background(), "buy milk", domain.ContextTodo)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Parsing failed: quota exhausted" {
		t.Errorf("error: got %q", err.Error())
	}
}

func TestClient_TransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := gemini.NewClientWithURL("SECRET-KEY-123", "gemini-test", "", baseURL)

	_, err := client.Extract(context.Background(), "buy milk", domain.ContextTodo)
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Errorf("error exposes API key: %q", err.Error())
	}
}
