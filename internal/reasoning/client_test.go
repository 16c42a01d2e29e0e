package reasoning

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"part one "},{"text":"part two"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(srv.URL, "test-key", "gemini-2.5-flash", "")
	got, err := c.Query(context.Background(), "why did it drop?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "part one part two" {
		t.Errorf("got %q", got)
	}
}

func TestGeminiClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewGeminiClient(srv.URL, "test-key", "gemini-2.5-flash", "")
	if _, err := c.Query(context.Background(), "q"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGeminiClient_EmptyResponseIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(srv.URL, "test-key", "gemini-2.5-flash", "")
	if _, err := c.Query(context.Background(), "q"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
