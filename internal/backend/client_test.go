package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codinground/internal/models"
)

func TestGetCodingQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/interview/get-coding-questions/s1/" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("expected bearer token, got %q", got)
		}
		w.Write([]byte(`{"post_title":"Backend Engineer","interactions":[{"id":"q1","question":"Reverse","starter_code":"def f(): pass","assistance_count":1}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok", nil)
	resp, err := c.GetCodingQuestions(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetCodingQuestions returned error: %v", err)
	}
	if resp.PostTitle != "Backend Engineer" || len(resp.Interactions) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Interactions[0].AssistanceCount != 1 {
		t.Fatalf("expected assistance_count 1, got %d", resp.Interactions[0].AssistanceCount)
	}
}

func TestGetCodingQuestionsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"post_title":"x"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "", nil).GetCodingQuestions(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Interactions == nil || len(resp.Interactions) != 0 {
		t.Fatalf("expected empty non-nil interactions, got %#v", resp.Interactions)
	}
}

func TestIncrementAssistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/interview/coding-assistance/s1/q1/" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"assistance_count":2}`))
	}))
	defer srv.Close()

	n, err := NewClient(srv.URL, "", nil).IncrementAssistance(context.Background(), "s1", "q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestSaveScoreSendsNullScore(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interview/add-coding-scores/s1/q1/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", nil).SaveScore(context.Background(), "s1", "q1", models.ScoreRequest{Code: "x = 1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := body["score"]; !ok || v != nil {
		t.Fatalf("expected explicit null score, got %v", body)
	}
	if _, ok := body["feedback"]; ok {
		t.Fatalf("feedback should be omitted when nil: %v", body)
	}
}

func TestUpdateSessionStatusAndContinue(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/interview/update-session-status/s1/":
			if body["status"] != "completed" || body["round_type"] != "coding" {
				t.Fatalf("unexpected status body %v", body)
			}
			w.WriteHeader(http.StatusNoContent)
		case "/interview/continue-session/s1/":
			if body["round_type"] != "interview" {
				t.Fatalf("unexpected continue body %v", body)
			}
			w.Write([]byte(`{"session_id":"s1","round_type":"interview","status":"in_progress"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	if err := c.UpdateSessionStatus(context.Background(), "s1", models.StatusCompleted, models.RoundTypeCoding); err != nil {
		t.Fatalf("UpdateSessionStatus error: %v", err)
	}
	resp, err := c.ContinueSession(context.Background(), "s1", models.RoundTypeInterview)
	if err != nil {
		t.Fatalf("ContinueSession error: %v", err)
	}
	if resp.RoundType != "interview" {
		t.Fatalf("unexpected continue response %+v", resp)
	}
	if len(calls) != 2 || calls[0] != "PATCH /interview/update-session-status/s1/" || calls[1] != "POST /interview/continue-session/s1/" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", nil).ContinueSession(context.Background(), "s1", "interview")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound || httpErr.Body != "session not found" {
		t.Fatalf("unexpected HTTPError %+v", httpErr)
	}
}

func TestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "", nil).GetCodingQuestions(context.Background(), "s1"); err == nil {
		t.Fatal("expected decode error")
	}
}
