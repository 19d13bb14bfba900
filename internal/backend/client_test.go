package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestClient_SubmitResponse(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/survey/respond" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization header = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["response"] != "dua kali" {
			t.Errorf("request body = %v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"session_id": "sess-9",
			"status":     "IN_PROGRESS",
			"current_question": map[string]any{
				"code": "S003",
				"text": "Kapan perjalanan terakhir Anda?",
			},
		})
	}

	c := newTestClient(t, handler)
	res, err := c.SubmitResponse(context.Background(), "dua kali")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.SessionID != "sess-9" {
		t.Errorf("result = %+v", res)
	}
	if res.CurrentQuestion == nil || res.CurrentQuestion.Code != "S003" {
		t.Error("current question not decoded")
	}
}

func TestClient_CurrentQuestion(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %q", r.Method)
		}
		if r.URL.Path != "/api/survey/current-question" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"status": "COMPLETED",
			},
		})
	}

	c := newTestClient(t, handler)
	res, err := c.CurrentQuestion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Data.Status != StatusCompleted {
		t.Errorf("status = %q", res.Data.Status)
	}
}

func TestClient_QueryKnowledge(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rag/query" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"answer": "Wisatawan nusantara.",
			"source": "Pedoman",
		})
	}

	c := newTestClient(t, handler)
	ans, err := c.QueryKnowledge(context.Background(), "apa itu wisnus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Answer != "Wisatawan nusantara." || ans.Source != "Pedoman" {
		t.Errorf("answer = %+v", ans)
	}
}

func TestClient_AnalyzeIntent(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/survey/intent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"wants_to_start": true},
		})
	}

	c := newTestClient(t, handler)
	res, err := c.AnalyzeIntent(context.Background(), "siap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Data.WantsToStart {
		t.Error("verdict not decoded")
	}
}

func TestClient_AnalyzeIntent_RejectsMalformedPayload(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// wants_to_start carries the wrong type.
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"wants_to_start": "yes"},
		})
	}

	c := newTestClient(t, handler)
	_, err := c.AnalyzeIntent(context.Background(), "siap")
	var malformed *ErrMalformedPayload
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedPayload, got: %T (%v)", err, err)
	}
}

func TestClient_AppendMessage(t *testing.T) {
	var got MessageRecord
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/survey/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}

	c := newTestClient(t, handler)
	user := "halo"
	err := c.AppendMessage(context.Background(), MessageRecord{
		UserMessage:    &user,
		SystemResponse: map[string]any{"answer": "hai"},
		Mode:           "qa",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserMessage == nil || *got.UserMessage != "halo" || got.Mode != "qa" {
		t.Errorf("persisted record = %+v", got)
	}
}

func TestClient_RateLimit(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}

	c := newTestClient(t, handler)
	_, err := c.SubmitResponse(context.Background(), "jawaban")
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("retry-after = %s, want 7s", rl.RetryAfter)
	}
}

func TestClient_ServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}

	c := newTestClient(t, handler)
	_, err := c.CurrentQuestion(context.Background())
	var unavail *ErrServiceUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrServiceUnavailable, got: %T (%v)", err, err)
	}
}

func TestClient_ClientError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}

	c := newTestClient(t, handler)
	_, err := c.SubmitResponse(context.Background(), "jawaban")
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	var unavail *ErrServiceUnavailable
	if errors.As(err, &rl) || errors.As(err, &unavail) {
		t.Errorf("4xx mapped to a transient error: %T", err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not json"))
	}

	c := newTestClient(t, handler)
	_, err := c.CurrentQuestion(context.Background())
	var malformed *ErrMalformedPayload
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedPayload, got: %T (%v)", err, err)
	}
}
