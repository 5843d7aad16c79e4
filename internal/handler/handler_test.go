package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Dhanushraagav/ai-interview-platform/internal/accounts"
	"github.com/Dhanushraagav/ai-interview-platform/internal/bank"
	"github.com/Dhanushraagav/ai-interview-platform/internal/engine"
	appI18n "github.com/Dhanushraagav/ai-interview-platform/internal/i18n"
	"github.com/Dhanushraagav/ai-interview-platform/internal/scorer"
	"github.com/Dhanushraagav/ai-interview-platform/internal/session"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testBank = `
topics:
  - name: DSA
    questions:
      - text: How are elements accessed in an array?
        keywords: [array, index]
        min_answer_len: 5
      - text: What is the difference between a stack and a queue?
        keywords: [lifo, fifo]
`

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	b := bank.New()
	if err := b.Load([]byte(testBank)); err != nil {
		t.Fatalf("load test bank: %v", err)
	}

	db, err := accounts.New(":memory:", 0)
	if err != nil {
		t.Fatalf("open accounts db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := session.New(0, 0)
	t.Cleanup(store.Close)

	eng := engine.New(b, store, scorer.NewKeyword(scorer.Config{DepthSaturation: 20, MinAnswerChars: 5}))
	h := New(eng, db)

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func signupAndLogin(t *testing.T, r http.Handler, username string) string {
	t.Helper()

	code, _ := doJSON(t, r, http.MethodPost, "/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	if code != http.StatusCreated {
		t.Fatalf("signup: status %d", code)
	}

	code, resp := doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	if code != http.StatusOK {
		t.Fatalf("login: status %d", code)
	}
	token, _ := resp["access_token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func TestSignupValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short username", map[string]string{"username": "ab", "email": "a@b.c", "password": "secret123"}},
		{"short password", map[string]string{"username": "alice", "email": "a@b.c", "password": "123"}},
		{"bad email", map[string]string{"username": "alice", "email": "nope", "password": "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := doJSON(t, r, http.MethodPost, "/signup", "", tt.body)
			if code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", code)
			}
		})
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r := newTestRouter(t)
	signupAndLogin(t, r, "alice")

	code, _ := doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/me", "/topics", "/interviews"} {
		code, _ := doJSON(t, r, http.MethodGet, path, "", nil)
		if code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status %d, want 401", path, code)
		}
	}

	code, _ := doJSON(t, r, http.MethodGet, "/me", "bogus-token", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("bogus token: status %d, want 401", code)
	}
}

func TestInterviewFlow(t *testing.T) {
	r := newTestRouter(t)
	token := signupAndLogin(t, r, "alice")

	code, resp := doJSON(t, r, http.MethodGet, "/topics", token, nil)
	if code != http.StatusOK {
		t.Fatalf("topics: status %d", code)
	}
	topics, _ := resp["topics"].([]any)
	if len(topics) != 1 || topics[0] != "DSA" {
		t.Fatalf("unexpected topics: %v", resp["topics"])
	}

	code, start := doJSON(t, r, http.MethodPost, "/start-interview/DSA", token, nil)
	if code != http.StatusCreated {
		t.Fatalf("start: status %d, body %v", code, start)
	}
	sessionID, _ := start["session_id"].(string)
	if sessionID == "" {
		t.Fatal("start returned no session id")
	}
	if start["total_questions"].(float64) != 2 {
		t.Errorf("total_questions = %v", start["total_questions"])
	}

	code, sub := doJSON(t, r, http.MethodPost, "/answer", token, map[string]string{
		"session_id": sessionID,
		"answer":     "Array elements are accessed by index in constant time using direct addressing across memory",
	})
	if code != http.StatusOK {
		t.Fatalf("answer 1: status %d, body %v", code, sub)
	}
	if sub["score"].(float64) != 9.4 {
		t.Errorf("score = %v, want 9.4", sub["score"])
	}
	if sub["is_complete"].(bool) {
		t.Error("should not be complete after first answer")
	}

	code, fin := doJSON(t, r, http.MethodPost, "/answer", token, map[string]string{
		"session_id": sessionID,
		"answer":     "",
	})
	if code != http.StatusOK {
		t.Fatalf("answer 2: status %d, body %v", code, fin)
	}
	if !fin["is_complete"].(bool) {
		t.Fatal("should be complete after last answer")
	}
	if fin["total_score"].(float64) != 4.7 {
		t.Errorf("total_score = %v, want 4.7", fin["total_score"])
	}

	code, report := doJSON(t, r, http.MethodGet, "/interview/"+sessionID+"/report", token, nil)
	if code != http.StatusOK {
		t.Fatalf("report: status %d", code)
	}
	if report["total_score"].(float64) != 4.7 {
		t.Errorf("report total_score = %v, want 4.7", report["total_score"])
	}
	questions, _ := report["questions"].([]any)
	if len(questions) != 2 {
		t.Errorf("expected 2 report questions, got %d", len(questions))
	}

	code, status := doJSON(t, r, http.MethodGet, "/interview/"+sessionID+"/status", token, nil)
	if code != http.StatusOK {
		t.Fatalf("status: status %d", code)
	}
	if status["status"] != "completed" {
		t.Errorf("status = %v, want completed", status["status"])
	}

	// Answering a completed interview is a client error.
	code, _ = doJSON(t, r, http.MethodPost, "/answer", token, map[string]string{
		"session_id": sessionID,
		"answer":     "late",
	})
	if code != http.StatusBadRequest {
		t.Errorf("late answer: status %d, want 400", code)
	}

	code, list := doJSON(t, r, http.MethodGet, "/interviews", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list: status %d", code)
	}
	interviews, _ := list["interviews"].([]any)
	if len(interviews) != 1 {
		t.Errorf("expected 1 interview, got %d", len(interviews))
	}

	code, _ = doJSON(t, r, http.MethodDelete, "/interview/"+sessionID, token, nil)
	if code != http.StatusOK {
		t.Fatalf("delete: status %d", code)
	}
	code, _ = doJSON(t, r, http.MethodGet, "/interview/"+sessionID+"/report", token, nil)
	if code != http.StatusNotFound {
		t.Errorf("report after delete: status %d, want 404", code)
	}
}

func TestStartUnknownTopic(t *testing.T) {
	r := newTestRouter(t)
	token := signupAndLogin(t, r, "alice")

	code, _ := doJSON(t, r, http.MethodPost, "/start-interview/COBOL", token, nil)
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestReportUnknownSession(t *testing.T) {
	r := newTestRouter(t)
	token := signupAndLogin(t, r, "alice")

	code, _ := doJSON(t, r, http.MethodGet, "/interview/nonexistent-id/report", token, nil)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestSessionsAreOwnerScoped(t *testing.T) {
	r := newTestRouter(t)
	alice := signupAndLogin(t, r, "alice")
	bob := signupAndLogin(t, r, "bob")

	_, start := doJSON(t, r, http.MethodPost, "/start-interview/DSA", alice, nil)
	sessionID, _ := start["session_id"].(string)

	code, body := doJSON(t, r, http.MethodGet, "/interview/"+sessionID+"/report", bob, nil)
	if code != http.StatusForbidden {
		t.Errorf("foreign report: status %d, want 403", code)
	}
	if body["detail"] != "You don't have access to this interview session." {
		t.Errorf("foreign report detail = %q, want the localized message", body["detail"])
	}
	code, _ = doJSON(t, r, http.MethodPost, "/answer", bob, map[string]string{
		"session_id": sessionID,
		"answer":     "hijack",
	})
	if code != http.StatusForbidden {
		t.Errorf("foreign answer: status %d, want 403", code)
	}

	code, list := doJSON(t, r, http.MethodGet, "/interviews", bob, nil)
	if code != http.StatusOK {
		t.Fatalf("list: status %d", code)
	}
	interviews, _ := list["interviews"].([]any)
	if len(interviews) != 0 {
		t.Errorf("bob should see no interviews, got %d", len(interviews))
	}
}
