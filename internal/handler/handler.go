package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dhanushraagav/ai-interview-platform/internal/accounts"
	"github.com/Dhanushraagav/ai-interview-platform/internal/bank"
	"github.com/Dhanushraagav/ai-interview-platform/internal/engine"
	appI18n "github.com/Dhanushraagav/ai-interview-platform/internal/i18n"
	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
	"github.com/Dhanushraagav/ai-interview-platform/internal/session"
)

// Handler holds shared dependencies for the JSON API.
type Handler struct {
	engine   *engine.Engine
	accounts *accounts.Store
}

// New creates a new Handler.
func New(e *engine.Engine, a *accounts.Store) *Handler {
	return &Handler{engine: e, accounts: a}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/me", h.handleMe)
		r.Get("/topics", h.handleTopics)
		r.Post("/start-interview/{topic}", h.handleStart)
		r.Post("/answer", h.handleAnswer)
		r.Get("/interviews", h.handleListInterviews)
		r.Get("/interview/{sessionID}/report", h.handleReport)
		r.Get("/interview/{sessionID}/status", h.handleStatus)
		r.Delete("/interview/{sessionID}", h.handleDelete)
	})
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Username) < 3 {
		respondError(w, http.StatusBadRequest, "username must be at least 3 characters long")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters long")
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	user, err := h.accounts.Register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) || errors.Is(err, accounts.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, "register user", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"username": user.Username,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
			return
		}
		internalError(w, "authenticate", err)
		return
	}

	token, err := h.accounts.CreateToken(user.ID)
	if err != nil {
		internalError(w, "create token", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"topics": h.engine.Topics()})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	topic := chi.URLParam(r, "topic")

	result, err := h.engine.Start(r.Context(), topic, user.Username)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	user := model.UserFromContext(r.Context())
	result, err := h.engine.Submit(r.Context(), req.SessionID, user.Username, req.Answer)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	sessions := h.engine.Sessions(r.Context(), user.Username)

	summaries := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, map[string]any{
			"session_id":       s.ID,
			"topic":            s.Topic,
			"status":           s.Status,
			"current_question": s.CurrentIndex,
			"total_questions":  len(s.Questions),
			"created_at":       s.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"interviews": summaries})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	report, err := h.engine.Report(r.Context(), chi.URLParam(r, "sessionID"), user.Username)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	status, err := h.engine.Status(r.Context(), chi.URLParam(r, "sessionID"), user.Username)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if err := h.engine.Delete(r.Context(), chi.URLParam(r, "sessionID"), user.Username); err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// respondEngineError maps engine client errors onto HTTP statuses. Anything
// unrecognized is a programming-defect signal, not a client error.
func (h *Handler) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bank.ErrUnknownTopic):
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "UnknownTopic"))
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, appI18n.T(r.Context(), "SessionNotFound"))
	case errors.Is(err, engine.ErrSessionCompleted):
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "SessionCompleted"))
	case errors.Is(err, engine.ErrNotOwner):
		respondError(w, http.StatusForbidden, appI18n.T(r.Context(), "NotOwner"))
	default:
		internalError(w, "engine", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]any{"detail": detail})
}

func internalError(w http.ResponseWriter, op string, err error) {
	slog.Error("internal error", "op", op, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}
