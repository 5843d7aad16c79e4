package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
)

// requireAuth resolves the Authorization bearer token to a user and stores it
// in the request context. The engine never sees the credential, only the
// resolved identity.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := h.accounts.UserForToken(token)
		if err != nil {
			slog.Error("resolve token", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
