package api

import (
	"context"
	"net/http"
	"strings"

	"vibeauth/internal/session"
)

type ctxKey struct{}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireSession rejects requests without a session that has passed the
// second factor.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, session.ErrSessionNotFound)
			return
		}
		sess, err := h.svc.Authenticate(r.Context(), token)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

// sessionFrom returns the session stored by requireSession.
func sessionFrom(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(session.Session)
	return sess, ok
}
