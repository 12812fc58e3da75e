package auth

import (
	"context"
	"net/http"
)

type contextKey struct{}

// UserID returns the authenticated user id placed on the request context by
// Middleware, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}

// WithUserID returns a context carrying an authenticated user id. Exposed for
// handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// Middleware resolves the session cookie and rejects requests without a
// valid one.
func (t *Tokens) Middleware(reject func(w http.ResponseWriter, status int, code, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := t.UserFromRequest(r)
			if err != nil {
				reject(w, http.StatusUnauthorized, "unauthorized", "missing or invalid session")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// UserFromRequest extracts and verifies the session cookie on r.
func (t *Tokens) UserFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", ErrInvalidToken
	}
	return t.Verify(cookie.Value)
}
