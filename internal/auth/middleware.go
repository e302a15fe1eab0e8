package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

var errMissingToken = apperr.Unauthorized("missing bearer token")

type contextKey string

const userIDKey contextKey = "userID"

// UserID extracts the authenticated user id from a request context.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// WithUserID returns a context carrying the user id. Exposed for tests.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Middleware rejects requests without a valid bearer token and injects the
// user id into the context. The onError callback renders the 401 so the API
// keeps a single response shape.
func (t *Tokens) Middleware(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				onError(w, r, errMissingToken)
				return
			}
			userID, err := t.Verify(tokenString)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
