package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/partyquiz/internal/api/apierr"
	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/services/auth"
)

// SessionCookie is the name of the cookie carrying the session token
const SessionCookie = "session"

type contextKey string

const userContextKey contextKey = "user"

// SessionValidator resolves a session token to its user
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*model.User, error)
}

var _ SessionValidator = (*auth.Service)(nil)

// Auth rejects requests without a valid session with 401 before
// the wrapped handler runs
func Auth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			user, err := sessions.ValidateSession(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// ExtractToken extracts the session token from the request
func ExtractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	// Fall back to cookie
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUser returns the authenticated user from the request context
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// MustGetUser returns the authenticated user or panics
func MustGetUser(ctx context.Context) *model.User {
	user := GetUser(ctx)
	if user == nil {
		panic("no user in context - auth middleware not applied?")
	}
	return user
}
