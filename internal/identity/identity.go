// Package identity resolves authenticated user identities from requests.
// Credential validation lives in the account subsystem; this package only
// maps an opaque session token to a user ID and rejects everything else.
// There is no implicit default identity: every ledger and chat operation
// requires a resolved user.
package identity

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

const (
	// SessionCookieName is the cookie carrying the auth session token.
	SessionCookieName = "dost_session"
	// AuthHeaderPrefix is the accepted Authorization scheme.
	AuthHeaderPrefix = "Bearer "
)

type contextKey int

const userIDKey contextKey = iota

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Resolver maps a session token to a user ID. A return of (0, nil) means the
// token is unknown or expired.
type Resolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, token string) (int64, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, token string) (int64, error) {
	return f(ctx, token)
}

// UserIDFromContext extracts the authenticated user ID from the request
// context. Returns 0 when the request carried no identity.
func UserIDFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}

// WithUserID returns a context carrying the given user ID. Exported for
// handler tests.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, AuthHeaderPrefix) {
		return strings.TrimPrefix(h, AuthHeaderPrefix)
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// TokenFromRequest returns the validated session token carried by the
// request, or "" when absent or malformed.
func TokenFromRequest(r *http.Request) string {
	token := strings.TrimSpace(tokenFromRequest(r))
	if !tokenPattern.MatchString(token) {
		return ""
	}
	return token
}

// Middleware rejects unauthenticated requests and injects the resolved user
// ID into the request context.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w)
				return
			}

			userID, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"failed to resolve identity"}`, http.StatusInternalServerError)
				return
			}
			if userID == 0 {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error":"Authentication required. Please log in again."}`, http.StatusUnauthorized)
}
