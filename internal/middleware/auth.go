package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/zapsplit/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionKey is the context key for the verified creator session.
const SessionKey contextKey = "session"

// GetSession returns the caller's verified session, or nil for anonymous
// requests.
func GetSession(ctx context.Context) *auth.SessionClaims {
	claims, _ := ctx.Value(SessionKey).(*auth.SessionClaims)
	return claims
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	if claims := GetSession(ctx); claims != nil {
		return claims.UserID()
	}
	return ""
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	if claims := GetSession(ctx); claims != nil {
		return claims.Email
	}
	return ""
}

// RequireAuth returns a middleware that requires a valid creator session.
// It extracts the token from the Authorization header, verifies it, and adds
// the session claims to the request context.
func RequireAuth(sessions *auth.SessionManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			// Extract Authorization header
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := sessions.Verify(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			ctx = context.WithValue(ctx, SessionKey, claims)

			// Call the next handler with enriched context
			return next(ctx, req)
		}
	}
}

// OptionalAuth returns a middleware that verifies a session if present, but allows
// requests without authentication. The public pay flow uses it so that a
// signed-in creator shows up in the logs.
func OptionalAuth(sessions *auth.SessionManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			// Extract Authorization header
			authHeader := req.Header().Get("Authorization")
			if authHeader != "" {
				if tokenString, ok := bearerToken(authHeader); ok {
					// Ignore errors - optional auth
					claims, err := sessions.Verify(tokenString)
					if err == nil {
						ctx = context.WithValue(ctx, SessionKey, claims)
					}
				}
			}

			// Call the next handler (with or without user context)
			return next(ctx, req)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
