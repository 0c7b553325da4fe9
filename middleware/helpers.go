package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// GetUserIDFromContext extracts the authenticated user's ID from the JWT
// claims stored by Authenticate.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context")
	}
	raw, ok := claims["user_id"]
	if !ok {
		return 0, errors.New("missing user_id claim in token")
	}
	// JSON numbers decode as float64.
	userIDFloat, ok := raw.(float64)
	if !ok || userIDFloat != float64(int(userIDFloat)) {
		return 0, fmt.Errorf("invalid user_id claim: %v", raw)
	}
	userID := int(userIDFloat)
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user_id claim value: %d", userID)
	}
	return userID, nil
}

// GetSessionIDFromContext extracts the anonymous session identifier stored
// by SessionCookie.
func GetSessionIDFromContext(ctx context.Context) (string, error) {
	sessionID, ok := ctx.Value(sessionContextKey).(string)
	if !ok || sessionID == "" {
		return "", errors.New("session id not found in context")
	}
	return sessionID, nil
}

// ClientIP resolves the caller's address, honoring X-Forwarded-For from the
// reverse proxy.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First hop is the original client.
		if idx := strings.Index(forwarded, ","); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
