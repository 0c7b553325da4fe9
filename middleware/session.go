package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/volleychamp/volleychamp-api/session"
)

// SessionCookie assigns an anonymous session identifier to public visitors
// and exposes it to handlers through the request context. The cookie is
// HttpOnly and scoped to the site root.
func SessionCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
			sessionID = cookie.Value
		} else {
			generated, err := session.NewSessionID()
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			sessionID = generated
			http.SetCookie(w, &http.Cookie{
				Name:     session.CookieName,
				Value:    sessionID,
				Path:     "/",
				Expires:  time.Now().Add(24 * time.Hour),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
