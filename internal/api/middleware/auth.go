package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/auth"
)

// SessionCookie carries the signed session token.
const SessionCookie = "session"

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves a session token. *auth.Manager implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// RequireSession rejects requests without a valid session with 401. A
// request that carries no cookie is turned away before anything is looked
// up.
func RequireSession(a Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				writeJSONError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			id, err := a.Authenticate(r.Context(), c.Value)
			if errors.Is(err, auth.ErrUnauthenticated) {
				writeJSONError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if err != nil {
				log.WithError(err).Error("session lookup failed")
				writeJSONError(w, "internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the caller attached by RequireSession, or nil.
func GetIdentity(r *http.Request) *auth.Identity {
	id, ok := r.Context().Value(identityKey).(*auth.Identity)
	if !ok {
		return nil
	}
	return id
}

// WithIdentity attaches id to ctx. Tests use it to call handlers directly.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func writeJSONError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
