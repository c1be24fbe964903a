package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"japa/cmd/internal/auth/session"
)

// SessionValidator resolves a bearer token to the caller.
type SessionValidator interface {
	Validate(ctx context.Context, token string, now time.Time) (session.Identity, error)
}

// RequireIdentity validates the request's bearer token. On failure it writes
// the error response and returns false.
//
// Missing, malformed, revoked or unknown sessions are 401; bad signatures and
// expired tokens or sessions are 403.
func RequireIdentity(w http.ResponseWriter, r *http.Request, v SessionValidator, log *slog.Logger) (session.Identity, bool) {
	id, err := v.Validate(r.Context(), BearerToken(r), time.Now().UTC())
	if err == nil {
		return id, true
	}

	status, code, msg := SessionErrorStatus(err)
	if status == http.StatusInternalServerError {
		if log == nil {
			log = slog.Default()
		}
		log.Error("auth.session.validate.fail", "err", err)
	}
	WriteError(w, status, code, msg)
	return session.Identity{}, false
}

// SessionErrorStatus maps a session validation error to status, code and message.
func SessionErrorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, session.ErrMissingToken):
		return http.StatusUnauthorized, "missing_token", "missing bearer token"
	case errors.Is(err, session.ErrMalformedToken):
		return http.StatusUnauthorized, "malformed_token", "malformed token"
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusUnauthorized, "session_not_found", "session not found"
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusForbidden, "invalid_or_expired", "invalid or expired token"
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusForbidden, "session_expired", "session expired"
	default:
		return http.StatusInternalServerError, "server_error", "internal error"
	}
}
