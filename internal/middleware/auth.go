package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/yourusername/auth-starter/internal/auth"
	"github.com/yourusername/auth-starter/internal/http/respond"
	"github.com/yourusername/auth-starter/internal/models"
	"github.com/yourusername/auth-starter/internal/storage"
)

type ctxKey byte

const identityKey = ctxKey(1)

// IdentityFrom returns the authenticated user attached by RequireAuth.
func IdentityFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(identityKey).(models.User)
	return user, ok
}

// WithIdentity attaches a user to the context. Exposed for handler tests.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// RequireAuth gates protected routes: extract the token, verify it, load the
// subject, and attach the identity to the request context. Every failure mode
// resolves to the same generic 401; the distinguishing reason is only logged.
func RequireAuth(tokens *auth.TokenManager, sessions *auth.SessionTransport, store storage.UserStore, logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := sessions.Extract(r)
		if !ok {
			reject(w, logger, r, "no token provided")
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				reject(w, logger, r, "token expired")
			} else {
				reject(w, logger, r, "invalid token")
			}
			return
		}

		user, err := store.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				reject(w, logger, r, "user not found")
				return
			}
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("identity lookup failed")
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
	})
}

func reject(w http.ResponseWriter, logger zerolog.Logger, r *http.Request, reason string) {
	logger.Warn().Str("path", r.URL.Path).Str("reason", reason).Msg("unauthorized")
	respond.Error(w, http.StatusUnauthorized, "not authorized")
}
