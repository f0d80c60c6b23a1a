package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/yourusername/auth-starter/internal/http/respond"
)

// Recover is the outermost boundary: panics become JSON 500s instead of
// dropped connections. The stack is always logged; it is echoed in the body
// only outside production.
func Recover(logger zerolog.Logger, production bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				logger.Error().
					Interface("panic", rec).
					Bytes("stack", stack).
					Str("path", r.URL.Path).
					Msg("panic recovered")

				if production {
					respond.Error(w, http.StatusInternalServerError, "internal server error")
					return
				}
				respond.JSON(w, http.StatusInternalServerError, "internal server error", map[string]string{
					"stack": string(stack),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
