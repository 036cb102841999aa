package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-essam23/go-presence/pkg/auth"
)

// NewAuthMiddleware authenticates the handshake from the session cookie before
// anything downstream runs. Rejected requests never reach the upgrade.
func NewAuthMiddleware(logger *slog.Logger, verifier auth.Verifier, cookieName string) Middleware {
	logger = logger.With(slog.String("component", "auth_gate"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// couldn't extract metadata from request so something went wrong with previous middlewares
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			var token string
			if cookie, err := r.Cookie(cookieName); err == nil {
				token = cookie.Value
			}
			if token == "" {
				logger.Warn("No session cookie attached to request", slog.String("ip", reqMeta.IP))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := verify(r, verifier, token)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrMissingToken),
				errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrExpiredToken):
				logger.Warn("Rejected session token", slog.String("ip", reqMeta.IP), slog.Any("error", err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			default:
				logger.Error("Token verification failed", slog.String("ip", reqMeta.IP), slog.Any("error", err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if identity == nil || identity.UserID == "" {
				logger.Warn("Verified token carries no user id", slog.String("ip", reqMeta.IP))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			reqMeta.UserID = identity.UserID
			next.ServeHTTP(w, r)
		})
	}
}

var errVerifierPanic = errors.New("token verifier panicked")

// verify turns a panicking verifier into an ordinary error.
func verify(r *http.Request, verifier auth.Verifier, token string) (identity *auth.Identity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			identity, err = nil, errVerifierPanic
		}
	}()
	return verifier.Verify(r.Context(), token)
}
