package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

const InternalTokenHeader = "X-Internal-Token"

// NewInternalTokenGuard admits only requests carrying the shared service token.
func NewInternalTokenGuard(logger *slog.Logger, token string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(InternalTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Warn("Rejected internal request", slog.String("remoteAddr", r.RemoteAddr))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
