package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// NewRequestLogger logs each handshake attempt: whether it asks for a websocket
// upgrade and whether the session cookie came with it. The cookie value is never logged.
func NewRequestLogger(logger *slog.Logger, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ip string
			if reqMeta, ok := ReqMetadataFrom(r.Context()); ok {
				ip = reqMeta.IP
			}
			_, cookieErr := r.Cookie(cookieName)

			logger.Debug("Incoming handshake",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("ip", ip),
				slog.Bool("upgrade", strings.EqualFold(r.Header.Get("Upgrade"), "websocket")),
				slog.Bool("sessionCookie", cookieErr == nil),
				slog.String("origin", r.Header.Get("Origin")),
			)
			next.ServeHTTP(w, r)
		})
	}
}
