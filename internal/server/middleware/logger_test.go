package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-essam23/go-presence/internal/server/middleware"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reached := false
	handler := middleware.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true }),
		middleware.RequestMetadataMiddleware(),
		middleware.NewRequestLogger(logger, cookieName),
	)

	r := httptest.NewRequest(http.MethodGet, "/ws?x=1", nil)
	r.Header.Set("Upgrade", "websocket")
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "secret-token"})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	req.True(reached)
	req.NotContains(buf.String(), "secret-token")

	var line map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &line))
	req.Equal("/ws", line["path"])
	req.Equal(true, line["upgrade"])
	req.Equal(true, line["sessionCookie"])
	req.Equal("192.0.2.1", line["ip"])
}
