package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/a-essam23/go-presence/internal/server"
	"github.com/a-essam23/go-presence/internal/server/middleware"
	"github.com/a-essam23/go-presence/pkg/auth"
	"github.com/a-essam23/go-presence/pkg/config"
	"github.com/a-essam23/go-presence/pkg/membership"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"
)

const internalToken = "internal-secret"

type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ack     int64           `json:"ack"`
	Error   string          `json:"error"`
}

type testEnv struct {
	srv      *httptest.Server
	app      *server.App
	verifier *auth.JWTVerifier
	members  *membership.InMemory
}

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:         "127.0.0.1:0",
			InternalToken:   internalToken,
			ShutdownTimeout: 5 * time.Second,
			ConnectionLimit: config.ConnectionLimitConfig{Mode: middleware.LimitModeReject},
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret", CookieName: "accessToken"},
		Transport: config.TransportConfig{
			SendBuffer:   64,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret, 0)
	require.NoError(t, err)
	members := membership.NewInMemory()

	app := server.NewApp(logger, context.Background(), cfg, verifier, members)
	srv := httptest.NewServer(app.Handler(verifier))
	t.Cleanup(func() {
		_ = app.Shutdown()
		srv.Close()
	})
	return &testEnv{srv: srv, app: app, verifier: verifier, members: members}
}

func (e *testEnv) dial(t *testing.T, userID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if userID != "" {
		token, err := e.verifier.Issue(userID, time.Hour)
		require.NoError(t, err)
		header.Set("Cookie", "accessToken="+token)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	return websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
}

func (e *testEnv) connect(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	c, _, err := e.dial(t, userID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.CloseNow() })
	return c
}

func (e *testEnv) notify(t *testing.T, body string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/internal/notify", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set(middleware.InternalTokenHeader, internalToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func readFrame(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var f frame
	require.NoError(t, wsjson.Read(ctx, c, &f))
	return f
}

func expectOnline(t *testing.T, c *websocket.Conn, want ...string) {
	t.Helper()
	f := readFrame(t, c)
	require.Equal(t, "online:users", f.Event)
	var ids []string
	require.NoError(t, json.Unmarshal(f.Payload, &ids))
	require.Equal(t, want, ids)
}

func send(t *testing.T, c *websocket.Conn, msg string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(msg)))
}

func TestChatFlow(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t, newTestConfig())
	env.members.Add("42", "alice", "bob")

	// Given alice and bob online
	alice := env.connect(t, "alice")
	expectOnline(t, alice, "alice")
	bob := env.connect(t, "bob")
	expectOnline(t, bob, "alice", "bob")
	expectOnline(t, alice, "alice", "bob")

	// And both in chat 42, while mallory is refused
	send(t, alice, `{"event":"chat:join","payload":"42","ack":1}`)
	req.Equal(frame{Event: "ack", Ack: 1}, readFrame(t, alice))
	send(t, bob, `{"event":"chat:join","payload":{"chatId":"42"},"ack":2}`)
	req.Equal(frame{Event: "ack", Ack: 2}, readFrame(t, bob))

	mallory := env.connect(t, "mallory")
	expectOnline(t, mallory, "alice", "bob", "mallory")
	expectOnline(t, alice, "alice", "bob", "mallory")
	expectOnline(t, bob, "alice", "bob", "mallory")
	send(t, mallory, `{"event":"chat:join","payload":"42","ack":3}`)
	req.Equal(frame{Event: "ack", Ack: 3, Error: "Error joining chat"}, readFrame(t, mallory))

	// When alice's message is published
	status := env.notify(t, `{"type":"message:new","senderId":"alice","chatId":"42",
		"message":{"_id":"m1","chatId":"42","content":"hi"}}`)
	req.Equal(http.StatusAccepted, status)

	// Then bob receives it
	f := readFrame(t, bob)
	req.Equal("message:new", f.Event)
	req.Contains(string(f.Payload), `"content":"hi"`)

	// And the chat list update reaches both participants, with alice's first frame being the update
	status = env.notify(t, `{"type":"chat:update","participantIds":["alice","bob"],"chatId":"42",
		"lastMessage":{"_id":"m1","chatId":"42","content":"hi"}}`)
	req.Equal(http.StatusAccepted, status)
	for _, c := range []*websocket.Conn{alice, bob} {
		req.Equal("chat:update", readFrame(t, c).Event)
		notice := readFrame(t, c)
		req.Equal("message:new", notice.Event)
		req.JSONEq(`{"chatId":"42"}`, string(notice.Payload))
	}

	// When bob disconnects, the others see him go
	req.NoError(bob.Close(websocket.StatusNormalClosure, "bye"))
	expectOnline(t, alice, "alice", "mallory")
}

func TestUnauthorizedHandshake(t *testing.T) {
	env := newTestEnv(t, newTestConfig())

	_, resp, err := env.dial(t, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	healthy := healthz(t, env)
	require.Equal(t, 0, healthy["connections"])
}

func TestConnectionLimitReject(t *testing.T) {
	cfg := newTestConfig()
	cfg.Server.ConnectionLimit = config.ConnectionLimitConfig{MaxPerUser: 1, Mode: middleware.LimitModeReject}
	env := newTestEnv(t, cfg)

	first := env.connect(t, "alice")
	expectOnline(t, first, "alice")

	_, resp, err := env.dial(t, "alice")
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestConnectionLimitCycle(t *testing.T) {
	cfg := newTestConfig()
	cfg.Server.ConnectionLimit = config.ConnectionLimitConfig{MaxPerUser: 1, Mode: middleware.LimitModeCycle}
	env := newTestEnv(t, cfg)

	first := env.connect(t, "alice")
	expectOnline(t, first, "alice")

	second := env.connect(t, "alice")
	expectOnline(t, second, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := first.Read(ctx)
	require.Error(t, err)

	require.Equal(t, 1, healthz(t, env)["connections"])
}

func TestNotifyRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t, newTestConfig())

	require.Equal(t, http.StatusBadRequest, env.notify(t, `{"type":"chat:delete"}`))
	require.Equal(t, http.StatusBadRequest, env.notify(t, `{"type":"chat:new","participantIds":["a"],"chat":{}}`))
	require.Equal(t, http.StatusBadRequest, env.notify(t, `{"type":"admin","channelId":"7","event":"promoted","userId":"a"}`))
	require.Equal(t, http.StatusBadRequest, env.notify(t, `not json`))
	require.Equal(t, http.StatusAccepted, env.notify(t, `{"type":"subscriber","channelId":"7","event":"joined","userId":"a"}`))

	resp, err := http.Post(env.srv.URL+"/internal/notify", "application/json", strings.NewReader(`{"type":"admin"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func healthz(t *testing.T, env *testEnv) map[string]int {
	t.Helper()
	resp, err := http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status      string `json:"status"`
		Connections int    `json:"connections"`
		Online      int    `json:"online"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	return map[string]int{"connections": body.Connections, "online": body.Online}
}
