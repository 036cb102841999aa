package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/a-essam23/go-presence/internal/dispatch"
	"github.com/a-essam23/go-presence/internal/presence"
	"github.com/a-essam23/go-presence/internal/router"
	"github.com/a-essam23/go-presence/internal/server/middleware"
	"github.com/a-essam23/go-presence/pkg/auth"
	"github.com/a-essam23/go-presence/pkg/config"
	"github.com/a-essam23/go-presence/pkg/membership"
	"github.com/a-essam23/go-presence/pkg/state"
	"github.com/a-essam23/go-presence/pkg/state/statemanager"
	"github.com/a-essam23/go-presence/pkg/transport"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	errConnectionCycled = errors.New("connection cycled by new connection")
	errShutdown         = errors.New("graceful shutdown")
)

type App struct {
	logger      *slog.Logger
	presence    state.PresenceRegistry
	rooms       state.RoomManager
	dispatcher  *dispatch.Dispatcher
	coordinator *presence.Coordinator
	eventRouter *router.EventRouter
	wg          sync.WaitGroup
	http        *http.Server
	config      *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, verifier auth.Verifier, members membership.Checker) *App {
	registry := statemanager.NewInMemoryPresence(logger)
	rooms := statemanager.NewInMemoryRooms(logger)
	dispatcher := dispatch.New(logger, rooms, registry)
	coordinator := presence.NewCoordinator(logger, registry, rooms, members, dispatcher)

	app := &App{
		logger:      logger,
		presence:    registry,
		rooms:       rooms,
		dispatcher:  dispatcher,
		coordinator: coordinator,
		eventRouter: router.NewEventRouter(logger, coordinator),
		config:      cfg,
		ctx:         rootCtx,
	}

	app.http = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           app.Handler(verifier),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(l net.Listener) context.Context {
			return app.ctx
		},
	}
	return app
}

// Handler builds the HTTP routes. It is exposed so tests can mount it on httptest servers.
func (a *App) Handler(verifier auth.Verifier) http.Handler {
	mux := http.NewServeMux()

	upgradeHandler := http.HandlerFunc(a.upgradeHandler)
	mux.Handle("GET /ws",
		middleware.Chain(upgradeHandler,
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(a.logger, a.config.Auth.CookieName),
			middleware.NewAuthMiddleware(a.logger, verifier, a.config.Auth.CookieName),
			middleware.NewConnectionLimiter(
				a.logger,
				a.countUserConnections,
				a.cycleOldestConnection,
				a.config.Server.ConnectionLimit,
			),
		),
	)
	mux.HandleFunc("GET /healthz", a.healthHandler)

	if a.config.Server.InternalToken != "" {
		mux.Handle("POST /internal/notify",
			middleware.NewInternalTokenGuard(a.logger, a.config.Server.InternalToken)(http.HandlerFunc(a.notifyHandler)),
		)
	}
	return mux
}

// Dispatcher is the entry point for in-process callers that publish domain events.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
			errCh <- err
		}
	}()

	select {
	case <-a.ctx.Done():
	case err := <-errCh:
		a.closeConnections()
		a.wg.Wait()
		return err
	}
	return a.Shutdown()
}

func (a *App) countUserConnections(userID string) int {
	return len(a.rooms.Members(state.UserRoom(userID)))
}

func (a *App) cycleOldestConnection(userID string) {
	conns := a.rooms.Members(state.UserRoom(userID))
	if len(conns) == 0 {
		return
	}
	oldest := lo.MinBy(conns, func(x, y *state.Connection) bool {
		return x.CreatedAt.Before(y.CreatedAt)
	})
	a.logger.Info("Cycling connection: closing oldest", slog.String("userID", userID), slog.String("connID", oldest.ID.String()))
	// State is released now; the close handshake may wait on the peer.
	a.coordinator.OnDisconnect(oldest)
	go oldest.Transport.Close(errConnectionCycled)
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, ok := middleware.ReqMetadataFrom(r.Context())
	if !ok || reqMeta.UserID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("userID", reqMeta.UserID),
	)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: a.config.Server.AllowedOrigins,
	})
	if err != nil {
		connLogger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig(a.config.Transport),
		nil,
		nil,
		connLogger,
	)
	stateConn := &state.Connection{
		ID:        conn.ID(),
		UserID:    reqMeta.UserID,
		IPAddress: reqMeta.IP,
		Transport: conn,
		CreatedAt: time.Now(),
	}

	conn.SetOnMessageHandler(func(ctx context.Context, _ uuid.UUID, msg []byte) {
		a.eventRouter.HandleMessage(ctx, stateConn, msg)
	})
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		connLogger.Info("Deregistering connection due to closure", slog.String("connID", id.String()))
		a.coordinator.OnDisconnect(stateConn)
	})

	// Registered before the pumps start, so a disconnect can never precede it.
	a.coordinator.OnConnect(stateConn)

	connLogger.Info("User connection fully established", slog.String("connID", stateConn.ID.String()))
	conn.Run()
	<-conn.Done()
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Online      int    `json:"online"`
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Connections: len(a.rooms.Connections()),
		Online:      len(a.presence.OnlineUserIDs()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *App) closeConnections() {
	for _, conn := range a.rooms.Connections() {
		conn.Transport.Close(errShutdown)
	}
}

// graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	httpErr := a.http.Shutdown(shutdownCtx)
	if httpErr != nil {
		a.logger.Error("HTTP shutdown did not complete", slog.Any("error", httpErr))
	}

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	a.closeConnections()

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	if httpErr != nil {
		return httpErr
	}
	a.logger.Info("Server shut down gracefully.")
	return nil
}
