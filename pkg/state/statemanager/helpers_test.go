package statemanager_test

import (
	"log/slog"
	"os"
	"time"

	"github.com/a-essam23/go-presence/pkg/state"
	"github.com/google/uuid"
)

// --- Test Suite Setup ---

func newTestLogger() *slog.Logger {
	// Discard logger output during tests by setting a high level
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

type nopSender struct{}

func (nopSender) Send([]byte) {}
func (nopSender) Close(error) {}

func newConn(userID string) *state.Connection {
	return &state.Connection{
		ID:        uuid.New(),
		UserID:    userID,
		IPAddress: "127.0.0.1",
		Transport: nopSender{},
		CreatedAt: time.Now(),
	}
}
