package statemanager

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/a-essam23/go-presence/pkg/state"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// InMemoryPresence is a last-write-wins map of user to live connection.
type InMemoryPresence struct {
	mu     sync.RWMutex
	online map[string]uuid.UUID

	logger *slog.Logger
}

func NewInMemoryPresence(logger *slog.Logger) *InMemoryPresence {
	return &InMemoryPresence{
		online: make(map[string]uuid.UUID),
		logger: logger.With(slog.String("component", "presence_inmemory")),
	}
}

// compile-time check to ensure InMemoryPresence implements PresenceRegistry.
var _ state.PresenceRegistry = (*InMemoryPresence)(nil)

func (p *InMemoryPresence) Register(userID string, connID uuid.UUID) {
	p.mu.Lock()
	previous, replaced := p.online[userID]
	p.online[userID] = connID
	p.mu.Unlock()

	if replaced && previous != connID {
		p.logger.Debug("Presence superseded by newer connection",
			slog.String("userID", userID),
			slog.String("previousConnID", previous.String()),
			slog.String("connID", connID.String()),
		)
		return
	}
	p.logger.Debug("Presence registered", slog.String("userID", userID), slog.String("connID", connID.String()))
}

func (p *InMemoryPresence) Unregister(userID string, connID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.online[userID]
	if !ok || current != connID {
		// a newer connection owns the entry, or it is already gone.
		p.logger.Debug("Ignoring stale presence removal",
			slog.String("userID", userID),
			slog.String("connID", connID.String()),
		)
		return false
	}
	delete(p.online, userID)
	p.logger.Debug("Presence removed", slog.String("userID", userID), slog.String("connID", connID.String()))
	return true
}

func (p *InMemoryPresence) Lookup(userID string) (uuid.UUID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.online[userID]
	return connID, ok
}

func (p *InMemoryPresence) OnlineUserIDs() []string {
	p.mu.RLock()
	ids := lo.Keys(p.online)
	p.mu.RUnlock()

	slices.Sort(ids)
	return ids
}
