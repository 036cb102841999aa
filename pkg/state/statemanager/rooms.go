package statemanager

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/a-essam23/go-presence/pkg/state"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type InMemoryRooms struct {
	// room name -> member connections
	rooms map[string]map[uuid.UUID]*state.Connection
	// connection -> joined room names; every attached connection has an entry
	conns map[uuid.UUID]map[string]struct{}
	byID  map[uuid.UUID]*state.Connection

	mu sync.RWMutex

	logger *slog.Logger
}

func NewInMemoryRooms(logger *slog.Logger) *InMemoryRooms {
	return &InMemoryRooms{
		rooms:  make(map[string]map[uuid.UUID]*state.Connection),
		conns:  make(map[uuid.UUID]map[string]struct{}),
		byID:   make(map[uuid.UUID]*state.Connection),
		logger: logger.With(slog.String("component", "rooms_inmemory")),
	}
}

// compile-time check to ensure InMemoryRooms implements RoomManager.
var _ state.RoomManager = (*InMemoryRooms)(nil)

func (m *InMemoryRooms) Attach(conn *state.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachLocked(conn)
}

func (m *InMemoryRooms) attachLocked(conn *state.Connection) map[string]struct{} {
	joined, ok := m.conns[conn.ID]
	if !ok {
		joined = make(map[string]struct{})
		m.conns[conn.ID] = joined
		m.byID[conn.ID] = conn
		m.logger.Debug("Connection attached", slog.String("connID", conn.ID.String()), slog.String("userID", conn.UserID))
	}
	return joined
}

func (m *InMemoryRooms) Join(conn *state.Connection, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.joinLocked(m.attachLocked(conn), conn, room)
}

func (m *InMemoryRooms) JoinAttached(connID uuid.UUID, room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.byID[connID]
	if !ok {
		return false
	}
	m.joinLocked(m.conns[connID], conn, room)
	return true
}

func (m *InMemoryRooms) joinLocked(joined map[string]struct{}, conn *state.Connection, room string) {
	if _, already := joined[room]; already {
		return
	}

	members, exists := m.rooms[room]
	if !exists {
		members = make(map[uuid.UUID]*state.Connection)
		m.rooms[room] = members
	}
	members[conn.ID] = conn
	joined[room] = struct{}{}

	m.logger.Debug("Connection joined room", "connID", conn.ID.String(), "roomID", room)
}

func (m *InMemoryRooms) Leave(connID uuid.UUID, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	joined, ok := m.conns[connID]
	if !ok {
		return
	}
	if _, member := joined[room]; !member {
		return
	}
	delete(joined, room)
	m.removeMemberLocked(connID, room)

	m.logger.Debug("Connection left room", "connID", connID.String(), "roomID", room)
}

func (m *InMemoryRooms) LeaveAll(connID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	joined, ok := m.conns[connID]
	if !ok {
		return 0
	}
	for room := range joined {
		m.removeMemberLocked(connID, room)
	}
	delete(m.conns, connID)
	delete(m.byID, connID)

	m.logger.Debug("Connection left all rooms", slog.String("connID", connID.String()), slog.Int("rooms", len(joined)))
	return len(joined)
}

// removeMemberLocked drops the connection from the room and reclaims empty rooms.
func (m *InMemoryRooms) removeMemberLocked(connID uuid.UUID, room string) {
	members, ok := m.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(m.rooms, room)
		m.logger.Debug("Removed empty room", "roomID", room)
	}
}

func (m *InMemoryRooms) Members(room string) []*state.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.rooms[room]
	if !ok {
		return nil
	}
	return lo.Values(members)
}

func (m *InMemoryRooms) RoomsOf(connID uuid.UUID) []string {
	m.mu.RLock()
	joined := lo.Keys(m.conns[connID])
	m.mu.RUnlock()

	slices.Sort(joined)
	return joined
}

func (m *InMemoryRooms) Connection(connID uuid.UUID) (*state.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.byID[connID]
	return conn, ok
}

func (m *InMemoryRooms) Connections() []*state.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Values(m.byID)
}
