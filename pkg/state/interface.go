package state

import (
	"github.com/google/uuid"
)

// PresenceRegistry maps each user to their most recently registered connection.
type PresenceRegistry interface {
	// Register unconditionally records connID as the user's live connection.
	Register(userID string, connID uuid.UUID)
	// Unregister removes the entry only while it still points at connID.
	// It reports whether anything was removed.
	Unregister(userID string, connID uuid.UUID) bool
	Lookup(userID string) (uuid.UUID, bool)
	// OnlineUserIDs returns a sorted snapshot of every registered user.
	OnlineUserIDs() []string
}

// RoomManager tracks which connections are subscribed to which rooms.
type RoomManager interface {
	// Attach makes the connection known without joining any room.
	Attach(conn *Connection)
	// Join adds the connection to room, attaching it when needed. Joining twice is a no-op.
	Join(conn *Connection, room string)
	// JoinAttached joins only a connection that is still attached and reports whether it did.
	JoinAttached(connID uuid.UUID, room string) bool
	// Leave removes the connection from room. Leaving a room one is not in is a no-op.
	Leave(connID uuid.UUID, room string)
	// LeaveAll removes the connection from every room, forgets it and
	// returns the number of rooms it was removed from.
	LeaveAll(connID uuid.UUID) int

	Members(room string) []*Connection
	RoomsOf(connID uuid.UUID) []string
	Connection(connID uuid.UUID) (*Connection, bool)
	Connections() []*Connection
}
