package state

import (
	"time"

	"github.com/google/uuid"
)

// Sender is the delivery side of a live transport connection.
type Sender interface {
	Send(message []byte)
	Close(err error)
}

// representation of a single authorized transport-layer connection.
type Connection struct {
	ID        uuid.UUID
	UserID    string // set once by the auth gate, never changed afterwards
	IPAddress string
	Transport Sender
	CreatedAt time.Time
}

const (
	userRoomPrefix    = "user:"
	chatRoomPrefix    = "chat:"
	channelRoomPrefix = "channel:"
)

// UserRoom is the personal inbox room of a user.
func UserRoom(userID string) string { return userRoomPrefix + userID }

// ChatRoom is the live conversation room of a chat, group or channel.
func ChatRoom(chatID string) string { return chatRoomPrefix + chatID }

// ChannelRoom is the subscription room of a broadcast channel.
func ChannelRoom(channelID string) string { return channelRoomPrefix + channelID }
