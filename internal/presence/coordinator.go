// Package presence drives a connection through its lifecycle: registration,
// room joins requested over the protocol, and cleanup on disconnect.
package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/a-essam23/go-presence/pkg/membership"
	"github.com/a-essam23/go-presence/pkg/state"
)

var (
	ErrNotParticipant   = errors.New("user is not a participant of the chat")
	ErrMissingID        = errors.New("missing room id")
	ErrConnectionClosed = errors.New("connection is closed")
)

// OnlineBroadcaster announces the current online-user set.
type OnlineBroadcaster interface {
	BroadcastOnlineUsers()
}

type Coordinator struct {
	presence    state.PresenceRegistry
	rooms       state.RoomManager
	members     membership.Checker
	broadcaster OnlineBroadcaster
	logger      *slog.Logger
}

func NewCoordinator(
	logger *slog.Logger,
	presence state.PresenceRegistry,
	rooms state.RoomManager,
	members membership.Checker,
	broadcaster OnlineBroadcaster,
) *Coordinator {
	return &Coordinator{
		presence:    presence,
		rooms:       rooms,
		members:     members,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "presence")),
	}
}

// OnConnect registers an authorized connection, joins it to its user room and
// broadcasts the new online set.
func (c *Coordinator) OnConnect(conn *state.Connection) {
	c.presence.Register(conn.UserID, conn.ID)
	c.rooms.Join(conn, state.UserRoom(conn.UserID))

	c.logger.Info("User connected", slog.String("userID", conn.UserID), slog.String("connID", conn.ID.String()))
	c.broadcaster.BroadcastOnlineUsers()
}

// OnDisconnect removes the connection's presence entry if it is still the
// current one, then drops it from every room.
func (c *Coordinator) OnDisconnect(conn *state.Connection) {
	if c.presence.Unregister(conn.UserID, conn.ID) {
		c.broadcaster.BroadcastOnlineUsers()
	} else {
		c.logger.Debug("Stale disconnect ignored", slog.String("userID", conn.UserID), slog.String("connID", conn.ID.String()))
	}

	left := c.rooms.LeaveAll(conn.ID)
	c.logger.Info("User disconnected",
		slog.String("userID", conn.UserID),
		slog.String("connID", conn.ID.String()),
		slog.Int("roomsLeft", left),
	)
}

// JoinChat adds the connection to the chat room once the membership lookup
// confirms the user takes part in it. No lock is held during the lookup.
func (c *Coordinator) JoinChat(ctx context.Context, conn *state.Connection, chatID string) error {
	if chatID == "" {
		return ErrMissingID
	}

	ok, err := c.members.IsParticipant(ctx, chatID, conn.UserID)
	if err != nil {
		return fmt.Errorf("membership lookup: %w", err)
	}
	if !ok {
		c.logger.Warn("Rejected chat join",
			slog.String("userID", conn.UserID),
			slog.String("chatID", chatID),
		)
		return ErrNotParticipant
	}

	if !c.rooms.JoinAttached(conn.ID, state.ChatRoom(chatID)) {
		return ErrConnectionClosed
	}
	return nil
}

func (c *Coordinator) LeaveChat(conn *state.Connection, chatID string) {
	if chatID == "" {
		return
	}
	c.rooms.Leave(conn.ID, state.ChatRoom(chatID))
}

// SubscribeChannel joins the channel room, which only carries subscriber and
// admin deltas. The chat room backing the channel is shared with direct and
// group chats, so it is joined only once the membership lookup confirms the
// user is a participant; otherwise the subscription stays channel-only.
func (c *Coordinator) SubscribeChannel(ctx context.Context, conn *state.Connection, channelID string) error {
	if channelID == "" {
		return ErrMissingID
	}
	if !c.rooms.JoinAttached(conn.ID, state.ChannelRoom(channelID)) {
		return ErrConnectionClosed
	}

	ok, err := c.members.IsParticipant(ctx, channelID, conn.UserID)
	if err != nil {
		return fmt.Errorf("membership lookup: %w", err)
	}
	if !ok {
		c.logger.Debug("Channel subscribed without chat room",
			slog.String("userID", conn.UserID),
			slog.String("channelID", channelID),
		)
		return nil
	}

	if !c.rooms.JoinAttached(conn.ID, state.ChatRoom(channelID)) {
		return ErrConnectionClosed
	}
	return nil
}

// UnsubscribeChannel leaves the channel room only; the chat room stays joined
// until an explicit chat:leave or disconnect.
func (c *Coordinator) UnsubscribeChannel(conn *state.Connection, channelID string) {
	if channelID == "" {
		return
	}
	c.rooms.Leave(conn.ID, state.ChannelRoom(channelID))
}
