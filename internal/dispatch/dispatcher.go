// Package dispatch pushes domain events to the rooms and users that should see them.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/a-essam23/go-presence/pkg/state"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var (
	ErrNotInitialized = errors.New("dispatcher is not initialized")
	ErrInvalidPayload = errors.New("invalid event payload")
)

type Dispatcher struct {
	rooms    state.RoomManager
	presence state.PresenceRegistry
	validate *validator.Validate
	logger   *slog.Logger
}

func New(logger *slog.Logger, rooms state.RoomManager, presence state.PresenceRegistry) *Dispatcher {
	return &Dispatcher{
		rooms:    rooms,
		presence: presence,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// mustBeReady panics when called on a nil or half-built dispatcher.
func (d *Dispatcher) mustBeReady() {
	if d == nil || d.rooms == nil || d.presence == nil {
		panic(ErrNotInitialized)
	}
}

// BroadcastOnlineUsers sends the sorted online user ids to every attached connection.
func (d *Dispatcher) BroadcastOnlineUsers() {
	d.mustBeReady()

	online := d.presence.OnlineUserIDs()
	frame, err := encode(EventOnlineUsers, online)
	if err != nil {
		d.logger.Error("Failed to encode online users", slog.Any("error", err))
		return
	}
	conns := d.rooms.Connections()
	deliver(conns, frame)
	d.logger.Debug("Online users broadcast", slog.Int("online", len(online)), slog.Int("connections", len(conns)))
}

// NotifyNewChat emits chat:new to the user room of every participant.
func (d *Dispatcher) NotifyNewChat(participantIDs []string, chat Chat) error {
	d.mustBeReady()
	if err := d.check(&chat); err != nil {
		return err
	}

	frame, err := encode(EventChatNew, chat)
	if err != nil {
		return err
	}
	for _, userID := range lo.Uniq(participantIDs) {
		d.emit(state.UserRoom(userID), frame)
	}
	return nil
}

// NotifyNewMessage emits message:new to the chat room, skipping the sender's
// live connection. Without a live connection for the sender the whole room receives it.
func (d *Dispatcher) NotifyNewMessage(senderID, chatID string, msg Message) error {
	d.mustBeReady()
	if chatID == "" {
		return fmt.Errorf("%w: empty chat id", ErrInvalidPayload)
	}
	if err := d.check(&msg); err != nil {
		return err
	}

	frame, err := encode(EventMessageNew, msg)
	if err != nil {
		return err
	}

	members := d.rooms.Members(state.ChatRoom(chatID))
	if senderConn, ok := d.presence.Lookup(senderID); ok {
		members = lo.Reject(members, func(c *state.Connection, _ int) bool {
			return c.ID == senderConn
		})
	}
	deliver(members, frame)
	return nil
}

// NotifyLastMessage emits chat:update and an id-only message:new to the user
// room of every participant, whether or not they have the chat open.
func (d *Dispatcher) NotifyLastMessage(participantIDs []string, chatID string, last Message) error {
	d.mustBeReady()
	update := ChatUpdate{ChatID: chatID, LastMessage: last}
	if err := d.check(&update); err != nil {
		return err
	}

	updateFrame, err := encode(EventChatUpdate, update)
	if err != nil {
		return err
	}
	noticeFrame, err := encode(EventMessageNew, MessageNotice{ChatID: chatID})
	if err != nil {
		return err
	}
	for _, userID := range lo.Uniq(participantIDs) {
		room := state.UserRoom(userID)
		d.emit(room, updateFrame)
		d.emit(room, noticeFrame)
	}
	return nil
}

// NotifyChannelSubscriber emits subscriber:joined or subscriber:left to the channel room.
func (d *Dispatcher) NotifyChannelSubscriber(channelID string, event SubscriberEvent, userID string) error {
	d.mustBeReady()
	if !event.Valid() {
		return fmt.Errorf("%w: subscriber event '%s'", ErrInvalidPayload, event)
	}
	return d.notifyChannel(channelID, event.EventName(), userID)
}

// NotifyChannelAdmin emits admin:added or admin:removed to the channel room.
func (d *Dispatcher) NotifyChannelAdmin(channelID string, event AdminEvent, userID string) error {
	d.mustBeReady()
	if !event.Valid() {
		return fmt.Errorf("%w: admin event '%s'", ErrInvalidPayload, event)
	}
	return d.notifyChannel(channelID, event.EventName(), userID)
}

func (d *Dispatcher) notifyChannel(channelID, event, userID string) error {
	change := ChannelMemberChange{UserID: userID, ChannelID: channelID}
	if err := d.check(&change); err != nil {
		return err
	}
	frame, err := encode(event, change)
	if err != nil {
		return err
	}
	d.emit(state.ChannelRoom(channelID), frame)
	return nil
}

func (d *Dispatcher) check(payload any) error {
	if err := d.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (d *Dispatcher) emit(room string, frame []byte) {
	members := d.rooms.Members(room)
	if len(members) == 0 {
		d.logger.Debug("No live members, skipping emit", slog.String("room", room))
		return
	}
	deliver(members, frame)
}

func deliver(conns []*state.Connection, frame []byte) {
	for _, c := range conns {
		c.Transport.Send(frame)
	}
}

func encode(event string, payload any) ([]byte, error) {
	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode '%s': %w", event, err)
	}
	return frame, nil
}
