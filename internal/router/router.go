// Package router decodes client frames and routes them to room operations,
// replying on the client's ack channel when one was requested.
package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/a-essam23/go-presence/pkg/state"
)

// RoomController performs the room changes a client may request.
type RoomController interface {
	JoinChat(ctx context.Context, conn *state.Connection, chatID string) error
	LeaveChat(conn *state.Connection, chatID string)
	SubscribeChannel(ctx context.Context, conn *state.Connection, channelID string) error
	UnsubscribeChannel(conn *state.Connection, channelID string)
}

// handlerFunc returns the ack error string, empty on success.
type handlerFunc func(actx *ActionContext) string

type EventRouter struct {
	logger   *slog.Logger
	rooms    RoomController
	handlers map[string]handlerFunc
}

func NewEventRouter(logger *slog.Logger, rooms RoomController) *EventRouter {
	r := &EventRouter{
		logger: logger.With(slog.String("component", "event_router")),
		rooms:  rooms,
	}
	r.handlers = map[string]handlerFunc{
		EventChatJoin:           r.handleChatJoin,
		EventChatLeave:          r.handleChatLeave,
		EventChannelSubscribe:   r.handleChannelSubscribe,
		EventChannelUnsubscribe: r.handleChannelUnsubscribe,
	}
	return r
}

// HandleMessage processes one frame from conn. Frames of a connection arrive
// here one at a time, in order.
func (r *EventRouter) HandleMessage(ctx context.Context, conn *state.Connection, msg []byte) {
	var clientMsg ClientMessage
	if err := json.Unmarshal(msg, &clientMsg); err != nil {
		r.logger.Warn("Failed to unmarshal client message", slog.String("connID", conn.ID.String()), slog.Any("error", err))
		return
	}

	handler, ok := r.handlers[clientMsg.Event]
	if !ok {
		r.logger.Warn("Received unknown event", slog.String("event", clientMsg.Event), slog.String("connID", conn.ID.String()))
		r.ack(conn, clientMsg.Ack, ErrMsgUnknownEvent)
		return
	}

	actx := &ActionContext{
		Context: ctx,
		Conn:    conn,
		Message: &clientMsg,
	}
	r.logger.Debug("Handling event", slog.String("event", clientMsg.Event), slog.String("connID", conn.ID.String()))
	r.ack(conn, clientMsg.Ack, handler(actx))
}

func (r *EventRouter) ack(conn *state.Connection, id *int64, errMsg string) {
	if id == nil {
		return
	}
	reply, err := json.Marshal(AckReply{Event: eventAck, Ack: *id, Error: errMsg})
	if err != nil {
		r.logger.Error("Failed to marshal ack", slog.Any("error", err))
		return
	}
	conn.Transport.Send(reply)
}
