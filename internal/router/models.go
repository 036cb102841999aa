package router

import (
	"context"
	"encoding/json"

	"github.com/a-essam23/go-presence/pkg/state"
)

// Client-to-server event names.
const (
	EventChatJoin           = "chat:join"
	EventChatLeave          = "chat:leave"
	EventChannelSubscribe   = "channel:subscribe"
	EventChannelUnsubscribe = "channel:unsubscribe"

	eventAck = "ack"
)

// Ack error strings seen by clients.
const (
	ErrMsgJoinChat         = "Error joining chat"
	ErrMsgSubscribeChannel = "Error subscribing to channel"
	ErrMsgUnknownEvent     = "Unknown event"
)

type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	// Ack is the client's callback id; a reply is sent only when it is set.
	Ack *int64 `json:"ack,omitempty"`
}

type AckReply struct {
	Event string `json:"event"`
	Ack   int64  `json:"ack"`
	Error string `json:"error,omitempty"`
}

type ActionContext struct {
	context.Context
	Conn    *state.Connection
	Message *ClientMessage
}
