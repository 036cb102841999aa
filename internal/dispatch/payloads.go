package dispatch

import "time"

// Server-to-client event names.
const (
	EventOnlineUsers = "online:users"
	EventChatNew     = "chat:new"
	EventMessageNew  = "message:new"
	EventChatUpdate  = "chat:update"
)

// SubscriberEvent tags a channel subscriber delta.
type SubscriberEvent string

const (
	SubscriberJoined SubscriberEvent = "joined"
	SubscriberLeft   SubscriberEvent = "left"
)

func (e SubscriberEvent) Valid() bool { return e == SubscriberJoined || e == SubscriberLeft }

// EventName is the wire name, e.g. "subscriber:joined".
func (e SubscriberEvent) EventName() string { return "subscriber:" + string(e) }

// AdminEvent tags a channel admin delta.
type AdminEvent string

const (
	AdminAdded   AdminEvent = "added"
	AdminRemoved AdminEvent = "removed"
)

func (e AdminEvent) Valid() bool { return e == AdminAdded || e == AdminRemoved }

func (e AdminEvent) EventName() string { return "admin:" + string(e) }

// Envelope is the frame written to every client.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type Participant struct {
	ID     string `json:"_id" validate:"required"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type FileMetadata struct {
	URL  string `json:"url" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"` // MIME type
	Size int64  `json:"size" validate:"gte=0"`
}

type Message struct {
	ID          string         `json:"_id" validate:"required"`
	ChatID      string         `json:"chatId" validate:"required"`
	Content     string         `json:"content,omitempty"`
	Image       string         `json:"image,omitempty"`
	File        *FileMetadata  `json:"file,omitempty"`
	Sender      *Participant   `json:"sender,omitempty"`
	ReplyTo     *QuotedMessage `json:"replyTo,omitempty"`
	MessageType string         `json:"messageType,omitempty" validate:"omitempty,oneof=USER SYSTEM"`
	CreatedAt   time.Time      `json:"createdAt,omitzero"`
	UpdatedAt   time.Time      `json:"updatedAt,omitzero"`
}

// QuotedMessage is the message a reply points at. It carries only the fields
// the chat view renders in the quote, so it has no chat id.
type QuotedMessage struct {
	ID      string        `json:"_id" validate:"required"`
	Content string        `json:"content,omitempty"`
	Image   string        `json:"image,omitempty"`
	File    *FileMetadata `json:"file,omitempty"`
	Sender  *Participant  `json:"sender,omitempty"`
}

type Chat struct {
	ID           string        `json:"_id" validate:"required"`
	Name         string        `json:"name,omitempty"`
	Type         string        `json:"type,omitempty" validate:"omitempty,oneof=DIRECT GROUP CHANNEL"`
	IsGroup      bool          `json:"isGroup"`
	IsAiChat     bool          `json:"isAiChat"`
	Participants []Participant `json:"participants" validate:"dive"`
	Admins       []string      `json:"admins,omitempty"`
	CreatedBy    string        `json:"createdBy,omitempty"`
	LastMessage  *Message      `json:"lastMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt,omitzero"`
	UpdatedAt    time.Time     `json:"updatedAt,omitzero"`
}

// ChatUpdate refreshes a chat-list entry.
type ChatUpdate struct {
	ChatID      string  `json:"chatId" validate:"required"`
	LastMessage Message `json:"lastMessage"`
}

// MessageNotice is the id-only message:new used to bump unread counters.
type MessageNotice struct {
	ChatID string `json:"chatId" validate:"required"`
}

type ChannelMemberChange struct {
	UserID    string `json:"userId" validate:"required"`
	ChannelID string `json:"channelId" validate:"required"`
}
