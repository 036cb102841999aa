package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-essam23/go-presence/internal/dispatch"
	"github.com/tidwall/gjson"
)

const maxNotifyBody = 1 << 20

// Notification kinds accepted by POST /internal/notify.
const (
	NotifyChatNew    = "chat:new"
	NotifyMessageNew = "message:new"
	NotifyChatUpdate = "chat:update"
	NotifySubscriber = "subscriber"
	NotifyAdmin      = "admin"
)

var errUnknownKind = errors.New("unknown notification type")

type newChatNotification struct {
	ParticipantIDs []string      `json:"participantIds"`
	Chat           dispatch.Chat `json:"chat"`
}

type newMessageNotification struct {
	SenderID string           `json:"senderId"`
	ChatID   string           `json:"chatId"`
	Message  dispatch.Message `json:"message"`
}

type chatUpdateNotification struct {
	ParticipantIDs []string         `json:"participantIds"`
	ChatID         string           `json:"chatId"`
	LastMessage    dispatch.Message `json:"lastMessage"`
}

type channelNotification struct {
	ChannelID string `json:"channelId"`
	Event     string `json:"event"`
	UserID    string `json:"userId"`
}

// notifyHandler lets the REST API publish domain events into the live layer.
func (a *App) notifyHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotifyBody))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if !gjson.ValidBytes(body) {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	kind := gjson.GetBytes(body, "type").String()
	if err := a.publish(kind, body); err != nil {
		a.logger.Warn("Rejected notification", slog.String("type", kind), slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *App) publish(kind string, body []byte) error {
	switch kind {
	case NotifyChatNew:
		var n newChatNotification
		if err := json.Unmarshal(body, &n); err != nil {
			return err
		}
		return a.dispatcher.NotifyNewChat(n.ParticipantIDs, n.Chat)
	case NotifyMessageNew:
		var n newMessageNotification
		if err := json.Unmarshal(body, &n); err != nil {
			return err
		}
		return a.dispatcher.NotifyNewMessage(n.SenderID, n.ChatID, n.Message)
	case NotifyChatUpdate:
		var n chatUpdateNotification
		if err := json.Unmarshal(body, &n); err != nil {
			return err
		}
		return a.dispatcher.NotifyLastMessage(n.ParticipantIDs, n.ChatID, n.LastMessage)
	case NotifySubscriber:
		var n channelNotification
		if err := json.Unmarshal(body, &n); err != nil {
			return err
		}
		return a.dispatcher.NotifyChannelSubscriber(n.ChannelID, dispatch.SubscriberEvent(n.Event), n.UserID)
	case NotifyAdmin:
		var n channelNotification
		if err := json.Unmarshal(body, &n); err != nil {
			return err
		}
		return a.dispatcher.NotifyChannelAdmin(n.ChannelID, dispatch.AdminEvent(n.Event), n.UserID)
	default:
		return errUnknownKind
	}
}
