package router

import (
	"log/slog"
)

func (r *EventRouter) handleChatJoin(actx *ActionContext) string {
	chatID := resolveID(actx.Message.Payload, "chatId")
	if err := r.rooms.JoinChat(actx, actx.Conn, chatID); err != nil {
		r.logger.Warn("Chat join failed",
			slog.String("connID", actx.Conn.ID.String()),
			slog.String("chatID", chatID),
			slog.Any("error", err),
		)
		return ErrMsgJoinChat
	}
	r.logger.Debug("Joined chat", slog.String("connID", actx.Conn.ID.String()), slog.String("chatID", chatID))
	return ""
}

func (r *EventRouter) handleChatLeave(actx *ActionContext) string {
	r.rooms.LeaveChat(actx.Conn, resolveID(actx.Message.Payload, "chatId"))
	return ""
}

func (r *EventRouter) handleChannelSubscribe(actx *ActionContext) string {
	channelID := resolveID(actx.Message.Payload, "channelId")
	if err := r.rooms.SubscribeChannel(actx, actx.Conn, channelID); err != nil {
		r.logger.Warn("Channel subscribe failed",
			slog.String("connID", actx.Conn.ID.String()),
			slog.String("channelID", channelID),
			slog.Any("error", err),
		)
		return ErrMsgSubscribeChannel
	}
	return ""
}

func (r *EventRouter) handleChannelUnsubscribe(actx *ActionContext) string {
	r.rooms.UnsubscribeChannel(actx.Conn, resolveID(actx.Message.Payload, "channelId"))
	return ""
}
