package router_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/a-essam23/go-presence/internal/presence"
	"github.com/a-essam23/go-presence/internal/router"
	"github.com/a-essam23/go-presence/pkg/membership"
	"github.com/a-essam23/go-presence/pkg/state"
	"github.com/a-essam23/go-presence/pkg/state/statemanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	replies []router.AckReply
}

func (r *recorder) Send(message []byte) {
	var reply router.AckReply
	if err := json.Unmarshal(message, &reply); err != nil {
		panic(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
}

func (r *recorder) Close(error) {}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastOnlineUsers() {}

type fixture struct {
	rooms   *statemanager.InMemoryRooms
	members *membership.InMemory
	router  *router.EventRouter
	conn    *state.Connection
	rec     *recorder
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		rooms:   statemanager.NewInMemoryRooms(logger),
		members: membership.NewInMemory(),
		rec:     &recorder{},
	}
	coordinator := presence.NewCoordinator(logger, statemanager.NewInMemoryPresence(logger), f.rooms, f.members, nopBroadcaster{})
	f.router = router.NewEventRouter(logger, coordinator)

	f.conn = &state.Connection{ID: uuid.New(), UserID: "alice", Transport: f.rec, CreatedAt: time.Now()}
	coordinator.OnConnect(f.conn)
	return f
}

func (f *fixture) send(frame string) {
	f.router.HandleMessage(context.Background(), f.conn, []byte(frame))
}

func TestChatJoin(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.members.Add("42", "alice")

	f.send(`{"event":"chat:join","payload":"42","ack":1}`)

	req.Equal([]router.AckReply{{Event: "ack", Ack: 1}}, f.rec.replies)
	req.Contains(f.rooms.RoomsOf(f.conn.ID), state.ChatRoom("42"))
}

func TestChatJoin_ObjectPayload(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.members.Add("42", "alice")

	f.send(`{"event":"chat:join","payload":{"chatId":"42"}}`)

	req.Empty(f.rec.replies)
	req.Contains(f.rooms.RoomsOf(f.conn.ID), state.ChatRoom("42"))
}

func TestChatJoin_NotParticipant(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	f.send(`{"event":"chat:join","payload":"42","ack":7}`)

	req.Equal([]router.AckReply{{Event: "ack", Ack: 7, Error: router.ErrMsgJoinChat}}, f.rec.replies)
	req.NotContains(f.rooms.RoomsOf(f.conn.ID), state.ChatRoom("42"))
}

func TestChatLeave(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.members.Add("42", "alice")

	f.send(`{"event":"chat:join","payload":"42"}`)
	f.send(`{"event":"chat:leave","payload":"42","ack":2}`)
	f.send(`{"event":"chat:leave","payload":"42"}`)

	req.Equal([]router.AckReply{{Event: "ack", Ack: 2}}, f.rec.replies)
	req.Equal([]string{state.UserRoom("alice")}, f.rooms.RoomsOf(f.conn.ID))
}

func TestChannelSubscription(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.members.Add("7", "alice")

	f.send(`{"event":"channel:subscribe","payload":{"channelId":"7"},"ack":3}`)
	req.Equal([]string{state.ChannelRoom("7"), state.ChatRoom("7"), state.UserRoom("alice")}, f.rooms.RoomsOf(f.conn.ID))

	f.send(`{"event":"channel:unsubscribe","payload":"7"}`)
	req.Equal([]string{state.ChatRoom("7"), state.UserRoom("alice")}, f.rooms.RoomsOf(f.conn.ID))

	f.send(`{"event":"channel:subscribe","payload":{},"ack":4}`)
	req.Equal([]router.AckReply{
		{Event: "ack", Ack: 3},
		{Event: "ack", Ack: 4, Error: router.ErrMsgSubscribeChannel},
	}, f.rec.replies)
}

func TestChannelSubscribe_DoesNotOpenPrivateChat(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.members.Add("dm-1", "bob", "carol")

	// Given chat:join is refused for a direct chat alice is not part of
	f.send(`{"event":"chat:join","payload":"dm-1","ack":1}`)

	// When she subscribes to the same id as a channel
	f.send(`{"event":"channel:subscribe","payload":"dm-1","ack":2}`)

	// Then she holds the channel room only, never the chat room
	req.Equal([]router.AckReply{
		{Event: "ack", Ack: 1, Error: router.ErrMsgJoinChat},
		{Event: "ack", Ack: 2},
	}, f.rec.replies)
	req.Equal([]string{state.ChannelRoom("dm-1"), state.UserRoom("alice")}, f.rooms.RoomsOf(f.conn.ID))
	req.Nil(f.rooms.Members(state.ChatRoom("dm-1")))
}

func TestUnknownAndMalformedFrames(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	f.send(`not json`)
	f.send(`{"event":"chat:delete","payload":"42"}`)
	f.send(`{"event":"chat:delete","payload":"42","ack":9}`)

	req.Equal([]router.AckReply{{Event: "ack", Ack: 9, Error: router.ErrMsgUnknownEvent}}, f.rec.replies)
	req.Equal([]string{state.UserRoom("alice")}, f.rooms.RoomsOf(f.conn.ID))
}
