//go:generate go run go.uber.org/mock/mockgen -source=membership.go -destination=../../mocks/mock_membership.go -package=mocks

// Package membership answers whether a user takes part in a chat.
package membership

import (
	"context"
	"sync"
)

// Checker is the chat-membership lookup consulted on chat:join.
type Checker interface {
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
}

// InMemory is a Checker backed by a static participant table.
type InMemory struct {
	mu    sync.RWMutex
	chats map[string]map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{chats: make(map[string]map[string]struct{})}
}

var _ Checker = (*InMemory)(nil)

// Add records userIDs as participants of chatID.
func (m *InMemory) Add(chatID string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	participants, ok := m.chats[chatID]
	if !ok {
		participants = make(map[string]struct{}, len(userIDs))
		m.chats[chatID] = participants
	}
	for _, id := range userIDs {
		participants[id] = struct{}{}
	}
}

// Remove drops userID from chatID.
func (m *InMemory) Remove(chatID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats[chatID], userID)
}

func (m *InMemory) IsParticipant(_ context.Context, chatID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.chats[chatID][userID]
	return ok, nil
}
