package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
)

// MemoryStore keeps the message log in process memory. It backs tests and
// local development where no database file is wanted.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]chat.Message
}

// NewMemory creates an empty in-memory message log.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string][]chat.Message),
	}
}

// CreateMessage appends a message to the form's log.
func (s *MemoryStore) CreateMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	if m.FormID == "" {
		return chat.Message{}, ErrFormRequired
	}
	if _, err := chat.ParseRole(string(m.Role)); err != nil {
		return chat.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.NewString()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	s.messages[m.FormID] = append(s.messages[m.FormID], m)
	return m, nil
}

// SaveTurn appends the pair under one lock acquisition; both rows land or,
// on validation failure, neither does.
func (s *MemoryStore) SaveTurn(_ context.Context, user, assistant chat.Message) error {
	if user.FormID == "" || assistant.FormID == "" {
		return ErrFormRequired
	}
	if _, err := chat.ParseRole(string(user.Role)); err != nil {
		return err
	}
	if _, err := chat.ParseRole(string(assistant.Role)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, m := range []chat.Message{user, assistant} {
		m.ID = uuid.NewString()
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		s.messages[m.FormID] = append(s.messages[m.FormID], m)
	}
	return nil
}

// ListMessages returns a copy of the form's log in insertion order.
func (s *MemoryStore) ListMessages(_ context.Context, formID string) ([]chat.Message, error) {
	if formID == "" {
		return nil, ErrFormRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[formID]
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
