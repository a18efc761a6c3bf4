// Package history caches per-session conversation history and rehydrates it
// from the durable message log on first access.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
	"github.com/mwarzecha/velofit/backend/internal/store"
)

// Service maps a form id to its ordered model-ready history. The cache is
// bounded; storage stays the source of truth, so an evicted session is simply
// rehydrated on its next turn.
type Service struct {
	store store.Store
	cache *lru.Cache[string, []*schema.Message]

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService builds a history service with at most cacheSize cached sessions.
func NewService(st store.Store, cacheSize int) (*Service, error) {
	cache, err := lru.New[string, []*schema.Message](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}

	return &Service{
		store: st,
		cache: cache,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Lock serializes turns for one form id. The lock must be held for the whole
// turn and released on every exit path.
func (s *Service) Lock(formID string) {
	s.sessionLock(formID).Lock()
}

// Unlock releases the per-session turn lock.
func (s *Service) Unlock(formID string) {
	s.sessionLock(formID).Unlock()
}

func (s *Service) sessionLock(formID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[formID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[formID] = l
	}
	return l
}

// Get returns the session history, querying storage only on the first access
// after process start or eviction. System rows are not replayed into the
// conversational turn sequence.
func (s *Service) Get(ctx context.Context, formID string) ([]*schema.Message, error) {
	if formID == "" {
		return nil, store.ErrFormRequired
	}

	if cached, ok := s.cache.Get(formID); ok {
		return copyHistory(cached), nil
	}

	messages, err := s.store.ListMessages(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("rehydrate history: %w", err)
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(m.Text))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(m.Text, nil))
		case chat.RoleSystem:
			// System rows configure the agent; they are not dialogue turns.
		default:
			return nil, fmt.Errorf("rehydrate history: unknown role %q in message %s", m.Role, m.ID)
		}
	}

	s.cache.Add(formID, history)
	return copyHistory(history), nil
}

// Append extends the cached history after a persisted turn. When the session
// was evicted in the meantime this is a no-op; the next Get rehydrates.
func (s *Service) Append(formID string, msgs ...*schema.Message) {
	cached, ok := s.cache.Peek(formID)
	if !ok {
		return
	}

	updated := make([]*schema.Message, 0, len(cached)+len(msgs))
	updated = append(updated, cached...)
	updated = append(updated, msgs...)
	s.cache.Add(formID, updated)
}

func copyHistory(history []*schema.Message) []*schema.Message {
	copied := make([]*schema.Message, len(history))
	copy(copied, history)
	return copied
}
