// Package store provides the durable message log backing interview sessions.
package store

import (
	"context"
	"errors"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
)

// ErrFormRequired is returned when a message carries no owning form id.
var ErrFormRequired = errors.New("form id is required")

// Store persists role-tagged interview messages keyed by intake form id.
type Store interface {
	// CreateMessage appends a single message to the form's log.
	CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error)

	// SaveTurn persists a user/assistant pair atomically, user first.
	// Either both messages are stored or neither is.
	SaveTurn(ctx context.Context, user, assistant chat.Message) error

	// ListMessages returns all messages for a form in creation order.
	ListMessages(ctx context.Context, formID string) ([]chat.Message, error)

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}
