package repository

import (
	"context"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

// MessageRepository defines the append-only message store. Messages are
// never deleted; the read flag is the only mutable column. Every operation
// is a single-row (or single-direction) atomic statement, so implementations
// need no multi-step transactions.
type MessageRepository interface {
	// Create persists m, assigning ID and CreatedAt at persistence time, and
	// returns the stored row. Read always starts false.
	Create(ctx context.Context, m messaging.Message) (messaging.Message, error)

	// Get returns a single message by id, or ErrNotFound.
	Get(ctx context.Context, id string) (messaging.Message, error)

	// Thread returns every message exchanged between the pair, ascending by
	// CreatedAt with id as tiebreak, regardless of current relationship state.
	Thread(ctx context.Context, userA, userB string) ([]messaging.Message, error)

	// MarkRead flags all unread messages from senderID to recipientID as read
	// and returns how many rows changed. Idempotent: a second call is a no-op.
	MarkRead(ctx context.Context, recipientID, senderID string) (int64, error)

	// MarkMessageRead flags one message as read; used when a message arrives
	// for the conversation currently on screen.
	MarkMessageRead(ctx context.Context, id string) error

	// CountUnread returns the total unread messages addressed to recipientID.
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}
