package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

// MemoryMessageRepository is an in-process message store with the same
// contract as the Postgres adapter. It backs tests and local development
// without a database. Insertion order doubles as the created_at tiebreak,
// matching the append-only semantics of the real store.
type MemoryMessageRepository struct {
	mu   sync.RWMutex
	msgs []messaging.Message

	// Now is swappable so tests can pin the persistence clock.
	Now func() time.Time
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{Now: func() time.Time { return time.Now().UTC() }}
}

func (r *MemoryMessageRepository) Create(_ context.Context, m messaging.Message) (messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = uuid.NewString()
	m.CreatedAt = r.Now()
	m.Read = false
	r.msgs = append(r.msgs, m)
	return m, nil
}

func (r *MemoryMessageRepository) Get(_ context.Context, id string) (messaging.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return messaging.Message{}, fmt.Errorf("%w: message %s", messaging.ErrNotFound, id)
}

func (r *MemoryMessageRepository) Thread(_ context.Context, userA, userB string) ([]messaging.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []messaging.Message
	for _, m := range r.msgs {
		if m.Between(userA, userB) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MemoryMessageRepository) MarkRead(_ context.Context, recipientID, senderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.msgs {
		m := &r.msgs[i]
		if m.RecipientID == recipientID && m.SenderID == senderID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r *MemoryMessageRepository) MarkMessageRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.msgs {
		if r.msgs[i].ID == id {
			r.msgs[i].Read = true
			return nil
		}
	}
	return nil
}

func (r *MemoryMessageRepository) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, m := range r.msgs {
		if m.RecipientID == recipientID && !m.Read {
			n++
		}
	}
	return n, nil
}
