package messaging

import (
	"fmt"
	"strings"
	"time"
)

// Message is an immutable entry in the history between two users.
// Only the Read flag may change after creation.
type Message struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Read        bool      `db:"read" json:"read"`
}

// NewMessage validates and normalizes an outgoing message before persistence.
// CreatedAt is intentionally left zero: the store assigns it at persistence
// time so ordering never depends on client clocks.
func NewMessage(senderID, recipientID, content string) (*Message, error) {
	if senderID == "" || recipientID == "" {
		return nil, fmt.Errorf("%w: sender_id and recipient_id are required", ErrValidation)
	}
	if senderID == recipientID {
		return nil, fmt.Errorf("%w: sender and recipient must differ", ErrValidation)
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: content must not be blank", ErrValidation)
	}

	return &Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     trimmed,
	}, nil
}

// Counterpart returns the other party of the message relative to userID.
func (m Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Between reports whether the message belongs to the thread of the pair {a, b}.
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) ||
		(m.SenderID == b && m.RecipientID == a)
}
