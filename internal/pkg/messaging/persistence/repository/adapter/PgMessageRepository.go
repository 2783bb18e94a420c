package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

// PgMessageRepository persists messages in Postgres. created_at is assigned
// by the database clock (now()), never by the caller, so both parties of a
// thread observe a single ordering source.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, m messaging.Message) (messaging.Message, error) {
	if r == nil || r.pool == nil {
		return messaging.Message{}, errors.New("PgMessageRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content, created_at, read)
		VALUES ($1::uuid, $2::uuid, $3, now(), false)
		RETURNING id::text, created_at, read
	`, m.SenderID, m.RecipientID, m.Content)
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.Read); err != nil {
		return messaging.Message{}, fmt.Errorf("%w: insert message: %v", messaging.ErrTransport, err)
	}
	return m, nil
}

func (r *PgMessageRepository) Get(ctx context.Context, id string) (messaging.Message, error) {
	if r == nil || r.pool == nil {
		return messaging.Message{}, errors.New("PgMessageRepository: nil pool")
	}
	var m messaging.Message
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, sender_id::text, recipient_id::text, content, created_at, read
		FROM messages
		WHERE id = $1::uuid
	`, id).Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.CreatedAt, &m.Read)
	if errors.Is(err, pgx.ErrNoRows) {
		return messaging.Message{}, fmt.Errorf("%w: message %s", messaging.ErrNotFound, id)
	}
	if err != nil {
		return messaging.Message{}, fmt.Errorf("%w: get message: %v", messaging.ErrTransport, err)
	}
	return m, nil
}

func (r *PgMessageRepository) Thread(ctx context.Context, userA, userB string) ([]messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, sender_id::text, recipient_id::text, content, created_at, read
		FROM messages
		WHERE (sender_id = $1::uuid AND recipient_id = $2::uuid)
		   OR (sender_id = $2::uuid AND recipient_id = $1::uuid)
		ORDER BY created_at ASC, id ASC
	`, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("%w: query thread: %v", messaging.ErrTransport, err)
	}
	defer rows.Close()

	var msgs []messaging.Message
	for rows.Next() {
		var m messaging.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.CreatedAt, &m.Read); err != nil {
			return nil, fmt.Errorf("%w: scan thread row: %v", messaging.ErrTransport, err)
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: thread rows: %v", messaging.ErrTransport, rows.Err())
	}
	return msgs, nil
}

func (r *PgMessageRepository) MarkRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessageRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET read = true
		WHERE recipient_id = $1::uuid AND sender_id = $2::uuid AND read = false
	`, recipientID, senderID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark read: %v", messaging.ErrTransport, err)
	}
	return ct.RowsAffected(), nil
}

func (r *PgMessageRepository) MarkMessageRead(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessageRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messages SET read = true WHERE id = $1::uuid AND read = false
	`, id)
	if err != nil {
		return fmt.Errorf("%w: mark message read: %v", messaging.ErrTransport, err)
	}
	// Zero rows means the message was already read or never existed; both are
	// harmless for a read-state update.
	_ = ct
	return nil
}

func (r *PgMessageRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessageRepository: nil pool")
	}
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM messages WHERE recipient_id = $1::uuid AND read = false
	`, recipientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count unread: %v", messaging.ErrTransport, err)
	}
	return n, nil
}
