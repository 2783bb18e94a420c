package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

// PgDirectoryRepository reads user profiles and the care-relationship graph.
// Assignment rows carry an active flag; only active rows ever surface here,
// and nothing is cached so out-of-band deactivation takes effect on the
// next call.
type PgDirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgDirectoryRepository(pool *pgxpool.Pool) *PgDirectoryRepository {
	return &PgDirectoryRepository{pool: pool}
}

func (r *PgDirectoryRepository) Profile(ctx context.Context, id string) (messaging.User, error) {
	if r == nil || r.pool == nil {
		return messaging.User{}, errors.New("PgDirectoryRepository: nil pool")
	}
	var (
		u       messaging.User
		rawRole string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, display_name, role FROM users WHERE id = $1::uuid
	`, id).Scan(&u.ID, &u.DisplayName, &rawRole)
	if errors.Is(err, pgx.ErrNoRows) {
		return messaging.User{}, fmt.Errorf("%w: user %s", messaging.ErrNotFound, id)
	}
	if err != nil {
		return messaging.User{}, fmt.Errorf("%w: load profile: %v", messaging.ErrTransport, err)
	}
	role, err := messaging.ParseRole(rawRole)
	if err != nil {
		return messaging.User{}, err
	}
	u.Role = role
	return u, nil
}

func (r *PgDirectoryRepository) EldersOfDoctor(ctx context.Context, doctorID string) ([]messaging.Contact, error) {
	return r.contacts(ctx, `
		SELECT u.id::text, u.display_name, u.role
		FROM doctor_patient dp
		JOIN users u ON u.id = dp.patient_id
		WHERE dp.doctor_id = $1::uuid AND dp.active = true AND u.id <> $1::uuid
		ORDER BY u.display_name ASC
	`, doctorID)
}

func (r *PgDirectoryRepository) EldersOfCaregiver(ctx context.Context, caregiverID string) ([]messaging.Contact, error) {
	return r.contacts(ctx, `
		SELECT u.id::text, u.display_name, u.role
		FROM caregiver_elder ce
		JOIN users u ON u.id = ce.elder_id
		WHERE ce.caregiver_id = $1::uuid AND ce.active = true AND u.id <> $1::uuid
		ORDER BY u.display_name ASC
	`, caregiverID)
}

func (r *PgDirectoryRepository) DoctorsOfElder(ctx context.Context, elderID string) ([]messaging.Contact, error) {
	return r.contacts(ctx, `
		SELECT u.id::text, u.display_name, u.role
		FROM doctor_patient dp
		JOIN users u ON u.id = dp.doctor_id
		WHERE dp.patient_id = $1::uuid AND dp.active = true AND u.id <> $1::uuid
		ORDER BY u.display_name ASC
	`, elderID)
}

func (r *PgDirectoryRepository) CaregiversOfElder(ctx context.Context, elderID string) ([]messaging.Contact, error) {
	return r.contacts(ctx, `
		SELECT u.id::text, u.display_name, u.role
		FROM caregiver_elder ce
		JOIN users u ON u.id = ce.caregiver_id
		WHERE ce.elder_id = $1::uuid AND ce.active = true AND u.id <> $1::uuid
		ORDER BY u.display_name ASC
	`, elderID)
}

func (r *PgDirectoryRepository) contacts(ctx context.Context, query string, userID string) ([]messaging.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgDirectoryRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: query contacts: %v", messaging.ErrTransport, err)
	}
	defer rows.Close()

	var out []messaging.Contact
	for rows.Next() {
		var (
			c       messaging.Contact
			rawRole string
		)
		if err := rows.Scan(&c.ID, &c.DisplayName, &rawRole); err != nil {
			return nil, fmt.Errorf("%w: scan contact: %v", messaging.ErrTransport, err)
		}
		role, err := messaging.ParseRole(rawRole)
		if err != nil {
			return nil, err
		}
		c.Role = role
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: contact rows: %v", messaging.ErrTransport, rows.Err())
	}
	return out, nil
}
