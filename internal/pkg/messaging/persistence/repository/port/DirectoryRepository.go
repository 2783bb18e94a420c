package repository

import (
	"context"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

// DirectoryRepository is the read-only view over the account subsystem and
// the care-relationship graph. Assignments are created and deactivated by
// workflows outside this core, so results must be fetched fresh on every
// call, never cached.
type DirectoryRepository interface {
	// Profile returns the user record for id, or ErrNotFound when the account
	// subsystem has no such user.
	Profile(ctx context.Context, id string) (messaging.User, error)

	// EldersOfDoctor lists elders with an active doctor↔elder assignment.
	EldersOfDoctor(ctx context.Context, doctorID string) ([]messaging.Contact, error)

	// EldersOfCaregiver lists elders with an active caregiver↔elder assignment.
	EldersOfCaregiver(ctx context.Context, caregiverID string) ([]messaging.Contact, error)

	// DoctorsOfElder lists doctors actively assigned to the elder.
	DoctorsOfElder(ctx context.Context, elderID string) ([]messaging.Contact, error)

	// CaregiversOfElder lists caregivers actively assigned to the elder.
	CaregiversOfElder(ctx context.Context, elderID string) ([]messaging.Contact, error)
}
