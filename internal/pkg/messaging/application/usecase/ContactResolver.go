package usecase

import (
	"context"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// contactResolver is the per-role contact resolution strategy. One
// implementation exists per Role variant; there are no role conditionals
// anywhere else in the messaging core.
type contactResolver interface {
	Resolve(ctx context.Context, userID string) ([]messaging.Contact, error)
}

// doctorResolver: a doctor may message the elders actively assigned to them.
type doctorResolver struct {
	dir repository.DirectoryRepository
}

func (r doctorResolver) Resolve(ctx context.Context, userID string) ([]messaging.Contact, error) {
	return r.dir.EldersOfDoctor(ctx, userID)
}

// caregiverResolver: a caregiver may message the elders in their care.
type caregiverResolver struct {
	dir repository.DirectoryRepository
}

func (r caregiverResolver) Resolve(ctx context.Context, userID string) ([]messaging.Contact, error) {
	return r.dir.EldersOfCaregiver(ctx, userID)
}

// elderResolver: an elder may message assigned doctors and caregivers.
type elderResolver struct {
	dir repository.DirectoryRepository
}

func (r elderResolver) Resolve(ctx context.Context, userID string) ([]messaging.Contact, error) {
	doctors, err := r.dir.DoctorsOfElder(ctx, userID)
	if err != nil {
		return nil, err
	}
	caregivers, err := r.dir.CaregiversOfElder(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(doctors, caregivers...), nil
}

// resolverForRole maps the closed Role set onto its strategy.
func resolverForRole(dir repository.DirectoryRepository, role messaging.Role) contactResolver {
	switch role {
	case messaging.RoleDoctor:
		return doctorResolver{dir: dir}
	case messaging.RoleCaregiver:
		return caregiverResolver{dir: dir}
	default:
		return elderResolver{dir: dir}
	}
}
