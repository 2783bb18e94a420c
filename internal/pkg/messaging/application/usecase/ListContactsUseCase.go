package usecase

import (
	"context"
	"fmt"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// ListContactsUseCase resolves which users the caller may message right now.
// Resolution always re-reads the directory because assignments are activated
// and deactivated out-of-band.
type ListContactsUseCase struct {
	Dir repository.DirectoryRepository
}

func NewListContactsUseCase(dir repository.DirectoryRepository) *ListContactsUseCase {
	return &ListContactsUseCase{Dir: dir}
}

// Execute returns the caller's current contacts. A user with no active
// relationships gets an empty list, not an error; a missing profile is
// ErrNotFound so callers can tell the two apart.
func (uc *ListContactsUseCase) Execute(ctx context.Context, userID string) ([]messaging.Contact, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", messaging.ErrValidation)
	}

	profile, err := uc.Dir.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	contacts, err := resolverForRole(uc.Dir, profile.Role).Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The caller never appears in their own contact list, whatever the
	// directory returned.
	out := make([]messaging.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.ID == userID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
