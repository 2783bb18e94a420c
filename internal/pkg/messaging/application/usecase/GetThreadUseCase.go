package usecase

import (
	"context"
	"fmt"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// GetThreadUseCase returns the full history between two users, ascending by
// creation time. History stays readable after a relationship is deactivated;
// only the live contact list is restricted by the active flag.
type GetThreadUseCase struct {
	Messages repository.MessageRepository
}

func NewGetThreadUseCase(messages repository.MessageRepository) *GetThreadUseCase {
	return &GetThreadUseCase{Messages: messages}
}

func (uc *GetThreadUseCase) Execute(ctx context.Context, userID, contactID string) ([]messaging.Message, error) {
	if userID == "" || contactID == "" {
		return nil, fmt.Errorf("%w: user_id and contact_id are required", messaging.ErrValidation)
	}
	msgs, err := uc.Messages.Thread(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return msgs, nil
}
