package usecase

import (
	"context"
	"fmt"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// MarkReadUseCase applies read state when a conversation is opened: every
// unread message from the counterpart to the reader is flagged read.
// Idempotent by construction; a second call finds nothing unread.
type MarkReadUseCase struct {
	Messages repository.MessageRepository
}

func NewMarkReadUseCase(messages repository.MessageRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Messages: messages}
}

// Execute returns the number of messages that changed state, which is zero
// on repeat calls.
func (uc *MarkReadUseCase) Execute(ctx context.Context, readerID, counterpartID string) (int64, error) {
	if readerID == "" || counterpartID == "" {
		return 0, fmt.Errorf("%w: reader and counterpart ids are required", messaging.ErrValidation)
	}
	return uc.Messages.MarkRead(ctx, readerID, counterpartID)
}
