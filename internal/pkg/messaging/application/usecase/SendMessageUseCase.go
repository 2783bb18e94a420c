package usecase

import (
	"context"

	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a direct message.
type SendMessageInput struct {
	SenderID    string
	RecipientID string
	Content     string
}

// SendMessageUseCase validates, persists and fans out a new message. The
// dispatcher is notified only after persistence succeeds, so subscribers
// never observe a message that is not in the store.
type SendMessageUseCase struct {
	Messages   repository.MessageRepository
	Dispatcher *realtime.Dispatcher
}

func NewSendMessageUseCase(messages repository.MessageRepository, dispatcher *realtime.Dispatcher) *SendMessageUseCase {
	return &SendMessageUseCase{Messages: messages, Dispatcher: dispatcher}
}

// Execute persists the message and returns the stored row (with server-side
// id and timestamp). Blank content, after trimming, is ErrValidation and
// creates no row.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*messaging.Message, error) {
	msg, err := messaging.NewMessage(in.SenderID, in.RecipientID, in.Content)
	if err != nil {
		return nil, err
	}

	stored, err := uc.Messages.Create(ctx, *msg)
	if err != nil {
		return nil, err
	}

	if uc.Dispatcher != nil {
		uc.Dispatcher.Publish(stored)
	}
	return &stored, nil
}
