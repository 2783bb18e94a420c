package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	repoAdapter "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/adapter"
)

func TestSendMessageRoundTrip(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	uc := NewSendMessageUseCase(repo, nil)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		SenderID:    "elder-1",
		RecipientID: "doc-1",
		Content:     "Hola doctor",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if msg.ID == "" || msg.CreatedAt.IsZero() {
		t.Fatal("store must assign id and created_at")
	}
	if msg.Read {
		t.Fatal("new message must be unread")
	}

	got, err := repo.Get(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "Hola doctor" {
		t.Fatalf("content = %q, want %q", got.Content, "Hola doctor")
	}
}

func TestSendMessageRejectsWhitespaceAndCreatesNoRow(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	uc := NewSendMessageUseCase(repo, nil)

	if _, err := uc.Execute(context.Background(), SendMessageInput{
		SenderID:    "a",
		RecipientID: "b",
		Content:     "   ",
	}); !errors.Is(err, messaging.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	msgs, err := repo.Thread(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Thread: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("thread has %d messages, want 0", len(msgs))
	}
}

func TestSendMessagePublishesAfterPersistence(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	d := realtime.NewDispatcher()
	defer d.Close()
	sub := d.Subscribe("doc-1")

	uc := NewSendMessageUseCase(repo, d)
	msg, err := uc.Execute(context.Background(), SendMessageInput{
		SenderID:    "elder-1",
		RecipientID: "doc-1",
		Content:     "¿Cómo está mi presión?",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Message.ID != msg.ID {
			t.Fatalf("event carries %q, want %q", ev.Message.ID, msg.ID)
		}
		// The event payload is the persisted row, not the client draft.
		if _, err := repo.Get(context.Background(), ev.Message.ID); err != nil {
			t.Fatalf("event for unpersisted message: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestThreadSymmetricAndOrdered(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	uc := NewSendMessageUseCase(repo, nil)

	contents := []string{"Hola doctor", "Hola Pedro", "¿Cómo está mi presión?"}
	senders := []string{"elder-1", "doc-1", "elder-1"}
	recipients := []string{"doc-1", "elder-1", "doc-1"}
	for i := range contents {
		if _, err := uc.Execute(context.Background(), SendMessageInput{
			SenderID:    senders[i],
			RecipientID: recipients[i],
			Content:     contents[i],
		}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	ab, err := repo.Thread(context.Background(), "elder-1", "doc-1")
	if err != nil {
		t.Fatalf("Thread(a,b): %v", err)
	}
	ba, err := repo.Thread(context.Background(), "doc-1", "elder-1")
	if err != nil {
		t.Fatalf("Thread(b,a): %v", err)
	}
	if len(ab) != 3 || len(ba) != 3 {
		t.Fatalf("thread lengths = %d, %d, want 3", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].ID != ba[i].ID {
			t.Fatalf("thread order differs between directions at %d", i)
		}
		if ab[i].Content != contents[i] {
			t.Fatalf("position %d = %q, want %q", i, ab[i].Content, contents[i])
		}
		if i > 0 && ab[i].CreatedAt.Before(ab[i-1].CreatedAt) {
			t.Fatal("thread not ascending by created_at")
		}
	}
}
