package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/adapter"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

type fixture struct {
	dir        *repoAdapter.MemoryDirectoryRepository
	messages   *repoAdapter.MemoryMessageRepository
	dispatcher *realtime.Dispatcher
	send       *usecase.SendMessageUseCase
}

// newFixture wires a doctor with two assigned elders against in-memory
// stores and a live dispatcher.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := repoAdapter.NewMemoryDirectoryRepository()
	dir.AddUser(messaging.User{ID: "doc-1", DisplayName: "Dra. Ríos", Role: messaging.RoleDoctor})
	dir.AddUser(messaging.User{ID: "elder-1", DisplayName: "Don Pedro", Role: messaging.RoleElder})
	dir.AddUser(messaging.User{ID: "elder-2", DisplayName: "Doña Carmen", Role: messaging.RoleElder})
	dir.AssignDoctor("doc-1", "elder-1")
	dir.AssignDoctor("doc-1", "elder-2")

	messages := repoAdapter.NewMemoryMessageRepository()
	dispatcher := realtime.NewDispatcher()
	t.Cleanup(dispatcher.Close)

	return &fixture{
		dir:        dir,
		messages:   messages,
		dispatcher: dispatcher,
		send:       usecase.NewSendMessageUseCase(messages, dispatcher),
	}
}

func (f *fixture) deps(msgRepo repository.MessageRepository) Deps {
	return Deps{
		ListContacts: usecase.NewListContactsUseCase(f.dir),
		GetThread:    usecase.NewGetThreadUseCase(msgRepo),
		SendMessage:  usecase.NewSendMessageUseCase(msgRepo, f.dispatcher),
		MarkRead:     usecase.NewMarkReadUseCase(msgRepo),
		Messages:     msgRepo,
		Dispatcher:   f.dispatcher,
	}
}

func (f *fixture) controller(t *testing.T) *Controller {
	t.Helper()
	ctrl := NewController(
		messaging.User{ID: "doc-1", DisplayName: "Dra. Ríos", Role: messaging.RoleDoctor},
		f.deps(f.messages),
	)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartAutoOpensFirstContact(t *testing.T) {
	f := newFixture(t)
	ctrl := f.controller(t)

	contacts := ctrl.Start(context.Background())
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(contacts))
	}
	if got := ctrl.Focused(); got != contacts[0].ID {
		t.Fatalf("focused = %q, want first contact %q", got, contacts[0].ID)
	}
	if ctrl.State() != StateConversationOpen {
		t.Fatalf("state = %v, want conversation_open", ctrl.State())
	}
}

func TestStartWithNoContactsStaysReady(t *testing.T) {
	f := newFixture(t)
	f.dir.SetDoctorActive("doc-1", "elder-1", false)
	f.dir.SetDoctorActive("doc-1", "elder-2", false)
	ctrl := f.controller(t)

	contacts := ctrl.Start(context.Background())
	if len(contacts) != 0 {
		t.Fatalf("contacts = %d, want 0", len(contacts))
	}
	if ctrl.State() != StateContactsReady {
		t.Fatalf("state = %v, want contacts_ready", ctrl.State())
	}
	if ctrl.Status() != "" {
		t.Fatalf("no contacts is not an error, got status %q", ctrl.Status())
	}
}

func TestFocusedInboundMessageAppendsAndIsMarkedRead(t *testing.T) {
	f := newFixture(t)
	ctrl := f.controller(t)
	ctrl.Start(context.Background()) // focused on elder-1

	msg, err := f.send.Execute(context.Background(), usecase.SendMessageInput{
		SenderID:    "elder-1",
		RecipientID: "doc-1",
		Content:     "¿Cómo está mi presión?",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	waitFor(t, "message in thread", func() bool {
		for _, m := range ctrl.Thread() {
			if m.ID == msg.ID {
				return true
			}
		}
		return false
	})
	// The view is on screen, so the message reads itself.
	waitFor(t, "message marked read", func() bool {
		got, err := f.messages.Get(context.Background(), msg.ID)
		return err == nil && got.Read
	})
}

func TestUnfocusedMessageStaysUnreadUntilOpened(t *testing.T) {
	f := newFixture(t)
	ctrl := f.controller(t)
	ctrl.Start(context.Background()) // focused on elder-1

	msg, err := f.send.Execute(context.Background(), usecase.SendMessageInput{
		SenderID:    "elder-2",
		RecipientID: "doc-1",
		Content:     "Se acabaron las pastillas",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	for _, m := range ctrl.Thread() {
		if m.ID == msg.ID {
			t.Fatal("message for another conversation appended to focused thread")
		}
	}
	got, err := f.messages.Get(context.Background(), msg.ID)
	if err != nil || got.Read {
		t.Fatalf("message read=%v err=%v, want unread", got.Read, err)
	}

	// Opening that conversation reconciles read state.
	ctrl.Open(context.Background(), "elder-2")
	got, err = f.messages.Get(context.Background(), msg.ID)
	if err != nil || !got.Read {
		t.Fatalf("after open: read=%v err=%v, want read", got.Read, err)
	}
	found := false
	for _, m := range ctrl.Thread() {
		if m.ID == msg.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("opened thread must include the pending message")
	}
}

func TestSendAppendsOnlyViaEcho(t *testing.T) {
	f := newFixture(t)
	ctrl := f.controller(t)
	ctrl.Start(context.Background())

	msg, err := ctrl.Send(context.Background(), "Tome la pastilla azul")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	// No optimistic insert: the thread gains the message through the
	// dispatcher's outbound echo, exactly once.
	waitFor(t, "echo append", func() bool {
		n := 0
		for _, m := range ctrl.Thread() {
			if m.ID == msg.ID {
				n++
			}
		}
		return n == 1
	})

	time.Sleep(100 * time.Millisecond)
	n := 0
	for _, m := range ctrl.Thread() {
		if m.ID == msg.ID {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("message appended %d times, want 1", n)
	}
}

func TestSendRejectsBlankContent(t *testing.T) {
	f := newFixture(t)
	ctrl := f.controller(t)
	ctrl.Start(context.Background())

	if _, err := ctrl.Send(context.Background(), "   "); !errors.Is(err, messaging.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if msgs, _ := f.messages.Thread(context.Background(), "doc-1", "elder-1"); len(msgs) != 0 {
		t.Fatalf("blank send created %d rows", len(msgs))
	}
}

func TestSwitchDropsEventsForPreviousConversation(t *testing.T) {
	f := newFixture(t)
	ctrl := f.controller(t)
	ctrl.Start(context.Background()) // focused on elder-1

	ctrl.Open(context.Background(), "elder-2")
	if got := ctrl.Focused(); got != "elder-2" {
		t.Fatalf("focused = %q, want elder-2", got)
	}

	// A message from the previous counterpart arrives after the switch; it
	// must not land in elder-2's displayed thread and must stay unread.
	msg, err := f.send.Execute(context.Background(), usecase.SendMessageInput{
		SenderID:    "elder-1",
		RecipientID: "doc-1",
		Content:     "tarde",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	for _, m := range ctrl.Thread() {
		if m.ID == msg.ID {
			t.Fatal("event for previous conversation appended after switch")
		}
	}
	got, err := f.messages.Get(context.Background(), msg.ID)
	if err != nil || got.Read {
		t.Fatalf("read=%v err=%v, want unread", got.Read, err)
	}
}

// gatedThreadRepo blocks Thread calls involving a chosen counterpart until
// released, to force a fetch to resolve after the user has navigated away.
type gatedThreadRepo struct {
	*repoAdapter.MemoryMessageRepository
	gateFor string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedThreadRepo) Thread(ctx context.Context, a, b string) ([]messaging.Message, error) {
	if a == g.gateFor || b == g.gateFor {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.MemoryMessageRepository.Thread(ctx, a, b)
}

func TestStaleThreadFetchIsDiscarded(t *testing.T) {
	f := newFixture(t)
	gated := &gatedThreadRepo{
		MemoryMessageRepository: f.messages,
		gateFor:                 "elder-2",
		entered:                 make(chan struct{}),
		release:                 make(chan struct{}),
	}
	ctrl := NewController(
		messaging.User{ID: "doc-1", Role: messaging.RoleDoctor},
		f.deps(gated),
	)
	t.Cleanup(ctrl.Close)
	ctrl.Start(context.Background()) // opens elder-1, ungated

	done := make(chan struct{})
	go func() {
		ctrl.Open(context.Background(), "elder-2") // stalls inside the fetch
		close(done)
	}()
	<-gated.entered

	// The user gives up waiting and goes back to elder-1.
	ctrl.Open(context.Background(), "elder-1")
	close(gated.release)
	<-done

	// The slow elder-2 result resolved after the switch and was discarded.
	if got := ctrl.Focused(); got != "elder-1" {
		t.Fatalf("focused = %q, want elder-1", got)
	}
	if ctrl.State() != StateConversationOpen {
		t.Fatalf("state = %v, want conversation_open", ctrl.State())
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	f := newFixture(t)
	ctrl := f.controller(t)
	ctrl.Start(context.Background())
	ctrl.Close()

	if ctrl.State() != StateClosed {
		t.Fatalf("state = %v, want closed", ctrl.State())
	}
	// No live subscription remains, so the publish reaches nobody.
	if n := f.dispatcher.Publish(messaging.Message{ID: "m", SenderID: "elder-1", RecipientID: "doc-1"}); n != 0 {
		t.Fatalf("delivered to %d subscriptions after close, want 0", n)
	}
	ctrl.Close() // second close is a no-op
}

// failingThreadRepo simulates a store outage on thread loads.
type failingThreadRepo struct {
	*repoAdapter.MemoryMessageRepository
}

func (failingThreadRepo) Thread(context.Context, string, string) ([]messaging.Message, error) {
	return nil, messaging.ErrTransport
}

func TestLoadFailureSurfacesAsStatus(t *testing.T) {
	f := newFixture(t)
	ctrl := NewController(
		messaging.User{ID: "doc-1", Role: messaging.RoleDoctor},
		f.deps(failingThreadRepo{f.messages}),
	)
	t.Cleanup(ctrl.Close)

	ctrl.Start(context.Background())
	if ctrl.State() != StateContactsReady {
		t.Fatalf("state = %v, want contacts_ready", ctrl.State())
	}
	if ctrl.Status() != "could not load messages" {
		t.Fatalf("status = %q", ctrl.Status())
	}
}
