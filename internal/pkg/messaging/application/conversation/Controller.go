package conversation

import (
	"context"
	"sync"

	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/usecase"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// State is the lifecycle of one conversation view.
type State int

const (
	StateIdle State = iota
	StateLoadingContacts
	StateContactsReady
	StateLoadingThread
	StateConversationOpen
	StateSwitching
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingContacts:
		return "loading_contacts"
	case StateContactsReady:
		return "contacts_ready"
	case StateLoadingThread:
		return "loading_thread"
	case StateConversationOpen:
		return "conversation_open"
	case StateSwitching:
		return "switching"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Controller drives the conversation view of one signed-in user: it loads
// contacts, opens threads, owns at most one live dispatcher subscription at
// any time, sends messages and applies read state. The user identity is
// injected at construction; nothing here reads ambient session state.
//
// Collaborator failures never escape: they are converted into a
// human-readable status retrievable via Status.
type Controller struct {
	user messaging.User

	listContacts *usecase.ListContactsUseCase
	getThread    *usecase.GetThreadUseCase
	sendMessage  *usecase.SendMessageUseCase
	markRead     *usecase.MarkReadUseCase
	messages     repository.MessageRepository
	dispatcher   *realtime.Dispatcher

	// onAppend, when set, observes every message appended to the displayed
	// thread. Invoked outside the controller lock.
	onAppend func(messaging.Message)

	mu       sync.Mutex
	state    State
	contacts []messaging.Contact
	focused  string
	thread   []messaging.Message
	seen     map[string]struct{} // message ids already appended, reset per focus
	sub      *realtime.Subscription
	gen      uint64 // bumped on every focus change; stale fetches and events compare against it
	status   string
	wg       sync.WaitGroup
}

// Deps bundles the collaborators a Controller needs.
type Deps struct {
	ListContacts *usecase.ListContactsUseCase
	GetThread    *usecase.GetThreadUseCase
	SendMessage  *usecase.SendMessageUseCase
	MarkRead     *usecase.MarkReadUseCase
	Messages     repository.MessageRepository
	Dispatcher   *realtime.Dispatcher
}

func NewController(user messaging.User, deps Deps) *Controller {
	return &Controller{
		user:         user,
		listContacts: deps.ListContacts,
		getThread:    deps.GetThread,
		sendMessage:  deps.SendMessage,
		markRead:     deps.MarkRead,
		messages:     deps.Messages,
		dispatcher:   deps.Dispatcher,
		state:        StateIdle,
	}
}

// SetAppendListener registers the observer for appended messages. Must be
// called before Start.
func (c *Controller) SetAppendListener(fn func(messaging.Message)) {
	c.onAppend = fn
}

// Start loads the contact list and, when at least one contact exists,
// auto-opens the first conversation (behavior inherited from the portal UI).
// Returns the resolved contacts; an empty list is a valid outcome.
func (c *Controller) Start(ctx context.Context) []messaging.Contact {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return c.Contacts()
	}
	c.state = StateLoadingContacts
	c.mu.Unlock()

	contacts, err := c.listContacts.Execute(ctx, c.user.ID)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.status = "could not load contacts"
		c.state = StateContactsReady
		c.contacts = nil
		c.mu.Unlock()
		return nil
	}
	c.contacts = contacts
	c.state = StateContactsReady
	c.mu.Unlock()

	if len(contacts) > 0 {
		c.Open(ctx, contacts[0].ID)
	}
	return contacts
}

// Open focuses the conversation with counterpartID: releases any previous
// subscription first, fetches the thread, marks it read and only then
// subscribes. A focus change while the fetch is in flight discards the
// stale result via the generation counter.
func (c *Controller) Open(ctx context.Context, counterpartID string) {
	c.mu.Lock()
	if c.state == StateClosed || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	if c.state == StateConversationOpen {
		c.state = StateSwitching
	} else {
		c.state = StateLoadingThread
	}
	// At most one live subscription per controller: the old handle is
	// released before the new subscribe is issued.
	c.releaseLocked()
	c.gen++
	gen := c.gen
	c.focused = counterpartID
	c.state = StateLoadingThread
	c.mu.Unlock()

	msgs, err := c.getThread.Execute(ctx, c.user.ID, counterpartID)
	if err != nil {
		c.failOpen(gen, "could not load messages")
		return
	}
	if c.stale(gen) {
		// The user navigated away while the fetch was in flight; drop the
		// result before it mutates any state.
		return
	}

	// Read state is applied before the thread counts as ready.
	if _, err := c.markRead.Execute(ctx, c.user.ID, counterpartID); err != nil {
		c.failOpen(gen, "could not update read state")
		return
	}
	for i := range msgs {
		if msgs[i].RecipientID == c.user.ID {
			msgs[i].Read = true
		}
	}

	c.mu.Lock()
	if c.gen != gen || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	sub := c.dispatcher.Subscribe(c.user.ID)
	if sub == nil {
		c.status = "connection lost"
		c.state = StateContactsReady
		c.mu.Unlock()
		return
	}
	c.sub = sub
	c.thread = msgs
	c.seen = make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		c.seen[m.ID] = struct{}{}
	}
	c.state = StateConversationOpen
	c.status = ""
	c.wg.Add(1)
	c.mu.Unlock()

	go c.pump(sub, gen)
}

// stale reports whether the focus changed (or the session closed) since gen
// was taken.
func (c *Controller) stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen != gen || c.state == StateClosed
}

func (c *Controller) failOpen(gen uint64, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state == StateClosed {
		return
	}
	c.status = status
	c.state = StateContactsReady
}

// pump consumes the subscription until it is released or cancelled.
func (c *Controller) pump(sub *realtime.Subscription, gen uint64) {
	defer c.wg.Done()
	for ev := range sub.Events() {
		c.handleEvent(gen, ev.Message)
	}
}

// handleEvent applies one dispatcher event. The subscription is scoped to
// the user, not the focused counterpart, so each event is re-checked against
// the current focus; anything else stays unread for later reconciliation.
// Appends are de-duplicated by message id even though the inbound and
// outbound predicates are disjoint today.
func (c *Controller) handleEvent(gen uint64, msg messaging.Message) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateConversationOpen {
		c.mu.Unlock()
		return
	}
	if msg.Counterpart(c.user.ID) != c.focused {
		c.mu.Unlock()
		return
	}
	if _, dup := c.seen[msg.ID]; dup {
		c.mu.Unlock()
		return
	}
	inbound := msg.RecipientID == c.user.ID
	if inbound {
		// The view is on screen, so the message is read the moment it lands.
		msg.Read = true
	}
	c.seen[msg.ID] = struct{}{}
	c.thread = append(c.thread, msg)
	c.mu.Unlock()

	if inbound {
		_ = c.messages.MarkMessageRead(context.Background(), msg.ID)
	}
	if c.onAppend != nil {
		c.onAppend(msg)
	}
}

// Send validates and persists a message to the focused counterpart. The
// message is not appended locally; the dispatcher's outbound echo brings it
// back into the thread. On failure the caller keeps the draft and may retry.
func (c *Controller) Send(ctx context.Context, content string) (*messaging.Message, error) {
	c.mu.Lock()
	if c.state != StateConversationOpen {
		c.mu.Unlock()
		return nil, messaging.ErrValidation
	}
	recipient := c.focused
	c.mu.Unlock()

	msg, err := c.sendMessage.Execute(ctx, usecase.SendMessageInput{
		SenderID:    c.user.ID,
		RecipientID: recipient,
		Content:     content,
	})
	if err != nil {
		c.setStatus("could not send message")
		return nil, err
	}
	return msg, nil
}

// Close releases the subscription and ends the session. Called on every exit
// path; safe to call repeatedly.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.releaseLocked()
	c.state = StateClosed
	c.mu.Unlock()
	c.wg.Wait()
}

// releaseLocked unsubscribes the current handle, if any. Callers hold c.mu.
func (c *Controller) releaseLocked() {
	if c.sub != nil {
		c.dispatcher.Unsubscribe(c.sub)
		c.sub = nil
	}
}

func (c *Controller) setStatus(s string) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the last human-readable status ("" when healthy).
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Focused returns the counterpart id of the open conversation, if any.
func (c *Controller) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// Contacts returns a copy of the resolved contact list.
func (c *Controller) Contacts() []messaging.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]messaging.Contact, len(c.contacts))
	copy(out, c.contacts)
	return out
}

// Thread returns a copy of the displayed thread.
func (c *Controller) Thread() []messaging.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]messaging.Message, len(c.thread))
	copy(out, c.thread)
	return out
}
