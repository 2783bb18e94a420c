package realtime

import (
	"sync"

	"github.com/google/uuid"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

// subscriptionBuffer bounds how far a consumer may lag before its
// subscription is cancelled to keep backpressure bounded.
const subscriptionBuffer = 128

// Event is pushed to subscribers when a message has been persisted.
type Event struct {
	Message messaging.Message
}

// Subscription is a per-user stream of message events. It is exclusively
// owned by one consumer and released through Dispatcher.Unsubscribe; the
// handle is never shared or cloned.
type Subscription struct {
	ID     string
	UserID string

	mu     sync.Mutex
	events chan Event
	done   chan struct{}
	closed bool
}

// Events returns the stream. The channel is closed when the subscription is
// released or cancelled, so consumers can range over it.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done is closed when the subscription is no longer live.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// deliver enqueues ev without blocking. The second result is false when the
// consumer has fallen behind and the subscription should be cancelled.
func (s *Subscription) deliver(ev Event) (sent, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, true
	}
	select {
	case s.events <- ev:
		return true, true
	default:
		return false, false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.events)
}

// Dispatcher fans persisted messages out to live subscribers. A subscriber
// receives events where it is the recipient (inbound) and events where it is
// the sender (outbound echo, so a sender's open sessions observe their own
// sent message). The two predicates are disjoint for any valid message, so
// no event is delivered twice to one subscription.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription            // subscription id -> subscription
	byUser map[string]map[string]*Subscription // user id -> subscription id -> subscription
	closed bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subs:   make(map[string]*Subscription),
		byUser: make(map[string]map[string]*Subscription),
	}
}

// Subscribe registers a new stream for userID. Returns nil after Close.
func (d *Dispatcher) Subscribe(userID string) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}

	sub := &Subscription{
		ID:     uuid.NewString(),
		UserID: userID,
		events: make(chan Event, subscriptionBuffer),
		done:   make(chan struct{}),
	}

	d.subs[sub.ID] = sub
	userSubs := d.byUser[userID]
	if userSubs == nil {
		userSubs = make(map[string]*Subscription)
		d.byUser[userID] = userSubs
	}
	userSubs[sub.ID] = sub
	return sub
}

// Unsubscribe releases the stream and closes its channel. Safe to call more
// than once and with subscriptions already cancelled by the dispatcher.
func (d *Dispatcher) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	d.mu.Lock()
	d.removeLocked(sub.ID)
	d.mu.Unlock()
	sub.close()
}

// Publish delivers the event for msg to every live subscription of the
// recipient and of the sender. Subscribers that cannot keep up are cancelled
// rather than blocking the publisher. Returns how many subscriptions
// received the event.
func (d *Dispatcher) Publish(msg messaging.Message) int {
	ev := Event{Message: msg}

	d.mu.RLock()
	targets := make([]*Subscription, 0, 2)
	for _, sub := range d.byUser[msg.RecipientID] {
		targets = append(targets, sub)
	}
	if msg.SenderID != msg.RecipientID {
		for _, sub := range d.byUser[msg.SenderID] {
			targets = append(targets, sub)
		}
	}
	d.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		sent, ok := sub.deliver(ev)
		if sent {
			delivered++
		}
		if !ok {
			d.Unsubscribe(sub)
		}
	}
	return delivered
}

// Close cancels every subscription and rejects further subscribes.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	subs := make([]*Subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		subs = append(subs, sub)
	}
	d.subs = make(map[string]*Subscription)
	d.byUser = make(map[string]map[string]*Subscription)
	d.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (d *Dispatcher) removeLocked(subID string) {
	sub, ok := d.subs[subID]
	if !ok {
		return
	}
	delete(d.subs, subID)
	if userSubs, ok := d.byUser[sub.UserID]; ok {
		delete(userSubs, subID)
		if len(userSubs) == 0 {
			delete(d.byUser, sub.UserID)
		}
	}
}
