package realtime

import (
	"testing"
	"time"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed while waiting for event")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestPublishDeliversInboundAndOutbound(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	sender := d.Subscribe("doctor-1")
	recipient := d.Subscribe("elder-1")

	msg := messaging.Message{ID: "m1", SenderID: "doctor-1", RecipientID: "elder-1", Content: "hola"}
	if n := d.Publish(msg); n != 2 {
		t.Fatalf("delivered = %d, want 2", n)
	}

	if ev := recvEvent(t, recipient); ev.Message.ID != "m1" {
		t.Fatalf("recipient got %q, want m1", ev.Message.ID)
	}
	// Outbound echo: the sender's own sessions observe the sent message.
	if ev := recvEvent(t, sender); ev.Message.ID != "m1" {
		t.Fatalf("sender echo got %q, want m1", ev.Message.ID)
	}
}

func TestPublishSkipsUnrelatedSubscribers(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	other := d.Subscribe("caregiver-9")
	d.Publish(messaging.Message{ID: "m1", SenderID: "a", RecipientID: "b"})

	select {
	case ev := <-other.Events():
		t.Fatalf("unrelated subscriber received %q", ev.Message.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDeliversAtMostOncePerSubscription(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	sub := d.Subscribe("u1")
	d.Publish(messaging.Message{ID: "m1", SenderID: "u2", RecipientID: "u1"})

	if ev := recvEvent(t, sub); ev.Message.ID != "m1" {
		t.Fatalf("got %q, want m1", ev.Message.ID)
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("duplicate delivery of %q", ev.Message.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDeliveryAndClosesStream(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	sub := d.Subscribe("u1")
	d.Unsubscribe(sub)

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Unsubscribe")
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("Events must be closed after Unsubscribe")
	}
	if n := d.Publish(messaging.Message{ID: "m1", SenderID: "x", RecipientID: "u1"}); n != 0 {
		t.Fatalf("delivered to released subscription: %d", n)
	}

	// Releasing twice is harmless.
	d.Unsubscribe(sub)
}

func TestIndependentSubscriptionsPerUser(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	s1 := d.Subscribe("u1")
	s2 := d.Subscribe("u1")
	if s1.ID == s2.ID {
		t.Fatal("subscriptions must have distinct handles")
	}

	d.Publish(messaging.Message{ID: "m1", SenderID: "x", RecipientID: "u1"})
	if ev := recvEvent(t, s1); ev.Message.ID != "m1" {
		t.Fatalf("s1 got %q", ev.Message.ID)
	}
	if ev := recvEvent(t, s2); ev.Message.ID != "m1" {
		t.Fatalf("s2 got %q", ev.Message.ID)
	}

	// Releasing one session leaves the other live.
	d.Unsubscribe(s1)
	d.Publish(messaging.Message{ID: "m2", SenderID: "x", RecipientID: "u1"})
	if ev := recvEvent(t, s2); ev.Message.ID != "m2" {
		t.Fatalf("s2 got %q, want m2", ev.Message.ID)
	}
}

func TestLaggingSubscriberIsCancelled(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	sub := d.Subscribe("u1")
	for i := 0; i <= subscriptionBuffer; i++ {
		d.Publish(messaging.Message{ID: "m", SenderID: "x", RecipientID: "u1"})
	}

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("lagging subscription was not cancelled")
	}
}

func TestSubscribeAfterCloseReturnsNil(t *testing.T) {
	d := NewDispatcher()
	sub := d.Subscribe("u1")
	d.Close()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel live subscription")
	}
	if d.Subscribe("u2") != nil {
		t.Fatal("Subscribe after Close must return nil")
	}
}
