package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketSubmitted, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("history unavailable")
	})
	d.Subscribe(EventTicketSubmitted, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventApprovalResolved, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketSubmitted, TicketID: "t-1"})
	if err == nil {
		t.Fatal("expected joined handler error")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestPublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventTicketDispatched}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
