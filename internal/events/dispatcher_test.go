package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishRunsHandlersInOrderDespiteFailures(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var order []string
	d.Subscribe(EventReplySent, func(context.Context, Event) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventReplySent, func(context.Context, Event) error {
		order = append(order, "second")
		panic("refresh exploded")
	})
	d.Subscribe(EventReplySent, func(context.Context, Event) error {
		order = append(order, "third")
		return nil
	})
	d.Subscribe(EventReplyFailed, func(context.Context, Event) error {
		order = append(order, "unrelated")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventReplySent, TicketID: "T1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("order = %v", order)
	}
}
