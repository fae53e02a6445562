package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	"github.com/pezhmanazar/phoenix-admin/internal/events"
)

type stubFetcher struct {
	calls []string
	err   error
}

func (s *stubFetcher) Ticket(_ context.Context, id string) (*domain.Ticket, error) {
	s.calls = append(s.calls, id)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Ticket{ID: id, Status: domain.TicketStatusAnswered}, nil
}

func TestRefreshOnReplySent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	fetcher := &stubFetcher{}
	var refreshed []*domain.Ticket
	NewRefreshService(dispatcher, fetcher, func(tk *domain.Ticket) { refreshed = append(refreshed, tk) }, nil).RegisterHandlers()

	ctx := context.Background()
	_ = dispatcher.Publish(ctx, events.Event{Type: events.EventReplyFailed, TicketID: "T1"})
	if len(fetcher.calls) != 0 {
		t.Fatal("failed reply triggered a refresh")
	}
	_ = dispatcher.Publish(ctx, events.Event{Type: events.EventReplySent, TicketID: "T1"})
	if len(refreshed) != 1 || refreshed[0].ID != "T1" {
		t.Fatalf("refreshed = %v", refreshed)
	}
}

func TestRefreshErrorDoesNotPropagate(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	fetcher := &stubFetcher{err: errors.New("backend down")}
	called := false
	NewRefreshService(dispatcher, fetcher, func(*domain.Ticket) { called = true }, nil).RegisterHandlers()

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventReplySent, TicketID: "T1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if called || len(fetcher.calls) != 1 {
		t.Fatalf("called = %v, fetches = %d", called, len(fetcher.calls))
	}
}
