package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	"github.com/pezhmanazar/phoenix-admin/internal/events"
)

// TicketFetcher loads a ticket with its thread.
type TicketFetcher interface {
	Ticket(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

// RefreshService reloads the host view of a ticket whenever a reply to it
// has been accepted.
type RefreshService struct {
	dispatcher events.Dispatcher
	fetcher    TicketFetcher
	onRefresh  func(*domain.Ticket)
	logger     *zap.Logger
}

// NewRefreshService creates the service. onRefresh receives each reloaded ticket.
func NewRefreshService(dispatcher events.Dispatcher, fetcher TicketFetcher, onRefresh func(*domain.Ticket), logger *zap.Logger) *RefreshService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshService{
		dispatcher: dispatcher,
		fetcher:    fetcher,
		onRefresh:  onRefresh,
		logger:     logger.Named("refresh"),
	}
}

// RegisterHandlers subscribes to composer events.
func (r *RefreshService) RegisterHandlers() {
	if r.dispatcher == nil {
		return
	}
	r.dispatcher.Subscribe(events.EventReplySent, r.handleReplySent)
	r.dispatcher.Subscribe(events.EventReplyFailed, r.handleReplyFailed)
}

func (r *RefreshService) handleReplySent(ctx context.Context, event events.Event) error {
	r.logger.Debug("ReplySent", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	if r.fetcher == nil || r.onRefresh == nil {
		return nil
	}
	ticket, err := r.fetcher.Ticket(ctx, event.TicketID)
	if err != nil {
		return err
	}
	r.onRefresh(ticket)
	return nil
}

func (r *RefreshService) handleReplyFailed(_ context.Context, event events.Event) error {
	r.logger.Debug("ReplyFailed", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}
