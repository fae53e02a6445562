package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pezhmanazar/phoenix-admin/internal/client"
	"github.com/pezhmanazar/phoenix-admin/internal/composer"
	"github.com/pezhmanazar/phoenix-admin/internal/events"
	"github.com/pezhmanazar/phoenix-admin/internal/output"
	"github.com/pezhmanazar/phoenix-admin/internal/recorder"
	"github.com/pezhmanazar/phoenix-admin/internal/service"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

var errNoToken = errors.New("no admin token: set admin_token in the profile or PHOENIX_ADMIN_TOKEN")

func (d *Dependencies) client() (*client.Client, error) {
	if d.Profile.AdminToken == "" {
		return nil, errNoToken
	}
	return client.New(d.Profile.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: time.Duration(d.Profile.TimeoutSeconds) * time.Second}),
		client.WithLogger(d.Logger),
		client.WithSessionCookie(d.Profile.CookieName, d.Profile.AdminToken),
	), nil
}

// newComposer wires a composer for ticketID. rec may be nil for replies
// without voice.
func (d *Dependencies) newComposer(ticketID string, rec *recorder.Recorder, formatter *output.Formatter) (*composer.Composer, error) {
	api, err := d.client()
	if err != nil {
		return nil, err
	}

	dispatcher := events.NewInMemoryDispatcher(d.Logger)
	dispatcher.Subscribe(events.EventReplySent, func(_ context.Context, e events.Event) error {
		payload, _ := e.Payload.(events.ReplySentPayload)
		formatter.ReplySent(e.TicketID, payload.Kind)
		return nil
	})
	if d.Show {
		service.NewRefreshService(dispatcher, api, formatter.Ticket, d.Logger).RegisterHandlers()
	}

	return composer.New(ticketID, composer.Dependencies{
		Recorder:       rec,
		API:            api,
		Dispatcher:     dispatcher,
		Logger:         d.Logger,
		MaxUploadBytes: d.Profile.MaxUploadBytes,
	}), nil
}

func sendReply(ctx context.Context, comp *composer.Composer, formatter *output.Formatter) error {
	formatter.Sending()
	if err := comp.Send(ctx); err != nil {
		return replyError(err)
	}
	return nil
}

func replyError(err error) error {
	de := apperrors.ToDomainError(err)
	switch de.Code {
	case apperrors.CodeSendFailed, apperrors.CodeUploadFailed, apperrors.CodeMalformedResponse:
		if de.Err == nil {
			return fmt.Errorf("reply not sent: %s (HTTP %d)", de.Message, de.HTTPStatus)
		}
	}
	return fmt.Errorf("reply not sent: %s", apperrors.UserMessage(err))
}
