package composer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	"github.com/pezhmanazar/phoenix-admin/internal/events"
	"github.com/pezhmanazar/phoenix-admin/internal/observability"
	"github.com/pezhmanazar/phoenix-admin/internal/recorder"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

// Dependencies bundles what a Composer needs.
type Dependencies struct {
	// Recorder is optional; without one, voice replies are unavailable.
	Recorder       *recorder.Recorder
	API            ReplyAPI
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	MaxUploadBytes int
}

// Composer is the reply box of one ticket: a draft, a recorder and a submitter.
type Composer struct {
	ticketID   string
	recorder   *recorder.Recorder
	collector  *Collector
	submitter  *Submitter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// New builds a Composer for ticketID.
func New(ticketID string, deps Dependencies) *Composer {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("composer").With(zap.String("ticket_id", ticketID))
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}
	return &Composer{
		ticketID:   ticketID,
		recorder:   deps.Recorder,
		collector:  NewCollector(deps.MaxUploadBytes, logger),
		submitter:  NewSubmitter(deps.API, logger, deps.Metrics),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// TicketID returns the ticket this composer replies to.
func (c *Composer) TicketID() string { return c.ticketID }

// SetText replaces the draft text.
func (c *Composer) SetText(text string) { c.collector.SetText(text) }

// SetFile selects a file; a pending recording is discarded.
func (c *Composer) SetFile(file *domain.FileAttachment) error { return c.collector.SetFile(file) }

// Draft returns a copy of the draft.
func (c *Composer) Draft() domain.DraftMessage { return c.collector.Draft() }

// Preview writes the pending recording to a playable temporary file.
func (c *Composer) Preview() (string, error) { return c.collector.Preview() }

// StartRecording begins a voice take.
func (c *Composer) StartRecording(ctx context.Context) error {
	if c.recorder == nil {
		return apperrors.NewPermissionDenied("audio capture is not configured", nil)
	}
	enc, err := c.recorder.Start(ctx)
	if err != nil {
		return err
	}
	c.publish(ctx, events.EventRecordingStarted, events.RecordingStartedPayload{MimeType: enc.MimeType})
	return nil
}

// PauseRecording freezes the take.
func (c *Composer) PauseRecording() {
	if c.recorder != nil {
		c.recorder.Pause()
	}
}

// ResumeRecording continues a paused take.
func (c *Composer) ResumeRecording() {
	if c.recorder != nil {
		c.recorder.Resume()
	}
}

// StopRecording finishes the take and moves it into the draft.
func (c *Composer) StopRecording(ctx context.Context) (*domain.Recording, error) {
	if c.recorder == nil {
		return nil, apperrors.NewValidationError("not recording", nil)
	}
	rec, err := c.recorder.Stop()
	if err != nil {
		return nil, err
	}
	c.collector.AcceptRecording(rec)
	c.publish(ctx, events.EventRecordingStopped, events.RecordingStoppedPayload{
		MimeType:    rec.MimeType,
		DurationSec: rec.DurationSec,
		SizeBytes:   len(rec.Data),
	})
	return rec, nil
}

// CancelRecording throws away a live take.
func (c *Composer) CancelRecording(ctx context.Context) {
	if c.recorder == nil || c.recorder.Status() == domain.RecordingIdle {
		return
	}
	c.recorder.Cancel()
	c.publish(ctx, events.EventRecordingCancelled, nil)
}

// RecordingStatus reports the recorder state.
func (c *Composer) RecordingStatus() domain.RecordingStatus {
	if c.recorder == nil {
		return domain.RecordingIdle
	}
	return c.recorder.Status()
}

// RecordingMimeType is the negotiated mime type of the current take.
func (c *Composer) RecordingMimeType() string {
	if c.recorder == nil {
		return ""
	}
	return c.recorder.MimeType()
}

// ElapsedSec reports the running take length.
func (c *Composer) ElapsedSec() int {
	if c.recorder == nil {
		return 0
	}
	return c.recorder.ElapsedSec()
}

// Busy reports whether a send is outstanding.
func (c *Composer) Busy() bool { return c.submitter.Busy() }

// Send delivers the draft. A live take is stopped and attached first.
// On success the sent content leaves the draft and a reply_sent event asks the host
// view to refresh; on failure the draft is left untouched.
func (c *Composer) Send(ctx context.Context) error {
	if status := c.RecordingStatus(); status == domain.RecordingActive || status == domain.RecordingPaused {
		if _, err := c.StopRecording(ctx); err != nil {
			return err
		}
	}

	draft := c.collector.Draft()
	if err := c.submitter.Submit(ctx, c.ticketID, draft); err != nil {
		if de := apperrors.ToDomainError(err); de.Code != apperrors.CodeEmptyMessage && de.Code != apperrors.CodeSendInProgress {
			c.publish(ctx, events.EventReplyFailed, events.ReplyFailedPayload{Kind: draft.Kind(), Code: de.Message})
		}
		return err
	}

	c.collector.ClearSent(draft)
	payload := events.ReplySentPayload{Kind: draft.Kind(), TextPreview: preview(draft.Text, 120)}
	if draft.Recording != nil {
		payload.DurationSec = draft.Recording.DurationSec
	}
	c.publish(ctx, events.EventReplySent, payload)
	return nil
}

// Close releases the microphone and any preview file.
func (c *Composer) Close() {
	if c.recorder != nil {
		c.recorder.Close()
	}
	c.collector.Clear()
}

func (c *Composer) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	_ = c.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  c.ticketID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func preview(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
