package composer

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/client"
	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	"github.com/pezhmanazar/phoenix-admin/internal/observability"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

// ReplyAPI is the slice of the ticket API the submitter needs.
type ReplyAPI interface {
	Reply(ctx context.Context, ticketID, text string) (domain.ReplyResult, error)
	ReplyUpload(ctx context.Context, ticketID string, upload client.Upload) (domain.ReplyResult, error)
}

// Submitter turns a draft into exactly one request, one at a time.
type Submitter struct {
	api      ReplyAPI
	logger   *zap.Logger
	metrics  *observability.Metrics
	inFlight atomic.Bool
	fileName func(ext string) string
}

// NewSubmitter builds a Submitter. metrics may be nil.
func NewSubmitter(api ReplyAPI, logger *zap.Logger, metrics *observability.Metrics) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		api:     api,
		logger:  logger.Named("submitter"),
		metrics: metrics,
		fileName: func(ext string) string {
			return "voice-" + uuid.NewString() + ext
		},
	}
}

// Submit sends draft to ticketID. It never mutates the draft; on failure
// the caller still holds everything needed to retry.
func (s *Submitter) Submit(ctx context.Context, ticketID string, draft domain.DraftMessage) error {
	if !draft.Sendable() {
		return apperrors.ErrEmptyMessage
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return apperrors.ErrSendInProgress
	}
	defer s.inFlight.Store(false)

	kind := draft.Kind()
	text := strings.TrimSpace(draft.Text)

	var (
		result   domain.ReplyResult
		err      error
		failCode = apperrors.CodeUploadFailed
		fallback = client.FallbackUploadFailed
	)
	switch kind {
	case domain.AttachmentRecording:
		rec := draft.Recording
		duration := rec.DurationSec
		result, err = s.api.ReplyUpload(ctx, ticketID, client.Upload{
			FileName:    s.fileName(domain.ExtensionForMime(rec.MimeType)),
			ContentType: rec.MimeType,
			Data:        rec.Data,
			Text:        text,
			DurationSec: &duration,
		})
	case domain.AttachmentFile:
		file := draft.File
		result, err = s.api.ReplyUpload(ctx, ticketID, client.Upload{
			FileName:    file.Name,
			ContentType: file.ContentType,
			Data:        file.Data,
			Text:        text,
		})
	default:
		failCode = apperrors.CodeSendFailed
		fallback = client.FallbackSendFailed
		result, err = s.api.Reply(ctx, ticketID, text)
	}

	if err != nil {
		s.metrics.RecordReply(string(kindLabel(kind)), "network_error")
		s.logger.Warn("reply not delivered", zap.String("ticket_id", ticketID), zap.Error(err))
		return &apperrors.DomainError{
			Code:       failCode,
			Message:    fallback,
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
		}
	}

	switch result.Outcome {
	case domain.ReplySucceeded:
		s.metrics.RecordReply(string(kindLabel(kind)), "ok")
		s.logger.Info("reply sent", zap.String("ticket_id", ticketID), zap.String("kind", string(kindLabel(kind))))
		return nil
	case domain.ReplyMalformed:
		s.metrics.RecordReply(string(kindLabel(kind)), "malformed")
		s.logger.Warn("reply response malformed", zap.String("ticket_id", ticketID), zap.Int("status", result.HTTPStatus))
		return apperrors.NewMalformedResponse(result.ErrorCode, result.HTTPStatus, nil)
	default:
		s.metrics.RecordReply(string(kindLabel(kind)), result.ErrorCode)
		s.logger.Warn("reply rejected",
			zap.String("ticket_id", ticketID),
			zap.Int("status", result.HTTPStatus),
			zap.String("error_code", result.ErrorCode))
		return apperrors.NewSendFailed(failCode, result.ErrorCode, result.HTTPStatus)
	}
}

// Busy reports whether a send is outstanding.
func (s *Submitter) Busy() bool {
	return s.inFlight.Load()
}

func kindLabel(kind domain.AttachmentKind) domain.AttachmentKind {
	if kind == domain.AttachmentNone {
		return "text"
	}
	return kind
}
