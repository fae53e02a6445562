package events

import (
	"time"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRecordingStarted   EventType = "recording_started"
	EventRecordingStopped   EventType = "recording_stopped"
	EventRecordingCancelled EventType = "recording_cancelled"
	EventReplySent          EventType = "reply_sent"
	EventReplyFailed        EventType = "reply_failed"
)

// Event represents something that happened in a composer.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RecordingStartedPayload payload.
type RecordingStartedPayload struct {
	MimeType string `json:"mime_type"`
}

// RecordingStoppedPayload payload.
type RecordingStoppedPayload struct {
	MimeType    string `json:"mime_type"`
	DurationSec int    `json:"duration_sec"`
	SizeBytes   int    `json:"size_bytes"`
}

// ReplySentPayload payload.
type ReplySentPayload struct {
	Kind        domain.AttachmentKind `json:"kind"`
	TextPreview string                `json:"text_preview,omitempty"`
	DurationSec int                   `json:"duration_sec,omitempty"`
}

// ReplyFailedPayload payload.
type ReplyFailedPayload struct {
	Kind domain.AttachmentKind `json:"kind"`
	Code string                `json:"code"`
}
