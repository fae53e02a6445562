package domain

import "strings"

// AttachmentKind tells which payload occupies a draft's attachment slot.
type AttachmentKind string

const (
	AttachmentNone      AttachmentKind = ""
	AttachmentFile      AttachmentKind = "file"
	AttachmentRecording AttachmentKind = "voice"
)

// FileAttachment is a file picked by the operator.
type FileAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Recording is a finished voice take.
type Recording struct {
	Data        []byte
	MimeType    string
	DurationSec int
}

// DraftMessage is the in-progress reply. File and Recording are never both set.
type DraftMessage struct {
	Text      string
	File      *FileAttachment
	Recording *Recording
}

// Kind reports what occupies the attachment slot.
func (d DraftMessage) Kind() AttachmentKind {
	switch {
	case d.Recording != nil:
		return AttachmentRecording
	case d.File != nil:
		return AttachmentFile
	default:
		return AttachmentNone
	}
}

// Sendable reports whether the draft has text or an attachment.
func (d DraftMessage) Sendable() bool {
	return strings.TrimSpace(d.Text) != "" || d.Kind() != AttachmentNone
}
