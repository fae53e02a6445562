package composer

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

// Collector holds a draft reply. Its attachment slot takes either a
// file or a recording, never both: whichever arrives last wins.
type Collector struct {
	mu             sync.Mutex
	draft          domain.DraftMessage
	maxUploadBytes int
	previewPath    string
	logger         *zap.Logger
}

// NewCollector returns an empty collector. maxUploadBytes <= 0 disables the size check.
func NewCollector(maxUploadBytes int, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{maxUploadBytes: maxUploadBytes, logger: logger}
}

// SetText replaces the draft text.
func (c *Collector) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Text = text
}

// SetFile selects a file, discarding any pending recording. A nil file
// only deselects the current file.
func (c *Collector) SetFile(file *domain.FileAttachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if file == nil {
		c.draft.File = nil
		return nil
	}
	if c.maxUploadBytes > 0 && len(file.Data) > c.maxUploadBytes {
		return apperrors.NewValidationError("file too large", map[string]any{
			"size_bytes": len(file.Data),
			"max_bytes":  c.maxUploadBytes,
		})
	}
	c.draft.File = file
	c.draft.Recording = nil
	c.dropPreview()
	return nil
}

// AcceptRecording puts a finished take in the attachment slot, discarding any selected file.
func (c *Collector) AcceptRecording(rec *domain.Recording) {
	if rec == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropPreview()
	c.draft.Recording = rec
	c.draft.File = nil
}

// DiscardRecording removes a pending recording without touching text or file.
func (c *Collector) DiscardRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Recording = nil
	c.dropPreview()
}

// Clear resets the draft and removes any preview file.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = domain.DraftMessage{}
	c.dropPreview()
}

// ClearSent removes the parts of sent that are still in the draft. Text
// or an attachment set while the send was in flight stays.
func (c *Collector) ClearSent(sent domain.DraftMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.Text == sent.Text {
		c.draft.Text = ""
	}
	if c.draft.File == sent.File {
		c.draft.File = nil
	}
	if c.draft.Recording == sent.Recording {
		c.draft.Recording = nil
		c.dropPreview()
	}
}

// Draft returns a copy of the current draft.
func (c *Collector) Draft() domain.DraftMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Preview writes the pending recording to a temporary file for playback
// and returns its path. The file lives until the recording leaves the draft.
func (c *Collector) Preview() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft.Recording == nil {
		return "", apperrors.NewValidationError("no recording to preview", nil)
	}
	if c.previewPath != "" {
		return c.previewPath, nil
	}

	f, err := os.CreateTemp("", "phoenix-voice-*"+domain.ExtensionForMime(c.draft.Recording.MimeType))
	if err != nil {
		return "", fmt.Errorf("create preview: %w", err)
	}
	if _, err := f.Write(c.draft.Recording.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write preview: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close preview: %w", err)
	}
	c.previewPath = f.Name()
	return c.previewPath, nil
}

func (c *Collector) dropPreview() {
	if c.previewPath == "" {
		return
	}
	if err := os.Remove(c.previewPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("remove preview", zap.String("path", c.previewPath), zap.Error(err))
	}
	c.previewPath = ""
}
