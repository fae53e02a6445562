package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
)

// Formatter renders CLI progress. The recording timer redraws one line
// from the recorder's tick goroutine, so writes are serialized.
type Formatter struct {
	mu        sync.Mutex
	w         io.Writer
	timerLive bool
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted(mimeType string) {
	f.printf("🎙️  Recording (%s)\n", mimeType)
	f.printf("   p pause/resume · s stop and send · c cancel\n")
}

// RecordingTick redraws the live timer.
func (f *Formatter) RecordingTick(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, "\r🔴 %s  ", FormatClock(seconds))
	f.timerLive = true
}

func (f *Formatter) RecordingPaused(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, "\r⏸️  %s  ", FormatClock(seconds))
	f.timerLive = true
}

func (f *Formatter) RecordingStopped(seconds int, sizeBytes int) {
	f.printf("⏹️  Recording stopped (%s, %s)\n", FormatClock(seconds), formatBytes(sizeBytes))
}

func (f *Formatter) RecordingCancelled() {
	f.printf("🗑️  Recording discarded\n")
}

func (f *Formatter) Preview(path string) {
	f.printf("🔊 Preview: %s\n", path)
	f.printf("   s send · c discard\n")
}

func (f *Formatter) Sending() {
	f.printf("📤 Sending reply...\n")
}

func (f *Formatter) ReplySent(ticketID string, kind domain.AttachmentKind) {
	what := "Reply"
	switch kind {
	case domain.AttachmentFile:
		what = "File reply"
	case domain.AttachmentRecording:
		what = "Voice reply"
	}
	f.printf("✅ %s sent to ticket %s\n", what, ticketID)
}

// Ticket prints a ticket header and its thread.
func (f *Formatter) Ticket(t *domain.Ticket) {
	f.printf("\n🎫 %s  [%s]  %s\n", t.ID, t.Status, t.Title)
	for _, m := range t.Messages {
		who := "user "
		if m.Sender == domain.SenderAdmin {
			who = "admin"
		}
		f.printf("  %s  %s  %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, describeMessage(m))
	}
}

func (f *Formatter) Error(msg string) {
	f.printf("❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	f.printf("ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	f.printf("✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	f.printf("⚠️  %s\n", msg)
}

// printf ends a live timer line before writing.
func (f *Formatter) printf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timerLive {
		fmt.Fprint(f.w, "\n")
		f.timerLive = false
	}
	fmt.Fprintf(f.w, format, args...)
}

func describeMessage(m domain.TicketMessage) string {
	switch m.Type {
	case domain.MessageTypeVoice:
		return fmt.Sprintf("🎤 voice %s %s", FormatClock(m.DurationSec), strings.TrimSpace(m.Text))
	case domain.MessageTypeImage, domain.MessageTypeFile:
		name := m.FileName
		if name == "" {
			name = m.FileURL
		}
		return fmt.Sprintf("📎 %s %s", name, strings.TrimSpace(m.Text))
	default:
		return m.Text
	}
}

// FormatClock renders seconds as m:ss, or h:mm:ss past an hour.
func FormatClock(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
