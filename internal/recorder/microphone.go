package recorder

import (
	"context"
	"io"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
)

// Microphone acquires an exclusive capture stream.
type Microphone interface {
	// Open blocks until the device is granted or refused. A refusal
	// should be reported as a permission-denied domain error.
	Open(ctx context.Context, enc domain.Encoding) (Stream, error)
}

// Stream is a live capture producing encoded audio. Read returns io.EOF
// once the stream has been closed and fully flushed.
type Stream interface {
	io.Reader
	Pause() error
	Resume() error
	// Close releases the device. Data already encoded stays readable.
	Close() error
}
