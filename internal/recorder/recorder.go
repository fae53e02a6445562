package recorder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

// DefaultTickInterval is the granularity of the elapsed-time counter.
const DefaultTickInterval = time.Second

// Options tunes a Recorder. Zero values pick production defaults.
type Options struct {
	Clock        clockwork.Clock
	Logger       *zap.Logger
	TickInterval time.Duration
	// OnTick receives the elapsed seconds after every tick while
	// recording. It runs on the recorder's tick goroutine and must not
	// call back into the Recorder.
	OnTick func(elapsedSec int)
}

// Recorder captures one voice take at a time from a Microphone.
type Recorder struct {
	mic      Microphone
	caps     Capabilities
	clock    clockwork.Clock
	logger   *zap.Logger
	interval time.Duration
	onTick   func(int)

	mu           sync.Mutex
	status       domain.RecordingStatus
	encoding     domain.Encoding
	capture      *capture
	ticks        *tickLoop
	accumulated  int
	segmentStart time.Time
}

// New builds a Recorder. caps decides the encoding, mic provides the stream.
func New(mic Microphone, caps Capabilities, opts Options) *Recorder {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	return &Recorder{
		mic:      mic,
		caps:     caps,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("recorder"),
		interval: opts.TickInterval,
		onTick:   opts.OnTick,
		status:   domain.RecordingIdle,
	}
}

// Start negotiates an encoding, acquires the microphone and begins capture.
// It is allowed from idle or stopped.
func (r *Recorder) Start(ctx context.Context) (domain.Encoding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == domain.RecordingActive || r.status == domain.RecordingPaused {
		return domain.Encoding{}, apperrors.NewValidationError("recording already in progress", nil)
	}

	enc, ok := SelectEncoding(r.caps)
	if !ok {
		return domain.Encoding{}, apperrors.NewPermissionDenied("no supported audio encoding", nil)
	}

	stream, err := r.mic.Open(ctx, enc)
	if err != nil {
		if errors.Is(err, apperrors.ErrPermissionDenied) {
			return domain.Encoding{}, err
		}
		return domain.Encoding{}, apperrors.NewPermissionDenied("microphone unavailable", err)
	}

	r.capture = newCapture(stream)
	go r.capture.run()

	r.encoding = enc
	r.accumulated = 0
	r.segmentStart = r.clock.Now()
	r.status = domain.RecordingActive
	r.startTicks()

	r.logger.Debug("recording started", zap.String("mime_type", enc.MimeType))
	return enc, nil
}

// Pause freezes the counter. No-op unless recording.
func (r *Recorder) Pause() {
	r.mu.Lock()
	if r.status != domain.RecordingActive {
		r.mu.Unlock()
		return
	}
	r.closeSegment()
	r.status = domain.RecordingPaused
	// The stream call stays under the lock so a Resume cannot overtake it.
	if err := r.capture.stream.Pause(); err != nil {
		r.logger.Warn("pause capture", zap.Error(err))
	}
	loop := r.detachTicks()
	r.mu.Unlock()

	loop.wait()
}

// Resume restarts the counter. No-op unless paused.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != domain.RecordingPaused {
		return
	}
	if err := r.capture.stream.Resume(); err != nil {
		r.logger.Warn("resume capture", zap.Error(err))
	}
	r.segmentStart = r.clock.Now()
	r.status = domain.RecordingActive
	r.startTicks()
}

// Stop finalizes the take and releases the microphone.
func (r *Recorder) Stop() (*domain.Recording, error) {
	r.mu.Lock()
	if r.status != domain.RecordingActive && r.status != domain.RecordingPaused {
		r.mu.Unlock()
		return nil, apperrors.NewValidationError("not recording", nil)
	}
	if r.status == domain.RecordingActive {
		r.closeSegment()
	}
	loop := r.detachTicks()
	capture := r.capture
	r.capture = nil
	enc := r.encoding
	duration := r.accumulated
	r.status = domain.RecordingStopped
	r.mu.Unlock()

	loop.wait()
	data, err := capture.finish(r.logger)
	if err == nil && len(data) == 0 {
		err = errors.New("no audio captured")
	}
	if err != nil {
		r.mu.Lock()
		if r.status == domain.RecordingStopped {
			r.reset()
		}
		r.mu.Unlock()
		r.logger.Warn("recording discarded", zap.Error(err))
		return nil, apperrors.NewRecordingFailed(err)
	}

	r.logger.Debug("recording stopped",
		zap.String("mime_type", enc.MimeType),
		zap.Int("duration_sec", duration),
		zap.Int("size_bytes", len(data)))
	return &domain.Recording{Data: data, MimeType: enc.MimeType, DurationSec: duration}, nil
}

// Cancel discards the session and releases the microphone. No-op when idle.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	if r.status == domain.RecordingIdle {
		r.mu.Unlock()
		return
	}
	loop := r.detachTicks()
	capture := r.capture
	r.capture = nil
	r.reset()
	r.mu.Unlock()

	loop.wait()
	if capture != nil {
		_, _ = capture.finish(r.logger)
	}
	r.logger.Debug("recording cancelled")
}

// Close tears the recorder down; a live session is cancelled.
func (r *Recorder) Close() {
	r.Cancel()
}

// Status reports the session state.
func (r *Recorder) Status() domain.RecordingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// ElapsedSec reports whole seconds spent recording, paused time excluded.
func (r *Recorder) ElapsedSec() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

// MimeType reports the negotiated encoding of the current session.
func (r *Recorder) MimeType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoding.MimeType
}

func (r *Recorder) elapsedLocked() int {
	if r.status != domain.RecordingActive {
		return r.accumulated
	}
	return r.accumulated + r.segmentTicks()
}

// segmentTicks counts full intervals since the segment started.
func (r *Recorder) segmentTicks() int {
	return int(r.clock.Since(r.segmentStart) / r.interval)
}

// closeSegment folds the running segment into the total. Partial
// intervals are dropped, like an interval timer that gets cleared.
func (r *Recorder) closeSegment() {
	r.accumulated += r.segmentTicks()
}

func (r *Recorder) reset() {
	r.status = domain.RecordingIdle
	r.encoding = domain.Encoding{}
	r.accumulated = 0
	r.segmentStart = time.Time{}
}

func (r *Recorder) startTicks() {
	if r.onTick == nil {
		return
	}
	loop := &tickLoop{
		ticker: r.clock.NewTicker(r.interval),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	r.ticks = loop
	go r.runTicks(loop)
}

func (r *Recorder) detachTicks() *tickLoop {
	loop := r.ticks
	r.ticks = nil
	if loop != nil {
		loop.ticker.Stop()
		close(loop.done)
	}
	return loop
}

func (r *Recorder) runTicks(loop *tickLoop) {
	defer close(loop.exited)
	for {
		select {
		case <-loop.done:
			return
		case <-loop.ticker.Chan():
			r.mu.Lock()
			if r.ticks != loop {
				r.mu.Unlock()
				return
			}
			elapsed := r.elapsedLocked()
			r.mu.Unlock()
			r.onTick(elapsed)
		}
	}
}

// tickLoop is the timer owned by one recording segment.
type tickLoop struct {
	ticker clockwork.Ticker
	done   chan struct{}
	exited chan struct{}
}

func (l *tickLoop) wait() {
	if l == nil {
		return
	}
	<-l.exited
}

// capture copies a stream into memory until it ends.
type capture struct {
	stream Stream
	buf    bytes.Buffer
	err    error
	done   chan struct{}
}

func newCapture(stream Stream) *capture {
	return &capture{stream: stream, done: make(chan struct{})}
}

func (c *capture) run() {
	defer close(c.done)
	_, c.err = io.Copy(&c.buf, c.stream)
}

// finish releases the stream and waits for the copy to drain.
func (c *capture) finish(logger *zap.Logger) ([]byte, error) {
	if err := c.stream.Close(); err != nil {
		logger.Warn("release microphone", zap.Error(err))
	}
	<-c.done
	if c.err != nil {
		return nil, c.err
	}
	return c.buf.Bytes(), nil
}
