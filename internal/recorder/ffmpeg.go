//go:build unix

package recorder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

const (
	defaultStartupTimeout = 5 * time.Second
	defaultGracePeriod    = 3 * time.Second
)

// FFmpegMicrophone captures the default input device through an ffmpeg
// child process. It is both a Microphone and the Capabilities probe for it.
type FFmpegMicrophone struct {
	path           string
	inputFormat    string
	inputDevice    string
	logger         *zap.Logger
	startupTimeout time.Duration
	gracePeriod    time.Duration

	probeOnce sync.Once
	muxers    map[string]bool
	encoders  map[string]bool
}

// NewFFmpegMicrophone returns a microphone backed by the ffmpeg binary at path.
func NewFFmpegMicrophone(path, inputFormat, inputDevice string, logger *zap.Logger) *FFmpegMicrophone {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegMicrophone{
		path:           path,
		inputFormat:    inputFormat,
		inputDevice:    inputDevice,
		logger:         logger.Named("ffmpeg"),
		startupTimeout: defaultStartupTimeout,
		gracePeriod:    defaultGracePeriod,
	}
}

// IsTypeSupported reports whether ffmpeg can mux and encode mimeType.
func (m *FFmpegMicrophone) IsTypeSupported(mimeType string) bool {
	m.probe()
	for _, enc := range PreferredEncodings {
		if !strings.EqualFold(enc.MimeType, mimeType) {
			continue
		}
		return m.muxers[enc.Container] && m.encoders[encoderFor(enc)]
	}
	return false
}

// Open starts ffmpeg and waits until it produces its first bytes.
func (m *FFmpegMicrophone) Open(ctx context.Context, enc domain.Encoding) (Stream, error) {
	if _, err := exec.LookPath(m.path); err != nil {
		return nil, apperrors.NewPermissionDenied("ffmpeg not found", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", m.inputFormat,
		"-i", m.inputDevice,
		"-ac", "1",
		"-c:a", encoderFor(enc),
		"-f", enc.Container,
		"pipe:1",
	}
	cmd := exec.Command(m.path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.NewPermissionDenied("microphone unavailable", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, apperrors.NewPermissionDenied("microphone unavailable", err)
	}

	stream := &ffmpegStream{
		cmd:         cmd,
		out:         bufio.NewReaderSize(stdout, 64<<10),
		stderr:      stderr,
		logger:      m.logger,
		gracePeriod: m.gracePeriod,
		exited:      make(chan struct{}),
	}

	if err := stream.awaitFirstBytes(ctx, m.startupTimeout); err != nil {
		return nil, err
	}
	m.logger.Debug("capture started",
		zap.String("input_format", m.inputFormat),
		zap.String("input_device", m.inputDevice),
		zap.String("mime_type", enc.MimeType))
	return stream, nil
}

func (m *FFmpegMicrophone) probe() {
	m.probeOnce.Do(func() {
		m.muxers = map[string]bool{}
		m.encoders = map[string]bool{}
		if out, err := exec.Command(m.path, "-hide_banner", "-muxers").Output(); err == nil {
			parseFormatList(out, m.muxers)
		} else {
			m.logger.Debug("probe muxers", zap.Error(err))
		}
		if out, err := exec.Command(m.path, "-hide_banner", "-encoders").Output(); err == nil {
			parseEncoderList(out, m.encoders)
		} else {
			m.logger.Debug("probe encoders", zap.Error(err))
		}
	})
}

// parseFormatList reads `ffmpeg -muxers` lines such as "  E webm  WebM".
func parseFormatList(out []byte, into map[string]bool) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.Trim(fields[0], "DEd") != "" || !strings.Contains(fields[0], "E") {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			into[name] = true
		}
	}
}

// parseEncoderList reads `ffmpeg -encoders` lines such as " A....D libopus  Opus".
func parseEncoderList(out []byte, into map[string]bool) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || len(fields[0]) != 6 || fields[0][0] != 'A' || fields[1] == "=" {
			continue
		}
		into[fields[1]] = true
	}
}

func encoderFor(enc domain.Encoding) string {
	if enc.Codec == "opus" {
		return "libopus"
	}
	return "libvorbis"
}

type ffmpegStream struct {
	cmd         *exec.Cmd
	out         *bufio.Reader
	stderr      *bytes.Buffer
	logger      *zap.Logger
	gracePeriod time.Duration

	mu      sync.Mutex
	closing bool
	paused  bool

	reapOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

// awaitFirstBytes treats an ffmpeg that exits or stays silent as a refused device.
func (s *ffmpegStream) awaitFirstBytes(ctx context.Context, timeout time.Duration) error {
	ready := make(chan error, 1)
	go func() {
		_, err := s.out.Peek(1)
		ready <- err
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var cause error
	select {
	case err := <-ready:
		if err == nil {
			return nil
		}
		cause = err
	case <-ctx.Done():
		cause = ctx.Err()
	case <-timer.C:
		cause = errors.New("no audio from input device")
	}

	_ = s.cmd.Process.Kill()
	<-ready
	s.reap()
	if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
		cause = fmt.Errorf("%w: %s", cause, msg)
	}
	return apperrors.NewPermissionDenied("microphone access denied", cause)
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	n, err := s.out.Read(p)
	if !errors.Is(err, io.EOF) {
		return n, err
	}
	s.reap()
	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	if s.waitErr != nil && !closing {
		return n, fmt.Errorf("ffmpeg exited: %w: %s", s.waitErr, strings.TrimSpace(s.stderr.String()))
	}
	return n, io.EOF
}

func (s *ffmpegStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || s.paused {
		return nil
	}
	s.paused = true
	return s.cmd.Process.Signal(syscall.SIGSTOP)
}

func (s *ffmpegStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || !s.paused {
		return nil
	}
	s.paused = false
	return s.cmd.Process.Signal(syscall.SIGCONT)
}

// Close asks ffmpeg to finalize the container, killing it if it lingers.
func (s *ffmpegStream) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	wasPaused := s.paused
	s.paused = false
	s.mu.Unlock()

	if wasPaused {
		_ = s.cmd.Process.Signal(syscall.SIGCONT)
	}
	err := s.cmd.Process.Signal(os.Interrupt)
	go func() {
		timer := time.NewTimer(s.gracePeriod)
		defer timer.Stop()
		select {
		case <-s.exited:
		case <-timer.C:
			s.logger.Warn("ffmpeg did not exit after interrupt; killing")
			_ = s.cmd.Process.Kill()
		}
	}()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (s *ffmpegStream) reap() {
	s.reapOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
		close(s.exited)
	})
}
