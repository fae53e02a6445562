//go:build unix

package recorder

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

const muxersOutput = `File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
  E matroska        Matroska
 D  mp3             MP2/3 (MPEG audio layer 2/3)
 DE ogg             Ogg
  E webm            WebM
`

const legacyMuxersOutput = `File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
 DE matroska,webm   Matroska / WebM
 D  wav             WAV / WAVE (Waveform Audio)
`

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 S..... = Subtitle
 .F.... = Frame-level multithreading
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libopus              libopus Opus (codec opus)
 A....D libvorbis            libvorbis (codec vorbis)
`

func TestParseFormatList(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
		skip []string
	}{
		{name: "one name per line", out: muxersOutput, want: []string{"matroska", "ogg", "webm"}, skip: []string{"mp3", "D.", ".E", "--"}},
		{name: "comma separated names", out: legacyMuxersOutput, want: []string{"matroska", "webm"}, skip: []string{"wav"}},
		{name: "empty", out: "", skip: []string{"webm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := map[string]bool{}
			parseFormatList([]byte(tt.out), got)
			for _, name := range tt.want {
				if !got[name] {
					t.Errorf("muxer %q missing from %v", name, got)
				}
			}
			for _, name := range tt.skip {
				if got[name] {
					t.Errorf("unexpected muxer %q in %v", name, got)
				}
			}
		})
	}
}

func TestParseEncoderListKeepsAudioEncodersOnly(t *testing.T) {
	got := map[string]bool{}
	parseEncoderList([]byte(encodersOutput), got)

	want := map[string]bool{"aac": true, "libopus": true, "libvorbis": true}
	if len(got) != len(want) {
		t.Fatalf("encoders = %v, want %v", got, want)
	}
	for name := range want {
		if !got[name] {
			t.Fatalf("encoder %q missing from %v", name, got)
		}
	}
}

func TestEncoderFor(t *testing.T) {
	tests := []struct {
		enc  domain.Encoding
		want string
	}{
		{enc: PreferredEncodings[0], want: "libopus"},
		{enc: PreferredEncodings[1], want: "libvorbis"},
		{enc: PreferredEncodings[2], want: "libopus"},
		{enc: PreferredEncodings[3], want: "libvorbis"},
	}
	for _, tt := range tests {
		t.Run(tt.enc.MimeType, func(t *testing.T) {
			if got := encoderFor(tt.enc); got != tt.want {
				t.Fatalf("encoderFor(%q) = %q, want %q", tt.enc.MimeType, got, tt.want)
			}
		})
	}
}

// writeFakeFFmpeg installs a shell script that stands in for the ffmpeg binary.
func writeFakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}

func newTestFFmpeg(t *testing.T, body string) *FFmpegMicrophone {
	t.Helper()
	mic := NewFFmpegMicrophone(writeFakeFFmpeg(t, body), "pulse", "default", nil)
	mic.startupTimeout = 300 * time.Millisecond
	mic.gracePeriod = 200 * time.Millisecond
	return mic
}

func TestFFmpegIsTypeSupportedFromProbe(t *testing.T) {
	mic := newTestFFmpeg(t, `case "$*" in
*-muxers*) cat <<'EOF'
`+muxersOutput+`EOF
;;
*-encoders*) cat <<'EOF'
 A....D libvorbis            libvorbis (codec vorbis)
EOF
;;
esac`)

	tests := []struct {
		mimeType string
		want     bool
	}{
		{mimeType: "audio/webm;codecs=opus", want: false},
		{mimeType: "audio/webm", want: true},
		{mimeType: "AUDIO/OGG", want: true},
		{mimeType: "audio/ogg;codecs=opus", want: false},
		{mimeType: "audio/mp4", want: false},
	}
	for _, tt := range tests {
		if got := mic.IsTypeSupported(tt.mimeType); got != tt.want {
			t.Errorf("IsTypeSupported(%q) = %v, want %v", tt.mimeType, got, tt.want)
		}
	}

	enc, ok := SelectEncoding(mic)
	if !ok || enc.MimeType != "audio/webm" {
		t.Fatalf("SelectEncoding = %q, %v; want audio/webm", enc.MimeType, ok)
	}
}

func TestFFmpegProbeFailureSupportsNothing(t *testing.T) {
	mic := newTestFFmpeg(t, "exit 1")
	if _, ok := SelectEncoding(mic); ok {
		t.Fatal("SelectEncoding succeeded with a failing ffmpeg")
	}
}

func TestFFmpegOpenRefusals(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "exits at once", body: "echo 'Device or resource busy' >&2\nexit 1", wantMsg: "busy"},
		{name: "stays silent", body: "exec sleep 30", wantMsg: "no audio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mic := newTestFFmpeg(t, tt.body)

			started := time.Now()
			stream, err := mic.Open(context.Background(), PreferredEncodings[0])
			if stream != nil {
				t.Fatal("Open returned a stream for a refused device")
			}
			if !errors.Is(err, apperrors.ErrPermissionDenied) {
				t.Fatalf("Open error = %v, want permission denied", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("Open error = %q, want it to mention %q", err, tt.wantMsg)
			}
			if elapsed := time.Since(started); elapsed > 5*time.Second {
				t.Fatalf("Open took %s to give up", elapsed)
			}
		})
	}
}

func TestFFmpegOpenMissingBinary(t *testing.T) {
	mic := NewFFmpegMicrophone(filepath.Join(t.TempDir(), "no-ffmpeg"), "pulse", "default", nil)
	_, err := mic.Open(context.Background(), PreferredEncodings[0])
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("Open error = %v, want permission denied", err)
	}
}

func TestFFmpegCloseReleasesCapture(t *testing.T) {
	tests := []struct {
		name  string
		pause bool
	}{
		{name: "recording"},
		{name: "paused", pause: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mic := newTestFFmpeg(t, "printf 'OggS-audio'\nexec sleep 30")

			stream, err := mic.Open(context.Background(), PreferredEncodings[2])
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if tt.pause {
				if err := stream.Pause(); err != nil {
					t.Fatalf("Pause: %v", err)
				}
			}
			if err := stream.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			type result struct {
				data []byte
				err  error
			}
			done := make(chan result, 1)
			go func() {
				data, err := io.ReadAll(stream)
				done <- result{data, err}
			}()

			select {
			case got := <-done:
				if got.err != nil {
					t.Fatalf("read after Close: %v", got.err)
				}
				if string(got.data) != "OggS-audio" {
					t.Fatalf("captured %q, want %q", got.data, "OggS-audio")
				}
			case <-time.After(5 * time.Second):
				t.Fatal("ffmpeg still running after Close")
			}

			if err := stream.Close(); err != nil {
				t.Fatalf("second Close: %v", err)
			}
		})
	}
}
