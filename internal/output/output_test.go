package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatClock(t *testing.T) {
	cases := map[int]string{
		0:    "0:00",
		5:    "0:05",
		65:   "1:05",
		3600: "1:00:00",
		3725: "1:02:05",
	}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Errorf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTimerLineEndsBeforeNextMessage(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.RecordingTick(1)
	f.RecordingTick(2)
	f.RecordingStopped(2, 2048)

	out := buf.String()
	if !strings.Contains(out, "\r🔴 0:02  \n⏹️  Recording stopped (0:02, 2.0 KiB)") {
		t.Fatalf("output = %q", out)
	}
}
