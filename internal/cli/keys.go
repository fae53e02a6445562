package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

// keyReader delivers single keystrokes from stdin. On a terminal it puts
// the terminal in raw mode until Close.
type keyReader struct {
	keys    chan byte
	raw     bool
	restore func()
}

func openKeys(in io.Reader) (*keyReader, error) {
	kr := &keyReader{keys: make(chan byte, 8), restore: func() {}}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("set terminal raw mode: %w", err)
		}
		kr.raw = true
		kr.restore = func() { _ = term.Restore(fd, oldState) }
	}

	go func() {
		defer close(kr.keys)
		buf := make([]byte, 1)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				kr.keys <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()
	return kr, nil
}

// C is closed when stdin reaches EOF.
func (k *keyReader) C() <-chan byte { return k.keys }

func (k *keyReader) Close() { k.restore() }

// crlfWriter restores line starts while the terminal is raw.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
