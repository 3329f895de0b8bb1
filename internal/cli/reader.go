package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrPromptCanceled is returned when a prompt is abandoned because its
// context ended before the user answered.
var ErrPromptCanceled = errors.New("prompt canceled")

// LineReader hands out input lines one at a time while letting callers give
// up on a line without losing it. A single goroutine owns the underlying
// reader, so a line that arrives after a canceled read is kept for the next.
type LineReader struct {
	src   *bufio.Reader
	lines chan string
	start sync.Once
	err   error // set before lines is closed
}

// NewLineReader wraps r. It panics on a nil reader.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("cli: nil reader")
	}
	return &LineReader{
		src:   bufio.NewReader(r),
		lines: make(chan string),
	}
}

func (r *LineReader) pump() {
	defer close(r.lines)
	for {
		line, err := r.src.ReadString('\n')
		if line != "" {
			r.lines <- line
		}
		if err != nil {
			r.err = err
			return
		}
	}
}

// ReadLine returns the next line with surrounding whitespace removed. A final
// line without a newline is returned as is; after it the read error (usually
// io.EOF) is returned.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrPromptCanceled
	}
	r.start.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", ErrPromptCanceled
	case line, ok := <-r.lines:
		if !ok {
			return "", r.err
		}
		return strings.TrimSpace(line), nil
	}
}
