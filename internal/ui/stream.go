package ui

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// LineWriter prefixes every line written through it and forwards the
// result to an underlying writer. Partial lines are buffered until a
// newline arrives or Flush is called. Writes are serialized so the
// container log pump and an exec stream can share one destination.
type LineWriter struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
	buf    []byte
}

// StreamWriter returns a LineWriter that tags container output with the
// given name. The tag is colored only when the console itself is.
func (c *Console) StreamWriter(out io.Writer, name string) *LineWriter {
	prefix := ""
	if name != "" {
		prefix = fmt.Sprintf("[%s]", name)
		if c.useColors {
			prefix = colorCyan + prefix + colorReset
		}
	}
	return &LineWriter{out: out, prefix: prefix}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			return len(p), nil
		}
		line := w.buf[:idx]
		w.buf = w.buf[idx+1:]
		if err := w.emit(line); err != nil {
			return len(p), err
		}
	}
}

// Flush writes any buffered partial line as a final full line.
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) == 0 {
		return nil
	}
	line := w.buf
	w.buf = nil
	return w.emit(line)
}

func (w *LineWriter) emit(line []byte) error {
	// TTY containers terminate lines with CRLF.
	line = bytes.TrimSuffix(line, []byte("\r"))
	if w.prefix == "" {
		_, err := fmt.Fprintf(w.out, "%s\n", line)
		return err
	}
	_, err := fmt.Fprintf(w.out, "%s %s\n", w.prefix, line)
	return err
}
