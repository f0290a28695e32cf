package hal

import (
	"fmt"
	"io"
	"sync"
)

type writerLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger returns a Logger writing one line per call to w.
func NewLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

func (l *writerLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *writerLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type discardLogger struct{}

func (discardLogger) WriteLineString(string) {}
func (discardLogger) WriteLineBytes([]byte)  {}

// Discard is a Logger that drops everything.
var Discard Logger = discardLogger{}

// Logf formats one line to l. A nil l drops the line.
func Logf(l Logger, format string, args ...any) {
	if l == nil {
		return
	}
	if _, ok := l.(discardLogger); ok {
		return
	}
	l.WriteLineString(fmt.Sprintf(format, args...))
}
