// Package trace collects the partition-tree trace log: a line buffer that
// routing tasks append to concurrently and the outer loop writes out as a
// plain text file after the run. The trace is diagnostic only; it never
// affects routing semantics.
package trace

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Log is a concurrent line buffer. The zero value is not usable; a nil *Log
// is, and drops every line, so callers never need to guard their logging.
type Log struct {
	mu    sync.Mutex
	lines []string
}

// New creates an empty trace log.
func New() *Log {
	return &Log{}
}

// Logf appends a formatted line tagged with the worker that produced it.
func (l *Log) Logf(worker int, format string, args ...any) {
	if l == nil {
		return
	}
	line := fmt.Sprintf("[worker %d] ", worker) + fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
}

// Lines returns a snapshot of the buffer.
func (l *Log) Lines() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of buffered lines.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// WriteFile dumps the buffer to a file, one line each.
func (l *Log) WriteFile(filename string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	data := strings.Join(l.lines, "\n")
	l.mu.Unlock()
	if data != "" {
		data += "\n"
	}
	if err := os.WriteFile(filename, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write trace log: %w", err)
	}
	return nil
}
