package telemetry

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// CSVSink appends every telemetry line to a single file, flushing on a
// mutex-guarded buffered writer (teacher's file-logger pattern: one
// open *os.File plus a guarding mutex, per decoder_metrics_log.go).
type CSVSink struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewCSVSink opens (creating/appending) path for line-oriented writes.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &CSVSink{file: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one line and flushes immediately: telemetry files are
// tailed live, so buffering across writes would hide recent records.
func (s *CSVSink) Write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
	s.w.Flush()
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.file.Close()
}
