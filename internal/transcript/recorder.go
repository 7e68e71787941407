package transcript

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder appends records to a transcript file. The file handle is
// scoped to each write (open, write, sync, close) rather than held for
// the process lifetime, and a mutex serializes the whole sequence so
// concurrent callers never interleave partial records.
type Recorder struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to path, creating the parent
// directory if needed.
func NewRecorder(path string, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create transcript directory: %w", err)
		}
	}
	return &Recorder{path: path, logger: logger}, nil
}

// Path returns the transcript file location.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends one record block to the transcript file. Entries land
// in the order Record is invoked. A write failure is returned for the
// caller to report; the transport treats it as best-effort and never
// fails the API call over it.
func (r *Recorder) Record(rec *Record) error {
	block := rec.Format()

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}

	if _, err := f.WriteString(block); err != nil {
		f.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync transcript: %w", err)
	}
	return f.Close()
}

// Clear truncates the transcript file, leaving a marker line so a
// reader knows the log was intentionally reset.
func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marker := fmt.Sprintf("Log cleared at %s\n", time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(r.path, []byte(marker), 0o644); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}
