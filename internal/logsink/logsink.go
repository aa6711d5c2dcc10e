package logsink

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Sink is the append-only sync log. Every back office call outcome ends up
// here as a timestamped SUCCESS or ERROR line; the admin endpoints read,
// download and clear the same file.
type Sink struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Sink, error) {
	// Make sure the file exists so the log viewer has something to read
	// even before the first sync.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync log: %w", err)
	}
	f.Close()

	return &Sink{path: path}, nil
}

func (s *Sink) Success(format string, args ...interface{}) {
	s.append("SUCCESS", fmt.Sprintf(format, args...))
}

func (s *Sink) Error(format string, args ...interface{}) {
	s.append("ERROR", fmt.Sprintf(format, args...))
}

// append is best effort: a failing log write must never fail a sync.
func (s *Sink) append(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] %s: %s\n", timestamp, level, message)
}

func (s *Sink) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to read sync log: %w", err)
	}
	return string(data), nil
}

func (s *Sink) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Truncate(s.path, 0); err != nil {
		return fmt.Errorf("failed to clear sync log: %w", err)
	}
	return nil
}

func (s *Sink) Path() string {
	return s.path
}
