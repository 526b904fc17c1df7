// Package journal persists operator-session activity to a plain text
// file and keeps a small in-memory tail for the TUI's log panel, so
// rendering never has to touch the disk.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// tailCap bounds the in-memory tail ring.
const tailCap = 64

// Journal appends timestamped entries to a file. All methods are safe
// for concurrent use and never fail the caller: a journal that cannot
// write degrades to the in-memory tail only.
type Journal struct {
	mu   sync.Mutex
	path string
	tail []string
	last string
}

// New creates a journal writing to path, creating parent directories
// as needed.
func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Journal{path: path}, nil
}

// Path returns the file backing this journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Append records one entry.
func (j *Journal) Append(level Level, message string) {
	if j == nil {
		return
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	line := fmt.Sprintf("%s %-5s %s",
		time.Now().UTC().Format(time.RFC3339),
		string(level),
		message,
	)
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tail = append(j.tail, line)
	if len(j.tail) > tailCap {
		j.tail = j.tail[len(j.tail)-tailCap:]
	}
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line + "\n")
}

// Tail returns up to maxLines of the most recent entries.
func (j *Journal) Tail(maxLines int) []string {
	if j == nil || maxLines <= 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.tail) == 0 {
		return nil
	}
	start := 0
	if len(j.tail) > maxLines {
		start = len(j.tail) - maxLines
	}
	out := make([]string, len(j.tail)-start)
	copy(out, j.tail[start:])
	return out
}

// Info appends an informational entry.
func (j *Journal) Info(format string, args ...any) {
	j.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (j *Journal) Warn(format string, args ...any) {
	j.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (j *Journal) Error(format string, args ...any) {
	j.Append(LevelError, fmt.Sprintf(format, args...))
}

// Progress records a status line, skipping consecutive duplicates so
// render-driven status updates do not flood the file.
func (j *Journal) Progress(status string) {
	if j == nil {
		return
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return
	}
	j.mu.Lock()
	same := status == j.last
	j.last = status
	j.mu.Unlock()
	if same {
		return
	}
	j.Info("%s", status)
}
