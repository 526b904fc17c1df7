package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(filepath.Join(t.TempDir(), "logs", "session.log"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return j
}

func TestAppendWritesFileAndTail(t *testing.T) {
	j := newTestJournal(t)
	j.Info("session opened")
	j.Warn("slow request took %dms", 1200)

	tail := j.Tail(10)
	if len(tail) != 2 {
		t.Fatalf("tail has %d lines, want 2", len(tail))
	}
	if !strings.Contains(tail[0], "INFO") || !strings.Contains(tail[0], "session opened") {
		t.Fatalf("unexpected first line %q", tail[0])
	}
	if !strings.Contains(tail[1], "WARN") || !strings.Contains(tail[1], "1200ms") {
		t.Fatalf("unexpected second line %q", tail[1])
	}

	data, err := os.ReadFile(j.Path())
	if err != nil {
		t.Fatalf("read journal file: %v", err)
	}
	if !strings.Contains(string(data), "session opened") {
		t.Fatal("entries should persist to the backing file")
	}
}

func TestTailReturnsMostRecentLines(t *testing.T) {
	j := newTestJournal(t)
	j.Info("one")
	j.Info("two")
	j.Info("three")

	tail := j.Tail(2)
	if len(tail) != 2 {
		t.Fatalf("tail has %d lines, want 2", len(tail))
	}
	if !strings.Contains(tail[0], "two") || !strings.Contains(tail[1], "three") {
		t.Fatalf("tail should keep the newest lines, got %v", tail)
	}
}

func TestAppendSkipsBlankMessages(t *testing.T) {
	j := newTestJournal(t)
	j.Append(LevelInfo, "   ")
	if got := j.Tail(5); got != nil {
		t.Fatalf("blank entries should be dropped, got %v", got)
	}
}

func TestProgressDedupesConsecutiveStatus(t *testing.T) {
	j := newTestJournal(t)
	j.Progress("Loading leads…")
	j.Progress("Loading leads…")
	j.Progress("Loaded 12 lead(s)")
	j.Progress("Loading leads…")

	tail := j.Tail(10)
	if len(tail) != 3 {
		t.Fatalf("consecutive duplicates should collapse, got %d lines: %v", len(tail), tail)
	}
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	j.Info("ignored")
	j.Progress("ignored")
	if j.Tail(3) != nil || j.Path() != "" {
		t.Fatal("nil journal should be inert")
	}
}
