// pattern: Functional Core

package logging

import (
	"strings"
	"testing"
	"time"
)

func TestLogEntry_String(t *testing.T) {
	entry := LogEntry{
		Timestamp: time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC),
		Level:     "WARN",
		Scope:     "scan",
		Message:   "root unreadable",
		Fields:    map[string]any{"root": "/missing", "error": "no such file"},
	}

	got := entry.String()
	want := "10:30:00 WARN [scan] root unreadable error=no such file root=/missing"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLogEntry_AtLeast(t *testing.T) {
	tests := []struct {
		level string
		min   string
		want  bool
	}{
		{"ERROR", "warn", true},
		{"WARN", "warn", true},
		{"INFO", "warn", false},
		{"DEBUG", "info", false},
		{"INFO", "bogus", true},
	}
	for _, tt := range tests {
		e := LogEntry{Level: tt.level}
		if got := e.AtLeast(tt.min); got != tt.want {
			t.Errorf("LogEntry{%s}.AtLeast(%q) = %v, want %v", tt.level, tt.min, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"error":   "ERROR",
		"trace":   "INFO",
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTail(t *testing.T) {
	tail := NewTail(2)
	if _, ok := tail.Last(); ok {
		t.Fatal("Last() on empty tail should report false")
	}

	for _, msg := range []string{"a", "b", "c"} {
		tail = tail.Push(LogEntry{Message: msg})
	}

	entries := tail.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	var msgs []string
	for _, e := range entries {
		msgs = append(msgs, e.Message)
	}
	if strings.Join(msgs, ",") != "b,c" {
		t.Errorf("Entries() = %v, want [b c]", msgs)
	}
	if last, _ := tail.Last(); last.Message != "c" {
		t.Errorf("Last() = %q, want %q", last.Message, "c")
	}
}
