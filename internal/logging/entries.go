// pattern: Functional Core

package logging

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// LogEntry is a parsed log line as shown in the TUI log footer.
type LogEntry struct {
	Timestamp time.Time
	Level     string // DEBUG, INFO, WARN, ERROR
	Scope     string // Logger scope (e.g. "scheduler", "scan")
	Message   string
	Fields    map[string]any // Remaining structured fields
}

// String renders the entry on one line with fields sorted by key.
func (e LogEntry) String() string {
	var sb strings.Builder
	sb.WriteString(e.Timestamp.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(e.Level)
	sb.WriteString(" [")
	sb.WriteString(e.Scope)
	sb.WriteString("] ")
	sb.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.Fields[k])
	}

	return sb.String()
}

// AtLeast reports whether the entry's level is at or above min.
func (e LogEntry) AtLeast(min string) bool {
	return levelRank(e.Level) >= levelRank(ParseLevel(min))
}

// ParseLevel normalizes a log level string to uppercase.
// Returns "INFO" for unknown levels.
func ParseLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return "DEBUG"
	case "info":
		return "INFO"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}

func levelRank(level string) int {
	switch level {
	case "DEBUG":
		return 0
	case "WARN":
		return 2
	case "ERROR":
		return 3
	default:
		return 1
	}
}

// Tail keeps the most recent entries up to a fixed capacity.
type Tail struct {
	entries []LogEntry
	limit   int
}

// NewTail creates a Tail holding at most limit entries.
func NewTail(limit int) Tail {
	if limit < 1 {
		limit = 1
	}
	return Tail{limit: limit}
}

// Push appends an entry, evicting the oldest when full.
func (t Tail) Push(e LogEntry) Tail {
	entries := append(slices.Clone(t.entries), e)
	if len(entries) > t.limit {
		entries = entries[len(entries)-t.limit:]
	}
	return Tail{entries: entries, limit: t.limit}
}

// Entries returns the buffered entries, oldest first.
func (t Tail) Entries() []LogEntry {
	return t.entries
}

// Last returns the newest entry, if any.
func (t Tail) Last() (LogEntry, bool) {
	if len(t.entries) == 0 {
		return LogEntry{}, false
	}
	return t.entries[len(t.entries)-1], true
}
