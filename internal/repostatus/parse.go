// pattern: Functional Core

package repostatus

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// commitTimeLayout matches git's %ci placeholder.
const commitTimeLayout = "2006-01-02 15:04:05 -0700"

// ParseError reports git output that could not be interpreted.
// It is logged and never returned past the resolver.
type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s from %q: %v", e.Field, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseCount parses rev-list --count output.
func parseCount(out string) (uint, error) {
	s := strings.TrimSpace(out)
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, &ParseError{Field: "count", Input: s, Err: err}
	}
	return uint(n), nil
}

// parseLastCommit splits "subject|timestamp" output from git log.
// The separator is taken as the last '|' since the timestamp never
// contains one but a subject may. Empty output means no commits.
func parseLastCommit(out string) (*string, *time.Time, error) {
	out = strings.TrimRight(out, "\r\n")
	if out == "" {
		return nil, nil, nil
	}

	idx := strings.LastIndex(out, "|")
	if idx < 0 {
		msg := out
		return &msg, nil, &ParseError{Field: "commit", Input: out, Err: fmt.Errorf("missing separator")}
	}

	msg := out[:idx]
	raw := strings.TrimSpace(out[idx+1:])
	ts, err := time.Parse(commitTimeLayout, raw)
	if err != nil {
		return &msg, nil, &ParseError{Field: "timestamp", Input: raw, Err: err}
	}
	return &msg, &ts, nil
}
