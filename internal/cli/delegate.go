// pattern: Imperative Shell

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gitok/internal/instance"
)

// Delegate discovers a running gitok instance and runs a command against
// it over HTTP.
type Delegate struct {
	// ConfigDir is the config directory for lock/port file discovery.
	ConfigDir string

	// ExitFunc is called to exit the process. Defaults to os.Exit.
	ExitFunc func(int)

	// Stderr is where error messages are written. Defaults to os.Stderr.
	Stderr io.Writer

	// ClientTimeout is the HTTP client timeout. Defaults to 10 seconds.
	ClientTimeout time.Duration
}

func (d *Delegate) defaults() {
	if d.ExitFunc == nil {
		d.ExitFunc = os.Exit
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.ClientTimeout == 0 {
		d.ClientTimeout = 10 * time.Second
	}
}

// Run invokes fn with a client for the running instance.
//
// Exit codes:
//   - 2: no running gitok instance found
//   - 1: any other error
//   - no exit call: success
func (d *Delegate) Run(fn func(*instance.Client) error) {
	d.defaults()

	baseURL, err := instance.Discover(ResolveDataDir(d.ConfigDir))
	if err != nil {
		fmt.Fprintf(d.Stderr, "error: %v\n", err)
		if errors.Is(err, instance.ErrNoInstance) {
			d.ExitFunc(2)
		} else {
			d.ExitFunc(1)
		}
		return
	}

	if err := fn(instance.NewClientWithTimeout(baseURL, d.ClientTimeout)); err != nil {
		var se *instance.StatusError
		if errors.As(err, &se) {
			fmt.Fprintf(d.Stderr, "error: %s\n", se.Message)
		} else {
			fmt.Fprintf(d.Stderr, "error: %v\n", err)
		}
		d.ExitFunc(1)
	}
}

// PrintJSON writes v to w, indented when w is a terminal.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			enc.SetIndent("", "  ")
		}
	}
	return enc.Encode(v)
}
