// pattern: Functional Core

package scheduler

import "time"

// Phase is the scheduler's position in its lifecycle.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseArmed        Phase = "armed"
	PhaseRunningLocal Phase = "running-local"
	PhaseRunningFull  Phase = "running-full"
	PhaseStopped      Phase = "stopped"
)

// State is a snapshot of the scheduler for display.
type State struct {
	RootPath        *string    `json:"root_path"`
	CadenceEnabled  bool       `json:"cadence_enabled"`
	LastFullCheckAt *time.Time `json:"last_full_check_at"`
	NextCheckAt     *time.Time `json:"next_check_at"`
	Phase           Phase      `json:"phase"`
}

// Root returns the configured root or "".
func (s State) Root() string {
	if s.RootPath == nil {
		return ""
	}
	return *s.RootPath
}

// Running reports whether a scan is in flight.
func (s State) Running() bool {
	return s.Phase == PhaseRunningLocal || s.Phase == PhaseRunningFull
}

// earliest returns the earlier of two optional instants, ignoring zero values.
func earliest(a, b time.Time) *time.Time {
	switch {
	case a.IsZero() && b.IsZero():
		return nil
	case a.IsZero():
		return &b
	case b.IsZero(), a.Before(b):
		return &a
	default:
		return &b
	}
}
