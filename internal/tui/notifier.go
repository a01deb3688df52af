// pattern: Imperative Shell

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"gitok/internal/events"
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

// Notifier forwards scheduler output to a running program.
type Notifier struct {
	send func(tea.Msg)
}

// NewNotifier wraps a send function, usually tea.Program.Send.
func NewNotifier(send func(tea.Msg)) Notifier {
	return Notifier{send: send}
}

// Notify delivers an applied scan.
func (n Notifier) Notify(result status.ScanResult, state scheduler.State) {
	n.send(events.ScanCompletedMsg{Result: result, State: state})
}

// StateChanged delivers a schedule change that has no scan yet.
func (n Notifier) StateChanged(state scheduler.State) {
	n.send(events.ScheduleChangedMsg{State: state})
}
