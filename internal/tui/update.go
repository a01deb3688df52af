// pattern: Imperative Shell

package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gitok/internal/events"
	"gitok/internal/picker"
	"gitok/internal/status"
)

// scanDoneMsg is sent when a manual scan returns.
type scanDoneMsg struct {
	remote  bool
	applied bool
}

// pollingToggledMsg is sent after polling was switched.
type pollingToggledMsg struct {
	enabled bool
	err     error
}

// rootSetMsg is sent after a new root was applied.
type rootSetMsg struct {
	path string
	err  error
}

// clearStatusMsg is sent after a timed delay to clear the status bar.
type clearStatusMsg struct {
	message string
}

const statusClearDelay = 4 * time.Second

// Update handles incoming messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if m.picking {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)

	case events.ScanCompletedMsg:
		m.state = msg.State
		m.applyResult(msg.Result)
		if msg.Result.Warning != "" {
			m.setStatus(StatusError, msg.Result.Warning)
		}
		return m, nil

	case events.ScheduleChangedMsg:
		m.state = msg.State
		if msg.State.RootPath == nil {
			m.result = status.ScanResult{}
			m.hasResult = false
			m.refreshList()
		}
		return m, nil

	case events.WebListenURLMsg:
		m.webURL = msg.URL
		return m, nil

	case scanDoneMsg:
		m.scanning = false
		m.state = m.backend.State()
		if !msg.applied {
			m.setStatus(StatusInfo, "Scan skipped: one is already running or the root changed")
			return m, m.clearStatusAfter()
		}
		kind := "Local"
		if msg.remote {
			kind = "Full"
		}
		m.setStatus(StatusSuccess, kind+" check complete")
		return m, m.clearStatusAfter()

	case pollingToggledMsg:
		m.state = m.backend.State()
		if msg.err != nil {
			m.setStatus(StatusError, "Polling: "+msg.err.Error())
			return m, nil
		}
		if msg.enabled {
			m.setStatus(StatusSuccess, "Polling enabled")
		} else {
			m.setStatus(StatusSuccess, "Polling stopped")
		}
		return m, m.clearStatusAfter()

	case rootSetMsg:
		m.state = m.backend.State()
		if msg.err != nil {
			m.setStatus(StatusError, msg.err.Error())
			return m, nil
		}
		m.result = status.ScanResult{}
		m.hasResult = false
		m.refreshList()
		m.scanning = true
		m.setStatus(StatusLoading, "Scanning "+msg.path)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.statusSpinner, cmd = m.statusSpinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.scanning && m.hasResult && m.result.Root == m.state.Root() && !m.state.Running() {
			m.scanning = false
			if m.statusLevel == StatusLoading {
				m.clearStatus()
			}
		}
		return m, m.tick()

	case logEntriesMsg:
		for _, entry := range msg.entries {
			m.logTail = m.logTail.Push(entry)
		}
		if m.logs != nil {
			return m, consumeLogEntries(m.logs)
		}
		return m, nil

	case clearStatusMsg:
		if m.statusMessage == msg.message && m.statusLevel != StatusLoading {
			m.clearStatus()
		}
		return m, nil
	}

	if m.picking {
		return m.updatePicker(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r", "l":
		remote := msg.String() == "r"
		if m.state.Root() == "" {
			m.setStatus(StatusError, "No root selected (press o)")
			return m, nil
		}
		if m.scanning {
			return m, nil
		}
		m.scanning = true
		if remote {
			m.setStatus(StatusLoading, "Checking local and remote state...")
		} else {
			m.setStatus(StatusLoading, "Checking local state...")
		}
		return m, m.scan(remote)

	case "p":
		if m.state.Root() == "" {
			m.setStatus(StatusError, "No root selected (press o)")
			return m, nil
		}
		return m, m.togglePolling()

	case "tab":
		m.category = status.Categories[(int(m.category)+1)%len(status.Categories)]
		m.refreshList()
		return m, nil

	case "shift+tab":
		n := len(status.Categories)
		m.category = status.Categories[(int(m.category)+n-1)%n]
		m.refreshList()
		return m, nil

	case "1", "2", "3", "4", "5", "6":
		m.category = status.Categories[int(msg.String()[0]-'1')]
		m.refreshList()
		return m, nil

	case "s":
		m.sortMode = m.sortMode.Next()
		m.refreshList()
		return m, nil

	case "S":
		m.sortDesc = !m.sortDesc
		m.refreshList()
		return m, nil

	case "o":
		m.picking = true
		m.picker = picker.NewModel(m.state.Root())
		var cmd tea.Cmd
		if m.width > 0 {
			m.picker, cmd = m.picker.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		return m, tea.Batch(m.picker.Init(), cmd)

	case "L":
		m.logPanelOpen = !m.logPanelOpen
		m.resize()
		return m, nil

	case "esc":
		m.clearStatus()
		return m, nil
	}

	var cmd tea.Cmd
	m.projectList, cmd = m.projectList.Update(msg)
	return m, cmd
}

// updatePicker forwards msg to the embedded picker and applies its result.
func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if !m.picker.Done() {
		return m, cmd
	}

	m.picking = false
	path, ok := m.picker.Result()
	if !ok {
		m.setStatus(StatusInfo, "Root unchanged")
		return m, m.clearStatusAfter()
	}
	m.setStatus(StatusLoading, "Switching to "+path)
	return m, m.setRoot(path)
}

func (m *Model) resize() {
	layout := ComputeLayout(m.width, m.height, m.logPanelOpen)
	m.projectList.SetSize(layout.Content.Width, layout.Content.Height)
}

func (m Model) scan(remote bool) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		_, ok := backend.Scan(context.Background(), remote)
		return scanDoneMsg{remote: remote, applied: ok}
	}
}

func (m Model) togglePolling() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		enabled, err := backend.TogglePolling()
		return pollingToggledMsg{enabled: enabled, err: err}
	}
}

func (m Model) setRoot(path string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		root, err := backend.SetRoot(path)
		if err != nil {
			return rootSetMsg{err: fmt.Errorf("cannot use %s: %w", path, err)}
		}
		return rootSetMsg{path: root}
	}
}

func (m Model) clearStatusAfter() tea.Cmd {
	message := m.statusMessage
	return tea.Tick(statusClearDelay, func(time.Time) tea.Msg {
		return clearStatusMsg{message: message}
	})
}
