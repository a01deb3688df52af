// pattern: Imperative Shell

package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gitok/internal/logging"
	"gitok/internal/picker"
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

// logTailSize is how many log entries the model keeps for the panel.
const logTailSize = 200

// Backend is the set of host operations the TUI drives.
// *engine.Engine implements it.
type Backend interface {
	Scan(ctx context.Context, includeRemote bool) (status.ScanResult, bool)
	TogglePolling() (bool, error)
	SetRoot(path string) (string, error)
	State() scheduler.State
	Latest() (status.ScanResult, bool)
}

// StatusLevel is the severity of the status bar message.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusError
	StatusLoading
)

func (l StatusLevel) String() string {
	switch l {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusLoading:
		return "loading"
	default:
		return "info"
	}
}

// Model represents the TUI application state.
type Model struct {
	width  int
	height int
	styles *Styles

	backend Backend
	logs    <-chan logging.LogEntry
	now     func() time.Time

	result    status.ScanResult
	hasResult bool
	state     scheduler.State

	category    status.Category
	sortMode    status.SortMode
	sortDesc    bool
	projectList list.Model

	scanning      bool
	statusSpinner spinner.Model
	statusLevel   StatusLevel
	statusMessage string

	logTail      logging.Tail
	logPanelOpen bool

	picking bool
	picker  picker.Model

	webURL string
}

// NewModel creates a TUI model. logs may be nil.
func NewModel(theme string, backend Backend, logs <-chan logging.LogEntry) Model {
	styles := NewStyles(theme)

	projectList := list.New([]list.Item{}, newProjectDelegate(styles), 0, 0)
	projectList.SetShowTitle(false)
	projectList.SetShowStatusBar(false)
	projectList.SetFilteringEnabled(false)
	projectList.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle()

	m := Model{
		styles:        styles,
		backend:       backend,
		logs:          logs,
		now:           time.Now,
		sortDesc:      true,
		projectList:   projectList,
		statusSpinner: sp,
		logTail:       logging.NewTail(logTailSize),
		state:         backend.State(),
	}
	if latest, ok := backend.Latest(); ok {
		m.applyResult(latest)
	}
	return m
}

// Init returns the initial command to run.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick(), m.statusSpinner.Tick}
	if m.logs != nil {
		cmds = append(cmds, consumeLogEntries(m.logs))
	}
	return tea.Batch(cmds...)
}

type tickMsg struct {
	time time.Time
}

// tick refreshes relative times in the view.
func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{time: t}
	})
}

// logEntriesMsg delivers log entries from the logging channel.
type logEntriesMsg struct {
	entries []logging.LogEntry
}

// consumeLogEntries blocks for one entry, then drains what is buffered.
func consumeLogEntries(ch <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		first, ok := <-ch
		if !ok {
			return nil
		}
		entries := []logging.LogEntry{first}
		for {
			select {
			case e, ok := <-ch:
				if !ok {
					return logEntriesMsg{entries: entries}
				}
				entries = append(entries, e)
			default:
				return logEntriesMsg{entries: entries}
			}
		}
	}
}

// visibleProjects applies the current category and sort.
func (m Model) visibleProjects() []status.ProjectStatus {
	return status.Sort(status.Filter(m.result.Projects, m.category), m.sortMode, m.sortDesc)
}

// applyResult replaces the shown scan and keeps the cursor on the same
// project when it is still visible.
func (m *Model) applyResult(result status.ScanResult) {
	m.result = result
	m.hasResult = true
	m.refreshList()
}

func (m *Model) refreshList() {
	var selectedPath string
	if item, ok := m.projectList.SelectedItem().(projectItem); ok {
		selectedPath = item.project.Path
	}

	visible := m.visibleProjects()
	m.projectList.SetItems(toListItems(visible))

	for i, p := range visible {
		if p.Path == selectedPath {
			m.projectList.Select(i)
			return
		}
	}
	if m.projectList.Index() >= len(visible) {
		m.projectList.Select(max(len(visible)-1, 0))
	}
}

// SelectedProject returns the project under the cursor.
func (m Model) SelectedProject() (status.ProjectStatus, bool) {
	item, ok := m.projectList.SelectedItem().(projectItem)
	if !ok {
		return status.ProjectStatus{}, false
	}
	return item.project, true
}

func (m *Model) setStatus(level StatusLevel, msg string) {
	m.statusLevel = level
	m.statusMessage = msg
}

func (m *Model) clearStatus() {
	m.statusLevel = StatusInfo
	m.statusMessage = ""
}
