// pattern: Imperative Shell

package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"gitok/internal/status"
)

// projectItem wraps a project for display in a list.
type projectItem struct {
	project status.ProjectStatus
}

// Title returns the directory name.
func (i projectItem) Title() string {
	return i.project.Name
}

// Description summarizes branch, state and last commit.
func (i projectItem) Description() string {
	p := i.project
	if !p.IsRepo {
		return status.Describe(p)
	}
	parts := []string{}
	if b := p.BranchName(); b != "" {
		parts = append(parts, b)
	} else {
		parts = append(parts, "detached")
	}
	parts = append(parts, status.Describe(p))
	if msg := p.CommitMessage(); msg != "" {
		parts = append(parts, msg)
	}
	return strings.Join(parts, " | ")
}

// FilterValue returns the value to filter on.
func (i projectItem) FilterValue() string {
	return i.project.Name
}

// projectDelegate renders one project on two lines.
type projectDelegate struct {
	styles *Styles
	now    func() time.Time
}

func newProjectDelegate(styles *Styles) projectDelegate {
	return projectDelegate{styles: styles, now: time.Now}
}

// Height returns the height of a single item.
func (d projectDelegate) Height() int {
	return 2
}

// Spacing returns the spacing between items.
func (d projectDelegate) Spacing() int {
	return 0
}

// Update handles item-specific updates.
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render renders a single project, truncated to the list width.
func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(projectItem)
	if !ok {
		return
	}
	p := pi.project
	selected := index == m.Index()
	width := m.Width()

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(d.styles.flavor.Text().Hex))
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(d.styles.flavor.Subtext0().Hex))
	indicator := "  "
	if selected {
		titleStyle = titleStyle.Bold(true).Foreground(lipgloss.Color(d.styles.flavor.Mauve().Hex))
		descStyle = descStyle.Foreground(lipgloss.Color(d.styles.flavor.Overlay0().Hex))
		indicator = lipgloss.NewStyle().
			Foreground(lipgloss.Color(d.styles.flavor.Mauve().Hex)).
			Render("▸ ")
	}

	marker := d.styles.SeverityStyle(p).Render(fmt.Sprintf("%-2s", status.Symbol(p)))

	title := titleStyle.Render(p.Name)
	if p.LastCommitTimestamp != nil {
		title += descStyle.Render("  " + humanize.RelTime(*p.LastCommitTimestamp, d.now(), "ago", "from now"))
	}

	line1 := indicator + marker + " " + title
	line2 := "     " + descStyle.Render(pi.Description())
	if width > 0 {
		line1 = ansi.Truncate(line1, width, "…")
		line2 = ansi.Truncate(line2, width, "…")
	}
	_, _ = fmt.Fprintf(w, "%s\n%s", line1, line2)
}

// toListItems converts projects to list items.
func toListItems(projects []status.ProjectStatus) []list.Item {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p}
	}
	return items
}
