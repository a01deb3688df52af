// pattern: Imperative Shell

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gitok/internal/logging"
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

const helpText = "r: refresh • l: local • p: polling • tab: filter • s/S: sort • o: root • L: logs • q: quit"

// View renders the TUI.
func (m Model) View() string {
	if m.picking {
		return m.picker.View()
	}

	layout := ComputeLayout(m.width, m.height, m.logPanelOpen)

	parts := []string{
		m.renderHeader(layout),
		m.renderTabs(layout),
		m.renderContent(layout),
	}
	if layout.Logs.Height > 0 {
		parts = append(parts,
			m.styles.SeparatorStyle().Render(strings.Repeat("─", layout.Separator.Width)),
			m.renderLogPanel(layout),
		)
	}
	parts = append(parts, m.renderStatusBar(layout.StatusBar.Width))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader(layout Layout) string {
	badge, tooltip := status.Indicator(m.result.AttentionCount)

	line1 := m.styles.TitleStyle().Render("gitok")
	if badge != "" {
		line1 += " " + m.styles.BadgeStyle().Render(badge)
	}
	if m.hasResult {
		line1 += "  " + m.styles.SubtitleStyle().Render(tooltip)
	}

	root := m.state.Root()
	line2 := m.styles.SubtitleStyle().Render("No root selected, press o to choose one")
	if root != "" {
		line2 = m.styles.InfoStyle().Render(root)
	}
	if m.webURL != "" {
		line2 += m.styles.HelpStyle().Render("  " + m.webURL)
	}

	return truncateLines(layout.Header.Width, line1, line2)
}

// categoryLabel is the tab title for a category.
func categoryLabel(c status.Category) string {
	switch c {
	case status.NotRepo:
		return "Not repo"
	case status.Changes:
		return "Changes"
	case status.PendingPush:
		return "Pending push"
	case status.Behind:
		return "Behind"
	case status.Synced:
		return "Synced"
	default:
		return "All"
	}
}

func (m Model) renderTabs(layout Layout) string {
	counts := status.Count(m.result.Projects)
	tabs := make([]string, 0, len(status.Categories))
	for _, c := range status.Categories {
		label := fmt.Sprintf("%s %d", categoryLabel(c), counts[c])
		tabs = append(tabs, m.styles.TabStyle(c == m.category).Render(label))
	}
	sortInfo := m.styles.HelpStyle().Render(fmt.Sprintf("  sort: %s %s", m.sortMode, sortArrow(m.sortDesc)))
	return truncateLines(layout.Tabs.Width, strings.Join(tabs, " ")+sortInfo)
}

func sortArrow(desc bool) string {
	if desc {
		return "↓"
	}
	return "↑"
}

func (m Model) renderContent(layout Layout) string {
	box := lipgloss.NewStyle().Width(layout.Content.Width).Height(layout.Content.Height)

	switch {
	case m.state.Root() == "":
		return box.Render(m.styles.HelpStyle().Render("Press o to choose the folder that holds your projects."))
	case !m.hasResult:
		return box.Render(m.styles.HelpStyle().Render("Waiting for the first scan..."))
	case m.result.Warning != "":
		return box.Render(m.styles.ErrorStyle().Render("Cannot read root: " + m.result.Warning))
	case len(m.projectList.Items()) == 0 && len(m.result.Projects) == 0:
		return box.Render(m.styles.HelpStyle().Render("No directories found under the root."))
	case len(m.projectList.Items()) == 0:
		return box.Render(m.styles.HelpStyle().Render("No projects in this category."))
	}
	return box.Render(m.projectList.View())
}

// renderLogEntry formats a single log entry for display.
func (m Model) renderLogEntry(entry logging.LogEntry) string {
	ts := m.styles.LogTimestampStyle().Render(entry.Timestamp.Format("15:04:05"))
	level := m.styles.LogLevelStyle(entry.Level).Render(fmt.Sprintf("%-5s", entry.Level))
	scope := m.styles.LogScopeStyle().Render("[" + entry.Scope + "]")
	return fmt.Sprintf("%s %s %s %s", ts, level, scope, entry.Message)
}

func (m Model) renderLogPanel(layout Layout) string {
	entries := m.logTail.Entries()
	if n := layout.Logs.Height; len(entries) > n {
		entries = entries[len(entries)-n:]
	}

	lines := make([]string, 0, layout.Logs.Height)
	for _, e := range entries {
		lines = append(lines, m.renderLogEntry(e))
	}
	if len(lines) == 0 {
		lines = append(lines, m.styles.HelpStyle().Render("No log entries"))
	}

	return lipgloss.NewStyle().
		Height(layout.Logs.Height).
		Render(truncateLines(layout.Logs.Width, lines...))
}

func (m Model) renderStatusBar(width int) string {
	var statusText string
	switch m.statusLevel {
	case StatusLoading:
		statusText = m.statusSpinner.View() + " " + m.styles.InfoStyle().Render(m.statusMessage)
	case StatusSuccess:
		statusText = m.styles.SuccessStyle().Render("✓ " + m.statusMessage)
	case StatusError:
		statusText = m.styles.ErrorStyle().Render("✗ "+m.statusMessage) + m.styles.HelpStyle().Render(" (esc to clear)")
	default:
		if m.statusMessage != "" {
			statusText = m.styles.InfoStyle().Render(m.statusMessage)
		} else if m.state.Running() {
			statusText = m.statusSpinner.View() + " " + m.styles.InfoStyle().Render("Checking...")
		}
	}

	schedule := m.styles.AccentStyle().Render(scheduleSummary(m.state, m.now()))
	help := m.styles.HelpStyle().Render(helpText)

	left := statusText
	if left != "" {
		left += "  "
	}
	left += schedule

	spacer := width - lipgloss.Width(left) - lipgloss.Width(help)
	if spacer < 1 {
		return truncateLines(width, left)
	}
	return left + strings.Repeat(" ", spacer) + help
}

// scheduleSummary describes polling and check times on one line.
func scheduleSummary(st scheduler.State, now time.Time) string {
	parts := []string{"polling off"}
	if st.CadenceEnabled {
		parts[0] = "polling on"
	}
	if st.LastFullCheckAt != nil {
		parts = append(parts, "last full "+st.LastFullCheckAt.Format("15:04:05"))
	}
	if st.NextCheckAt != nil {
		wait := st.NextCheckAt.Sub(now).Round(time.Second)
		if wait <= 0 {
			parts = append(parts, "next now")
		} else {
			parts = append(parts, "next in "+wait.String())
		}
	}
	return strings.Join(parts, " • ")
}

// truncateLines cuts every line to width cells, keeping ANSI styling.
func truncateLines(width int, lines ...string) string {
	if width > 0 {
		for i, l := range lines {
			lines[i] = ansi.Truncate(l, width, "…")
		}
	}
	return strings.Join(lines, "\n")
}
