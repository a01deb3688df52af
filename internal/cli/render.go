// pattern: Functional Core

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"gitok/internal/scheduler"
	"gitok/internal/status"
	"gitok/internal/tui"
)

// renderScan prints the projects of result in category c as a table,
// preceded by the attention line.
func renderScan(w io.Writer, styles *tui.Styles, result status.ScanResult, c status.Category, now time.Time) {
	_, tooltip := status.Indicator(result.AttentionCount)
	header := styles.TitleStyle().Render(result.Root)
	fmt.Fprintf(w, "%s  %s\n", header, styles.SubtitleStyle().Render(tooltip))

	if result.Warning != "" {
		fmt.Fprintln(w, styles.ErrorStyle().Render("warning: "+result.Warning))
		return
	}

	projects := status.Filter(result.Projects, c)
	if len(projects) == 0 {
		fmt.Fprintln(w, styles.HelpStyle().Render("no projects"))
		return
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			status.Symbol(p),
			p.Name,
			p.BranchName(),
			status.Describe(p),
			lastCommit(p, now),
		})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("", "PROJECT", "BRANCH", "STATE", "LAST COMMIT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().PaddingRight(1)
			if row == table.HeaderRow {
				return base.Inherit(styles.HelpStyle())
			}
			if col == 0 || col == 3 {
				return base.Inherit(styles.SeverityStyle(projects[row]))
			}
			return base
		})
	fmt.Fprintln(w, t.String())
}

func lastCommit(p status.ProjectStatus, now time.Time) string {
	if p.LastCommitTimestamp == nil {
		return ""
	}
	rel := humanize.RelTime(*p.LastCommitTimestamp, now, "ago", "from now")
	if msg := p.CommitMessage(); msg != "" {
		return rel + "  " + truncate(msg, 50)
	}
	return rel
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderState prints the schedule of a running instance.
func renderState(w io.Writer, st scheduler.State, now time.Time) {
	root := st.Root()
	if root == "" {
		root = "(none)"
	}
	lines := []string{
		"root:      " + root,
		"phase:     " + string(st.Phase),
		"polling:   " + onOff(st.CadenceEnabled),
	}
	if st.LastFullCheckAt != nil {
		lines = append(lines, "last full: "+humanize.RelTime(*st.LastFullCheckAt, now, "ago", "from now"))
	}
	if st.NextCheckAt != nil {
		lines = append(lines, "next:      "+humanize.RelTime(*st.NextCheckAt, now, "ago", "from now"))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
