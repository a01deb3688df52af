// pattern: Functional Core

package tui

// Region defines a rectangular area within the terminal.
type Region struct {
	X      int // Left position (0-indexed)
	Y      int // Top position (0-indexed)
	Width  int // Width in cells
	Height int // Height in lines
}

// Layout holds computed regions for all UI components.
type Layout struct {
	Header    Region // Title, root and badge (2 lines)
	Tabs      Region // Category tabs (1 line)
	Content   Region // Project list (dynamic)
	Separator Region // Rule above the log panel (1 line when open)
	Logs      Region // Log panel when open
	StatusBar Region // Status bar (1 line)
}

// Fixed heights for chrome elements
const (
	headerHeight    = 2
	tabsHeight      = 1
	statusBarHeight = 1
	separatorHeight = 1
	minLogsHeight   = 3
	maxLogsHeight   = 10
)

// ComputeLayout calculates regions based on terminal dimensions.
// The log panel takes a third of the free height, between minLogsHeight
// and maxLogsHeight lines.
func ComputeLayout(width, height int, logPanelOpen bool) Layout {
	available := height - headerHeight - tabsHeight - statusBarHeight
	if available < 4 {
		available = 4
	}

	var logsHeight int
	if logPanelOpen {
		logsHeight = min(max(available/3, minLogsHeight), maxLogsHeight)
		if available-logsHeight-separatorHeight < 2 {
			logsHeight = 0
		}
	}

	contentHeight := available
	if logsHeight > 0 {
		contentHeight -= logsHeight + separatorHeight
	}

	y := 0
	header := Region{X: 0, Y: y, Width: width, Height: headerHeight}
	y += headerHeight

	tabs := Region{X: 0, Y: y, Width: width, Height: tabsHeight}
	y += tabsHeight

	content := Region{X: 0, Y: y, Width: width, Height: contentHeight}
	y += contentHeight

	var separator, logs Region
	if logsHeight > 0 {
		separator = Region{X: 0, Y: y, Width: width, Height: separatorHeight}
		y += separatorHeight
		logs = Region{X: 0, Y: y, Width: width, Height: logsHeight}
		y += logsHeight
	}

	return Layout{
		Header:    header,
		Tabs:      tabs,
		Content:   content,
		Separator: separator,
		Logs:      logs,
		StatusBar: Region{X: 0, Y: y, Width: width, Height: statusBarHeight},
	}
}
