// pattern: Imperative Shell

// Package picker lets the user choose a root directory interactively.
package picker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Picker returns an absolute directory path chosen by the user.
// A cancelled pick reports ok=false with a nil error.
type Picker interface {
	Pick(ctx context.Context) (path string, ok bool, err error)
}

// Model is a directory-only file browser. It is embedded by the TUI and
// driven standalone by TerminalPicker.
//
// Keys: enter selects the highlighted directory, c selects the directory
// being browsed, q or ctrl+c cancels. Navigation keys are the
// filepicker's own.
type Model struct {
	fp        filepicker.Model
	chosen    string
	done      bool
	cancelled bool
}

// NewModel starts browsing at start, or the home directory when start is
// empty or unreadable.
func NewModel(start string) Model {
	fp := filepicker.New()
	fp.DirAllowed = true
	fp.FileAllowed = false
	fp.ShowHidden = false
	fp.AutoHeight = true
	fp.CurrentDirectory = startDir(start)
	return Model{fp: fp}
}

func startDir(start string) string {
	if start != "" {
		if abs, err := filepath.Abs(start); err == nil {
			if info, err := os.Stat(abs); err == nil && info.IsDir() {
				return abs
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// Init reads the starting directory.
func (m Model) Init() tea.Cmd {
	return m.fp.Init()
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			m.cancelled = true
			return m, nil
		case "c":
			m.done = true
			m.chosen = m.fp.CurrentDirectory
			return m, nil
		}
	}

	m.fp.Path = ""
	var cmd tea.Cmd
	m.fp, cmd = m.fp.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" && m.fp.Path != "" {
		if info, err := os.Stat(m.fp.Path); err == nil && info.IsDir() {
			m.done = true
			m.chosen = m.fp.Path
			return m, nil
		}
	}
	return m, cmd
}

// View renders the browser with its current directory above it.
func (m Model) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("Choose a root directory")
	dir := lipgloss.NewStyle().Faint(true).Render(m.fp.CurrentDirectory)
	help := lipgloss.NewStyle().Faint(true).Render("enter: choose highlighted • c: choose this directory • q: cancel")
	return strings.Join([]string{header, dir, "", m.fp.View(), help}, "\n")
}

// Done reports whether the user chose or cancelled.
func (m Model) Done() bool {
	return m.done
}

// Result returns the chosen path. ok is false until a directory was
// chosen, and stays false after a cancel.
func (m Model) Result() (string, bool) {
	if !m.done || m.cancelled {
		return "", false
	}
	return m.chosen, true
}

// CurrentDirectory returns the directory being browsed.
func (m Model) CurrentDirectory() string {
	return m.fp.CurrentDirectory
}

// program adapts Model to tea.Model for a standalone run.
type program struct {
	m Model
}

func (p program) Init() tea.Cmd {
	return p.m.Init()
}

func (p program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	p.m, cmd = p.m.Update(msg)
	if p.m.Done() {
		return p, tea.Quit
	}
	return p, cmd
}

func (p program) View() string {
	if p.m.Done() {
		return ""
	}
	return p.m.View()
}

// TerminalPicker runs the browser as its own full-screen program.
type TerminalPicker struct {
	Start   string
	Options []tea.ProgramOption
}

// Pick blocks until the user chooses or cancels, or ctx ends.
func (t TerminalPicker) Pick(ctx context.Context) (string, bool, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, t.Options...)
	final, err := tea.NewProgram(program{m: NewModel(t.Start)}, opts...).Run()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("run directory picker: %w", err)
	}

	p, ok := final.(program)
	if !ok {
		return "", false, nil
	}
	path, ok := p.m.Result()
	return path, ok, nil
}

// Func adapts a function to Picker.
type Func func(ctx context.Context) (string, bool, error)

// Pick calls f.
func (f Func) Pick(ctx context.Context) (string, bool, error) {
	return f(ctx)
}
