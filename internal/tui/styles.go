// pattern: Functional Core

package tui

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"

	"gitok/internal/status"
)

type Styles struct {
	flavor catppuccin.Flavor
}

func NewStyles(themeName string) *Styles {
	flavor := flavorFromName(themeName)
	return &Styles{flavor: flavor}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

func (s *Styles) color(c catppuccin.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex)
}

func (s *Styles) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Mauve()))
}

func (s *Styles) SubtitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Subtext0()))
}

func (s *Styles) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Overlay0()))
}

func (s *Styles) InfoStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Text()))
}

func (s *Styles) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Teal()))
}

func (s *Styles) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Red())).
		Bold(true)
}

func (s *Styles) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Green()))
}

// BadgeStyle renders the attention count.
func (s *Styles) BadgeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(s.color(s.flavor.Base())).
		Background(s.color(s.flavor.Peach()))
}

func (s *Styles) TabStyle(active bool) lipgloss.Style {
	if active {
		return lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(s.color(s.flavor.Base())).
			Background(s.color(s.flavor.Mauve()))
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(s.color(s.flavor.Subtext0()))
}

func (s *Styles) SeparatorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Surface1()))
}

// SeverityStyle colors a project marker by how urgent its state is.
func (s *Styles) SeverityStyle(p status.ProjectStatus) lipgloss.Style {
	var c catppuccin.Color
	switch status.Severity(p) {
	case 4:
		c = s.flavor.Red()
	case 3:
		c = s.flavor.Peach()
	case 2:
		c = s.flavor.Yellow()
	case 1:
		c = s.flavor.Green()
	default:
		c = s.flavor.Overlay0()
	}
	return lipgloss.NewStyle().Foreground(s.color(c)).Bold(true)
}

func (s *Styles) LogTimestampStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.color(s.flavor.Overlay0()))
}

func (s *Styles) LogScopeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.color(s.flavor.Lavender()))
}

func (s *Styles) LogLevelStyle(level string) lipgloss.Style {
	switch level {
	case "DEBUG":
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Overlay1()))
	case "WARN":
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Yellow())).Bold(true)
	case "ERROR":
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Red())).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Blue()))
	}
}
