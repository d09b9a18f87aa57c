package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Names of the built-in themes accepted by Apply.
const (
	Default = "default"
	Mono    = "mono"
)

// Styles shared by every view. Apply rebuilds them.
var (
	// HeaderStyle is used for the top header bar and the application title.
	HeaderStyle lipgloss.Style

	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style

	// PanelStyle wraps overlay content such as help and forms.
	PanelStyle lipgloss.Style

	// ListItemStyle is the base style for items in a list.
	ListItemStyle lipgloss.Style

	// SelectedItemStyle highlights the currently focused list item.
	SelectedItemStyle lipgloss.Style

	// UnreadStyle marks notifications the user has not seen.
	UnreadStyle lipgloss.Style

	// MutedStyle renders secondary text: timestamps, descriptions, read rows.
	MutedStyle lipgloss.Style

	// ErrorStyle renders failures in the status bar.
	ErrorStyle lipgloss.Style

	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style
)

// monochrome is set while the Mono theme is active.
var monochrome bool

func init() {
	build(false)
}

// Apply switches the active theme. An empty name selects Default.
func Apply(name string) error {
	switch name {
	case "", Default:
		build(false)
	case Mono:
		build(true)
	default:
		return fmt.Errorf("unknown theme %q (want %q or %q)", name, Default, Mono)
	}
	return nil
}

func build(mono bool) {
	monochrome = mono
	color := func(c lipgloss.AdaptiveColor) lipgloss.TerminalColor {
		if mono {
			return lipgloss.NoColor{}
		}
		return c
	}

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(color(ColorWhite)).
		Background(color(ColorBlue)).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(color(ColorWhite)).
		Background(color(ColorSubtle)).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color(ColorBorder))

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(color(ColorBlue)).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(color(ColorBlue))

	UnreadStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(color(ColorYellow))

	MutedStyle = lipgloss.NewStyle().
		Foreground(color(ColorGray))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(color(ColorRed))

	HelpStyle = lipgloss.NewStyle().
		Foreground(color(ColorGray)).
		Italic(true)
}

// ConnectionStyle returns a color-coded style for a live channel
// indicator label.
func ConnectionStyle(label string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if monochrome {
		return base
	}

	switch label {
	case "live":
		return base.Foreground(ColorGreen)
	case "connecting":
		return base.Foreground(ColorYellow)
	case "reconnecting":
		return base.Foreground(ColorOrange)
	case "offline":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
