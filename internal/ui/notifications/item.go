package notifications

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/theme"
)

// DateLayout is how creation timestamps are displayed.
const DateLayout = "02/01/2006 15:04"

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Title }

// Title returns the notification headline.
func (i Item) Title() string { return i.Notification.Title }

// Description returns the creation date and body on one line.
func (i Item) Description() string {
	parts := []string{}
	if when := formatDate(i.Notification); when != "" {
		parts = append(parts, when)
	}
	if d := strings.TrimSpace(i.Notification.Description); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " | ")
}

// formatDate renders CreatedAt in local time, or the raw value when it
// cannot be parsed.
func formatDate(n model.Notification) string {
	t := n.CreatedTime()
	if t.IsZero() {
		return n.CreatedAt
	}
	return t.Local().Format(DateLayout)
}

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws one notification: a marker and title, then the details.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	marker := " "
	title := n.Title
	if !n.Read {
		marker = theme.UnreadStyle.Render("●")
		title = theme.UnreadStyle.Render(title)
	} else {
		title = theme.MutedStyle.Render(title)
	}

	details := theme.MutedStyle.Render(truncate(it.Description(), m.Width()-6))
	line := fmt.Sprintf("%s %s\n  %s", marker, title, details)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
