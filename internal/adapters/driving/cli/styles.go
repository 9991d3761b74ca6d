package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// theme holds the colour palette used by command output.
type theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
}

func defaultTheme() *theme {
	return &theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
		Border:    lipgloss.Color("#45475A"), // Border gray
	}
}

// outputStyles contains pre-configured lipgloss styles.
type outputStyles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Panel   lipgloss.Style
}

func newOutputStyles(t *theme) *outputStyles {
	if t == nil {
		t = defaultTheme()
	}

	return &outputStyles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),

		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(t.Muted),

		Success: lipgloss.NewStyle().
			Foreground(t.Success),

		Warning: lipgloss.NewStyle().
			Foreground(t.Warning),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Error),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}

var styles = newOutputStyles(nil)

// statusBadge colours a pipeline or document status.
// Unknown statuses are returned unstyled.
func statusBadge(status string) string {
	switch status {
	case "active", "completed":
		return styles.Success.Render(status)
	case "paused", "pending", "processing":
		return styles.Warning.Render(status)
	case "error", "failed":
		return styles.Error.Render(status)
	default:
		return status
	}
}
