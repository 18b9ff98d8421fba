// Package tui provides the terminal chat interface for walrus.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/render"
)

// Styles holds every lipgloss style of the chat screen
type Styles struct {
	Palette render.Palette

	Header   lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Hint     lipgloss.Style

	MessagesArea lipgloss.Style
	UserLabel    lipgloss.Style
	UserBubble   lipgloss.Style
	AgentLabel   lipgloss.Style
	AgentBubble  lipgloss.Style
	Pending      lipgloss.Style

	InputPanel    lipgloss.Style
	InputLabel    lipgloss.Style
	InputDisabled lipgloss.Style
	Loading       lipgloss.Style

	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusDesc lipgloss.Style

	Banner lipgloss.Style
	Notice lipgloss.Style
	Detail lipgloss.Style

	Welcome      lipgloss.Style
	WelcomeTitle lipgloss.Style
	WelcomeIcon  lipgloss.Style

	// config screen
	Panel         lipgloss.Style
	SectionTitle  lipgloss.Style
	MenuItem      lipgloss.Style
	MenuSelected  lipgloss.Style
	Cursor        lipgloss.Style
	Value         lipgloss.Style
	Enabled       lipgloss.Style
	Disabled      lipgloss.Style
	Path          lipgloss.Style
	Current       lipgloss.Style
	Feedback      lipgloss.Style
	FeedbackError lipgloss.Style
}

// NewStyles builds the chat styles from a palette
func NewStyles(p render.Palette) Styles {
	return Styles{
		Palette: p,

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(p.User).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(p.TextDim),

		Hint: lipgloss.NewStyle().
			Foreground(p.TextDim).
			Italic(true),

		MessagesArea: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Foreground(p.User).
			Bold(true).
			MarginLeft(4),

		UserBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.User).
			Padding(0, 1).
			MarginLeft(4),

		AgentLabel: lipgloss.NewStyle().
			Foreground(p.Agent).
			Bold(true),

		AgentBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Agent).
			Foreground(p.Text).
			Padding(0, 1).
			MarginRight(4),

		Pending: lipgloss.NewStyle().
			Foreground(p.TextDim).
			Italic(true),

		InputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),

		InputLabel: lipgloss.NewStyle().
			Foreground(p.User).
			Bold(true),

		InputDisabled: lipgloss.NewStyle().
			Foreground(p.TextDim),

		Loading: lipgloss.NewStyle().
			Foreground(p.Accent).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.TextDim),

		StatusKey: lipgloss.NewStyle().
			Foreground(p.Text).
			Bold(true),

		StatusDesc: lipgloss.NewStyle().
			Foreground(p.TextDim),

		Banner: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Error).
			Foreground(p.Error).
			Bold(true).
			Padding(0, 1),

		Notice: lipgloss.NewStyle().
			Foreground(p.Warning),

		Detail: lipgloss.NewStyle().
			Foreground(p.TextDim).
			PaddingLeft(2),

		Welcome: lipgloss.NewStyle().
			Foreground(p.TextDim).
			Align(lipgloss.Center),

		WelcomeTitle: lipgloss.NewStyle().
			Foreground(p.User).
			Bold(true).
			Align(lipgloss.Center),

		WelcomeIcon: lipgloss.NewStyle().
			Align(lipgloss.Center),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 2),

		SectionTitle: lipgloss.NewStyle().
			Foreground(p.Accent).
			Bold(true),

		MenuItem: lipgloss.NewStyle().
			Foreground(p.Text),

		MenuSelected: lipgloss.NewStyle().
			Foreground(p.User).
			Bold(true),

		Cursor: lipgloss.NewStyle().
			Foreground(p.User),

		Value: lipgloss.NewStyle().
			Foreground(p.Accent),

		Enabled: lipgloss.NewStyle().
			Foreground(p.Agent),

		Disabled: lipgloss.NewStyle().
			Foreground(p.TextDim),

		Path: lipgloss.NewStyle().
			Foreground(p.TextDim).
			Italic(true),

		Current: lipgloss.NewStyle().
			Foreground(p.Agent),

		Feedback: lipgloss.NewStyle().
			Foreground(p.Agent).
			PaddingLeft(2),

		FeedbackError: lipgloss.NewStyle().
			Foreground(p.Error).
			PaddingLeft(2),
	}
}

// FormatError returns a styled error with transport details when available
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	p := render.TokyoNightPalette
	errStyle := lipgloss.NewStyle().Foreground(p.Error)
	dimStyle := lipgloss.NewStyle().Foreground(p.TextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := errors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := errors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
	} else if errors.IsFallbackError(err) || errors.IsTransportError(err) {
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the agent backend is running and --backend points at it"))
	}

	return sb.String()
}
