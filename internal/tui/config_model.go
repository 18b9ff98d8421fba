package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/walrus/internal/config"
	"github.com/diogo/walrus/internal/render"
)

// configView is the screen shown by the config editor
type configView int

const (
	viewMain configView = iota
	viewStyleSelect
)

type menuKind int

const (
	menuToggle menuKind = iota
	menuStyle
	menuExit
)

// menuItem is one row of the settings menu. Toggles flip the bool that
// field points at.
type menuItem struct {
	kind  menuKind
	label string
	field func(*config.Config) *bool
}

var configMenu = []menuItem{
	{kind: menuToggle, label: "Verbose Logging", field: func(c *config.Config) *bool { return &c.Verbose }},
	{kind: menuToggle, label: "Copy to Clipboard", field: func(c *config.Config) *bool { return &c.CopyToClipboard }},
	{kind: menuStyle, label: "Markdown Style"},
	{kind: menuToggle, label: "Emoji", field: func(c *config.Config) *bool { return &c.Markdown.EnableEmoji }},
	{kind: menuToggle, label: "Preserve Newlines", field: func(c *config.Config) *bool { return &c.Markdown.PreserveNewLines }},
	{kind: menuToggle, label: "Table Wrap", field: func(c *config.Config) *bool { return &c.Markdown.TableWrap }},
	{kind: menuToggle, label: "Inline Table Links", field: func(c *config.Config) *bool { return &c.Markdown.InlineTableLinks }},
	{kind: menuExit, label: "Exit"},
}

// labelWidth aligns menu values into one column
const labelWidth = 20

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel edits the display settings in the config file
type ConfigModel struct {
	config     config.Config
	configPath string
	save       func(config.Config) error
	styles     Styles

	view        configView
	cursor      int
	styleCursor int

	feedback        string
	feedbackErr     bool
	feedbackTimeout time.Duration

	width  int
	height int
	ready  bool
}

// NewConfigModel loads the config file, falling back to defaults when it
// cannot be read
func NewConfigModel() ConfigModel {
	cfg, loadErr := config.LoadConfig()
	path, _ := config.GetConfigPath()

	m := newConfigModel(cfg, path, config.SaveConfig)
	if loadErr != nil {
		m.setFeedback(fmt.Sprintf("Using defaults: %v", loadErr), true)
	}
	return m
}

func newConfigModel(cfg config.Config, path string, save func(config.Config) error) ConfigModel {
	return ConfigModel{
		config:          cfg,
		configPath:      path,
		save:            save,
		styles:          NewStyles(render.PaletteFor(cfg.Markdown.Style)),
		view:            viewMain,
		styleCursor:     styleIndex(cfg.Markdown.Style),
		feedbackTimeout: 2 * time.Second,
	}
}

// styleIndex finds style among the standard styles; custom style files
// start the picker at the top
func styleIndex(style string) int {
	for i, s := range render.StandardStyles() {
		if s == style {
			return i
		}
	}
	return 0
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// clearFeedback returns a command that clears the feedback message after a delay
func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""
		m.feedbackErr = false

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.view == viewStyleSelect {
				m.view = viewMain
				return m, nil
			}
			return m, tea.Quit

		case "up", "k":
			m.move(-1)

		case "down", "j":
			m.move(1)

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

// move steps the active cursor, wrapping at both ends
func (m *ConfigModel) move(delta int) {
	if m.view == viewStyleSelect {
		n := len(render.StandardStyles())
		m.styleCursor = (m.styleCursor + delta + n) % n
		return
	}
	n := len(configMenu)
	m.cursor = (m.cursor + delta + n) % n
}

// handleSelect handles menu item selection
func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	if m.view == viewStyleSelect {
		style := render.StandardStyles()[m.styleCursor]
		m.view = viewMain
		return m.apply(func(c *config.Config) { c.Markdown.Style = style },
			fmt.Sprintf("Markdown style set to %s", style))
	}

	item := configMenu[m.cursor]
	switch item.kind {
	case menuStyle:
		m.styleCursor = styleIndex(m.config.Markdown.Style)
		m.view = viewStyleSelect
		return m, nil

	case menuExit:
		return m, tea.Quit
	}

	field := item.field
	enabled := !*field(&m.config)
	return m.apply(func(c *config.Config) { *field(c) = enabled },
		fmt.Sprintf("%s %s", item.label, boolWord(enabled)))
}

// apply changes the config and saves it. A failed save leaves the screen
// showing what is on disk.
func (m ConfigModel) apply(change func(*config.Config), done string) (tea.Model, tea.Cmd) {
	next := m.config
	change(&next)

	styleChanged := next.Markdown.Style != m.config.Markdown.Style
	if styleChanged {
		if err := config.ValidateStyle(next.Markdown.Style); err != nil {
			m.setFeedback(fmt.Sprintf("Error: %v", err), true)
			return m, clearFeedback(m.feedbackTimeout)
		}
	}
	if err := m.save(next); err != nil {
		m.setFeedback(fmt.Sprintf("Error: %v", err), true)
		return m, clearFeedback(m.feedbackTimeout)
	}

	if styleChanged {
		m.styles = NewStyles(render.PaletteFor(next.Markdown.Style))
	}
	m.config = next
	m.setFeedback(done, false)
	return m, clearFeedback(m.feedbackTimeout)
}

func (m *ConfigModel) setFeedback(text string, isErr bool) {
	m.feedback = text
	m.feedbackErr = isErr
}

func boolWord(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return m.styles.Loading.Render("  Initializing...")
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}

	sections := []string{
		m.styles.Header.Width(width).Render(m.styles.Title.Render("🦭 Walrus Settings")),
		m.styles.Panel.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
			m.styles.SectionTitle.Render("Paths"),
			"   Config: "+m.styles.Path.Render(m.configPath),
		)),
	}

	var settings string
	if m.view == viewStyleSelect {
		settings = m.renderStyleSelect()
	} else {
		settings = m.renderMainMenu()
	}
	sections = append(sections, m.styles.Panel.Width(width).Render(settings))

	if m.feedback != "" {
		if m.feedbackErr {
			sections = append(sections, m.styles.FeedbackError.Render("✗ "+m.feedback))
		} else {
			sections = append(sections, m.styles.Feedback.Render("✓ "+m.feedback))
		}
	}

	sections = append(sections, m.renderStatusBar(width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// row renders a menu line with the cursor marker when selected
func (m ConfigModel) row(selected bool, label, value string) string {
	cursor := "  "
	style := m.styles.MenuItem
	if selected {
		cursor = m.styles.Cursor.Render("▸ ")
		style = m.styles.MenuSelected
	}
	if value == "" {
		return cursor + style.Render(label)
	}
	return cursor + style.Width(labelWidth).Render(label) + value
}

func (m ConfigModel) renderMainMenu() string {
	lines := []string{m.styles.SectionTitle.Render("Settings"), ""}

	for i, item := range configMenu {
		var value string
		switch item.kind {
		case menuToggle:
			if *item.field(&m.config) {
				value = m.styles.Enabled.Render("enabled")
			} else {
				value = m.styles.Disabled.Render("disabled")
			}
		case menuStyle:
			style := m.config.Markdown.Style
			if style == "" {
				style = render.StyleDark
			}
			value = m.styles.Value.Render(style)
		case menuExit:
			lines = append(lines, "")
		}
		lines = append(lines, m.row(i == m.cursor, item.label, value))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m ConfigModel) renderStyleSelect() string {
	lines := []string{m.styles.SectionTitle.Render("Select Markdown Style"), ""}

	for i, style := range render.StandardStyles() {
		line := m.row(i == m.styleCursor, style, "")
		if style == m.config.Markdown.Style {
			line += m.styles.Current.Render(" (current)")
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m ConfigModel) renderStatusBar(width int) string {
	back := "Exit"
	if m.view == viewStyleSelect {
		back = "Back"
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"↑↓", "Navigate"},
		{"Enter", "Select"},
		{"Esc", back},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, m.styles.StatusKey.Render(s.key)+m.styles.StatusDesc.Render(" "+s.desc))
	}

	return m.styles.StatusBar.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunConfig starts the config editor and blocks until the user quits
func RunConfig() error {
	p := tea.NewProgram(NewConfigModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
