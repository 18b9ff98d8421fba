package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/walrus/internal/config"
	"github.com/diogo/walrus/internal/render"
)

// recordingSave stands in for config.SaveConfig
type recordingSave struct {
	saved []config.Config
	err   error
}

func (r *recordingSave) save(cfg config.Config) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, cfg)
	return nil
}

func newTestConfigModel(t *testing.T) (ConfigModel, *recordingSave) {
	t.Helper()
	rec := &recordingSave{}
	m := newConfigModel(config.DefaultConfig(), "/home/test/.walrus/config.json", rec.save)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(ConfigModel), rec
}

func press(t *testing.T, m ConfigModel, keys ...tea.KeyMsg) (ConfigModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(k)
		m = updated.(ConfigModel)
	}
	return m, cmd
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

// menuIndex finds label in the settings menu
func menuIndex(t *testing.T, label string) int {
	t.Helper()
	for i, item := range configMenu {
		if item.label == label {
			return i
		}
	}
	t.Fatalf("no menu item %q", label)
	return -1
}

func TestNewConfigModel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m := NewConfigModel()

	assert.Equal(t, config.DefaultConfig(), m.config)
	assert.Contains(t, m.configPath, "config.json")
	assert.Equal(t, viewMain, m.view)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 2*time.Second, m.feedbackTimeout)
	assert.Empty(t, m.feedback)
	assert.Nil(t, m.Init())
	assert.Contains(t, m.View(), "Initializing")
}

func TestConfigModel_View(t *testing.T) {
	m, _ := newTestConfigModel(t)

	view := m.View()
	assert.Contains(t, view, "Walrus Settings")
	assert.Contains(t, view, "/home/test/.walrus/config.json")
	for _, item := range configMenu {
		assert.Contains(t, view, item.label)
	}
	assert.Contains(t, view, render.StyleDark)
	assert.Contains(t, view, "Navigate")
}

func TestConfigModel_Navigation(t *testing.T) {
	m, _ := newTestConfigModel(t)

	m, _ = press(t, m, keyUp)
	assert.Equal(t, len(configMenu)-1, m.cursor, "wraps to the bottom")

	m, _ = press(t, m, keyDown)
	assert.Equal(t, 0, m.cursor, "wraps to the top")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, m.cursor)
}

func TestConfigModel_Toggles(t *testing.T) {
	tests := []struct {
		label string
		get   func(config.Config) bool
	}{
		{"Verbose Logging", func(c config.Config) bool { return c.Verbose }},
		{"Copy to Clipboard", func(c config.Config) bool { return c.CopyToClipboard }},
		{"Emoji", func(c config.Config) bool { return c.Markdown.EnableEmoji }},
		{"Preserve Newlines", func(c config.Config) bool { return c.Markdown.PreserveNewLines }},
		{"Table Wrap", func(c config.Config) bool { return c.Markdown.TableWrap }},
		{"Inline Table Links", func(c config.Config) bool { return c.Markdown.InlineTableLinks }},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			m, rec := newTestConfigModel(t)
			m.cursor = menuIndex(t, tt.label)
			initial := tt.get(m.config)

			m, cmd := press(t, m, keyEnter)
			require.NotNil(t, cmd, "feedback is cleared later")
			require.Len(t, rec.saved, 1)
			assert.Equal(t, !initial, tt.get(rec.saved[0]))
			assert.Equal(t, !initial, tt.get(m.config))
			assert.Contains(t, m.feedback, tt.label)
			assert.False(t, m.feedbackErr)

			m, _ = press(t, m, keyEnter)
			require.Len(t, rec.saved, 2)
			assert.Equal(t, initial, tt.get(m.config))
		})
	}
}

func TestConfigModel_SaveFailure(t *testing.T) {
	m, rec := newTestConfigModel(t)
	rec.err = errors.New("read-only file system")
	m.cursor = menuIndex(t, "Verbose Logging")

	m, _ = press(t, m, keyEnter)

	assert.False(t, m.config.Verbose, "screen keeps what is on disk")
	assert.True(t, m.feedbackErr)
	assert.Contains(t, m.feedback, "read-only file system")
	assert.Contains(t, m.View(), "✗")
}

func TestConfigModel_StylePicker(t *testing.T) {
	m, rec := newTestConfigModel(t)
	m.cursor = menuIndex(t, "Markdown Style")

	m, cmd := press(t, m, keyEnter)
	assert.Nil(t, cmd)
	require.Equal(t, viewStyleSelect, m.view)
	assert.Equal(t, styleIndex(render.StyleDark), m.styleCursor)

	view := m.View()
	for _, style := range render.StandardStyles() {
		assert.Contains(t, view, style)
	}
	assert.Contains(t, view, "(current)")
	assert.Contains(t, view, "Back")

	m, _ = press(t, m, keyDown, keyEnter)

	want := render.StandardStyles()[styleIndex(render.StyleDark)+1]
	assert.Equal(t, viewMain, m.view)
	require.Len(t, rec.saved, 1)
	assert.Equal(t, want, rec.saved[0].Markdown.Style)
	assert.Equal(t, want, m.config.Markdown.Style)
	assert.Equal(t, render.PaletteFor(want), m.styles.Palette)
	assert.NoError(t, config.ValidateStyle(m.config.Markdown.Style))
}

func TestConfigModel_StylePickerWithCustomFile(t *testing.T) {
	rec := &recordingSave{}
	cfg := config.DefaultConfig()
	cfg.Markdown.Style = "/themes/mine.json"
	m := newConfigModel(cfg, "config.json", rec.save)

	assert.Equal(t, 0, m.styleCursor)

	// toggles do not revalidate a style the user already chose
	m.cursor = menuIndex(t, "Emoji")
	m, _ = press(t, m, keyEnter)
	require.Len(t, rec.saved, 1)
	assert.Equal(t, "/themes/mine.json", rec.saved[0].Markdown.Style)
}

func TestConfigModel_Escape(t *testing.T) {
	t.Run("from main view", func(t *testing.T) {
		m, _ := newTestConfigModel(t)
		_, cmd := press(t, m, keyEsc)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("from style picker", func(t *testing.T) {
		m, rec := newTestConfigModel(t)
		m.view = viewStyleSelect

		m, cmd := press(t, m, keyEsc)
		assert.Nil(t, cmd)
		assert.Equal(t, viewMain, m.view)
		assert.Empty(t, rec.saved)
	})
}

func TestConfigModel_Exit(t *testing.T) {
	m, rec := newTestConfigModel(t)
	m.cursor = menuIndex(t, "Exit")

	_, cmd := press(t, m, keyEnter)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, rec.saved)

	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestConfigModel_FeedbackClears(t *testing.T) {
	m, _ := newTestConfigModel(t)
	m.setFeedback("saved", true)

	updated, cmd := m.Update(feedbackClearMsg{})
	m = updated.(ConfigModel)

	assert.Nil(t, cmd)
	assert.Empty(t, m.feedback)
	assert.False(t, m.feedbackErr)
	assert.NotNil(t, clearFeedback(time.Millisecond))
}

func TestNewConfigModel_SavesToDisk(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m := NewConfigModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = updated.(ConfigModel)
	m.cursor = menuIndex(t, "Copy to Clipboard")

	_, _ = press(t, m, keyEnter)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.CopyToClipboard)
}
