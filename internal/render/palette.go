package render

import "github.com/charmbracelet/lipgloss"

// Palette is the color scheme of the chat screen
type Palette struct {
	Name string

	Border  lipgloss.Color
	User    lipgloss.Color
	Agent   lipgloss.Color
	Accent  lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var (
	// TokyoNightPalette pairs with the dark and tokyo-night markdown styles
	TokyoNightPalette = Palette{
		Name:    "tokyonight",
		Border:  lipgloss.Color("#414868"),
		User:    lipgloss.Color("#7aa2f7"),
		Agent:   lipgloss.Color("#9ece6a"),
		Accent:  lipgloss.Color("#bb9af7"),
		Warning: lipgloss.Color("#e0af68"),
		Error:   lipgloss.Color("#f7768e"),
		Text:    lipgloss.Color("#c0caf5"),
		TextDim: lipgloss.Color("#565f89"),
	}

	// DraculaPalette pairs with the dracula and pink styles
	DraculaPalette = Palette{
		Name:    "dracula",
		Border:  lipgloss.Color("#6272a4"),
		User:    lipgloss.Color("#8be9fd"),
		Agent:   lipgloss.Color("#50fa7b"),
		Accent:  lipgloss.Color("#ff79c6"),
		Warning: lipgloss.Color("#f1fa8c"),
		Error:   lipgloss.Color("#ff5555"),
		Text:    lipgloss.Color("#f8f8f2"),
		TextDim: lipgloss.Color("#6272a4"),
	}

	// LightPalette is for bright terminals
	LightPalette = Palette{
		Name:    "light",
		Border:  lipgloss.Color("#d0d7de"),
		User:    lipgloss.Color("#0969da"),
		Agent:   lipgloss.Color("#1a7f37"),
		Accent:  lipgloss.Color("#8250df"),
		Warning: lipgloss.Color("#9a6700"),
		Error:   lipgloss.Color("#cf222e"),
		Text:    lipgloss.Color("#1f2328"),
		TextDim: lipgloss.Color("#656d76"),
	}
)

// PaletteFor picks the palette matching a markdown style
func PaletteFor(style string) Palette {
	switch style {
	case StyleLight:
		return LightPalette
	case StyleDracula, StylePink:
		return DraculaPalette
	default:
		return TokyoNightPalette
	}
}
