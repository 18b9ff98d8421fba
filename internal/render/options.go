// Package render turns agent text into styled terminal output.
package render

// EnvStyle overrides the configured markdown style
const EnvStyle = "GLAMOUR_STYLE"

// Standard glamour styles accepted by Options.Style
const (
	StyleDark       = "dark"
	StyleLight      = "light"
	StyleDracula    = "dracula"
	StyleTokyoNight = "tokyo-night"
	StylePink       = "pink"
	StyleASCII      = "ascii"
	StyleNoTTY      = "notty"
)

// Options configures the markdown renderer
type Options struct {
	// Width is the word wrap column
	Width int

	// Style is a standard style name or a path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// WithWidth returns Options with the specified width
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// IsStandardStyle reports whether style names a glamour built-in
func IsStandardStyle(style string) bool {
	switch style {
	case StyleDark, StyleLight, StyleDracula, StyleTokyoNight, StylePink, StyleASCII, StyleNoTTY:
		return true
	default:
		return false
	}
}

// StandardStyles lists the built-in style names
func StandardStyles() []string {
	return []string{StyleDark, StyleLight, StyleDracula, StyleTokyoNight, StylePink, StyleASCII, StyleNoTTY}
}
