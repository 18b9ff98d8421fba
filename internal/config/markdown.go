package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diogo/walrus/internal/render"
)

// RenderOptions builds render options from the markdown settings.
// GLAMOUR_STYLE takes precedence over the configured style.
func (m MarkdownConfig) RenderOptions(width int) render.Options {
	opts := render.DefaultOptions()

	if m.Style != "" {
		opts.Style = m.Style
	}
	opts.EnableEmoji = m.EnableEmoji
	opts.PreserveNewLines = m.PreserveNewLines
	opts.TableWrap = m.TableWrap
	opts.InlineTableLinks = m.InlineTableLinks

	if style := os.Getenv(render.EnvStyle); style != "" {
		opts.Style = style
	}
	if width > 0 {
		opts.Width = width
	}

	return opts
}

// ValidateStyle accepts a standard style name or the path of an existing
// JSON style file
func ValidateStyle(style string) error {
	style = strings.TrimSpace(style)
	if render.IsStandardStyle(style) {
		return nil
	}
	if strings.EqualFold(filepath.Ext(style), ".json") {
		info, err := os.Stat(style)
		if err != nil {
			return fmt.Errorf("style file %q: %w", style, err)
		}
		if info.IsDir() {
			return fmt.Errorf("style file %q is a directory", style)
		}
		return nil
	}
	return fmt.Errorf("unknown style %q (valid: %s, or a path to a .json style file)",
		style, strings.Join(render.StandardStyles(), ", "))
}
