package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// renderer is a TermRenderer plus the lock that serializes it; a
// TermRenderer must not Render concurrently.
type renderer struct {
	mu   sync.Mutex
	term *glamour.TermRenderer
}

// renderers holds one renderer per option set. The chat screen re-renders
// the streaming reply on every delta at the same options, so a renderer is
// built once and reused. Options is comparable and serves as the key.
var (
	renderersMu sync.Mutex
	renderers   = map[Options]*renderer{}
)

// rendererFor returns the shared renderer for opts. Build failures are not
// remembered, so a style file created later is picked up.
func rendererFor(opts Options) (*renderer, error) {
	renderersMu.Lock()
	defer renderersMu.Unlock()

	if r, ok := renderers[opts]; ok {
		return r, nil
	}
	term, err := newTermRenderer(opts)
	if err != nil {
		return nil, err
	}
	r := &renderer{term: term}
	renderers[opts] = r
	return r, nil
}

// newTermRenderer builds a TermRenderer. Style is a glamour standard style
// name or a path to a JSON style file.
func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	termOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		termOpts = append(termOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		termOpts = append(termOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(termOpts...)
}

// Markdown renders markdown content for terminal display
func Markdown(content string, opts Options) (string, error) {
	r, err := rendererFor(opts)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.term.Render(content)
}

// AgentText renders agent text, falling back to the raw text when the
// renderer cannot be built. Surrounding blank lines are trimmed.
func AgentText(content string, opts Options) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// Reset drops every cached renderer
func Reset() {
	renderersMu.Lock()
	renderers = map[Options]*renderer{}
	renderersMu.Unlock()
}

// Cached returns the number of option sets with a live renderer
func Cached() int {
	renderersMu.Lock()
	defer renderersMu.Unlock()
	return len(renderers)
}
