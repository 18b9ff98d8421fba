package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	apierrors "github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/exchange"
	"github.com/diogo/walrus/internal/models"
	"github.com/diogo/walrus/internal/render"
	"github.com/diogo/walrus/internal/store"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#e0af68")
	colorAgent    = lipgloss.Color("#9ece6a")
)

// Styles matching the chat TUI
var (
	agentLabelStyle = lipgloss.NewStyle().
			Foreground(colorAgent).
			Bold(true)

	agentBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorAgent).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// NewAskCmd creates the one-shot command
func NewAskCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a single prompt and print the reply",
		Long: `Send one prompt to the agent and print the reply.

The reply streams from /chat/stream. If the stream fails, the full reply is
fetched from /chat instead. With --raw the text is written to stdout as it
arrives, which suits pipes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), deps, args[0], rawFlag)
		},
	}
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save reply to file")
	cmd.Flags().BoolVar(&rawFlag, "raw", false, "Print only the reply text, streaming it as it arrives")
	return cmd
}

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setMessage swaps the label shown next to the animation
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// rawPrinter writes the agent's text to w as the log changes. Streamed
// deltas are written as suffixes of the reserved slot; a fallback reply
// arrives as a new message and is written whole on its own line.
type rawPrinter struct {
	w       io.Writer
	mu      sync.Mutex
	printed map[int]int
	any     bool
}

func newRawPrinter(w io.Writer) *rawPrinter {
	return &rawPrinter{w: w, printed: make(map[int]int)}
}

func (p *rawPrinter) observe(change store.Change) {
	if change.Message.Role != models.RoleAgent {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	text := change.Message.Text
	done := p.printed[change.Index]
	if len(text) <= done {
		return
	}
	if done == 0 && p.any {
		fmt.Fprintln(p.w)
	}
	fmt.Fprint(p.w, text[done:])
	p.printed[change.Index] = len(text)
	p.any = true
}

// lastAgentText returns the text of the newest non-empty agent message
func lastAgentText(msgs []models.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAgent && msgs[i].Text != "" {
			return msgs[i].Text
		}
	}
	return ""
}

// runAsk executes a single exchange and outputs the reply.
// If rawOutput is true, only the raw reply text is printed without decoration.
func runAsk(ctx context.Context, deps *Dependencies, prompt string, rawOutput bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	s, err := openSession(deps)
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.controller.State().Ready() {
		return fmt.Errorf("%w: pass --address or run 'walrus config set wallet_address 0x...'", exchange.ErrNotReady)
	}

	if s.settings.Verbose && !rawOutput {
		fmt.Fprintf(deps.Stderr, "[verbose] Backend: %s\n", s.settings.BackendURL)
	}

	// With --output the file gets the final text; nothing streams to stdout
	streamToStdout := rawOutput && outputFlag == ""
	if streamToStdout {
		unsubscribe := s.controller.Store().Subscribe(newRawPrinter(deps.Stdout).observe)
		defer unsubscribe()
	}

	var spin *spinner
	if !rawOutput {
		spin = newSpinner(deps.Stderr, "Waiting for Walrus")
		spin.start()
	}

	var fellBack atomic.Bool
	unsubscribe := s.controller.OnStateChange(func(st exchange.State) {
		switch st.Phase {
		case models.StateStreaming:
			if spin != nil && st.Deltas == 1 {
				spin.setMessage("Streaming reply")
			}
		case models.StateFallback:
			fellBack.Store(true)
			if spin != nil {
				spin.setMessage("Stream interrupted, fetching full reply")
			}
		}
	})
	defer unsubscribe()

	startTime := time.Now()
	err = s.controller.Submit(ctx, prompt)
	requestDuration := time.Since(startTime)

	if err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Exchange failed"))
		}
		return fmt.Errorf("exchange failed: %w", err)
	}

	text := lastAgentText(s.controller.Snapshot())

	if !rawOutput {
		if fellBack.Load() {
			spin.stopWithSuccess("Done (fallback)")
		} else {
			spin.stopWithSuccess("Done")
		}
	}

	if s.settings.Verbose && !rawOutput {
		fmt.Fprintf(deps.Stderr, "[verbose] Exchange took %s\n", requestDuration.Round(time.Millisecond))
	}

	if rawOutput {
		if outputFlag != "" {
			if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		fmt.Fprintln(deps.Stdout)
		return nil
	}

	fmt.Fprintln(deps.Stderr)

	if s.settings.CopyToClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			s.logger.Warn("clipboard copy failed", zap.Error(err))
			warnMsg := lipgloss.NewStyle().Foreground(colorWarning).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(deps.Stderr, warnMsg)
		} else {
			clipMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard")
			fmt.Fprintln(deps.Stderr, clipMsg)
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Reply saved to %s", outputFlag),
		)
		fmt.Fprintln(deps.Stderr, successMsg)
		return nil
	}

	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(deps.Stdout, agentLabelStyle.Render("🦭 Walrus"))

	rendered := render.AgentText(text, s.settings.Markdown.RenderOptions(contentWidth))
	fmt.Fprintln(deps.Stdout, agentBubbleStyle.Width(bubbleWidth).Render(rendered))

	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	// Show response body if available
	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
	} else {
		switch {
		case errors.Is(err, exchange.ErrNotReady):
			sb.WriteString(dimStyle.Render("\n  Hint: Pass --address or run 'walrus config set wallet_address 0x...'"))
		case apierrors.IsFallbackError(err), apierrors.IsTransportError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: " + exchange.BannerConnectFailed))
		case apierrors.IsDecodeError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: The backend sent a malformed reply"))
		}
	}

	return sb.String()
}
