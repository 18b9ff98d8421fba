package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/diogo/walrus/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()

	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the Walrus agent.

Without a wallet address the input only accepts an address; type one
(or '/address 0x...') to connect. '/disconnect' clears it.
Type 'exit', 'quit', or press Esc to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps)
		},
	}
}

// runChat runs the TUI, plus the metrics endpoint when configured.
// The endpoint stops when the TUI exits.
func runChat(ctx context.Context, deps *Dependencies) error {
	s, err := openSession(deps)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if addr := s.settings.MetricsAddr; addr != "" {
		g.Go(func() error {
			return s.metrics.Serve(gctx, addr, s.logger)
		})
	}

	g.Go(func() error {
		defer cancel()
		s.logger.Info("chat started")
		err := deps.TUI.RunChat(gctx, s.controller, tui.ChatOptions{
			Backend: s.settings.BackendURL,
			Render:  s.settings.Markdown.RenderOptions(0),
		})
		s.logger.Info("chat ended", zap.Int("messages", s.controller.Store().Len()))
		return err
	})

	return g.Wait()
}
