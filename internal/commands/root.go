// Package commands provides CLI commands for walrus.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	backendFlag     string
	addressFlag     string
	metricsAddrFlag string
	verboseFlag     bool

	// Root-only flags
	outputFlag string
	fileFlag   string
	rawFlag    bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd creates the walrus command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "walrus [prompt]",
		Short: "Terminal client for the Walrus onchain agent",
		Long: `walrus talks to a Walrus agent backend. Replies stream in as they are
produced; if the stream breaks, the whole reply is fetched in one request.

A wallet address is required before chatting. Pass --address, set
WALRUS_WALLET_ADDRESS, or run 'walrus config set wallet_address 0x...'.

Examples:
  walrus chat                           Start interactive chat
  walrus chat --address 0xabc...        Chat as a given wallet
  walrus "What is my balance?"          Send a single prompt
  walrus -f prompt.md                   Read prompt from file
  cat prompt.md | walrus                Read prompt from stdin
  walrus "Swap 1 ETH" -o reply.md       Save the reply to a file
  walrus config set backend_url http://localhost:8000`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "walrus %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if fileFlag != "" {
				data, err := os.ReadFile(fileFlag)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return runAsk(cmd.Context(), deps, string(data), rawFlag)
			}

			if len(args) > 0 {
				return runAsk(cmd.Context(), deps, args[0], rawFlag)
			}

			if hasStdin() {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return runAsk(cmd.Context(), deps, string(data), rawFlag)
			}

			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "", "Agent backend origin (e.g., http://localhost:8000)")
	cmd.PersistentFlags().StringVarP(&addressFlag, "address", "a", "", "Wallet address (0x...)")
	cmd.PersistentFlags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Write debug logs to ~/.walrus/logs")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save reply to file")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&rawFlag, "raw", false, "Print only the reply text, streaming it as it arrives")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps))
	cmd.AddCommand(NewAskCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(deps.Stdout, "walrus %s (built %s)\n", Version, BuildTime)
		},
	})

	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// hasStdin reports whether stdin is a pipe or file rather than a terminal
func hasStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
