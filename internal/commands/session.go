package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/diogo/walrus/internal/api"
	"github.com/diogo/walrus/internal/config"
	"github.com/diogo/walrus/internal/exchange"
	"github.com/diogo/walrus/internal/logging"
	"github.com/diogo/walrus/internal/metrics"
	"github.com/diogo/walrus/internal/store"
)

// session is everything one command invocation needs to run exchanges
type session struct {
	settings   config.Settings
	logger     *zap.Logger
	metrics    *metrics.Metrics
	client     api.AgentClientInterface
	controller *exchange.Controller
	cleanup    []func()
}

// openSession resolves settings and wires the client and controller.
// Config file problems are reported but do not stop the command.
func openSession(deps *Dependencies) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v (using defaults)\n", err)
	}

	settings, err := config.Resolve(cfg, overrides())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &session{
		settings: settings,
		metrics:  metrics.New(),
	}

	logger, flush := logging.NewOrNop(logging.Options{Verbose: settings.Verbose})
	s.logger = logger.With(zap.String("backend", settings.BackendURL))
	s.cleanup = append(s.cleanup, flush)

	client, err := deps.NewClient(settings, s.logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.client = client
	s.cleanup = append(s.cleanup, client.Close)

	s.controller = exchange.NewController(client, store.New(),
		exchange.WithLogger(s.logger),
		exchange.WithMetrics(s.metrics),
		exchange.WithAddress(settings.WalletAddress),
	)

	s.logger.Debug("session opened",
		zap.Bool("wallet_connected", settings.WalletAddress != ""),
		zap.Duration("timeout", settings.Timeout),
	)
	return s, nil
}

// Close releases the client and flushes the logger, newest first
func (s *session) Close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

// overrides collects the global flags
func overrides() config.Overrides {
	return config.Overrides{
		BackendURL:    backendFlag,
		WalletAddress: addressFlag,
		MetricsAddr:   metricsAddrFlag,
		Verbose:       verboseFlag,
	}
}
