package commands

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/diogo/walrus/internal/api"
	"github.com/diogo/walrus/internal/config"
	"github.com/diogo/walrus/internal/exchange"
	"github.com/diogo/walrus/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, controller *exchange.Controller, opts tui.ChatOptions) error
	RunConfig() error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient builds the agent transport. Defaults to api.NewClient.
	NewClient func(settings config.Settings, logger *zap.Logger) (api.AgentClientInterface, error)

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Stdout receives answers, Stderr receives progress and errors.
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, controller *exchange.Controller, opts tui.ChatOptions) error {
	return tui.RunChat(ctx, controller, opts)
}

func (d *DefaultTUI) RunConfig() error {
	return tui.RunConfig()
}

// newAgentClient is the production NewClient
func newAgentClient(settings config.Settings, logger *zap.Logger) (api.AgentClientInterface, error) {
	client, err := api.NewClient(settings.BackendURL,
		api.WithTimeout(settings.Timeout),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient: newAgentClient,
		TUI:       &DefaultTUI{},
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// withDefaults fills unset fields so tests can override only what they need
func (d *Dependencies) withDefaults() *Dependencies {
	out := NewDependencies()
	if d == nil {
		return out
	}
	if d.NewClient != nil {
		out.NewClient = d.NewClient
	}
	if d.TUI != nil {
		out.TUI = d.TUI
	}
	if d.Stdout != nil {
		out.Stdout = d.Stdout
	}
	if d.Stderr != nil {
		out.Stderr = d.Stderr
	}
	return out
}
