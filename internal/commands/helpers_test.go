package commands

import (
	"bytes"
	"context"
	"io"
	"testing"

	"go.uber.org/zap"

	"github.com/diogo/walrus/internal/api"
	"github.com/diogo/walrus/internal/config"
	"github.com/diogo/walrus/internal/exchange"
	"github.com/diogo/walrus/internal/render"
	"github.com/diogo/walrus/internal/tui"
)

const testAddress = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

type fakeTUI struct {
	called       bool
	configCalled bool
	opts   tui.ChatOptions
	state  exchange.State
	err    error
}

func (f *fakeTUI) RunChat(ctx context.Context, controller *exchange.Controller, opts tui.ChatOptions) error {
	f.called = true
	f.opts = opts
	f.state = controller.State()
	return f.err
}

func (f *fakeTUI) RunConfig() error {
	f.configCalled = true
	return f.err
}

type testEnv struct {
	deps     *Dependencies
	stdout   *bytes.Buffer
	stderr   *syncBuffer
	tui      *fakeTUI
	settings config.Settings
}

// newTestEnv isolates the config directory and environment, and serves
// exchanges from client
func newTestEnv(t *testing.T, client *api.MockAgentClient) *testEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvBackendURL, "")
	t.Setenv(config.EnvWalletAddress, "")
	t.Setenv(render.EnvStyle, render.StyleNoTTY)

	env := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &syncBuffer{},
		tui:    &fakeTUI{},
	}
	env.deps = &Dependencies{
		NewClient: func(settings config.Settings, logger *zap.Logger) (api.AgentClientInterface, error) {
			env.settings = settings
			return client, nil
		},
		TUI:    env.tui,
		Stdout: env.stdout,
		Stderr: env.stderr,
	}
	return env
}

// run executes the command tree with args
func (e *testEnv) run(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}
