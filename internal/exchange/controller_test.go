package exchange

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/diogo/walrus/internal/api"
	apierrors "github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/metrics"
	"github.com/diogo/walrus/internal/models"
	"github.com/diogo/walrus/internal/store"
)

func newTestController(client *api.MockAgentClient, opts ...Option) *Controller {
	opts = append([]Option{WithAddress("0xabc"), WithIDGenerator(func() string { return "ex-1" })}, opts...)
	return NewController(client, store.New(), opts...)
}

func assertLog(t *testing.T, want, got []models.Message) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("message log mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitStreamed(t *testing.T) {
	client := &api.MockAgentClient{Deltas: []string{"Hi", "there"}}
	c := newTestController(client)

	require.NoError(t, c.Submit(context.Background(), "hello"))

	assertLog(t, []models.Message{
		models.UserMessage("hello"),
		models.AgentMessage("Hithere"),
	}, c.Snapshot())

	s := c.State()
	assert.Equal(t, models.StateCompleted, s.Phase)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Equal(t, 1, s.AgentIndex)
	assert.Equal(t, 2, s.Deltas)
	assert.Equal(t, "ex-1", s.ExchangeID)

	assert.Equal(t, []string{"hello"}, client.StreamPrompts())
	assert.Empty(t, client.SendPrompts())
}

func TestSubmitFallbackAfterImmediateFailure(t *testing.T) {
	client := &api.MockAgentClient{
		StreamErr: apierrors.NewTransportError("stream chat", "http://localhost:8001/chat/stream", errors.New("connection refused")),
		SendVal:   "$5",
	}
	c := newTestController(client)

	require.NoError(t, c.Submit(context.Background(), "price?"))

	assertLog(t, []models.Message{
		models.UserMessage("price?"),
		models.AgentMessage(""),
		models.AgentMessage("$5"),
	}, c.Snapshot())

	s := c.State()
	assert.Equal(t, models.StateCompleted, s.Phase)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Equal(t, []string{"price?"}, client.SendPrompts())
}

func TestSubmitFallbackAfterPartialStream(t *testing.T) {
	client := &api.MockAgentClient{
		Deltas:    []string{"Your bal", "ance"},
		StreamErr: apierrors.NewDecodeError([]byte{0xff}, nil),
		SendVal:   "Your balance is $5",
	}
	c := newTestController(client)

	require.NoError(t, c.Submit(context.Background(), "balance?"))

	assertLog(t, []models.Message{
		models.UserMessage("balance?"),
		models.AgentMessage("Your balance"),
		models.AgentMessage("Your balance is $5"),
	}, c.Snapshot())
	assert.Len(t, client.SendPrompts(), 1)
}

func TestSubmitWhitespaceIsNoop(t *testing.T) {
	for _, prompt := range []string{"", "  ", "\n\t "} {
		client := &api.MockAgentClient{Deltas: []string{"x"}}
		c := newTestController(client)
		version := c.Store().Version()

		require.NoError(t, c.Submit(context.Background(), prompt))

		assert.Empty(t, c.Snapshot())
		assert.Equal(t, version, c.Store().Version())
		assert.Equal(t, models.StateIdle, c.State().Phase)
		assert.Empty(t, client.StreamPrompts())
		assert.Empty(t, client.SendPrompts())
	}
}

func TestSubmitFallbackFails(t *testing.T) {
	sendErr := apierrors.NewTransportError("send chat", "http://localhost:8001/chat", errors.New("connection refused"))
	client := &api.MockAgentClient{
		StreamErr: errors.New("connection refused"),
		SendErr:   sendErr,
	}
	c := newTestController(client)

	err := c.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, apierrors.IsFallbackError(err))
	assert.ErrorIs(t, err, sendErr)

	assertLog(t, []models.Message{
		models.UserMessage("hello"),
		models.AgentMessage(""),
	}, c.Snapshot())

	s := c.State()
	assert.Equal(t, models.StateFailed, s.Phase)
	assert.False(t, s.Loading)
	assert.Equal(t, BannerConnectFailed, s.Error)
	assert.Len(t, client.SendPrompts(), 1)
}

func TestSubmitNotReady(t *testing.T) {
	client := &api.MockAgentClient{Deltas: []string{"x"}}
	c := NewController(client, store.New())

	assert.False(t, c.InputEnabled())
	err := c.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, c.Snapshot())
	assert.Empty(t, client.StreamPrompts())

	c.SetAddress("0xabc")
	assert.True(t, c.InputEnabled())
	require.NoError(t, c.Submit(context.Background(), "hello"))
	assert.Len(t, c.Snapshot(), 2)
}

func TestSubmitWhileBusy(t *testing.T) {
	client := &api.MockAgentClient{Deltas: []string{"a", "b"}}
	c := newTestController(client)

	var busyErr error
	var canSubmit bool
	client.BeforeDelta = func(i int) {
		if i == 1 {
			busyErr = c.Submit(context.Background(), "second")
			canSubmit = c.CanSubmit("second")
		}
	}

	require.NoError(t, c.Submit(context.Background(), "first"))
	assert.ErrorIs(t, busyErr, ErrBusy)
	assert.False(t, canSubmit)
	assert.Equal(t, []string{"first"}, client.StreamPrompts())

	assertLog(t, []models.Message{
		models.UserMessage("first"),
		models.AgentMessage("ab"),
	}, c.Snapshot())
}

func TestSubmitAppendsUserMessageBeforeNetwork(t *testing.T) {
	client := &api.MockAgentClient{Deltas: []string{"x"}}
	c := newTestController(client)

	var seen []models.Message
	client.BeforeDelta = func(int) {
		seen = c.Snapshot()
	}

	require.NoError(t, c.Submit(context.Background(), "hello"))
	assertLog(t, []models.Message{
		models.UserMessage("hello"),
		models.AgentMessage(""),
	}, seen)
}

func TestSubmitSequentialExchanges(t *testing.T) {
	client := &api.MockAgentClient{Deltas: []string{"ok"}}
	c := newTestController(client)

	require.NoError(t, c.Submit(context.Background(), "one"))
	require.NoError(t, c.Submit(context.Background(), "two"))

	assertLog(t, []models.Message{
		models.UserMessage("one"),
		models.AgentMessage("ok"),
		models.UserMessage("two"),
		models.AgentMessage("ok"),
	}, c.Snapshot())
	assert.Equal(t, 3, c.State().AgentIndex)
}

func TestSubmitClearsPreviousError(t *testing.T) {
	client := &api.MockAgentClient{StreamErr: errors.New("down"), SendErr: errors.New("down")}
	c := newTestController(client)

	require.Error(t, c.Submit(context.Background(), "one"))
	assert.Equal(t, BannerConnectFailed, c.State().Error)

	client.StreamErr = nil
	client.SendErr = nil
	client.Deltas = []string{"back"}

	var sawCleared bool
	client.BeforeDelta = func(int) {
		s := c.State()
		sawCleared = s.Error == "" && s.Loading
	}
	require.NoError(t, c.Submit(context.Background(), "two"))
	assert.True(t, sawCleared)
	assert.Empty(t, c.State().Error)
}

func TestStoreObserversSeeEveryDelta(t *testing.T) {
	client := &api.MockAgentClient{Deltas: []string{"a", "b", "c"}}
	c := newTestController(client)

	var texts []string
	unsubscribe := c.Store().Subscribe(func(ch store.Change) {
		if ch.Kind == store.ChangeReplace {
			texts = append(texts, ch.Message.Text)
		}
	})
	defer unsubscribe()

	require.NoError(t, c.Submit(context.Background(), "hello"))
	assert.Equal(t, []string{"a", "ab", "abc"}, texts)
}

func TestOnStateChange(t *testing.T) {
	client := &api.MockAgentClient{StreamErr: errors.New("reset"), SendVal: "done"}
	c := newTestController(client)

	var phases []models.ExchangeState
	unsubscribe := c.OnStateChange(func(s State) {
		phases = append(phases, s.Phase)
	})

	require.NoError(t, c.Submit(context.Background(), "hello"))
	assert.Equal(t, []models.ExchangeState{
		models.StateSending,
		models.StateStreaming,
		models.StateStreamFailed,
		models.StateFallback,
		models.StateCompleted,
	}, phases)

	unsubscribe()
	c.SetInput("ignored")
	assert.Len(t, phases, 5)
}

func TestCanSubmit(t *testing.T) {
	c := newTestController(&api.MockAgentClient{})

	assert.True(t, c.CanSubmit("hello"))
	assert.False(t, c.CanSubmit("   "))

	c.SetAddress("")
	assert.False(t, c.CanSubmit("hello"))
}

func TestSetInput(t *testing.T) {
	c := newTestController(&api.MockAgentClient{Deltas: []string{"x"}})

	c.SetInput("draft")
	assert.Equal(t, "draft", c.State().Input)

	require.NoError(t, c.Submit(context.Background(), "draft"))
	assert.Empty(t, c.State().Input)
}

func TestSubmitMetrics(t *testing.T) {
	m := metrics.New()

	streamed := newTestController(&api.MockAgentClient{Deltas: []string{"a", "b"}}, WithMetrics(m))
	require.NoError(t, streamed.Submit(context.Background(), "one"))

	fallback := newTestController(&api.MockAgentClient{StreamErr: errors.New("x"), SendVal: "y"}, WithMetrics(m))
	require.NoError(t, fallback.Submit(context.Background(), "two"))

	failed := newTestController(&api.MockAgentClient{StreamErr: errors.New("x"), SendErr: errors.New("y")}, WithMetrics(m))
	require.Error(t, failed.Submit(context.Background(), "three"))

	expected := `
# HELP walrus_exchanges_total Finished exchanges by outcome.
# TYPE walrus_exchanges_total counter
walrus_exchanges_total{outcome="failed"} 1
walrus_exchanges_total{outcome="fallback"} 1
walrus_exchanges_total{outcome="streamed"} 1
# HELP walrus_fallbacks_total Fallback requests issued after a stream failure.
# TYPE walrus_fallbacks_total counter
walrus_fallbacks_total 2
# HELP walrus_stream_deltas_total Deltas applied from the chunked transport.
# TYPE walrus_stream_deltas_total counter
walrus_stream_deltas_total 2
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"walrus_exchanges_total", "walrus_fallbacks_total", "walrus_stream_deltas_total")
	assert.NoError(t, err)
}

func TestSubmitLogsExchangeID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := &api.MockAgentClient{StreamErr: errors.New("reset"), SendVal: "ok"}
	c := newTestController(client, WithLogger(zap.New(core)))

	require.NoError(t, c.Submit(context.Background(), "hello"))

	entries := logs.All()
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.Equal(t, "ex-1", entry.ContextMap()["exchange_id"], entry.Message)
	}
	assert.Equal(t, 1, logs.FilterMessage("stream failed, falling back").Len())
	assert.Equal(t, 1, logs.FilterMessage("exchange completed").Len())
}

func TestDefaultIDGenerator(t *testing.T) {
	c := NewController(&api.MockAgentClient{Deltas: []string{"x"}}, store.New(), WithAddress("0xabc"))
	require.NoError(t, c.Submit(context.Background(), "hello"))
	assert.Len(t, c.State().ExchangeID, 36)
}
