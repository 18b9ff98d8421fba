package exchange

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diogo/walrus/internal/api"
	apierrors "github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/metrics"
	"github.com/diogo/walrus/internal/models"
	"github.com/diogo/walrus/internal/store"
)

// Controller owns the exchange state machine for one message log.
// Only one exchange runs at a time; Submit blocks until it is terminal.
type Controller struct {
	client  api.AgentClientInterface
	store   *store.MessageStore
	logger  *zap.Logger
	metrics *metrics.Metrics
	newID   func() string

	// notifyMu serializes transitions with their notifications
	notifyMu  sync.Mutex
	mu        sync.RWMutex
	state     State
	observers map[int]func(State)
	nextID    int
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger. Exchanges log with an exchange_id field.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records exchange outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithAddress sets the initial wallet address
func WithAddress(address string) Option {
	return func(c *Controller) {
		c.state.Address = strings.TrimSpace(address)
	}
}

// WithIDGenerator replaces the exchange id source
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewController creates a Controller that writes into st
func NewController(client api.AgentClientInterface, st *store.MessageStore, opts ...Option) *Controller {
	c := &Controller{
		client:    client,
		store:     st,
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
		state:     NewState(""),
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns the current message log
func (c *Controller) Snapshot() []models.Message {
	return c.store.Snapshot()
}

// Store returns the message log the controller writes to
func (c *Controller) Store() *store.MessageStore {
	return c.store
}

// InputEnabled reports whether a wallet address is present.
// It does not depend on the exchange phase.
func (c *Controller) InputEnabled() bool {
	return c.State().Ready()
}

// CanSubmit reports whether Submit(text) would start an exchange
func (c *Controller) CanSubmit(text string) bool {
	s := c.State()
	return s.Ready() && !s.Loading && strings.TrimSpace(text) != ""
}

// SetInput records the input box contents
func (c *Controller) SetInput(text string) {
	_ = c.apply(InputChanged{Text: text})
}

// SetAddress updates the wallet address
func (c *Controller) SetAddress(address string) {
	_ = c.apply(AddressChanged{Address: address})
}

// OnStateChange registers fn to run after every transition, in order.
// fn must not call back into the Controller's setters or Submit.
func (c *Controller) OnStateChange(fn func(State)) func() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	id := c.nextID
	c.nextID++
	c.observers[id] = fn

	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		delete(c.observers, id)
	}
}

// Submit runs one exchange for prompt and returns when it is terminal.
//
// A whitespace-only prompt is a no-op. Stream failures are absorbed into a
// single fallback request; only a failed fallback is returned, as a
// *errors.FallbackError.
func (c *Controller) Submit(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return nil
	}

	id := c.newID()
	if err := c.apply(Submitted{Prompt: prompt, ExchangeID: id}); err != nil {
		return err
	}

	logger := c.logger.With(zap.String("exchange_id", id))
	start := time.Now()

	c.store.Append(models.UserMessage(prompt))
	logger.Info("exchange started", zap.Int("prompt_bytes", len(prompt)))

	index := c.store.Append(models.AgentMessage(""))
	c.advance(logger, SlotReserved{Index: index})

	streamErr := c.stream(ctx, logger, prompt, index)
	if streamErr == nil {
		c.advance(logger, StreamEnded{})
		c.metrics.ObserveExchange(metrics.OutcomeStreamed, time.Since(start))
		logger.Info("exchange completed",
			zap.String("outcome", metrics.OutcomeStreamed),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	logger.Warn("stream failed, falling back",
		zap.Error(streamErr),
		zap.Bool("decode", apierrors.IsDecodeError(streamErr)),
		zap.Int("status", apierrors.GetHTTPStatus(streamErr)))
	c.advance(logger, StreamFailed{Err: streamErr})
	c.advance(logger, FallbackStarted{})
	c.metrics.ObserveFallback()

	text, err := c.client.Send(ctx, prompt)
	if err != nil {
		fallbackErr := apierrors.NewFallbackError(err)
		c.advance(logger, FallbackFailed{Err: fallbackErr})
		c.metrics.ObserveExchange(metrics.OutcomeFailed, time.Since(start))
		logger.Error("exchange failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return fallbackErr
	}

	// the reserved slot keeps whatever was streamed into it
	fallbackIndex := c.store.Append(models.AgentMessage(text))
	c.advance(logger, FallbackSucceeded{Index: fallbackIndex})
	c.metrics.ObserveExchange(metrics.OutcomeFallback, time.Since(start))
	logger.Info("exchange completed",
		zap.String("outcome", metrics.OutcomeFallback),
		zap.Int("response_bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// stream ranges the delta sequence into the reserved slot and returns the
// stream's error, if any
func (c *Controller) stream(ctx context.Context, logger *zap.Logger, prompt string, index int) error {
	var text strings.Builder

	for delta, err := range c.client.Stream(ctx, prompt) {
		if err != nil {
			return err
		}
		text.WriteString(delta)
		if err := c.store.ReplaceAt(index, models.AgentMessage(text.String())); err != nil {
			logger.Error("failed to update agent message", zap.Int("index", index), zap.Error(err))
			continue
		}
		c.metrics.ObserveDelta()
		c.advance(logger, DeltaApplied{Text: delta})
	}
	return nil
}

// apply reduces ev into the state and notifies observers
func (c *Controller) apply(ev Event) error {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	next, err := Reduce(c.state, ev)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.mu.Unlock()

	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c.observers[id](next)
	}
	return nil
}

// advance applies an event that the running exchange guarantees is valid
func (c *Controller) advance(logger *zap.Logger, ev Event) {
	if err := c.apply(ev); err != nil {
		logger.Error("unexpected transition", zap.Error(err))
	}
}
