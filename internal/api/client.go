package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	apierrors "github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/models"
)

// maxErrorBody limits how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// AgentClientInterface is the surface the exchange controller needs
type AgentClientInterface interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
	Send(ctx context.Context, prompt string) (string, error)
	BaseURL() string
	Close()
}

// AgentClient talks to the agent backend's /chat and /chat/stream endpoints
type AgentClient struct {
	httpClient tls_client.HttpClient
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
	mu         sync.RWMutex
	closed     bool
}

// Ensure AgentClient implements AgentClientInterface
var _ AgentClientInterface = (*AgentClient)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*AgentClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *AgentClient) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each request, including reading the body.
// Non-positive values keep the default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *AgentClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// timeoutMillis converts d for tls-client, rounding up so that a short
// timeout never becomes zero (no timeout)
func timeoutMillis(d time.Duration) int {
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms < 1 {
		ms = 1
	}
	return int(ms)
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *AgentClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new AgentClient for the given backend origin
func NewClient(baseURL string, opts ...ClientOption) (*AgentClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend url cannot be empty")
	}

	client := &AgentClient{
		baseURL: baseURL,
		timeout: 300 * time.Second,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutMilliseconds(timeoutMillis(client.timeout)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// BaseURL returns the backend origin
func (c *AgentClient) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the absolute URL for an endpoint path
func (c *AgentClient) Endpoint(path string) string {
	return c.baseURL + path
}

// Close releases idle connections. Further requests fail.
func (c *AgentClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *AgentClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// post sends {"prompt": prompt} to path and returns a 2xx response.
// The caller owns the response body.
func (c *AgentClient) post(ctx context.Context, op, path, prompt string) (*http.Response, error) {
	endpoint := c.Endpoint(path)

	if c.IsClosed() {
		return nil, apierrors.NewTransportError(op, endpoint, fmt.Errorf("client is closed"))
	}

	payload, err := json.Marshal(models.ChatRequest{Prompt: prompt})
	if err != nil {
		return nil, apierrors.NewTransportError(op, endpoint, fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apierrors.NewTransportError(op, endpoint, fmt.Errorf("failed to create request: %w", err))
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	c.logger.Debug("dispatching request",
		zap.String("op", op),
		zap.String("endpoint", endpoint),
		zap.Int("prompt_bytes", len(prompt)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewTransportError(op, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apierrors.NewStatusError(op, endpoint, resp.StatusCode, string(errorBody))
	}

	return resp, nil
}
