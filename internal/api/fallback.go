package api

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/models"
)

// PathResponse is the gjson path of the agent text in a /chat response
const PathResponse = "response"

// Send performs a single non-streaming exchange and returns the full agent text.
// Any failure is a TransportError; Send never retries.
func (c *AgentClient) Send(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apierrors.ErrEmptyPrompt
	}

	endpoint := c.Endpoint(models.PathChat)

	resp, err := c.post(ctx, "send chat", models.PathChat, prompt)
	if err != nil {
		c.logger.Debug("fallback request failed", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierrors.NewTransportError("read response", endpoint, err)
	}

	text, err := parseChatResponse(body)
	if err != nil {
		return "", &apierrors.TransportError{
			Op:       "parse response",
			Endpoint: endpoint,
			Body:     truncate(string(body), maxErrorBody),
			Err:      err,
		}
	}

	c.logger.Debug("fallback response received", zap.Int("response_bytes", len(text)))
	return text, nil
}

// parseChatResponse extracts the agent text from a {"response": "..."} body
func parseChatResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: body is not valid JSON", apierrors.ErrInvalidResponse)
	}

	result := gjson.GetBytes(body, PathResponse)
	if !result.Exists() {
		return "", fmt.Errorf("%w: missing %q field", apierrors.ErrInvalidResponse, PathResponse)
	}
	if result.Type != gjson.String {
		return "", fmt.Errorf("%w: %q is not a string", apierrors.ErrInvalidResponse, PathResponse)
	}

	return result.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
