// Package models contains data types and constants for the walrus agent client.
package models

// Endpoint paths on the agent backend
const (
	PathChatStream = "/chat/stream"
	PathChat       = "/chat"
)

// DefaultBackendURL is the origin used when nothing else is configured
const DefaultBackendURL = "http://localhost:8001"

// Chunked transport framing
const (
	FramePrefix    = "data: "
	FrameDelimiter = "\n\n"
)

// ChatRequest is the body sent to both endpoints
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse is the body returned by the non-streaming endpoint
type ChatResponse struct {
	Response string `json:"response"`
}

// DefaultHeaders returns the headers sent with every request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "text/event-stream, application/json",
		"User-Agent":   "walrus-cli",
	}
}
