// Package errors provides custom error types for the walrus agent client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrTransport       = errors.New("transport error")
	ErrDecode          = errors.New("decode error")
	ErrFallback        = errors.New("fallback failed")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrInvalidResponse = errors.New("invalid response format")
)

// TransportError represents a request that could not be sent or a response
// that could not be read
type TransportError struct {
	Op         string
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s failed at %s", e.Op, e.Endpoint)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s failed at %s [%d]", e.Op, e.Endpoint, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *TransportError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	_, ok := target.(*TransportError)
	return ok
}

// NewTransportError creates a TransportError for a failed dispatch or read
func NewTransportError(op, endpoint string, err error) *TransportError {
	return &TransportError{Op: op, Endpoint: endpoint, Err: err}
}

// NewStatusError creates a TransportError for a non-2xx response
func NewStatusError(op, endpoint string, statusCode int, body string) *TransportError {
	return &TransportError{
		Op:         op,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Body:       body,
		Err:        fmt.Errorf("unexpected status %d", statusCode),
	}
}

// DecodeError represents chunk bytes that could not be decoded as text
type DecodeError struct {
	Frame []byte
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %v", e.Err)
	}
	return "decode error: frame is not valid UTF-8"
}

// Unwrap returns the underlying cause
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *DecodeError) Is(target error) bool {
	if target == ErrDecode {
		return true
	}
	_, ok := target.(*DecodeError)
	return ok
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(frame []byte, err error) *DecodeError {
	return &DecodeError{Frame: frame, Err: err}
}

// FallbackError wraps the failure of the single fallback attempt
type FallbackError struct {
	Err error
}

func (e *FallbackError) Error() string {
	if e.Err == nil {
		return "fallback failed"
	}
	return fmt.Sprintf("fallback failed: %v", e.Err)
}

// Unwrap returns the underlying cause
func (e *FallbackError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *FallbackError) Is(target error) bool {
	if target == ErrFallback {
		return true
	}
	_, ok := target.(*FallbackError)
	return ok
}

// NewFallbackError creates a new FallbackError
func NewFallbackError(err error) *FallbackError {
	return &FallbackError{Err: err}
}

// IndexOutOfRangeError is returned when a log index does not address an entry
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index out of range: %d (len %d)", e.Index, e.Len)
}

// Is allows comparison with sentinel errors
func (e *IndexOutOfRangeError) Is(target error) bool {
	if target == ErrIndexOutOfRange {
		return true
	}
	_, ok := target.(*IndexOutOfRangeError)
	return ok
}

// NewIndexOutOfRangeError creates a new IndexOutOfRangeError
func NewIndexOutOfRangeError(index, length int) *IndexOutOfRangeError {
	return &IndexOutOfRangeError{Index: index, Len: length}
}

// IsTransportError reports whether err is, or wraps, a TransportError
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsDecodeError reports whether err is, or wraps, a DecodeError
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsFallbackError reports whether err is, or wraps, a FallbackError
func IsFallbackError(err error) bool {
	return errors.Is(err, ErrFallback)
}

// GetHTTPStatus extracts the HTTP status code from an error chain, or 0
func GetHTTPStatus(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint from an error chain, or ""
func GetEndpoint(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Endpoint
	}
	return ""
}

// GetResponseBody extracts the response body captured for a failed request
func GetResponseBody(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Body
	}
	return ""
}
