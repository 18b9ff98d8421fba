// Package exchange drives one user turn against the agent backend: it appends
// the user message, streams the agent reply into a reserved slot and falls
// back to the non-streaming endpoint when the stream fails.
package exchange

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diogo/walrus/internal/models"
)

// BannerConnectFailed is shown when the fallback request also fails
const BannerConnectFailed = "Failed to connect to agent. Please check if the backend is running."

var (
	// ErrInvalidTransition is returned by Reduce for an event the current phase does not accept
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotReady is returned when a prompt is submitted without a wallet address
	ErrNotReady = errors.New("no wallet address connected")
	// ErrBusy is returned when a prompt is submitted while an exchange is in flight
	ErrBusy = errors.New("an exchange is already in flight")
)

// State is everything a renderer needs besides the message log
type State struct {
	Phase   models.ExchangeState
	Loading bool
	// Error is the user-visible banner, empty when there is none
	Error      string
	Input      string
	Address    string
	AgentIndex int
	ExchangeID string
	Deltas     int
}

// NewState returns an idle state for the given wallet address
func NewState(address string) State {
	return State{
		Phase:      models.StateIdle,
		Address:    strings.TrimSpace(address),
		AgentIndex: -1,
	}
}

// Ready reports whether input is enabled
func (s State) Ready() bool {
	return s.Address != ""
}

// Event is an input to Reduce
type Event interface {
	event()
}

// Submitted starts an exchange
type Submitted struct {
	Prompt     string
	ExchangeID string
}

// SlotReserved records the index of the empty agent message
type SlotReserved struct {
	Index int
}

// DeltaApplied records one delta written to the reserved slot
type DeltaApplied struct {
	Text string
}

// StreamEnded is a normal end of data
type StreamEnded struct{}

// StreamFailed is any stream dispatch, read or decode failure
type StreamFailed struct {
	Err error
}

// FallbackStarted marks the single fallback request
type FallbackStarted struct{}

// FallbackSucceeded records the index of the appended fallback message
type FallbackSucceeded struct {
	Index int
}

// FallbackFailed ends the exchange with the error banner
type FallbackFailed struct {
	Err error
}

// InputChanged tracks the input box
type InputChanged struct {
	Text string
}

// AddressChanged updates the wallet address
type AddressChanged struct {
	Address string
}

func (Submitted) event()         {}
func (SlotReserved) event()      {}
func (DeltaApplied) event()      {}
func (StreamEnded) event()       {}
func (StreamFailed) event()      {}
func (FallbackStarted) event()   {}
func (FallbackSucceeded) event() {}
func (FallbackFailed) event()    {}
func (InputChanged) event()      {}
func (AddressChanged) event()    {}

// Reduce applies ev to s and returns the next state. It never mutates s.
// A whitespace-only Submitted is a no-op.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case Submitted:
		if strings.TrimSpace(e.Prompt) == "" {
			return s, nil
		}
		if !s.Ready() {
			return s, ErrNotReady
		}
		if s.Phase.IsActive() {
			return s, ErrBusy
		}
		s.Phase = models.StateSending
		s.Loading = true
		s.Error = ""
		s.Input = ""
		s.AgentIndex = -1
		s.ExchangeID = e.ExchangeID
		s.Deltas = 0
		return s, nil

	case SlotReserved:
		if s.Phase != models.StateSending {
			return s, invalid(s, ev)
		}
		s.Phase = models.StateStreaming
		s.AgentIndex = e.Index
		return s, nil

	case DeltaApplied:
		if s.Phase != models.StateStreaming {
			return s, invalid(s, ev)
		}
		s.Deltas++
		return s, nil

	case StreamEnded:
		if s.Phase != models.StateStreaming {
			return s, invalid(s, ev)
		}
		s.Phase = models.StateCompleted
		s.Loading = false
		return s, nil

	case StreamFailed:
		if s.Phase != models.StateStreaming {
			return s, invalid(s, ev)
		}
		s.Phase = models.StateStreamFailed
		return s, nil

	case FallbackStarted:
		if s.Phase != models.StateStreamFailed {
			return s, invalid(s, ev)
		}
		s.Phase = models.StateFallback
		return s, nil

	case FallbackSucceeded:
		if s.Phase != models.StateFallback {
			return s, invalid(s, ev)
		}
		s.Phase = models.StateCompleted
		s.Loading = false
		return s, nil

	case FallbackFailed:
		if s.Phase != models.StateFallback {
			return s, invalid(s, ev)
		}
		s.Phase = models.StateFailed
		s.Loading = false
		s.Error = BannerConnectFailed
		return s, nil

	case InputChanged:
		s.Input = e.Text
		return s, nil

	case AddressChanged:
		s.Address = strings.TrimSpace(e.Address)
		return s, nil

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

func invalid(s State, ev Event) error {
	return fmt.Errorf("%w: %T in phase %s", ErrInvalidTransition, ev, s.Phase)
}
