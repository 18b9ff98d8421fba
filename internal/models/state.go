package models

// ExchangeState is the phase of a single user turn
type ExchangeState int

const (
	StateIdle ExchangeState = iota
	StateSending
	StateStreaming
	StateStreamFailed
	StateFallback
	StateCompleted
	StateFailed
)

var exchangeStateNames = map[ExchangeState]string{
	StateIdle:         "idle",
	StateSending:      "sending",
	StateStreaming:    "streaming",
	StateStreamFailed: "stream_failed",
	StateFallback:     "fallback",
	StateCompleted:    "completed",
	StateFailed:       "failed",
}

// String returns the state name
func (s ExchangeState) String() string {
	if name, ok := exchangeStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether the exchange has finished
func (s ExchangeState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// IsActive reports whether an exchange is in flight
func (s ExchangeState) IsActive() bool {
	switch s {
	case StateSending, StateStreaming, StateStreamFailed, StateFallback:
		return true
	default:
		return false
	}
}
