package models

// Role identifies who authored a message in the exchange log
type Role int

const (
	RoleUser Role = iota
	RoleAgent
)

// String returns the role name used in logs and rendering
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// Message is one entry of the exchange log.
// The text of the agent message reserved for the in-flight exchange grows as
// deltas arrive; every other message is frozen.
type Message struct {
	Role Role
	Text string
}

// UserMessage creates a message authored by the user
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// AgentMessage creates a message authored by the agent
func AgentMessage(text string) Message {
	return Message{Role: RoleAgent, Text: text}
}
