// Package yarn records what the crew said: messages attributed to agents
// and the conversation that orders them.
package yarn

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender type.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is the atomic unit of communication between agents.
type Message struct {
	ID        string         `json:"id"`
	Role      MessageRole    `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	AgentName string         `json:"agent_name,omitempty"`
	Task      string         `json:"task,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage creates a new Message with a generated UUID.
func NewMessage(role MessageRole, content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// NewAgentMessage creates a Message attributed to a specific agent.
func NewAgentMessage(role MessageRole, content, agentName string) *Message {
	msg := NewMessage(role, content)
	msg.AgentName = agentName
	return msg
}

// WithTask records the crew task the message belongs to.
func (m *Message) WithTask(task string) *Message {
	m.Task = task
	return m
}

// WithMetadata adds a key-value pair to the message metadata.
func (m *Message) WithMetadata(key string, value any) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
	return m
}

// Validate checks if the message is valid.
func (m *Message) Validate() *ValidationError {
	if m.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return &ValidationError{Field: "role", Message: "invalid role " + string(m.Role)}
	}
	if m.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "timestamp is required"}
	}
	return nil
}

// ValidationError represents a validation failure for Yarn types.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
