package yarn

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conversation is an ordered sequence of messages with participant tracking.
type Conversation struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Messages     []*Message             `json:"messages"`
	Participants map[string]Participant `json:"participants"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`

	mu sync.RWMutex
}

// Participant tracks an agent's involvement in the conversation.
type Participant struct {
	AgentName    string    `json:"agent_name"`
	JoinedAt     time.Time `json:"joined_at"`
	MessageCount int       `json:"message_count"`
}

// NewConversation creates a new conversation.
func NewConversation(name string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:           uuid.New().String(),
		Name:         name,
		Messages:     make([]*Message, 0),
		Participants: make(map[string]Participant),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Add appends a message to the conversation.
func (c *Conversation) Add(msg *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()

	if msg.AgentName != "" {
		if p, exists := c.Participants[msg.AgentName]; exists {
			p.MessageCount++
			c.Participants[msg.AgentName] = p
		} else {
			c.Participants[msg.AgentName] = Participant{
				AgentName:    msg.AgentName,
				JoinedAt:     msg.Timestamp,
				MessageCount: 1,
			}
		}
	}
}

// Length returns the number of messages.
func (c *Conversation) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Messages)
}

// MessagesByRole returns only messages that match the specified role.
func (c *Conversation) MessagesByRole(role MessageRole) []*Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []*Message{}
	for _, msg := range c.Messages {
		if msg.Role == role {
			result = append(result, msg)
		}
	}
	return result
}

// Transcript renders the assistant turns as plain text, one section per
// message headed by agent and task.
func (c *Conversation) Transcript() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	for _, msg := range c.Messages {
		if msg.Role != RoleAssistant {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		header := msg.AgentName
		if msg.Task != "" {
			header = fmt.Sprintf("%s: %s", msg.AgentName, msg.Task)
		}
		fmt.Fprintf(&sb, "[%s]\n%s", header, msg.Content)
	}
	return sb.String()
}

// Validate checks if the conversation is valid.
func (c *Conversation) Validate() *ValidationError {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if c.CreatedAt.IsZero() {
		return &ValidationError{Field: "created_at", Message: "created_at is required"}
	}
	if c.UpdatedAt.Before(c.CreatedAt) {
		return &ValidationError{Field: "updated_at", Message: "updated_at must not be before created_at"}
	}

	for i, msg := range c.Messages {
		if msg == nil {
			return &ValidationError{
				Field:   "messages",
				Message: "message at index " + strconv.Itoa(i) + " is nil",
			}
		}
		if err := msg.Validate(); err != nil {
			return &ValidationError{
				Field:   "messages[" + strconv.Itoa(i) + "]." + err.Field,
				Message: err.Message,
			}
		}
	}
	return nil
}
