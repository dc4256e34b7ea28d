// Package runtime provides live agent instances from Wool definitions.
package runtime

import (
	"context"
	"errors"
	"strings"

	"github.com/r3d91ll/quire/pkg/backend"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/wool"
	"github.com/r3d91ll/quire/yarn"
)

// Agent is a live agent instance with a backend connection.
type Agent struct {
	Definition wool.Agent
	Backend    backend.Backend
}

// NewAgent creates a live agent from a Wool definition and backend.
func NewAgent(def wool.Agent, b backend.Backend) *Agent {
	return &Agent{
		Definition: def,
		Backend:    b,
	}
}

// Spawn validates def and binds it to its backend from reg.
func Spawn(reg *backend.Registry, def wool.Agent) (*Agent, error) {
	if err := def.Validate(); err != nil {
		qe := qerrors.Agent(qerrors.ErrAgentInvalidConfig, "invalid agent definition").
			WithContext("agent", def.Name)
		var ve *wool.ValidationError
		if errors.As(err, &ve) {
			qe.WithContext("field", ve.Field).WithSuggestion(ve.Message)
		}
		return nil, qe.WithCause(err)
	}
	b, err := reg.Require(def.Backend)
	if err != nil {
		if qe, ok := qerrors.AsQuireError(err); ok {
			qe.WithContext("agent", def.Name).
				WithSuggestion("Verify the backend name in the agent configuration")
		}
		return nil, err
	}
	return NewAgent(def, b), nil
}

// Chat sends messages to the agent behind its system prompt and returns
// the reply attributed to the agent.
func (a *Agent) Chat(ctx context.Context, messages []*yarn.Message) (*yarn.Message, error) {
	def := a.Definition

	chatMessages := make([]backend.ChatMessage, 0, len(messages)+1)
	if prompt := def.SystemPrompt(); prompt != "" {
		chatMessages = append(chatMessages, backend.ChatMessage{
			Role:    "system",
			Content: prompt,
		})
	}
	for _, msg := range messages {
		chatMessages = append(chatMessages, backend.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	temp := def.Temperature
	req := backend.ChatRequest{
		Model:       def.Model,
		Messages:    chatMessages,
		MaxTokens:   def.MaxTokens,
		Temperature: &temp,
	}

	resp, err := a.Backend.Chat(ctx, req)
	if err != nil {
		return nil, createAgentChatError(def.Name, def.Backend, err)
	}

	result := yarn.NewAgentMessage(yarn.RoleAssistant, resp.Content, def.Name)
	result.WithMetadata("model", resp.Model)
	result.WithMetadata("latency_ms", resp.LatencyMS)
	result.WithMetadata("finish_reason", resp.FinishReason)
	result.WithMetadata("total_tokens", resp.Usage.TotalTokens)
	return result, nil
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return a.Definition.Name
}

// Role returns the agent role.
func (a *Agent) Role() wool.Role {
	return a.Definition.Role
}

// IsReady returns true if the agent's backend is available.
func (a *Agent) IsReady(ctx context.Context) bool {
	return a.Backend.IsAvailable(ctx)
}

// -----------------------------------------------------------------------------
// Error Creation Helpers
// -----------------------------------------------------------------------------

// createAgentChatError adds agent context to a chat failure.
func createAgentChatError(agentName, backendName string, cause error) *qerrors.QuireError {
	if qe, ok := qerrors.AsQuireError(cause); ok {
		return qerrors.AgentWrap(qe, qerrors.ErrAgentChatFailed, "chat request failed").
			WithContext("agent", agentName).
			WithContext("backend", backendName)
	}

	errStr := strings.ToLower(cause.Error())
	switch {
	case isTimeout(errStr):
		return qerrors.AgentWrap(cause, qerrors.ErrAgentChatFailed, "chat request failed: request timed out").
			WithContext("agent", agentName).
			WithContext("backend", backendName).
			WithSuggestion("The backend is taking too long to respond")

	case isContextCanceled(errStr):
		return qerrors.AgentWrap(cause, qerrors.ErrAgentChatFailed, "chat request was cancelled").
			WithContext("agent", agentName).
			WithContext("backend", backendName).
			WithSuggestion("The request was interrupted")

	default:
		return qerrors.AgentWrap(cause, qerrors.ErrAgentChatFailed, "chat request failed").
			WithContext("agent", agentName).
			WithContext("backend", backendName)
	}
}

// isTimeout checks if the error indicates a timeout.
func isTimeout(errStr string) bool {
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "timed out")
}

// isContextCanceled checks if the error indicates a cancelled context.
func isContextCanceled(errStr string) bool {
	return strings.Contains(errStr, "context canceled") ||
		strings.Contains(errStr, "operation was canceled")
}
