// Package backend provides the unified interface for model communication.
// The crew reaches its LLM through these backends.
package backend

import "context"

// Type identifies the backend type.
type Type string

const (
	TypeOpenAI Type = "openai" // OpenAI-compatible /chat/completions
)

// Capabilities describes what a backend can do.
type Capabilities struct {
	ContextLimit      int  `json:"contextLimit"`
	SupportsStreaming bool `json:"supportsStreaming"`
	MaxTokens         int  `json:"maxTokens"`
}

// ChatMessage represents a single message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatRequest contains parameters for a chat request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// ChatResponse contains the model's response.
type ChatResponse struct {
	Content      string     `json:"content"`
	Usage        TokenUsage `json:"usage"`
	LatencyMS    float64    `json:"latency_ms"`
	Model        string     `json:"model"`
	FinishReason string     `json:"finish_reason"`
}

// StreamChunk represents a chunk of streamed response.
type StreamChunk struct {
	Content      string `json:"content"`
	Done         bool   `json:"done"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Backend is the unified interface for model communication.
type Backend interface {
	Name() string
	Type() Type
	IsAvailable(ctx context.Context) bool
	Capabilities() Capabilities
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, <-chan error)
}
