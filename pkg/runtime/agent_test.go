package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3d91ll/quire/pkg/backend"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/wool"
	"github.com/r3d91ll/quire/yarn"
)

type fakeBackend struct {
	reply string
	err   error
	last  backend.ChatRequest
}

func (f *fakeBackend) Name() string                       { return "fake" }
func (f *fakeBackend) Type() backend.Type                 { return backend.TypeOpenAI }
func (f *fakeBackend) IsAvailable(context.Context) bool   { return f.err == nil }
func (f *fakeBackend) Capabilities() backend.Capabilities { return backend.Capabilities{} }

func (f *fakeBackend) Chat(_ context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &backend.ChatResponse{Content: f.reply, Model: "m", FinishReason: "stop"}, nil
}

func (f *fakeBackend) ChatStream(context.Context, backend.ChatRequest) (<-chan backend.StreamChunk, <-chan error) {
	return nil, nil
}

func designer() wool.Agent {
	def := wool.PaperDesigner(wool.Brief{Subject: "Physics", Grade: "9", Board: "Federal", Syllabus: "Federal Board Syllabus"})
	def.Backend = "fake"
	def.Model = "gemini-2.0-flash"
	def.MaxTokens = 2048
	def.Temperature = 0
	return def
}

func TestAgent_ChatSendsSystemPrompt(t *testing.T) {
	fb := &fakeBackend{reply: "Section A: 20 MCQs"}
	a := NewAgent(designer(), fb)

	msg, err := a.Chat(context.Background(), []*yarn.Message{yarn.NewMessage(yarn.RoleUser, "design it")})
	require.NoError(t, err)

	assert.Equal(t, "Section A: 20 MCQs", msg.Content)
	assert.Equal(t, yarn.RoleAssistant, msg.Role)
	assert.Equal(t, "Paper Designer", msg.AgentName)
	assert.Equal(t, "stop", msg.Metadata["finish_reason"])

	require.Len(t, fb.last.Messages, 2)
	assert.Equal(t, "system", fb.last.Messages[0].Role)
	assert.Contains(t, fb.last.Messages[0].Content, "You are the Paper Designer.")
	assert.Equal(t, "user", fb.last.Messages[1].Role)
	assert.Equal(t, "gemini-2.0-flash", fb.last.Model)
	require.NotNil(t, fb.last.Temperature, "an explicit zero temperature is still sent")
	assert.Equal(t, 0.0, *fb.last.Temperature)
}

func TestAgent_ChatWrapsBackendErrors(t *testing.T) {
	cause := qerrors.Backend(qerrors.ErrBackendTimeout, "backend request timed out")
	a := NewAgent(designer(), &fakeBackend{err: cause})

	_, err := a.Chat(context.Background(), nil)
	qe, ok := qerrors.AsQuireError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.ErrAgentChatFailed, qe.Code)
	assert.Equal(t, "Paper Designer", qe.Context["agent"])
	assert.True(t, errors.Is(err, cause), "backend error stays in the chain")
}

func TestAgent_ChatPlainErrors(t *testing.T) {
	a := NewAgent(designer(), &fakeBackend{err: errors.New("context deadline exceeded")})
	_, err := a.Chat(context.Background(), nil)
	qe, ok := qerrors.AsQuireError(err)
	require.True(t, ok)
	assert.Contains(t, qe.Message, "timed out")
	assert.True(t, qe.HasSuggestions())
}

func TestSpawn(t *testing.T) {
	reg := backend.NewRegistry()
	require.NoError(t, reg.Register("fake", &fakeBackend{}))

	a, err := Spawn(reg, designer())
	require.NoError(t, err)
	assert.Equal(t, wool.RolePaperDesigner, a.Role())
	assert.Equal(t, "Paper Designer", a.Name())
	assert.True(t, a.IsReady(context.Background()))

	missing := designer()
	missing.Backend = "ollama"
	_, err = Spawn(reg, missing)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrBackendNotFound))

	invalid := designer()
	invalid.Temperature = 3
	_, err = Spawn(reg, invalid)
	qe, ok := qerrors.AsQuireError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.ErrAgentInvalidConfig, qe.Code)
	assert.Equal(t, "temperature", qe.Context["field"])
}
