package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/r3d91ll/quire/pkg/backend"
	"github.com/r3d91ll/quire/pkg/board"
	"github.com/r3d91ll/quire/pkg/config"
	"github.com/r3d91ll/quire/pkg/crew"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/paper"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func request(t *testing.T, subject string) paper.GenerationRequest {
	t.Helper()
	req, err := paper.NewBuilder(board.DefaultTable(), nil).Build(paper.Selection{
		Subject: subject, Grade: "10", Board: "Punjab",
	})
	require.NoError(t, err)
	return req
}

type recordingBackend struct {
	requests []backend.ChatRequest
}

func (b *recordingBackend) Name() string                       { return "gemini" }
func (b *recordingBackend) Type() backend.Type                 { return backend.TypeOpenAI }
func (b *recordingBackend) IsAvailable(context.Context) bool   { return true }
func (b *recordingBackend) Capabilities() backend.Capabilities { return backend.Capabilities{} }

func (b *recordingBackend) Chat(_ context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	b.requests = append(b.requests, req)
	return &backend.ChatResponse{Content: "reply from " + req.Model}, nil
}

func (b *recordingBackend) ChatStream(context.Context, backend.ChatRequest) (<-chan backend.StreamChunk, <-chan error) {
	return nil, nil
}

type stringer struct{ s string }

func (s stringer) String() string { return s.s }

type noRaw struct{}

func (noRaw) RawOutput() (string, bool) { return "", false }
func (noRaw) String() string            { return "stringified" }

// -----------------------------------------------------------------------------
// ExtractText
// -----------------------------------------------------------------------------

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		out      any
		want     string
		fallback bool
	}{
		{"crew output", &crew.CrewOutput{Raw: "Q1. Define force."}, "Q1. Define force.", false},
		{"stringer", stringer{"from String"}, "from String", true},
		{"raw not reported", noRaw{}, "stringified", true},
		{"plain string", "just text", "just text", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := ExtractText(tt.out)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.fallback, fallback)
		})
	}
}

// -----------------------------------------------------------------------------
// CrewAdapter
// -----------------------------------------------------------------------------

func TestGenerate_UsesRawOutput(t *testing.T) {
	orch := OrchestratorFunc(func(_ context.Context, req *paper.GenerationRequest) (any, error) {
		return &crew.CrewOutput{
			Raw:         "Paper for " + string(req.Subject),
			TasksOutput: []crew.TaskOutput{{Name: paper.TaskReviewQuestions, Raw: "Paper for Physics"}},
		}, nil
	})
	res, err := NewCrewAdapter(orch, logger.NewNoOp()).Generate(context.Background(), request(t, "Physics"))
	require.NoError(t, err)
	assert.Equal(t, "Paper for Physics", res.Text)
	assert.False(t, res.Fallback)
	assert.Len(t, res.Tasks, 1)
}

func TestGenerate_FallbackIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	orch := OrchestratorFunc(func(context.Context, *paper.GenerationRequest) (any, error) {
		return stringer{"Section A"}, nil
	})

	res, err := NewCrewAdapter(orch, logger.FromZap(zap.New(core))).Generate(context.Background(), request(t, "Biology"))
	require.NoError(t, err)
	assert.Equal(t, "Section A", res.Text)
	assert.True(t, res.Fallback)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "string form")
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name string
		out  any
		err  error
		code string
	}{
		{"backend error", nil, errors.New("503 from upstream"), qerrors.ErrGenerationFailed},
		{"deadline", nil, context.DeadlineExceeded, qerrors.ErrGenerationTimeout},
		{"backend timeout", nil, qerrors.Backend(qerrors.ErrBackendTimeout, "slow"), qerrors.ErrGenerationTimeout},
		{"nil result", nil, nil, qerrors.ErrGenerationEmptyOutput},
		{"blank text", &crew.CrewOutput{Raw: " \n\t"}, nil, qerrors.ErrGenerationEmptyOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := OrchestratorFunc(func(context.Context, *paper.GenerationRequest) (any, error) {
				return tt.out, tt.err
			})
			res, err := NewCrewAdapter(orch, nil).Generate(context.Background(), request(t, "Chemistry"))
			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, qerrors.IsCategory(err, qerrors.CategoryGeneration))
			assert.True(t, qerrors.IsCode(err, tt.code))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err, "cause is kept")
			}
		})
	}
}

// -----------------------------------------------------------------------------
// CrewOrchestrator
// -----------------------------------------------------------------------------

func TestCrewOrchestrator_RunsThreeRoles(t *testing.T) {
	b := &recordingBackend{}
	reg := backend.NewRegistry()
	require.NoError(t, reg.Register("gemini", b))

	cfg := config.Default()
	zero := 0.0
	cfg.Agents = map[string]config.AgentConfig{
		"quality_checker": {Model: "gemini-2.0-pro", Temperature: &zero},
	}

	orch := NewCrewOrchestrator(reg, "gemini", cfg, nil)
	res, err := NewCrewAdapter(orch, nil).Generate(context.Background(), request(t, "Islamiat"))
	require.NoError(t, err)

	require.Len(t, b.requests, 3)
	assert.Equal(t, cfg.LLM.Model, b.requests[0].Model)
	assert.Equal(t, "gemini-2.0-pro", b.requests[2].Model)
	assert.Equal(t, 0.0, *b.requests[2].Temperature)
	assert.Contains(t, b.requests[1].Messages[1].Content, "Urdu")

	assert.Equal(t, "reply from gemini-2.0-pro", res.Text)
	assert.False(t, res.Fallback)
	require.Len(t, res.Tasks, 3)
	assert.Equal(t, paper.TaskDesignStructure, res.Tasks[0].Name)
	require.NotNil(t, res.Transcript)
	assert.Equal(t, 6, res.Transcript.Length())
}

func TestCrewOrchestrator_SendsDirective(t *testing.T) {
	tests := []struct {
		subject string
		framing string
	}{
		{"English_A", "curriculum-based questions"},
		{"Mathematics", "general academic questions"},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			b := &recordingBackend{}
			reg := backend.NewRegistry()
			require.NoError(t, reg.Register("gemini", b))

			req := request(t, tt.subject)
			_, err := NewCrewAdapter(NewCrewOrchestrator(reg, "gemini", nil, nil), nil).Generate(context.Background(), req)
			require.NoError(t, err)

			require.Len(t, b.requests, 3)
			for _, r := range b.requests {
				prompt := r.Messages[len(r.Messages)-1].Content
				assert.Contains(t, prompt, req.Directive)
				assert.Contains(t, prompt, tt.framing)
				assert.NotContains(t, prompt, "Urdu")
			}
		})
	}
}

func TestCrewOrchestrator_UnknownBackend(t *testing.T) {
	orch := NewCrewOrchestrator(backend.NewRegistry(), "missing", nil, nil)
	req := request(t, "Physics")
	_, err := orch.Kickoff(context.Background(), &req)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrBackendNotFound))

	_, err = NewCrewAdapter(orch, nil).Generate(context.Background(), req)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrGenerationFailed))
}
