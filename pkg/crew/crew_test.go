package crew

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3d91ll/quire/pkg/backend"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/runtime"
	"github.com/r3d91ll/quire/wool"
	"github.com/r3d91ll/quire/yarn"
)

// scripted answers each call with the next reply and records prompts.
type scripted struct {
	replies []string
	failAt  int
	prompts []string
}

func (s *scripted) Name() string                       { return "scripted" }
func (s *scripted) Type() backend.Type                 { return backend.TypeOpenAI }
func (s *scripted) IsAvailable(context.Context) bool   { return true }
func (s *scripted) Capabilities() backend.Capabilities { return backend.Capabilities{} }

func (s *scripted) Chat(_ context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	s.prompts = append(s.prompts, req.Messages[len(req.Messages)-1].Content)
	n := len(s.prompts)
	if n == s.failAt {
		return nil, errors.New("upstream exploded")
	}
	return &backend.ChatResponse{Content: s.replies[n-1]}, nil
}

func (s *scripted) ChatStream(context.Context, backend.ChatRequest) (<-chan backend.StreamChunk, <-chan error) {
	return nil, nil
}

func paperCrew(b backend.Backend, opts ...Option) *Crew {
	brief := wool.Brief{Subject: "Chemistry", Grade: "10", Board: "Punjab", Syllabus: "Punjab Board Syllabus"}
	defs := wool.Crew(brief)
	names := []string{"Design Paper Structure", "Generate Questions", "Review and Refine Questions"}
	tasks := make([]Task, len(defs))
	for i, def := range defs {
		tasks[i] = Task{
			Name:           names[i],
			Description:    "Do step " + names[i],
			ExpectedOutput: "Output of " + names[i],
			Agent:          runtime.NewAgent(def, b),
		}
	}
	return New("Chemistry Class 10 Punjab", tasks, append([]Option{WithLogger(logger.NewNoOp())}, opts...)...)
}

func TestKickoff_SequentialWithContext(t *testing.T) {
	b := &scripted{replies: []string{"STRUCTURE", "QUESTIONS", "FINAL PAPER"}}
	out, err := paperCrew(b).Kickoff(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "FINAL PAPER", out.Raw)
	require.Len(t, out.TasksOutput, 3)
	assert.Equal(t, wool.RoleQuestionGenerator, out.TasksOutput[1].Role)
	assert.Equal(t, "QUESTIONS", out.TasksOutput[1].Raw)

	require.Len(t, b.prompts, 3)
	assert.NotContains(t, b.prompts[0], "Context from previous tasks")
	assert.Contains(t, b.prompts[0], "Expected output: Output of Design Paper Structure")
	assert.Contains(t, b.prompts[1], "[Design Paper Structure by Paper Designer]\nSTRUCTURE")
	assert.Contains(t, b.prompts[2], "STRUCTURE")
	assert.Contains(t, b.prompts[2], "QUESTIONS")

	raw, ok := out.RawOutput()
	assert.True(t, ok)
	assert.Equal(t, "FINAL PAPER", raw)
	assert.Equal(t, "FINAL PAPER", out.String())
}

func TestKickoff_BriefOpensEveryPrompt(t *testing.T) {
	b := &scripted{replies: []string{"a", "b", "c"}}
	brief := "Create a Chemistry exam paper for Class 10 following the Punjab Board Syllabus."
	_, err := paperCrew(b, WithBrief("  "+brief+"\n")).Kickoff(context.Background())
	require.NoError(t, err)

	require.Len(t, b.prompts, 3)
	for _, p := range b.prompts {
		assert.True(t, strings.HasPrefix(p, brief+"\n\nYour task: Do step "), p)
	}

	b = &scripted{replies: []string{"a", "b", "c"}}
	_, err = paperCrew(b).Kickoff(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.prompts[0], "Do step Design Paper Structure"))
}

func TestKickoff_RecordsTranscript(t *testing.T) {
	out, err := paperCrew(&scripted{replies: []string{"a", "b", "c"}}).Kickoff(context.Background())
	require.NoError(t, err)

	conv := out.Transcript
	require.NotNil(t, conv)
	assert.Equal(t, 6, conv.Length())
	assert.Len(t, conv.MessagesByRole(yarn.RoleAssistant), 3)
	assert.Len(t, conv.Participants, 3)
	assert.Equal(t, "Review and Refine Questions", conv.Messages[conv.Length()-1].Task)
	assert.Nil(t, conv.Validate())
}

func TestKickoff_ReportsProgress(t *testing.T) {
	var events []Event
	ctx := WithProgress(context.Background(), func(e Event) { events = append(events, e) })

	_, err := paperCrew(&scripted{replies: []string{"a", "b", "c"}}).Kickoff(ctx)
	require.NoError(t, err)

	require.Len(t, events, 6)
	assert.Equal(t, TaskStarted, events[0].Kind)
	assert.Equal(t, 1, events[0].Index)
	assert.Equal(t, 3, events[0].Total)
	assert.Equal(t, "Paper Designer", events[0].Agent)
	assert.Equal(t, TaskFinished, events[5].Kind)
	assert.Equal(t, "Review and Refine Questions", events[5].Task)
}

func TestKickoff_StopsAtFirstFailure(t *testing.T) {
	b := &scripted{replies: []string{"a", "b", "c"}, failAt: 2}
	var kinds []EventKind
	ctx := WithProgress(context.Background(), func(e Event) { kinds = append(kinds, e.Kind) })

	out, err := paperCrew(b).Kickoff(ctx)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Len(t, b.prompts, 2, "third task never runs")
	assert.True(t, qerrors.IsCode(err, qerrors.ErrAgentChatFailed))
	assert.Equal(t, []EventKind{TaskStarted, TaskFinished, TaskStarted, TaskFailed}, kinds)
}

func TestKickoff_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := paperCrew(&scripted{}).Kickoff(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKickoff_NoTasks(t *testing.T) {
	_, err := New("empty", nil).Kickoff(context.Background())
	assert.True(t, qerrors.IsCode(err, qerrors.ErrAgentNotFound))
}

func TestCrewOutput_NilSafe(t *testing.T) {
	var out *CrewOutput
	raw, ok := out.RawOutput()
	assert.False(t, ok)
	assert.Empty(t, raw)
	assert.Empty(t, out.String())
}

func TestProgressFrom_Default(t *testing.T) {
	fn := ProgressFrom(context.Background())
	assert.NotPanics(t, func() { fn(Event{}) })
	assert.Equal(t, context.Background(), WithProgress(context.Background(), nil))
	assert.True(t, strings.HasPrefix(string(TaskStarted), "task_"))
}
