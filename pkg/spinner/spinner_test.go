package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/r3d91ll/quire/pkg/crew"
)

// syncBuffer guards a buffer shared with the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func boolPtr(b bool) *bool { return &b }

func TestSpinner_NonTTYPrintsLines(t *testing.T) {
	var out syncBuffer
	s := NewWithConfig(Config{Message: "Generating Physics paper for Class 9 (Federal Board)...", Writer: &out, IsTTY: boolPtr(false)})

	s.Start()
	assert.True(t, s.IsActive())
	s.Update("step two")
	s.Success("Paper generated successfully!")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Generating Physics paper for Class 9 (Federal Board)...",
		"step two",
		"✓ Paper generated successfully!",
	}, lines)
	assert.NotContains(t, out.String(), "\033[")
	assert.False(t, s.IsActive())
}

func TestSpinner_TTYAnimatesAndCleansUp(t *testing.T) {
	var out syncBuffer
	s := NewWithConfig(Config{Message: "working", Writer: &out, IsTTY: boolPtr(true), CharSet: Line, RefreshRate: 5 * time.Millisecond})

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Fail("generation failed")

	got := out.String()
	assert.True(t, strings.HasPrefix(got, hideCursor))
	assert.Contains(t, got, "| working")
	assert.Contains(t, got, showCursor)
	assert.Contains(t, got, colorRed+symbolFailure+colorReset+" generation failed")
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	var out syncBuffer
	s := NewWithConfig(Config{Message: "x", Writer: &out, IsTTY: boolPtr(true), RefreshRate: time.Millisecond})
	s.Stop()
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
	assert.False(t, s.IsActive())
}

func TestSpinner_ProgressFromCrewEvents(t *testing.T) {
	var out syncBuffer
	s := NewWithConfig(Config{Message: "start", Writer: &out, IsTTY: boolPtr(false)})
	s.Start()

	progress := s.Progress()
	progress(crew.Event{Kind: crew.TaskStarted, Index: 2, Total: 3, Task: "Generate Questions", Agent: "Question Generator"})
	assert.Equal(t, "[2/3] Question Generator: Generate Questions", s.Message())

	progress(crew.Event{Kind: crew.TaskFinished, Index: 2, Total: 3})
	assert.Equal(t, "[2/3] Question Generator: Generate Questions", s.Message(), "finish keeps the message")

	progress(crew.Event{Kind: crew.TaskFailed, Index: 3, Total: 3, Task: "Review and Refine Questions", Elapsed: 1500 * time.Millisecond})
	assert.Equal(t, "[3/3] Review and Refine Questions failed after 1.5s", s.Message())
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "(1.2s)", formatElapsed(1200*time.Millisecond))
	assert.Equal(t, "(1m 30s)", formatElapsed(90*time.Second))
}
