// Package crew runs a fixed sequence of agent tasks. Each task sees the
// outputs of the tasks before it; the last task's output is the crew's.
package crew

import (
	"context"
	"fmt"
	"strings"
	"time"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/metrics"
	"github.com/r3d91ll/quire/pkg/runtime"
	"github.com/r3d91ll/quire/wool"
	"github.com/r3d91ll/quire/yarn"
)

// Task is one unit of crew work assigned to an agent.
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *runtime.Agent
}

// TaskOutput is what one task produced.
type TaskOutput struct {
	Name  string    `json:"name"`
	Agent string    `json:"agent"`
	Role  wool.Role `json:"role"`
	Raw   string    `json:"raw"`
}

// CrewOutput is the result of a kickoff.
type CrewOutput struct {
	Raw         string       `json:"raw"`
	TasksOutput []TaskOutput `json:"tasks_output"`

	Transcript *yarn.Conversation `json:"-"`
}

// RawOutput returns the final task's text.
func (o *CrewOutput) RawOutput() (string, bool) {
	if o == nil {
		return "", false
	}
	return o.Raw, true
}

func (o *CrewOutput) String() string {
	if o == nil {
		return ""
	}
	return o.Raw
}

// Crew runs tasks in order. A Crew is built per request.
type Crew struct {
	name  string
	brief string
	tasks []Task
	log   logger.Logger
}

// Option configures a Crew.
type Option func(*Crew)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Crew) { c.log = l }
}

// WithBrief sets instructions that open every task prompt.
func WithBrief(brief string) Option {
	return func(c *Crew) { c.brief = strings.TrimSpace(brief) }
}

// New creates a crew named name, used for the transcript.
func New(name string, tasks []Task, opts ...Option) *Crew {
	c := &Crew{name: name, tasks: tasks, log: logger.NewNoOp()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kickoff executes the tasks sequentially. The first failure stops the
// run; its error is returned as is.
func (c *Crew) Kickoff(ctx context.Context) (*CrewOutput, error) {
	if len(c.tasks) == 0 {
		return nil, qerrors.Agent(qerrors.ErrAgentNotFound, "crew has no tasks").
			WithContext("crew", c.name)
	}

	progress := ProgressFrom(ctx)
	conv := yarn.NewConversation(c.name)
	out := &CrewOutput{Transcript: conv}
	total := len(c.tasks)

	for i, task := range c.tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		agent := task.Agent
		ev := Event{
			Index: i + 1,
			Total: total,
			Task:  task.Name,
			Agent: agent.Name(),
			Role:  agent.Role(),
		}
		ev.Kind = TaskStarted
		progress(ev)
		c.log.Info("crew task started", map[string]interface{}{
			"crew": c.name, "task": task.Name, "agent": agent.Name(), "step": fmt.Sprintf("%d/%d", i+1, total),
		})

		start := time.Now()
		prompt := yarn.NewMessage(yarn.RoleUser, taskPrompt(c.brief, task, out.TasksOutput)).WithTask(task.Name)
		conv.Add(prompt)

		reply, err := agent.Chat(ctx, []*yarn.Message{prompt})
		ev.Elapsed = time.Since(start)
		if err != nil {
			metrics.CrewTasks.WithLabelValues(string(agent.Role()), "error").Inc()
			ev.Kind = TaskFailed
			progress(ev)
			c.log.WithError(err).Error("crew task failed", map[string]interface{}{
				"crew": c.name, "task": task.Name, "agent": agent.Name(),
			})
			return nil, err
		}
		metrics.CrewTasks.WithLabelValues(string(agent.Role()), "ok").Inc()

		reply.WithTask(task.Name)
		conv.Add(reply)
		out.TasksOutput = append(out.TasksOutput, TaskOutput{
			Name:  task.Name,
			Agent: agent.Name(),
			Role:  agent.Role(),
			Raw:   reply.Content,
		})

		ev.Kind = TaskFinished
		progress(ev)
		c.log.Debug("crew task finished", map[string]interface{}{
			"task": task.Name, "elapsed_ms": ev.Elapsed.Milliseconds(), "chars": len(reply.Content),
		})
	}

	if verr := conv.Validate(); verr != nil {
		c.log.Warn("crew transcript invalid", map[string]interface{}{
			"crew": c.name, "field": verr.Field, "reason": verr.Message,
		})
	}
	out.Raw = out.TasksOutput[len(out.TasksOutput)-1].Raw
	return out, nil
}

// taskPrompt frames a task with the crew brief and the work done so far.
func taskPrompt(brief string, task Task, previous []TaskOutput) string {
	var sb strings.Builder
	if brief != "" {
		sb.WriteString(brief)
		sb.WriteString("\n\nYour task: ")
	}
	sb.WriteString(task.Description)
	if task.ExpectedOutput != "" {
		fmt.Fprintf(&sb, "\n\nExpected output: %s", task.ExpectedOutput)
	}
	if len(previous) > 0 {
		sb.WriteString("\n\nContext from previous tasks:")
		for _, p := range previous {
			fmt.Fprintf(&sb, "\n\n[%s by %s]\n%s", p.Name, p.Agent, p.Raw)
		}
	}
	return sb.String()
}
