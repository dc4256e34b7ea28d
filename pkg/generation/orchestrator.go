package generation

import (
	"context"
	"fmt"

	"github.com/r3d91ll/quire/pkg/backend"
	"github.com/r3d91ll/quire/pkg/config"
	"github.com/r3d91ll/quire/pkg/crew"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/pkg/runtime"
	"github.com/r3d91ll/quire/wool"
)

// Orchestrator runs a request through whatever drafts the paper. The
// result is opaque; CrewAdapter extracts text from it.
type Orchestrator interface {
	Kickoff(ctx context.Context, req *paper.GenerationRequest) (any, error)
}

// OrchestratorFunc adapts a function to Orchestrator.
type OrchestratorFunc func(ctx context.Context, req *paper.GenerationRequest) (any, error)

func (f OrchestratorFunc) Kickoff(ctx context.Context, req *paper.GenerationRequest) (any, error) {
	return f(ctx, req)
}

// CrewOrchestrator assembles a fresh three-agent crew for every request.
type CrewOrchestrator struct {
	backends    *backend.Registry
	backendName string
	settings    func(role string) config.AgentConfig
	log         logger.Logger
}

// NewCrewOrchestrator binds crews to the named backend in reg. Per-role
// inference settings come from cfg.Agent.
func NewCrewOrchestrator(reg *backend.Registry, backendName string, cfg *config.Config, log logger.Logger) *CrewOrchestrator {
	if log == nil {
		log = logger.NewNoOp()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &CrewOrchestrator{
		backends:    reg,
		backendName: backendName,
		settings:    cfg.Agent,
		log:         log,
	}
}

// Kickoff returns a *crew.CrewOutput.
func (o *CrewOrchestrator) Kickoff(ctx context.Context, req *paper.GenerationRequest) (any, error) {
	c, err := o.Assemble(req)
	if err != nil {
		return nil, err
	}
	return c.Kickoff(ctx)
}

// Assemble builds the crew for req without running it.
func (o *CrewOrchestrator) Assemble(req *paper.GenerationRequest) (*crew.Crew, error) {
	agents := map[wool.Role]*runtime.Agent{}
	for _, def := range wool.Crew(req.Brief()) {
		s := o.settings(string(def.Role))
		def.Backend = o.backendName
		def.Model = s.Model
		def.MaxTokens = s.MaxTokens
		def.Temperature = *s.Temperature

		a, err := runtime.Spawn(o.backends, def)
		if err != nil {
			return nil, err
		}
		agents[def.Role] = a
	}

	tasks := make([]crew.Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		a, ok := agents[t.Role]
		if !ok {
			return nil, qerrors.Agent(qerrors.ErrAgentNotFound, "no agent for task role").
				WithContext("task", t.Name).
				WithContext("role", string(t.Role))
		}
		tasks = append(tasks, crew.Task{
			Name:           t.Name,
			Description:    t.Description,
			ExpectedOutput: t.ExpectedOutput,
			Agent:          a,
		})
	}

	name := fmt.Sprintf("%s Class %s %s", req.Subject, req.Grade, req.Board)
	return crew.New(name, tasks, crew.WithBrief(req.Directive), crew.WithLogger(o.log)), nil
}
