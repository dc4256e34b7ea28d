// Package generation turns a paper request into generated text through an
// orchestrator, and normalises whatever the orchestrator returns.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/r3d91ll/quire/pkg/crew"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/yarn"
)

// Generator drafts the text of a paper.
type Generator interface {
	Generate(ctx context.Context, req paper.GenerationRequest) (*Result, error)
}

// Result is the generated paper text.
type Result struct {
	Text string
	// Fallback is true when Text came from stringifying the result
	// rather than from a raw output field.
	Fallback bool
	Tasks    []crew.TaskOutput
	// Transcript is nil unless the orchestrator recorded one.
	Transcript *yarn.Conversation
	Elapsed    time.Duration
}

// RawOutputter is implemented by results that carry the final text.
type RawOutputter interface {
	RawOutput() (string, bool)
}

// CrewAdapter is the Generator backed by an Orchestrator.
type CrewAdapter struct {
	orch Orchestrator
	log  logger.Logger
}

// NewCrewAdapter wraps orch.
func NewCrewAdapter(orch Orchestrator, log logger.Logger) *CrewAdapter {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &CrewAdapter{orch: orch, log: log}
}

// Generate kicks off the orchestrator and extracts the text. Any failure,
// including a nil result or blank text, is a generation error.
func (a *CrewAdapter) Generate(ctx context.Context, req paper.GenerationRequest) (*Result, error) {
	start := time.Now()
	out, err := a.orch.Kickoff(ctx, &req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, failure(req, err)
	}
	if out == nil {
		return nil, qerrors.Generation(nil, qerrors.ErrGenerationEmptyOutput, "orchestrator returned no result").
			WithContext(qerrors.ContextSubject, string(req.Subject))
	}

	text, fallback := ExtractText(out)
	if fallback {
		a.log.Warn("result has no raw output; using its string form", map[string]interface{}{
			"subject": string(req.Subject),
			"type":    fmt.Sprintf("%T", out),
		})
	}
	if strings.TrimSpace(text) == "" {
		return nil, qerrors.Generation(nil, qerrors.ErrGenerationEmptyOutput, "generated paper is empty").
			WithContext(qerrors.ContextSubject, string(req.Subject))
	}

	res := &Result{Text: text, Fallback: fallback, Elapsed: elapsed}
	if co, ok := out.(*crew.CrewOutput); ok {
		res.Tasks = co.TasksOutput
		res.Transcript = co.Transcript
	}
	return res, nil
}

// ExtractText prefers a raw output field and falls back to fmt.Sprint.
// The second return reports the fallback.
func ExtractText(out any) (string, bool) {
	if r, ok := out.(RawOutputter); ok {
		if raw, ok := r.RawOutput(); ok {
			return raw, false
		}
	}
	return fmt.Sprint(out), true
}

func failure(req paper.GenerationRequest, err error) *qerrors.QuireError {
	code, msg := qerrors.ErrGenerationFailed, "paper generation failed"
	if errors.Is(err, context.DeadlineExceeded) || qerrors.IsCode(err, qerrors.ErrBackendTimeout) {
		code, msg = qerrors.ErrGenerationTimeout, "paper generation timed out"
	}
	return qerrors.Generation(err, code, msg).
		WithContext(qerrors.ContextSubject, string(req.Subject)).
		WithContext("board", req.Board)
}
