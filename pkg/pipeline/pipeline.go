// Package pipeline runs one selection end to end: build the request,
// generate the text, render the PDF.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/generation"
	"github.com/r3d91ll/quire/pkg/layout"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/metrics"
	"github.com/r3d91ll/quire/pkg/observability"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/pkg/render"
)

// otherBoard labels metrics for boards outside the table.
const otherBoard = "other"

// Outcome is everything one run produced. After a render failure PDF is
// nil but Text and Document are set.
type Outcome struct {
	Request    paper.GenerationRequest
	Text       string
	Generation *generation.Result
	Document   paper.Document
	Pages      []layout.Page
	PDF        []byte
}

// Filename is the download name for the PDF.
func (o *Outcome) Filename() string {
	return o.Request.DownloadName()
}

// Pipeline wires the builder, the generator and the renderer.
type Pipeline struct {
	builder   *paper.Builder
	generator generation.Generator
	renderer  *render.Renderer
	log       logger.Logger
}

// New returns a pipeline.
func New(b *paper.Builder, g generation.Generator, r *render.Renderer, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Pipeline{builder: b, generator: g, renderer: r, log: log}
}

// Builder returns the request builder.
func (p *Pipeline) Builder() *paper.Builder {
	return p.builder
}

// boardLabel keeps metric series bounded: boards the table does not
// offer are counted as "other".
func (p *Pipeline) boardLabel(name string) string {
	if p.builder.Boards().Offers(name) {
		return name
	}
	return otherBoard
}

// Progress is the message shown while the crew runs.
func Progress(req paper.GenerationRequest) string {
	return fmt.Sprintf("Generating %s paper for Class %s (%s Board)...", req.Subject, req.Grade, req.Board)
}

// Run executes the pipeline. Validation errors abort before generation;
// a generation failure returns no outcome; a render failure returns the
// outcome with the text and the error.
func (p *Pipeline) Run(ctx context.Context, sel paper.Selection) (out *Outcome, err error) {
	ctx, span := observability.Start(ctx, "pipeline.run",
		attribute.String("subject", sel.Subject),
		attribute.String("grade", sel.Grade),
		attribute.String("board", sel.Board))
	defer func() { observability.End(span, err) }()

	req, err := p.build(ctx, sel)
	if err != nil {
		return nil, err
	}
	metrics.PapersRequested.WithLabelValues(string(req.Subject), p.boardLabel(req.Board)).Inc()
	log := p.log.With(map[string]interface{}{
		"subject": string(req.Subject), "grade": req.Grade.String(), "board": req.Board,
	})
	log.Info(Progress(req), nil)

	gen, err := p.generate(ctx, req)
	if err != nil {
		log.WithError(err).Error("generation failed", nil)
		return nil, err
	}

	out = &Outcome{
		Request:    req,
		Text:       gen.Text,
		Generation: gen,
		Document:   paper.NewDocument(gen.Text, req.Direction),
	}

	res, err := p.render(ctx, out)
	if err != nil {
		log.WithError(err).Error("render failed", nil)
		return out, err
	}
	out.Pages = res.Pages
	out.PDF = res.PDF

	log.Info("paper ready", map[string]interface{}{
		"pages": len(out.Pages), "bytes": len(out.PDF), "file": out.Filename(),
	})
	return out, nil
}

func (p *Pipeline) build(ctx context.Context, sel paper.Selection) (req paper.GenerationRequest, err error) {
	_, span := observability.Start(ctx, "pipeline.build")
	defer func() { observability.End(span, err) }()
	defer observeStage(metrics.StageBuild, time.Now())

	req, err = p.builder.Build(sel)
	if err != nil {
		fail(metrics.StageBuild, err)
	}
	return req, err
}

func (p *Pipeline) generate(ctx context.Context, req paper.GenerationRequest) (res *generation.Result, err error) {
	ctx, span := observability.Start(ctx, "pipeline.generate",
		attribute.String("subject", string(req.Subject)),
		attribute.Int("tasks", len(req.Tasks)))
	defer func() { observability.End(span, err) }()
	defer observeStage(metrics.StageGenerate, time.Now())

	res, err = p.generator.Generate(ctx, req)
	if err != nil {
		fail(metrics.StageGenerate, err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("fallback", res.Fallback), attribute.Int("chars", len(res.Text)))
	return res, nil
}

func (p *Pipeline) render(ctx context.Context, out *Outcome) (res *render.Result, err error) {
	ctx, span := observability.Start(ctx, "pipeline.render",
		attribute.String("direction", out.Document.Direction.String()))
	defer func() { observability.End(span, err) }()
	defer observeStage(metrics.StageRender, time.Now())

	req := out.Request
	res, err = p.renderer.Render(ctx, out.Document, render.Metadata{
		Title:   fmt.Sprintf("%s Paper Class %s", req.Subject, req.Grade),
		Subject: fmt.Sprintf("%s Board", req.Board),
		Author:  "Quire",
	})
	if err != nil {
		fail(metrics.StageRender, err)
		return nil, err
	}
	metrics.PapersRendered.WithLabelValues(out.Document.Direction.String()).Inc()
	metrics.PagesRendered.Observe(float64(len(res.Pages)))
	span.SetAttributes(attribute.Int("pages", len(res.Pages)))
	return res, nil
}

func observeStage(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func fail(stage string, err error) {
	metrics.PipelineFailures.WithLabelValues(stage, string(qerrors.CategoryOf(err))).Inc()
}
