package main

import (
	"github.com/r3d91ll/quire/pkg/backend"
	"github.com/r3d91ll/quire/pkg/board"
	"github.com/r3d91ll/quire/pkg/config"
	"github.com/r3d91ll/quire/pkg/fonts"
	"github.com/r3d91ll/quire/pkg/generation"
	"github.com/r3d91ll/quire/pkg/layout"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/pkg/pipeline"
	"github.com/r3d91ll/quire/pkg/render"
)

// backendName is the registry key of the configured LLM endpoint.
const backendName = "gemini"

// app holds the wired components shared by serve and generate.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	boards   *board.Table
	backends *backend.Registry
	pipeline *pipeline.Pipeline
}

// newApp loads the Urdu font, registers the LLM backend and assembles
// the paper pipeline. A missing font is fatal.
func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	reg := fonts.NewRegistry()
	if err := reg.Register(cfg.Fonts.UrduName, cfg.Fonts.UrduPath); err != nil {
		return nil, err
	}
	reg.Seal()

	var layoutOpts []layout.Option
	if cfg.Fonts.UrduName != layout.RightToLeft.Font {
		rtl := layout.RightToLeft
		rtl.Font = cfg.Fonts.UrduName
		layoutOpts = append(layoutOpts, layout.WithProfile(paper.RightToLeft, rtl))
	}
	renderer, err := render.New(reg, layout.New(layoutOpts...),
		render.WithStrictEncoding(cfg.Render.StrictEncoding),
		render.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	backends := backend.NewRegistry()
	llm := backend.NewOpenAI(backend.OpenAIConfig{
		Name:    backendName,
		URL:     cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
		Timeout: cfg.LLM.Timeout,
	})
	if err := backends.Register(backendName, llm); err != nil {
		return nil, err
	}

	boards := boardTable(cfg.Boards)
	orch := generation.NewCrewOrchestrator(backends, backendName, cfg, log)
	gen := generation.NewCrewAdapter(orch, log)

	return &app{
		cfg:      cfg,
		log:      log,
		boards:   boards,
		backends: backends,
		pipeline: pipeline.New(paper.NewBuilder(boards, nil), gen, renderer, log),
	}, nil
}

// boardTable layers configured boards over the built-in table.
func boardTable(extra []config.BoardConfig) *board.Table {
	entries := make([]board.Entry, 0, len(extra))
	for _, b := range extra {
		entries = append(entries, board.Entry{
			Name: b.Name,
			Pattern: board.Pattern{
				MCQs:     b.MCQs,
				ShortQs:  b.ShortQs,
				LongQs:   b.LongQs,
				Syllabus: b.Syllabus,
			},
		})
	}
	return board.DefaultTable().With(entries...)
}
