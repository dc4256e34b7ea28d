// Package render turns a generated document into PDF bytes: right-to-left
// text is shaped and reordered, lines are paginated, and each page is
// painted onto a canvas.
package render

import (
	"context"
	"fmt"
	"time"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/fonts"
	"github.com/r3d91ll/quire/pkg/layout"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/pkg/pdf"
	"github.com/r3d91ll/quire/pkg/shaping"
)

// Metadata is copied into the PDF Info dictionary.
type Metadata struct {
	Title   string
	Subject string
	Author  string
}

// Result is a rendered document.
type Result struct {
	Pages []layout.Page
	PDF   []byte
}

// LineCount returns the number of lines drawn across all pages.
func (r *Result) LineCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Lines)
	}
	return n
}

// Renderer paints documents. It is safe for concurrent use; every call
// gets its own canvas.
type Renderer struct {
	pager    *layout.Paginator
	embedded map[string]*fonts.Font
	base     pdf.Config
	log      logger.Logger
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStrictEncoding makes characters a font cannot draw a render error.
func WithStrictEncoding(strict bool) Option {
	return func(r *Renderer) { r.base.StrictEncoding = strict }
}

// WithCompression toggles Flate compression of page streams.
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.base.Compress = on }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithClock fixes the document timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// New resolves every profile font against reg. A profile naming a font
// that is neither built in nor registered fails here, before any request
// is served.
func New(reg *fonts.Registry, pager *layout.Paginator, opts ...Option) (*Renderer, error) {
	if pager == nil {
		pager = layout.New()
	}
	geom := pager.Geometry()
	r := &Renderer{
		pager:    pager,
		embedded: map[string]*fonts.Font{},
		base:     pdf.DefaultConfig(),
		log:      logger.NewNoOp(),
		now:      time.Now,
	}
	r.base.Width = geom.Width
	r.base.Height = geom.Height
	for _, opt := range opts {
		opt(r)
	}

	for _, prof := range pager.Profiles() {
		if prof.Font == pdf.Helvetica {
			continue
		}
		if reg == nil {
			return nil, qerrors.Resource(qerrors.ErrResourceFontNotRegistered, "no font registry for profile font").
				WithContext("font", prof.Font)
		}
		f, err := reg.Require(prof.Font)
		if err != nil {
			return nil, err
		}
		r.embedded[prof.Font] = f
	}
	return r, nil
}

// Paginator returns the layout used by the renderer.
func (r *Renderer) Paginator() *layout.Paginator {
	return r.pager
}

// Layout shapes and paginates doc without painting it.
func (r *Renderer) Layout(doc paper.Document) []layout.Page {
	text := doc.Text
	if doc.Direction == paper.RightToLeft {
		text = shaping.Visual(text)
	}
	return r.pager.Paginate(paper.SplitLines(text), doc.Direction)
}

// Render lays out doc and paints it to PDF.
func (r *Renderer) Render(ctx context.Context, doc paper.Document, meta Metadata) (*Result, error) {
	pages := r.Layout(doc)

	cfg := r.base
	cfg.Title = meta.Title
	cfg.Subject = meta.Subject
	cfg.Author = meta.Author
	cfg.CreatedAt = r.now()
	canvas := pdf.NewCanvas(cfg)

	prof := r.pager.Profile(doc.Direction)
	if f, ok := r.embedded[prof.Font]; ok {
		if err := canvas.AddTrueType(f); err != nil {
			return nil, err
		}
	}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, qerrors.RenderWrap(err, qerrors.ErrRenderFailed, "render cancelled")
		}
		if i > 0 {
			canvas.ShowPage()
		}
		if err := canvas.SetFont(page.Profile.Font, page.Profile.Size); err != nil {
			return nil, err
		}
		for j, line := range page.Lines {
			var err error
			if line.Align == layout.AlignRight {
				err = canvas.DrawRightString(line.X, line.Y, line.Content)
			} else {
				err = canvas.DrawString(line.X, line.Y, line.Content)
			}
			if err != nil {
				if qe, ok := qerrors.AsQuireError(err); ok {
					qe.WithContext("page", fmt.Sprint(page.Number)).WithContext("line", fmt.Sprint(j+1))
				}
				return nil, err
			}
		}
	}

	res := &Result{Pages: pages, PDF: canvas.Bytes()}
	r.log.Debug("document rendered", map[string]interface{}{
		"direction": doc.Direction.String(),
		"pages":     len(pages),
		"lines":     res.LineCount(),
		"bytes":     len(res.PDF),
	})
	return res, nil
}
