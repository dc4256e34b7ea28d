package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/r3d91ll/quire/pkg/board"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/fonts"
	"github.com/r3d91ll/quire/pkg/generation"
	"github.com/r3d91ll/quire/pkg/layout"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/metrics"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/pkg/render"
)

type stubGenerator struct {
	text  string
	err   error
	calls int
	last  paper.GenerationRequest
}

func (g *stubGenerator) Generate(_ context.Context, req paper.GenerationRequest) (*generation.Result, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &generation.Result{Text: g.text}, nil
}

func newPipeline(t *testing.T, g generation.Generator, opts ...render.Option) *Pipeline {
	t.Helper()
	f, err := fonts.Parse("UrduFont", goregular.TTF)
	require.NoError(t, err)
	reg := fonts.NewRegistry()
	require.NoError(t, reg.Add(f))
	reg.Seal()

	r, err := render.New(reg, layout.New(), append([]render.Option{render.WithCompression(false)}, opts...)...)
	require.NoError(t, err)
	return New(paper.NewBuilder(board.DefaultTable(), nil), g, r, logger.NewTest(t))
}

func lines(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Q%d. Explain.", i+1)
	}
	return strings.Join(out, "\n")
}

func TestRun_ProducesPDF(t *testing.T) {
	g := &stubGenerator{text: lines(40)}
	out, err := newPipeline(t, g).Run(context.Background(), paper.Selection{Subject: "Physics", Grade: "9", Board: "Federal"})
	require.NoError(t, err)

	assert.Equal(t, 1, g.calls)
	assert.Equal(t, 20, g.last.Pattern.MCQs)
	assert.Equal(t, lines(40), out.Text)
	assert.Equal(t, paper.LeftToRight, out.Document.Direction)
	require.Len(t, out.Pages, 2)
	assert.Len(t, out.Pages[0].Lines, 29)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF-1.4")))
	assert.Equal(t, 2, bytes.Count(out.PDF, []byte("/Type /Page\n")))
	assert.Equal(t, "Physics_Paper_Class_9_Federal.pdf", out.Filename())
}

func TestRun_RightToLeftSubject(t *testing.T) {
	g := &stubGenerator{text: "باب"}
	out, err := newPipeline(t, g).Run(context.Background(), paper.Selection{Subject: "Islamiat", Grade: "7", Board: "Sindh"})
	require.NoError(t, err)

	assert.Equal(t, "Urdu", g.last.Language)
	assert.Equal(t, board.DefaultPattern, g.last.Pattern)
	assert.Equal(t, paper.RightToLeft, out.Document.Direction)
	require.Len(t, out.Pages, 1)
	assert.Equal(t, layout.AlignRight, out.Pages[0].Lines[0].Align)
	assert.Contains(t, string(out.PDF), "/Subtype /Type0")
}

func TestRun_ValidationStopsBeforeGeneration(t *testing.T) {
	tests := []struct {
		name string
		sel  paper.Selection
		code string
	}{
		{"grade too low", paper.Selection{Subject: "Physics", Grade: "4", Board: "Punjab"}, qerrors.ErrValidationInvalidGrade},
		{"unknown subject", paper.Selection{Subject: "Astrology", Grade: "9", Board: "Punjab"}, qerrors.ErrValidationInvalidSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &stubGenerator{text: "unused"}
			out, err := newPipeline(t, g).Run(context.Background(), tt.sel)
			assert.Nil(t, out)
			assert.True(t, qerrors.IsCode(err, tt.code))
			assert.Zero(t, g.calls)
		})
	}
}

func TestRun_GenerationFailureHasNoOutcome(t *testing.T) {
	cause := qerrors.Generation(errors.New("quota"), qerrors.ErrGenerationFailed, "paper generation failed")
	out, err := newPipeline(t, &stubGenerator{err: cause}).Run(context.Background(), paper.Selection{Subject: "Biology", Grade: "10", Board: "Punjab"})
	assert.Nil(t, out)
	assert.True(t, qerrors.IsCategory(err, qerrors.CategoryGeneration))
}

func TestRun_RenderFailureKeepsText(t *testing.T) {
	text := "Q1. Name the element 水."
	p := newPipeline(t, &stubGenerator{text: text}, render.WithStrictEncoding(true))

	out, err := p.Run(context.Background(), paper.Selection{Subject: "Chemistry", Grade: "11", Board: "Punjab"})
	require.Error(t, err)
	assert.True(t, qerrors.IsCategory(err, qerrors.CategoryRender))
	require.NotNil(t, out)
	assert.Equal(t, text, out.Text)
	assert.Nil(t, out.PDF)
}

func TestRun_UnknownBoardsShareOneSeries(t *testing.T) {
	p := newPipeline(t, &stubGenerator{text: "Q1."})
	other := metrics.PapersRequested.WithLabelValues("Biology", otherBoard)
	before := testutil.ToFloat64(other)
	series := testutil.CollectAndCount(metrics.PapersRequested)

	for i := 0; i < 5; i++ {
		_, err := p.Run(context.Background(), paper.Selection{Subject: "Biology", Grade: "8", Board: fmt.Sprintf("board-%d", i)})
		require.NoError(t, err)
	}
	assert.Equal(t, before+5, testutil.ToFloat64(other))
	assert.Equal(t, series, testutil.CollectAndCount(metrics.PapersRequested))

	kpk := metrics.PapersRequested.WithLabelValues("Biology", board.KPK)
	before = testutil.ToFloat64(kpk)
	_, err := p.Run(context.Background(), paper.Selection{Subject: "Biology", Grade: "8", Board: board.KPK})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(kpk))
}

func TestProgress(t *testing.T) {
	req, err := paper.NewBuilder(board.DefaultTable(), nil).Build(paper.Selection{Subject: "Urdu_A", Grade: "8", Board: "KPK"})
	require.NoError(t, err)
	assert.Equal(t, "Generating Urdu_A paper for Class 8 (KPK Board)...", Progress(req))
}
