package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/fonts"
	"github.com/r3d91ll/quire/pkg/layout"
	"github.com/r3d91ll/quire/pkg/paper"
)

func registry(t *testing.T) *fonts.Registry {
	t.Helper()
	f, err := fonts.Parse("UrduFont", goregular.TTF)
	require.NoError(t, err)
	reg := fonts.NewRegistry()
	require.NoError(t, reg.Add(f))
	reg.Seal()
	return reg
}

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	opts = append([]Option{
		WithCompression(false),
		WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }),
	}, opts...)
	r, err := New(registry(t), layout.New(), opts...)
	require.NoError(t, err)
	return r
}

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("Q%d. Define the term.", i+1)
	}
	return strings.Join(lines, "\n")
}

func pageObjects(data []byte) int {
	return bytes.Count(data, []byte("/Type /Page\n"))
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

func TestNew_FailsWithoutRTLFont(t *testing.T) {
	_, err := New(fonts.NewRegistry(), layout.New())
	require.Error(t, err)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrResourceFontNotRegistered))
	assert.True(t, qerrors.IsCategory(err, qerrors.CategoryResource))

	_, err = New(nil, layout.New())
	assert.True(t, qerrors.IsCode(err, qerrors.ErrResourceFontNotRegistered))
}

func TestNew_HelveticaOnlyProfilesNeedNoRegistry(t *testing.T) {
	pager := layout.New(layout.WithProfile(paper.RightToLeft, layout.Profile{
		Font: "Helvetica", Size: 14, X: 550, Align: layout.AlignRight,
	}))
	_, err := New(nil, pager)
	assert.NoError(t, err)
}

// -----------------------------------------------------------------------------
// Left-to-right
// -----------------------------------------------------------------------------

func TestRender_EmptyTextIsOneBlankPage(t *testing.T) {
	res, err := newRenderer(t).Render(context.Background(), paper.NewDocument("", paper.LeftToRight), Metadata{})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Empty(t, res.Pages[0].Lines)
	assert.Equal(t, 1, pageObjects(res.PDF))
}

func TestRender_PaginatesAtTwentyNineLines(t *testing.T) {
	res, err := newRenderer(t).Render(context.Background(),
		paper.NewDocument(numbered(60), paper.LeftToRight), Metadata{Title: "Science"})
	require.NoError(t, err)

	require.Len(t, res.Pages, 3)
	assert.Len(t, res.Pages[0].Lines, 29)
	assert.Len(t, res.Pages[1].Lines, 29)
	assert.Len(t, res.Pages[2].Lines, 2)
	assert.Equal(t, 60, res.LineCount())
	assert.Equal(t, 3, pageObjects(res.PDF))

	first := res.Pages[1].Lines[0]
	assert.Equal(t, 750.0, first.Y)
	assert.Equal(t, 50.0, first.X)
	assert.Equal(t, 50.0, res.Pages[0].Lines[28].Y)

	data := string(res.PDF)
	assert.Contains(t, data, "/F1 12.00 Tf\n50.00 750.00 Td\n(Q1. Define the term.) Tj")
	assert.Contains(t, data, "/Title (Science)")
	assert.NotContains(t, data, "/FontFile2", "LTR output does not embed the RTL font")
}

func TestRender_ExactPageBoundary(t *testing.T) {
	res, err := newRenderer(t).Render(context.Background(),
		paper.NewDocument(numbered(29), paper.LeftToRight), Metadata{})
	require.NoError(t, err)
	assert.Len(t, res.Pages, 1)

	res, err = newRenderer(t).Render(context.Background(),
		paper.NewDocument(numbered(30), paper.LeftToRight), Metadata{})
	require.NoError(t, err)
	assert.Len(t, res.Pages, 2)
}

func TestRender_BlankLinesKeepTheirSlot(t *testing.T) {
	res, err := newRenderer(t).Render(context.Background(),
		paper.NewDocument("Section A\n\nSection B", paper.LeftToRight), Metadata{})
	require.NoError(t, err)
	lines := res.Pages[0].Lines
	require.Len(t, lines, 3)
	assert.Equal(t, 700.0, lines[2].Y)
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRenderer(t).Render(ctx, paper.NewDocument("x", paper.LeftToRight), Metadata{})
	assert.True(t, qerrors.IsCode(err, qerrors.ErrRenderFailed))
}

// -----------------------------------------------------------------------------
// Right-to-left
// -----------------------------------------------------------------------------

func TestLayout_RTLShapesAndAnchorsRight(t *testing.T) {
	// beh alef joins: beh initial, alef final; visual order puts alef first.
	pages := newRenderer(t).Layout(paper.NewDocument("\u0628\u0627\n\u0628", paper.RightToLeft))
	require.Len(t, pages, 1)
	lines := pages[0].Lines
	require.Len(t, lines, 2)

	assert.Equal(t, "\uFE8E\uFE91", lines[0].Content)
	assert.Equal(t, "\uFE8F", lines[1].Content)
	for _, l := range lines {
		assert.Equal(t, 550.0, l.X)
		assert.Equal(t, layout.AlignRight, l.Align)
	}
	assert.Equal(t, "UrduFont", pages[0].Profile.Font)
	assert.Equal(t, 14.0, pages[0].Profile.Size)
}

func TestRender_RTLEmbedsFont(t *testing.T) {
	res, err := newRenderer(t).Render(context.Background(),
		paper.NewDocument("سوال ۱\nجواب", paper.RightToLeft), Metadata{})
	require.NoError(t, err)
	data := string(res.PDF)
	assert.Contains(t, data, "/Subtype /Type0")
	assert.Contains(t, data, "/F1 14.00 Tf")
	assert.Contains(t, data, "] TJ")
}

func TestRender_UrduWithArabicFontIsStrictClean(t *testing.T) {
	data, err := os.ReadFile("../../testdata/fonts/Amiri-Regular.ttf")
	require.NoError(t, err)
	f, err := fonts.Parse("UrduFont", data)
	require.NoError(t, err)
	reg := fonts.NewRegistry()
	require.NoError(t, reg.Add(f))
	reg.Seal()

	r, err := New(reg, layout.New(), WithCompression(false), WithStrictEncoding(true))
	require.NoError(t, err)
	res, err := r.Render(context.Background(),
		paper.NewDocument("اسلامیات کا پرچہ\nسوال ۱: لا الہ الا اللہ", paper.RightToLeft), Metadata{})
	require.NoError(t, err)

	q, ok := f.GlyphIndex('?')
	require.True(t, ok)
	shows := regexp.MustCompile(`\[[^\]]*\] TJ`).FindAllString(string(res.PDF), -1)
	require.Len(t, shows, 2)
	for _, op := range shows {
		assert.NotContains(t, op, fmt.Sprintf("<%04X>", q))
		assert.NotContains(t, op, "<0000>")
	}
}

func TestRender_RTLStrictEncodingFails(t *testing.T) {
	// the test font has no Arabic glyphs
	_, err := newRenderer(t, WithStrictEncoding(true)).Render(context.Background(),
		paper.NewDocument("سوال", paper.RightToLeft), Metadata{})
	require.Error(t, err)
	qe, ok := qerrors.AsQuireError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.ErrRenderEncodingFailed, qe.Code)
	assert.Equal(t, "1", qe.Context["page"])
	assert.Equal(t, "1", qe.Context["line"])
}
