// Package fonts loads TrueType fonts for embedding and keeps the
// startup-time registry of named fonts.
package fonts

import (
	"bytes"
	"errors"
	"io/fs"
	"math"
	"os"
	"strings"

	gofont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// Font is a parsed TrueType font with the metrics a PDF font
// descriptor needs, in 1/1000 em units.
type Font struct {
	Name           string
	Path           string
	PostScriptName string
	Data           []byte

	UnitsPerEm  int
	Ascent      float64
	Descent     float64
	BBox        [4]float64
	ItalicAngle float64
	// DefaultWidth is the advance of glyph 0.
	DefaultWidth int

	widths []int
	sfnt   *sfnt.Font
	ttf    *gofont.Font
}

// Load reads and parses the font file at path.
func Load(name, path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := qerrors.ErrResourceFontInvalid
		msg := "font file could not be read"
		if errors.Is(err, fs.ErrNotExist) {
			code = qerrors.ErrResourceFontMissing
			msg = "font file not found"
		}
		return nil, qerrors.ResourceWrap(err, code, msg).
			WithContext("font", name).
			WithContext(qerrors.ContextPath, path)
	}
	f, err := Parse(name, data)
	if err != nil {
		if qe, ok := qerrors.AsQuireError(err); ok {
			qe.WithContext(qerrors.ContextPath, path)
		}
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Parse builds a Font from raw TrueType data.
func Parse(name string, data []byte) (*Font, error) {
	invalid := func(cause error, msg string) error {
		return qerrors.ResourceWrap(cause, qerrors.ErrResourceFontInvalid, msg).WithContext("font", name)
	}
	if len(data) == 0 {
		return nil, invalid(nil, "font data is empty")
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, invalid(err, "parse truetype")
	}
	unitsPerEm := sf.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, invalid(nil, "invalid unitsPerEm")
	}
	face, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, invalid(err, "parse font face")
	}

	var buf sfnt.Buffer
	ppem := fixed.Int26_6(unitsPerEm << 6)

	f := &Font{
		Name:       name,
		Data:       data,
		UnitsPerEm: int(unitsPerEm),
		sfnt:       sf,
		ttf:        face.Font,
	}

	f.PostScriptName = strings.TrimSpace(name)
	if ps, _ := sf.Name(&buf, sfnt.NameIDPostScript); len(ps) > 0 {
		f.PostScriptName = ps
	}
	f.PostScriptName = strings.ReplaceAll(f.PostScriptName, " ", "")
	if f.PostScriptName == "" {
		f.PostScriptName = "CustomTT"
	}

	n := sf.NumGlyphs()
	f.widths = make([]int, n)
	for i := 0; i < n; i++ {
		adv, err := sf.GlyphAdvance(&buf, sfnt.GlyphIndex(i), ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		f.widths[i] = int(math.Round(scaleFixed(adv, unitsPerEm)))
	}
	f.DefaultWidth = 1000
	if n > 0 && f.widths[0] > 0 {
		f.DefaultWidth = f.widths[0]
	}

	if metrics, err := sf.Metrics(&buf, ppem, xfont.HintingNone); err == nil {
		f.Ascent = scaleFixed(metrics.Ascent, unitsPerEm)
		f.Descent = -scaleFixed(metrics.Descent, unitsPerEm)
	}
	if bounds, err := sf.Bounds(&buf, ppem, xfont.HintingNone); err == nil {
		f.BBox = [4]float64{
			scaleFixed(bounds.Min.X, unitsPerEm),
			-scaleFixed(bounds.Max.Y, unitsPerEm),
			scaleFixed(bounds.Max.X, unitsPerEm),
			-scaleFixed(bounds.Min.Y, unitsPerEm),
		}
	}
	if post := sf.PostTable(); post != nil {
		f.ItalicAngle = post.ItalicAngle
	}
	return f, nil
}

// NewFace returns a shaping face. Faces cache state, so each canvas
// takes its own; the underlying font is shared.
func (f *Font) NewFace() *gofont.Face {
	return gofont.NewFace(f.ttf)
}

// NumGlyphs returns the glyph count.
func (f *Font) NumGlyphs() int {
	return len(f.widths)
}

// GlyphIndex returns the glyph for r and whether the font maps it.
func (f *Font) GlyphIndex(r rune) (int, bool) {
	var buf sfnt.Buffer
	gi, err := f.sfnt.GlyphIndex(&buf, r)
	if err != nil || gi == 0 {
		return 0, false
	}
	return int(gi), true
}

// HasRune reports whether the font maps r.
func (f *Font) HasRune(r rune) bool {
	_, ok := f.GlyphIndex(r)
	return ok
}

// Width returns the advance of glyph gid in 1/1000 em.
func (f *Font) Width(gid int) int {
	if gid < 0 || gid >= len(f.widths) {
		return f.DefaultWidth
	}
	return f.widths[gid]
}

// scaleFixed converts a value at ppem == unitsPerEm to 1/1000 em.
func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}
