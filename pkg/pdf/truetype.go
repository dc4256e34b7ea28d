package pdf

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/r3d91ll/quire/pkg/fonts"
	textshaping "github.com/r3d91ll/quire/pkg/shaping"
)

// shapeSize is the shaping size that makes 26.6 advances come out in
// 1/1000 em after dropping the fraction.
const shapeSize = fixed.Int26_6(1000 << 6)

var urdu = language.NewLanguage("ur")

// trueTypeFont embeds a TrueType font as a Type0 font with Identity-H
// encoding, so text is written as glyph ids.
type trueTypeFont struct {
	font   *fonts.Font
	face   *gofont.Face
	shaper shaping.HarfbuzzShaper
	// covers reports whether the font maps a rune.
	covers func(rune) bool
	// used holds the width of every glyph drawn, for the /W array.
	used map[int]int
}

func newTrueTypeFont(f *fonts.Font) *trueTypeFont {
	return &trueTypeFont{font: f, face: f.NewFace(), covers: f.HasRune, used: map[int]int{}}
}

func (f *trueTypeFont) Name() string { return f.font.Name }

// show expects text already in visual order; it is shaped left to right
// so the glyphs come out in the order they are painted.
func (f *trueTypeFont) show(text string, strict bool) (string, float64, error) {
	runes, err := f.mapRunes(text, strict)
	if err != nil {
		return "", 0, err
	}
	if len(runes) == 0 {
		return "", 0, nil
	}

	script, lang := language.Latin, language.NewLanguage("en")
	if hasArabic(runes) {
		script, lang = language.Arabic, urdu
	}
	out := f.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      f.face,
		Size:      shapeSize,
		Script:    script,
		Language:  lang,
	})

	var sb strings.Builder
	var advance float64
	sb.WriteByte('[')
	for _, g := range out.Glyphs {
		gid := int(g.GlyphID)
		w := f.font.Width(gid)
		f.used[gid] = w
		adv := float64(g.XAdvance) / 64
		sb.WriteString(fmt.Sprintf("<%04X>", gid))
		if kern := float64(w) - adv; math.Abs(kern) >= 0.5 {
			sb.WriteString(fmt.Sprintf(" %.0f ", kern))
		}
		advance += adv
	}
	sb.WriteString("] TJ")
	return sb.String(), advance, nil
}

// mapRunes keeps the runes the font maps. A presentation form the font
// lacks falls back to its base letter; a lam-alef ligature splits into
// alef then lam, which is its visual order. Anything else is replaced
// with '?' or, when strict, reported.
func (f *trueTypeFont) mapRunes(text string, strict bool) ([]rune, error) {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if f.covers(r) {
			out = append(out, r)
			continue
		}
		if b, ok := textshaping.BaseLetter(r); ok && f.covers(b) {
			out = append(out, b)
			continue
		}
		if lam, alef, ok := textshaping.LamAlefParts(r); ok && f.covers(lam) && f.covers(alef) {
			out = append(out, alef, lam)
			continue
		}
		if unicode.IsSpace(r) && f.covers(' ') {
			out = append(out, ' ')
			continue
		}
		if strict {
			return nil, unencodable(f.font.Name, r)
		}
		if f.covers('?') {
			out = append(out, '?')
		}
	}
	return out, nil
}

func hasArabic(runes []rune) bool {
	for _, r := range runes {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

func (f *trueTypeFont) write(d *document) int {
	ff := f.font
	file := d.addStream(fmt.Sprintf("/Length1 %d\n", len(ff.Data)), ff.Data)

	desc := d.add(fmt.Sprintf("<< /Type /FontDescriptor\n/FontName /%s\n/Flags 4\n"+
		"/FontBBox [%.0f %.0f %.0f %.0f]\n/ItalicAngle %.2f\n/Ascent %.0f\n/Descent %.0f\n"+
		"/CapHeight %.0f\n/StemV 80\n/FontFile2 %d 0 R\n>>",
		ff.PostScriptName, ff.BBox[0], ff.BBox[1], ff.BBox[2], ff.BBox[3],
		ff.ItalicAngle, ff.Ascent, ff.Descent, ff.Ascent, file))

	cid := d.add(fmt.Sprintf("<< /Type /Font\n/Subtype /CIDFontType2\n/BaseFont /%s\n"+
		"/CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >>\n"+
		"/FontDescriptor %d 0 R\n/DW %d\n/W %s\n/CIDToGIDMap /Identity\n>>",
		ff.PostScriptName, desc, ff.DefaultWidth, f.widthArray()))

	return d.add(fmt.Sprintf("<< /Type /Font\n/Subtype /Type0\n/BaseFont /%s\n"+
		"/Encoding /Identity-H\n/DescendantFonts [%d 0 R]\n>>", ff.PostScriptName, cid))
}

// widthArray lists used glyph widths, consecutive ids grouped.
func (f *trueTypeFont) widthArray() string {
	gids := make([]int, 0, len(f.used))
	for gid := range f.used {
		gids = append(gids, gid)
	}
	sort.Ints(gids)

	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < len(gids); {
		j := i + 1
		for j < len(gids) && gids[j] == gids[j-1]+1 {
			j++
		}
		sb.WriteString(fmt.Sprintf(" %d [", gids[i]))
		for k := i; k < j; k++ {
			if k > i {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%d", f.used[gids[k]]))
		}
		sb.WriteByte(']')
		i = j
	}
	sb.WriteString(" ]")
	return sb.String()
}
