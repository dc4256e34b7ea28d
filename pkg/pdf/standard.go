package pdf

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// Helvetica is the only standard font the writer carries metrics for.
const Helvetica = "Helvetica"

// fontResource is a font a page can select.
type fontResource interface {
	Name() string
	// show encodes text as a text-showing operation and returns its
	// advance in 1/1000 em.
	show(text string, strict bool) (string, float64, error)
	// write emits the font objects and returns the font dictionary number.
	write(d *document) int
}

// standardFont is a base-14 Type1 font in WinAnsiEncoding.
type standardFont struct {
	name string
}

func (f *standardFont) Name() string { return f.name }

func (f *standardFont) show(text string, strict bool) (string, float64, error) {
	var sb strings.Builder
	var advance float64
	sb.WriteByte('(')
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			if strict {
				return "", 0, unencodable(f.name, r)
			}
			b = '?'
		}
		advance += float64(helveticaWidth(b))
		writeLiteralByte(&sb, b)
	}
	sb.WriteString(") Tj")
	return sb.String(), advance, nil
}

func (f *standardFont) write(d *document) int {
	return d.add(fmt.Sprintf("<< /Type /Font\n/Subtype /Type1\n/BaseFont /%s\n/Encoding /WinAnsiEncoding\n>>", f.name))
}

func unencodable(font string, r rune) error {
	return qerrors.Render(qerrors.ErrRenderEncodingFailed,
		fmt.Sprintf("character %U cannot be drawn with font %s", r, font)).
		WithContext("font", font).
		WithContext("character", string(r))
}

// helveticaASCII holds Helvetica advances for codes 32 through 126.
var helveticaASCII = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278, // space to /
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556, // 0 to ?
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778, // @ to O
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556, // P to _
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556, // ` to o
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584, // p to ~
}

func helveticaWidth(b byte) int {
	switch {
	case b >= 32 && b <= 126:
		return helveticaASCII[b-32]
	case b == 0xA0:
		return 278
	}
	return 556
}
