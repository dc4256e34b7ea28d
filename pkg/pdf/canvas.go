// Package pdf writes multi-page PDF 1.4 documents of positioned text.
// Pages hold one content stream each; text is drawn in Helvetica or in
// embedded TrueType fonts.
package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/fonts"
)

const (
	// Version is the PDF version written in the header.
	Version = "1.4"

	// Producer is recorded in the Info dictionary.
	Producer = "Quire PDF Writer"
)

// Config holds document settings.
type Config struct {
	Width    float64
	Height   float64
	Compress bool

	Title   string
	Subject string
	Author  string
	Creator string

	// StrictEncoding reports characters a font cannot draw instead of
	// replacing them with '?'.
	StrictEncoding bool

	// CreatedAt stamps the Info dictionary; zero means now.
	CreatedAt time.Time
}

// DefaultConfig returns a compressed Letter document.
func DefaultConfig() Config {
	return Config{
		Width:    612,
		Height:   792,
		Compress: true,
		Creator:  "Quire",
	}
}

// Canvas accumulates pages of drawn text. The page being drawn is open
// until ShowPage; Bytes closes it. A Canvas is not safe for concurrent use.
type Canvas struct {
	cfg Config

	fonts map[string]fontResource
	ids   map[string]string
	order []fontResource

	pages []string
	cur   strings.Builder

	font fontResource
	size float64
}

// NewCanvas returns a canvas with Helvetica available.
func NewCanvas(cfg Config) *Canvas {
	c := &Canvas{
		cfg:   cfg,
		fonts: map[string]fontResource{},
		ids:   map[string]string{},
	}
	c.fonts[Helvetica] = &standardFont{name: Helvetica}
	return c
}

// AddTrueType makes f selectable under f.Name.
func (c *Canvas) AddTrueType(f *fonts.Font) error {
	if f == nil {
		return qerrors.Render(qerrors.ErrRenderFailed, "nil font")
	}
	if _, ok := c.fonts[f.Name]; ok {
		return qerrors.Resource(qerrors.ErrResourceFontDuplicate, "font already added to canvas").
			WithContext("font", f.Name)
	}
	c.fonts[f.Name] = newTrueTypeFont(f)
	return nil
}

// HasFont reports whether name can be selected.
func (c *Canvas) HasFont(name string) bool {
	_, ok := c.fonts[name]
	return ok
}

// SetFont selects the font used by later draws. The selection carries
// across ShowPage.
func (c *Canvas) SetFont(name string, size float64) error {
	f, ok := c.fonts[name]
	if !ok {
		return qerrors.Resource(qerrors.ErrResourceFontNotRegistered, "font not available on canvas").
			WithContext("font", name)
	}
	if size <= 0 {
		return qerrors.Render(qerrors.ErrRenderFailed, fmt.Sprintf("invalid font size %.2f", size))
	}
	if _, ok := c.ids[name]; !ok {
		c.ids[name] = fmt.Sprintf("F%d", len(c.order)+1)
		c.order = append(c.order, f)
	}
	c.font = f
	c.size = size
	return nil
}

// StringWidth returns the advance of text in the current font, in points.
func (c *Canvas) StringWidth(text string) (float64, error) {
	if c.font == nil {
		return 0, errNoFont()
	}
	_, adv, err := c.font.show(text, c.cfg.StrictEncoding)
	if err != nil {
		return 0, err
	}
	return adv * c.size / 1000, nil
}

// DrawString draws text with its left edge at x on baseline y.
func (c *Canvas) DrawString(x, y float64, text string) error {
	return c.draw(x, y, text, false)
}

// DrawRightString draws text with its right edge at x on baseline y.
func (c *Canvas) DrawRightString(x, y float64, text string) error {
	return c.draw(x, y, text, true)
}

func (c *Canvas) draw(x, y float64, text string, right bool) error {
	if c.font == nil {
		return errNoFont()
	}
	op, adv, err := c.font.show(text, c.cfg.StrictEncoding)
	if err != nil {
		return err
	}
	if op == "" {
		return nil
	}
	if right {
		x -= adv * c.size / 1000
	}
	c.cur.WriteString("BT\n")
	c.cur.WriteString(fmt.Sprintf("/%s %.2f Tf\n", c.ids[c.font.Name()], c.size))
	c.cur.WriteString(fmt.Sprintf("%.2f %.2f Td\n", x, y))
	c.cur.WriteString(op)
	c.cur.WriteString("\nET\n")
	return nil
}

// ShowPage closes the current page and opens the next.
func (c *Canvas) ShowPage() {
	c.pages = append(c.pages, c.cur.String())
	c.cur.Reset()
}

// PageCount returns the number of pages Bytes would write.
func (c *Canvas) PageCount() int {
	return len(c.contents())
}

// contents returns every page stream. The open page counts when it has
// content or when it is the only page.
func (c *Canvas) contents() []string {
	pages := append([]string(nil), c.pages...)
	if c.cur.Len() > 0 || len(pages) == 0 {
		pages = append(pages, c.cur.String())
	}
	return pages
}

// Bytes serializes the document.
func (c *Canvas) Bytes() []byte {
	d := newDocument(c.cfg.Compress)
	catalog := d.add("")
	pagesRef := d.add("")

	var res strings.Builder
	res.WriteString("<< /Font <<")
	for _, f := range c.order {
		res.WriteString(fmt.Sprintf(" /%s %d 0 R", c.ids[f.Name()], f.write(d)))
	}
	res.WriteString(" >> >>")

	contents := c.contents()
	kids := make([]string, 0, len(contents))
	for _, content := range contents {
		stream := d.addStream("", []byte(content))
		page := d.add(fmt.Sprintf("<< /Type /Page\n/Parent %d 0 R\n/MediaBox [0 0 %.2f %.2f]\n/Contents %d 0 R\n/Resources %s\n>>",
			pagesRef, c.cfg.Width, c.cfg.Height, stream, res.String()))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	d.set(catalog, fmt.Sprintf("<< /Type /Catalog\n/Pages %d 0 R\n>>", pagesRef))
	d.set(pagesRef, fmt.Sprintf("<< /Type /Pages\n/Kids [%s]\n/Count %d\n>>",
		strings.Join(kids, " "), len(kids)))
	info := d.add(c.infoDict())

	return d.bytes(catalog, info)
}

// WriteTo writes the serialized document to w.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	if err != nil {
		return int64(n), qerrors.IOWrap(err, qerrors.ErrIOWriteFailed, "failed to write pdf")
	}
	return int64(n), nil
}

// infoDict creates the Info dictionary.
func (c *Canvas) infoDict() string {
	var sb strings.Builder
	sb.WriteString("<<\n")

	if c.cfg.Title != "" {
		sb.WriteString(fmt.Sprintf("/Title %s\n", textString(c.cfg.Title)))
	}
	if c.cfg.Author != "" {
		sb.WriteString(fmt.Sprintf("/Author %s\n", textString(c.cfg.Author)))
	}
	if c.cfg.Subject != "" {
		sb.WriteString(fmt.Sprintf("/Subject %s\n", textString(c.cfg.Subject)))
	}
	sb.WriteString(fmt.Sprintf("/Producer (%s)\n", escapePDFString(Producer)))
	if c.cfg.Creator != "" {
		sb.WriteString(fmt.Sprintf("/Creator %s\n", textString(c.cfg.Creator)))
	}

	// PDF date format: D:YYYYMMDDHHmmSS
	created := c.cfg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	dateStr := created.UTC().Format("D:20060102150405Z")
	sb.WriteString(fmt.Sprintf("/CreationDate (%s)\n", dateStr))
	sb.WriteString(fmt.Sprintf("/ModDate (%s)\n", dateStr))

	sb.WriteString(">>")
	return sb.String()
}

func errNoFont() error {
	return qerrors.Render(qerrors.ErrRenderFailed, "no font selected")
}
