package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strings"
	"unicode/utf16"
)

// -----------------------------------------------------------------------------
// PDF Object Writer (Internal)
// -----------------------------------------------------------------------------

// document collects numbered objects and serializes them with an xref table.
type document struct {
	compress bool
	objects  []string
}

func newDocument(compress bool) *document {
	return &document{compress: compress}
}

// add appends an object and returns its 1-based object number.
func (d *document) add(body string) int {
	d.objects = append(d.objects, body)
	return len(d.objects)
}

// set replaces the body of an object reserved earlier with add("").
func (d *document) set(num int, body string) {
	d.objects[num-1] = body
}

// addStream writes data as a stream object, Flate-compressed when enabled.
// extra is spliced into the stream dictionary.
func (d *document) addStream(extra string, data []byte) int {
	filter := ""
	if d.compress {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, _ = w.Write(data)
		_ = w.Close()
		data = buf.Bytes()
		filter = "/Filter /FlateDecode\n"
	}
	return d.add(fmt.Sprintf("<< /Length %d\n%s%s>>\nstream\n%s\nendstream",
		len(data), filter, extra, data))
}

// bytes renders the file. root and info are object numbers; info may be 0.
func (d *document) bytes(root, info int) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%%PDF-%s\n", Version))
	buf.WriteString("%\xE2\xE3\xCF\xD3\n") // binary marker

	xref := make([]int, len(d.objects)+1)
	for i, obj := range d.objects {
		xref[i+1] = buf.Len()
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, obj))
	}

	xrefPos := buf.Len()
	buf.WriteString("xref\n")
	buf.WriteString(fmt.Sprintf("0 %d\n", len(d.objects)+1))
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(d.objects); i++ {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", xref[i]))
	}

	buf.WriteString("trailer\n")
	buf.WriteString(fmt.Sprintf("<< /Size %d\n/Root %d 0 R\n", len(d.objects)+1, root))
	if info > 0 {
		buf.WriteString(fmt.Sprintf("/Info %d 0 R\n", info))
	}
	buf.WriteString(">>\n")
	buf.WriteString("startxref\n")
	buf.WriteString(fmt.Sprintf("%d\n", xrefPos))
	buf.WriteString("%%EOF\n")

	return buf.Bytes()
}

// escapePDFString escapes special characters for PDF literal strings.
func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "(", "\\(")
	s = strings.ReplaceAll(s, ")", "\\)")
	return s
}

// textString encodes s as a PDF text string: a literal for ASCII, UTF-16BE
// hex with a byte order mark otherwise.
func textString(s string) string {
	ascii := true
	for _, r := range s {
		if r >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return "(" + escapePDFString(s) + ")"
	}
	var sb strings.Builder
	sb.WriteString("<FEFF")
	for _, u := range utf16.Encode([]rune(s)) {
		sb.WriteString(fmt.Sprintf("%04X", u))
	}
	sb.WriteString(">")
	return sb.String()
}

// writeLiteralByte writes one encoded byte inside a literal string.
func writeLiteralByte(sb *strings.Builder, b byte) {
	switch {
	case b == '\\' || b == '(' || b == ')':
		sb.WriteByte('\\')
		sb.WriteByte(b)
	case b < 0x20 || b > 0x7E:
		sb.WriteString(fmt.Sprintf("\\%03o", b))
	default:
		sb.WriteByte(b)
	}
}
