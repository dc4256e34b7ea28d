package paper

import "strings"

// Document is the generated paper text and the direction it renders in.
type Document struct {
	Text      string
	Direction Direction
}

// NewDocument normalizes line endings in text.
func NewDocument(text string, dir Direction) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return Document{Text: text, Direction: dir}
}

// Lines splits the text on newlines. Empty text has no lines.
func (d Document) Lines() []string {
	return SplitLines(d.Text)
}

// SplitLines splits s on "\n"; the empty string yields no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
