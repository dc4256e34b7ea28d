package shaping

import (
	"strings"

	"golang.org/x/text/unicode/bidi"
)

// Base is a paragraph embedding direction.
type Base int

const (
	// BaseAuto takes the direction of the first strong character and
	// falls back to right-to-left.
	BaseAuto Base = iota
	BaseLTR
	BaseRTL
)

// lrm pins a paragraph to left-to-right when prepended.
const lrm = '‎'

// Visual reshapes text and reorders every newline-separated paragraph
// into display order. The base direction is detected once for the whole
// text, so every line of a document shares it.
func Visual(text string) string {
	shaped := Reshape(text)
	return Reorder(shaped, DetectBase(shaped))
}

// DetectBase returns BaseLTR or BaseRTL from the first strong character
// in s, or BaseRTL when there is none.
func DetectBase(s string) Base {
	for _, r := range s {
		switch classOf(r) {
		case bidi.L:
			return BaseLTR
		case bidi.R, bidi.AL:
			return BaseRTL
		}
	}
	return BaseRTL
}

// Reorder runs the bidi algorithm on each line of s and returns the
// lines in visual order, newlines kept in place.
func Reorder(s string, base Base) string {
	if base == BaseAuto {
		base = DetectBase(s)
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = reorderLine(line, base)
	}
	return strings.Join(lines, "\n")
}

func classOf(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	return p.Class()
}

// reorderLine resolves levels with x/text and lays the runs out in
// visual order. Right-to-left runs are reversed with their mirrored
// characters swapped.
func reorderLine(line string, base Base) string {
	if line == "" {
		return ""
	}

	var p bidi.Paragraph
	text := line
	if base == BaseRTL {
		if _, err := p.SetString(text, bidi.DefaultDirection(bidi.RightToLeft)); err != nil {
			return line
		}
	} else {
		// Without an explicit direction x/text picks the first strong
		// character; the mark makes that left-to-right.
		text = string(lrm) + line
		if _, err := p.SetString(text); err != nil {
			return line
		}
	}
	order, err := p.Order()
	if err != nil {
		return line
	}

	runs := make([]string, 0, order.NumRuns())
	for i := 0; i < order.NumRuns(); i++ {
		run := order.Run(i)
		if run.Direction() == bidi.RightToLeft {
			runs = append(runs, mirror(bidi.ReverseString(run.String())))
		} else {
			runs = append(runs, run.String())
		}
	}
	if base == BaseRTL {
		for a, b := 0, len(runs)-1; a < b; a, b = a+1, b-1 {
			runs[a], runs[b] = runs[b], runs[a]
		}
	}

	out := strings.Join(runs, "")
	if base != BaseRTL {
		out = strings.TrimPrefix(out, string(lrm))
	}
	return out
}

// mirror swaps mirrored characters that are not paired brackets;
// bidi.ReverseString already handles the brackets.
func mirror(s string) string {
	return strings.Map(func(r rune) rune {
		if m, ok := mirrors[r]; ok {
			return m
		}
		return r
	}, s)
}

var mirrors = map[rune]rune{
	'<': '>', '>': '<',
	'«': '»', '»': '«',
	'‹': '›', '›': '‹',
	'≤': '≥', '≥': '≤',
}
