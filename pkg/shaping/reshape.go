// Package shaping turns logical-order Arabic-script text into the
// visual form a left-to-right glyph painter can draw: letters are
// replaced by their contextual presentation forms and each paragraph is
// reordered with the Unicode bidirectional algorithm.
package shaping

import "strings"

// forms holds isolated, final, initial and medial presentation forms.
// A zero initial form marks a right-joining letter.
type forms [4]rune

const (
	isolated = iota
	final
	initial
	medial
)

const (
	lam     = 'ل'
	tatweel = 'ـ'
)

var letters = map[rune]forms{
	'ء': {0xFE80, 0, 0, 0},
	'آ': {0xFE81, 0xFE82, 0, 0},
	'أ': {0xFE83, 0xFE84, 0, 0},
	'ؤ': {0xFE85, 0xFE86, 0, 0},
	'إ': {0xFE87, 0xFE88, 0, 0},
	'ئ': {0xFE89, 0xFE8A, 0xFE8B, 0xFE8C},
	'ا': {0xFE8D, 0xFE8E, 0, 0},
	'ب': {0xFE8F, 0xFE90, 0xFE91, 0xFE92},
	'ة': {0xFE93, 0xFE94, 0, 0},
	'ت': {0xFE95, 0xFE96, 0xFE97, 0xFE98},
	'ث': {0xFE99, 0xFE9A, 0xFE9B, 0xFE9C},
	'ج': {0xFE9D, 0xFE9E, 0xFE9F, 0xFEA0},
	'ح': {0xFEA1, 0xFEA2, 0xFEA3, 0xFEA4},
	'خ': {0xFEA5, 0xFEA6, 0xFEA7, 0xFEA8},
	'د': {0xFEA9, 0xFEAA, 0, 0},
	'ذ': {0xFEAB, 0xFEAC, 0, 0},
	'ر': {0xFEAD, 0xFEAE, 0, 0},
	'ز': {0xFEAF, 0xFEB0, 0, 0},
	'س': {0xFEB1, 0xFEB2, 0xFEB3, 0xFEB4},
	'ش': {0xFEB5, 0xFEB6, 0xFEB7, 0xFEB8},
	'ص': {0xFEB9, 0xFEBA, 0xFEBB, 0xFEBC},
	'ض': {0xFEBD, 0xFEBE, 0xFEBF, 0xFEC0},
	'ط': {0xFEC1, 0xFEC2, 0xFEC3, 0xFEC4},
	'ظ': {0xFEC5, 0xFEC6, 0xFEC7, 0xFEC8},
	'ع': {0xFEC9, 0xFECA, 0xFECB, 0xFECC},
	'غ': {0xFECD, 0xFECE, 0xFECF, 0xFED0},
	'ف': {0xFED1, 0xFED2, 0xFED3, 0xFED4},
	'ق': {0xFED5, 0xFED6, 0xFED7, 0xFED8},
	'ك': {0xFED9, 0xFEDA, 0xFEDB, 0xFEDC},
	'ل': {0xFEDD, 0xFEDE, 0xFEDF, 0xFEE0},
	'م': {0xFEE1, 0xFEE2, 0xFEE3, 0xFEE4},
	'ن': {0xFEE5, 0xFEE6, 0xFEE7, 0xFEE8},
	'ه': {0xFEE9, 0xFEEA, 0xFEEB, 0xFEEC},
	'و': {0xFEED, 0xFEEE, 0, 0},
	'ى': {0xFEEF, 0xFEF0, 0, 0},
	'ي': {0xFEF1, 0xFEF2, 0xFEF3, 0xFEF4},

	// Urdu and Persian letters
	'پ': {0xFB56, 0xFB57, 0xFB58, 0xFB59}, // peh
	'ٹ': {0xFB66, 0xFB67, 0xFB68, 0xFB69}, // tteh
	'چ': {0xFB7A, 0xFB7B, 0xFB7C, 0xFB7D}, // tcheh
	'ڈ': {0xFB88, 0xFB89, 0, 0},           // ddal
	'ڑ': {0xFB8C, 0xFB8D, 0, 0},           // rreh
	'ژ': {0xFB8A, 0xFB8B, 0, 0},           // jeh
	'ک': {0xFB8E, 0xFB8F, 0xFB90, 0xFB91}, // keheh
	'گ': {0xFB92, 0xFB93, 0xFB94, 0xFB95}, // gaf
	'ں': {0xFB9E, 0xFB9F, 0, 0},           // noon ghunna
	'ھ': {0xFBAA, 0xFBAB, 0xFBAC, 0xFBAD}, // heh doachashmee
	'ہ': {0xFBA6, 0xFBA7, 0xFBA8, 0xFBA9}, // heh goal
	'ۂ': {0xFBA4, 0xFBA5, 0, 0},
	'ی': {0xFBFC, 0xFBFD, 0xFBFE, 0xFBFF}, // farsi yeh
	'ے': {0xFBAE, 0xFBAF, 0, 0},           // yeh barree
	'ۓ': {0xFBB0, 0xFBB1, 0, 0},
}

// lamAlef maps the alef that follows a lam to the ligature's isolated
// and final forms.
var lamAlef = map[rune][2]rune{
	'آ': {0xFEF5, 0xFEF6},
	'أ': {0xFEF7, 0xFEF8},
	'إ': {0xFEF9, 0xFEFA},
	'ا': {0xFEFB, 0xFEFC},
}

// base maps every presentation form back to its letter.
var base = func() map[rune]rune {
	m := make(map[rune]rune)
	for letter, f := range letters {
		for _, r := range f {
			if r != 0 {
				m[r] = letter
			}
		}
	}
	return m
}()

func isTransparent(r rune) bool {
	switch {
	case r >= 0x064B && r <= 0x065F, r == 0x0670:
		return true
	case r >= 0x06D6 && r <= 0x06DC, r >= 0x06DF && r <= 0x06E4:
		return true
	case r == 0x06E7, r == 0x06E8, r >= 0x06EA && r <= 0x06ED:
		return true
	}
	return false
}

// unit is one joining position: a letter, or a lam-alef pair.
type unit struct {
	r        rune
	alef     rune // non-zero for a lam-alef ligature
	marks    []rune
	joinPrev bool
	joinNext bool
}

func (u *unit) canJoinPrev() bool {
	if u.alef != 0 {
		return true
	}
	if u.r == tatweel {
		return true
	}
	f, ok := letters[u.r]
	return ok && f[final] != 0
}

func (u *unit) canJoinNext() bool {
	if u.alef != 0 {
		return false
	}
	if u.r == tatweel {
		return true
	}
	f, ok := letters[u.r]
	return ok && f[initial] != 0
}

// Reshape replaces Arabic-script letters with the presentation form
// their neighbours call for and fuses lam-alef pairs. Combining marks
// do not break joining. Other characters pass through unchanged.
func Reshape(s string) string {
	runes := []rune(s)
	units := make([]unit, 0, len(runes))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isTransparent(r) && len(units) > 0 {
			last := &units[len(units)-1]
			last.marks = append(last.marks, r)
			continue
		}
		if r == lam && i+1 < len(runes) {
			if _, ok := lamAlef[runes[i+1]]; ok {
				units = append(units, unit{r: lam, alef: runes[i+1]})
				i++
				continue
			}
		}
		units = append(units, unit{r: r})
	}

	for i := range units {
		if i > 0 && units[i-1].canJoinNext() && units[i].canJoinPrev() {
			units[i-1].joinNext = true
			units[i].joinPrev = true
		}
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := range units {
		u := &units[i]
		sb.WriteRune(u.form())
		for _, m := range u.marks {
			sb.WriteRune(m)
		}
	}
	return sb.String()
}

func (u *unit) form() rune {
	if u.alef != 0 {
		lig := lamAlef[u.alef]
		if u.joinPrev {
			return lig[1]
		}
		return lig[0]
	}
	f, ok := letters[u.r]
	if !ok {
		return u.r
	}
	var pick rune
	switch {
	case u.joinPrev && u.joinNext:
		pick = f[medial]
	case u.joinPrev:
		pick = f[final]
	case u.joinNext:
		pick = f[initial]
	default:
		pick = f[isolated]
	}
	if pick == 0 {
		return u.r
	}
	return pick
}

// BaseLetter returns the letter a presentation form was derived from.
func BaseLetter(r rune) (rune, bool) {
	b, ok := base[r]
	return b, ok
}

// LamAlefParts splits a lam-alef ligature into lam and its alef.
func LamAlefParts(r rune) (rune, rune, bool) {
	for alef, lig := range lamAlef {
		if r == lig[0] || r == lig[1] {
			return lam, alef, true
		}
	}
	return 0, 0, false
}
