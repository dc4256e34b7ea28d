// Package paper turns a subject, grade and board selection into a
// generation request and holds the generated document.
package paper

import (
	"strconv"
	"strings"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// Subject is one of the fixed subjects a paper can be generated for.
type Subject string

const (
	EnglishA      Subject = "English_A"
	EnglishB      Subject = "English_B"
	UrduA         Subject = "Urdu_A"
	UrduB         Subject = "Urdu_B"
	Islamiat      Subject = "Islamiat"
	Mathematics   Subject = "Mathematics"
	Science       Subject = "Science"
	SocialStudies Subject = "Social Studies"
	Biology       Subject = "Biology"
	Chemistry     Subject = "Chemistry"
	Physics       Subject = "Physics"
)

var subjects = []Subject{
	EnglishA, EnglishB, UrduA, UrduB, Islamiat,
	Mathematics, Science, SocialStudies, Biology, Chemistry, Physics,
}

// Subjects returns every subject in display order.
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects)
	return out
}

// ParseSubject validates s against the subject set. Matching is exact.
func ParseSubject(s string) (Subject, error) {
	for _, sub := range subjects {
		if string(sub) == s {
			return sub, nil
		}
	}
	return "", qerrors.Validationf(qerrors.ErrValidationInvalidSubject, "unsupported subject %q", s).
		WithContext(qerrors.ContextSubject, s)
}

// Direction is the text direction a subject's paper is rendered in.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// Direction returns RightToLeft for the Urdu and Islamiat papers.
func (s Subject) Direction() Direction {
	switch s {
	case UrduA, UrduB, Islamiat:
		return RightToLeft
	}
	return LeftToRight
}

// QuestionType is the framing used in the directive.
func (s Subject) QuestionType() string {
	switch s {
	case EnglishA, UrduA:
		return "curriculum-based questions"
	}
	return "general academic questions"
}

// Grade is a class level between MinGrade and MaxGrade inclusive.
type Grade int

const (
	MinGrade Grade = 5
	MaxGrade Grade = 12
)

func (g Grade) String() string {
	return strconv.Itoa(int(g))
}

// Valid reports whether g is in the allowed set.
func (g Grade) Valid() bool {
	return g >= MinGrade && g <= MaxGrade
}

// Grades returns MinGrade..MaxGrade.
func Grades() []Grade {
	out := make([]Grade, 0, MaxGrade-MinGrade+1)
	for g := MinGrade; g <= MaxGrade; g++ {
		out = append(out, g)
	}
	return out
}

// ParseGrade parses and validates a grade such as "9".
func ParseGrade(s string) (Grade, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, qerrors.Validationf(qerrors.ErrValidationInvalidGrade, "grade %q is not a number", s).
			WithContext("grade", s)
	}
	g := Grade(n)
	if !g.Valid() {
		return 0, qerrors.Validationf(qerrors.ErrValidationInvalidGrade,
			"grade %d is outside %d..%d", n, MinGrade, MaxGrade).
			WithContext("grade", s)
	}
	return g, nil
}
