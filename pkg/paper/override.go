package paper

import "fmt"

// Override is a subject-specific change applied to a freshly built
// request before it is dispatched. The set of variants is closed.
type Override interface {
	// Kind names the variant, e.g. "language".
	Kind() string
	apply(req *GenerationRequest)
}

// LanguageOverride forces the paper to be written in Language.
type LanguageOverride struct {
	Language string
}

func (LanguageOverride) Kind() string { return "language" }

// Requirement is the sentence appended to the directive.
func (o LanguageOverride) Requirement() string {
	return fmt.Sprintf("All questions and instructions must be written in the %s language.", o.Language)
}

func (o LanguageOverride) apply(req *GenerationRequest) {
	req.Language = o.Language
	req.Directive += " " + o.Requirement()
	for i := range req.Tasks {
		if req.Tasks[i].Name != TaskGenerateQuestions {
			continue
		}
		req.Tasks[i].Description = fmt.Sprintf(
			"Generate %s questions in %s for Class %s, following the syllabus. %s",
			req.Subject, o.Language, req.Grade, o.Requirement())
	}
}

// Overrides maps subjects to the overrides applied when building their requests.
type Overrides map[Subject][]Override

// DefaultOverrides returns a fresh table holding the Islamiat rule.
func DefaultOverrides() Overrides {
	return Overrides{
		Islamiat: {LanguageOverride{Language: "Urdu"}},
	}
}
