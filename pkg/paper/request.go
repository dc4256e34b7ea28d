package paper

import (
	"fmt"
	"strings"

	"github.com/r3d91ll/quire/pkg/board"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/wool"
)

// Task names, in crew execution order.
const (
	TaskDesignStructure   = "Design Paper Structure"
	TaskGenerateQuestions = "Generate Questions"
	TaskReviewQuestions   = "Review and Refine Questions"
)

// Selection is the raw user choice.
type Selection struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
	Board   string `json:"board"`
}

// Task is one step the crew performs.
type Task struct {
	Name           string
	Role           wool.Role
	Description    string
	ExpectedOutput string
}

// GenerationRequest is everything the crew needs to draft one paper.
// It is built fresh for every call and never shared.
type GenerationRequest struct {
	Subject      Subject
	Grade        Grade
	Board        string
	Pattern      board.Pattern
	QuestionType string
	// Language is empty unless an override forces one.
	Language  string
	Directive string
	Direction Direction
	Tasks     []Task
	Overrides []string
}

// Brief returns the agent brief for this request.
func (r GenerationRequest) Brief() wool.Brief {
	return wool.Brief{
		Subject:  string(r.Subject),
		Grade:    r.Grade.String(),
		Board:    r.Board,
		Syllabus: r.Pattern.Syllabus,
	}
}

// DownloadName is the PDF file name offered for download.
func (r GenerationRequest) DownloadName() string {
	return DownloadName(r.Subject, r.Grade, r.Board)
}

// DownloadName formats {subject}_Paper_Class_{grade}_{board}.pdf.
func DownloadName(subject Subject, grade Grade, boardName string) string {
	return fmt.Sprintf("%s_Paper_Class_%d_%s.pdf", subject, grade, boardName)
}

// Builder assembles generation requests from selections.
type Builder struct {
	boards    *board.Table
	overrides Overrides
}

// NewBuilder returns a builder over boards. A nil overrides table
// means DefaultOverrides.
func NewBuilder(boards *board.Table, overrides Overrides) *Builder {
	if overrides == nil {
		overrides = DefaultOverrides()
	}
	return &Builder{boards: boards, overrides: overrides}
}

// Boards returns the table the builder resolves against.
func (b *Builder) Boards() *board.Table {
	return b.boards
}

// Build validates sel and returns a new request. Validation happens
// before anything is resolved.
func (b *Builder) Build(sel Selection) (GenerationRequest, error) {
	subject, err := ParseSubject(sel.Subject)
	if err != nil {
		return GenerationRequest{}, err
	}
	grade, err := ParseGrade(sel.Grade)
	if err != nil {
		return GenerationRequest{}, err
	}
	boardName := strings.TrimSpace(sel.Board)
	if boardName == "" {
		return GenerationRequest{}, qerrors.Validation(qerrors.ErrValidationRequired, "board is required").
			WithContext("field", "board")
	}

	pattern := b.boards.Resolve(boardName)
	req := GenerationRequest{
		Subject:      subject,
		Grade:        grade,
		Board:        boardName,
		Pattern:      pattern,
		QuestionType: subject.QuestionType(),
		Direction:    subject.Direction(),
	}
	req.Directive = directive(req)
	req.Tasks = tasks(req)

	for _, o := range b.overrides[subject] {
		o.apply(&req)
		req.Overrides = append(req.Overrides, o.Kind())
	}
	return req, nil
}

func directive(r GenerationRequest) string {
	return fmt.Sprintf(
		"Prepare a %s examination paper for Class %s under the %s Board, following the %s. "+
			"Frame the paper as %s with %d multiple-choice questions, %d short questions and %d long questions.",
		r.Subject, r.Grade, r.Board, r.Pattern.Syllabus,
		r.QuestionType, r.Pattern.MCQs, r.Pattern.ShortQs, r.Pattern.LongQs)
}

func tasks(r GenerationRequest) []Task {
	return []Task{
		{
			Name: TaskDesignStructure,
			Role: wool.RolePaperDesigner,
			Description: fmt.Sprintf(
				"Create an academic paper structure for %s, Class %s, %s Board, following the %s. "+
					"Allocate %d MCQs, %d short questions and %d long questions.",
				r.Subject, r.Grade, r.Board, r.Pattern.Syllabus,
				r.Pattern.MCQs, r.Pattern.ShortQs, r.Pattern.LongQs),
			ExpectedOutput: fmt.Sprintf("A structured %s exam paper template.", r.Subject),
		},
		{
			Name: TaskGenerateQuestions,
			Role: wool.RoleQuestionGenerator,
			Description: fmt.Sprintf(
				"Generate long-questions, short-questions, MCQs, fill-in-the-blanks, and true/false questions for %s, adhering to the %s.",
				r.Subject, r.Pattern.Syllabus),
			ExpectedOutput: fmt.Sprintf("A set of well-formatted %s academic questions.", r.Subject),
		},
		{
			Name:           TaskReviewQuestions,
			Role:           wool.RoleQualityChecker,
			Description:    "Review the generated questions and improve clarity, correctness, and ensure they align with the current syllabus.",
			ExpectedOutput: "A set of well-formatted and syllabus-aligned academic questions.",
		},
	}
}
