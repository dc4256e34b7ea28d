// Package wool defines the roles and agents that make up a paper crew.
// Wool is the raw material that becomes agents - defining WHAT an agent IS.
package wool

// Role defines an agent's function in the paper crew.
type Role string

const (
	// RolePaperDesigner lays out the paper structure for the board.
	RolePaperDesigner Role = "paper_designer"

	// RoleQuestionGenerator writes the questions.
	RoleQuestionGenerator Role = "question_generator"

	// RoleQualityChecker reviews and refines the generated questions.
	RoleQualityChecker Role = "quality_checker"
)

// Roles returns the crew roles in execution order.
func Roles() []Role {
	return []Role{RolePaperDesigner, RoleQuestionGenerator, RoleQualityChecker}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if this is a valid role.
func (r Role) IsValid() bool {
	switch r {
	case RolePaperDesigner, RoleQuestionGenerator, RoleQualityChecker:
		return true
	default:
		return false
	}
}

// DisplayName is the name shown in progress output.
func (r Role) DisplayName() string {
	switch r {
	case RolePaperDesigner:
		return "Paper Designer"
	case RoleQuestionGenerator:
		return "Question Generator"
	case RoleQualityChecker:
		return "Quality Checker"
	default:
		return "Unknown"
	}
}

// Description returns a human-readable description of the role.
func (r Role) Description() string {
	switch r {
	case RolePaperDesigner:
		return "Designs the paper structure to match board guidelines"
	case RoleQuestionGenerator:
		return "Writes MCQs, short and long questions for the paper"
	case RoleQualityChecker:
		return "Reviews questions for clarity, accuracy and syllabus fit"
	default:
		return "Unknown role"
	}
}
