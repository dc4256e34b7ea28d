package wool

import (
	"fmt"
	"strings"
)

// Agent defines an agent's identity and instructions.
// The runtime creates live instances from these.
type Agent struct {
	Name      string `json:"name" yaml:"name"`
	Role      Role   `json:"role" yaml:"role"`
	Title     string `json:"title" yaml:"title"`
	Goal      string `json:"goal" yaml:"goal"`
	Backstory string `json:"backstory" yaml:"backstory"`
	Backend   string `json:"backend" yaml:"backend"`
	Model     string `json:"model,omitempty" yaml:"model"`

	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature"`
}

// Brief carries the selection an agent is specialised for.
type Brief struct {
	Subject  string
	Grade    string
	Board    string
	Syllabus string
}

// PaperDesigner returns the agent that structures the paper.
func PaperDesigner(b Brief) Agent {
	return Agent{
		Name:      "Paper Designer",
		Role:      RolePaperDesigner,
		Title:     fmt.Sprintf("Structuring %s academic papers for Grade %s - %s Board", b.Subject, b.Grade, b.Board),
		Goal:      fmt.Sprintf("Ensure the %s paper follows the %s board guidelines for Class %s, adhering to the %s.", b.Subject, b.Board, b.Grade, b.Syllabus),
		Backstory: "An AI assistant skilled in designing structured academic papers.",
	}
}

// QuestionGenerator returns the agent that writes questions.
func QuestionGenerator(b Brief) Agent {
	return Agent{
		Name:      "Question Generator",
		Role:      RoleQuestionGenerator,
		Title:     fmt.Sprintf("Creating diverse questions for %s academic paper", b.Subject),
		Goal:      fmt.Sprintf("Generate various types of %s questions for Class %s, ensuring alignment with the %s.", b.Subject, b.Grade, b.Syllabus),
		Backstory: "An AI assistant that creates diverse and well-balanced exam questions.",
	}
}

// QualityChecker returns the agent that reviews questions.
func QualityChecker(b Brief) Agent {
	return Agent{
		Name:      "Quality Checker",
		Role:      RoleQualityChecker,
		Title:     fmt.Sprintf("Ensuring high-quality and relevant %s questions", b.Subject),
		Goal:      "Review and refine questions for clarity, accuracy, and adherence to the current syllabus.",
		Backstory: "An AI assistant that reviews academic questions for correctness and relevance.",
	}
}

// Crew returns the three agents in execution order.
func Crew(b Brief) []Agent {
	return []Agent{PaperDesigner(b), QuestionGenerator(b), QualityChecker(b)}
}

// SystemPrompt renders the agent's persona for a chat backend.
func (a *Agent) SystemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the %s.\n", a.Name)
	if a.Title != "" {
		fmt.Fprintf(&sb, "Role: %s\n", a.Title)
	}
	if a.Goal != "" {
		fmt.Fprintf(&sb, "Goal: %s\n", a.Goal)
	}
	if a.Backstory != "" {
		fmt.Fprintf(&sb, "Background: %s\n", a.Backstory)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Validate checks if the agent definition is valid.
func (a *Agent) Validate() error {
	if a.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !a.Role.IsValid() {
		return &ValidationError{Field: "role", Message: "invalid role"}
	}
	if a.Goal == "" {
		return &ValidationError{Field: "goal", Message: "goal is required"}
	}
	if a.Backend == "" {
		return &ValidationError{Field: "backend", Message: "backend is required"}
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return &ValidationError{Field: "temperature", Message: "temperature must be between 0 and 2"}
	}
	return nil
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
