package wool

import (
	"strings"
	"testing"
)

var federalMaths = Brief{Subject: "Mathematics", Grade: "9", Board: "Federal", Syllabus: "Federal Board Syllabus"}

// TestAgentValidate tests the Validate method for Agent.
func TestAgentValidate(t *testing.T) {
	valid := PaperDesigner(federalMaths)
	valid.Backend = "openai"

	tests := []struct {
		name      string
		mutate    func(a *Agent)
		wantField string
	}{
		{name: "valid", mutate: func(a *Agent) {}},
		{name: "missing name", mutate: func(a *Agent) { a.Name = "" }, wantField: "name"},
		{name: "bad role", mutate: func(a *Agent) { a.Role = "senior" }, wantField: "role"},
		{name: "missing goal", mutate: func(a *Agent) { a.Goal = "" }, wantField: "goal"},
		{name: "missing backend", mutate: func(a *Agent) { a.Backend = "" }, wantField: "backend"},
		{name: "temperature", mutate: func(a *Agent) { a.Temperature = 3 }, wantField: "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestCrewAgents(t *testing.T) {
	crew := Crew(federalMaths)
	if len(crew) != 3 {
		t.Fatalf("expected 3 agents, got %d", len(crew))
	}
	for i, role := range Roles() {
		if crew[i].Role != role {
			t.Errorf("agent %d role = %s, want %s", i, crew[i].Role, role)
		}
	}

	pd := crew[0]
	if pd.Title != "Structuring Mathematics academic papers for Grade 9 - Federal Board" {
		t.Errorf("unexpected title %q", pd.Title)
	}
	if !strings.Contains(pd.Goal, "Federal Board Syllabus") {
		t.Errorf("goal should name the syllabus: %q", pd.Goal)
	}
}

func TestSystemPrompt(t *testing.T) {
	a := QualityChecker(federalMaths)
	prompt := a.SystemPrompt()
	for _, want := range []string{"You are the Quality Checker.", "Goal: Review and refine", "Background:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
