package wool

import "testing"

func TestRoleIsValid(t *testing.T) {
	for _, r := range Roles() {
		if !r.IsValid() {
			t.Errorf("%s should be valid", r)
		}
		if r.DisplayName() == "Unknown" || r.Description() == "Unknown role" {
			t.Errorf("%s missing display text", r)
		}
	}
	if Role("observer").IsValid() {
		t.Error("observer is not a crew role")
	}
}
