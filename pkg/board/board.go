// Package board resolves examination boards to their question patterns.
package board

// Pattern is the question mix and syllabus label a board prescribes.
type Pattern struct {
	MCQs     int
	ShortQs  int
	LongQs   int
	Syllabus string
}

// DefaultPattern applies to every board without an entry of its own.
var DefaultPattern = Pattern{MCQs: 20, ShortQs: 30, LongQs: 50, Syllabus: "Default Syllabus"}

// Board names offered for selection.
const (
	Federal     = "Federal"
	Punjab      = "Punjab"
	Sindh       = "Sindh"
	KPK         = "KPK"
	Balochistan = "Balochistan"
)

// Entry pairs a board name with its pattern.
type Entry struct {
	Name    string
	Pattern Pattern
}

// Table is an immutable board lookup. The zero value resolves every
// board to DefaultPattern.
type Table struct {
	names    []string
	patterns map[string]Pattern
}

// NewTable builds a table from entries. Later entries replace earlier
// ones with the same name but keep the first position. selectable lists
// boards that have no entry but are still offered; they resolve to
// DefaultPattern.
func NewTable(entries []Entry, selectable ...string) *Table {
	t := &Table{patterns: make(map[string]Pattern, len(entries))}
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			t.names = append(t.names, name)
		}
	}
	for _, e := range entries {
		t.patterns[e.Name] = e.Pattern
		add(e.Name)
	}
	for _, name := range selectable {
		add(name)
	}
	return t
}

// DefaultEntries are the boards with a dedicated pattern.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: Federal, Pattern: Pattern{MCQs: 20, ShortQs: 30, LongQs: 50, Syllabus: "Federal Board Syllabus"}},
		{Name: Punjab, Pattern: Pattern{MCQs: 25, ShortQs: 25, LongQs: 50, Syllabus: "Punjab Board Syllabus"}},
	}
}

// DefaultTable holds Federal and Punjab patterns and offers Sindh, KPK
// and Balochistan on the default pattern.
func DefaultTable() *Table {
	return NewTable(DefaultEntries(), Sindh, KPK, Balochistan)
}

// With returns a new table with extra entries layered over t.
func (t *Table) With(entries ...Entry) *Table {
	merged := make([]Entry, 0, len(t.names)+len(entries))
	var plain []string
	for _, name := range t.names {
		if p, ok := t.patterns[name]; ok {
			merged = append(merged, Entry{Name: name, Pattern: p})
		} else {
			plain = append(plain, name)
		}
	}
	merged = append(merged, entries...)
	return NewTable(merged, plain...)
}

// Resolve returns the pattern for name. Lookup is total: unknown and
// empty names get DefaultPattern.
func (t *Table) Resolve(name string) Pattern {
	if t == nil {
		return DefaultPattern
	}
	if p, ok := t.patterns[name]; ok {
		return p
	}
	return DefaultPattern
}

// Known reports whether name has a dedicated pattern.
func (t *Table) Known(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.patterns[name]
	return ok
}

// Offers reports whether name is one of the selectable boards.
func (t *Table) Offers(name string) bool {
	if t.Known(name) {
		return true
	}
	if t == nil {
		return false
	}
	for _, n := range t.names {
		if n == name {
			return true
		}
	}
	return false
}

// Boards returns the selectable board names in display order.
func (t *Table) Boards() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
