package shell

import (
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// OptionCompleter completes the answer to the current question.
type OptionCompleter struct {
	mu      sync.RWMutex
	options []string
}

var _ readline.AutoCompleter = (*OptionCompleter)(nil)

// NewOptionCompleter returns a completer with no options.
func NewOptionCompleter() *OptionCompleter {
	return &OptionCompleter{}
}

// SetOptions replaces the candidates.
func (c *OptionCompleter) SetOptions(options []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options = append([]string(nil), options...)
}

// Do implements readline.AutoCompleter. Candidates are returned as the
// suffix after what has been typed; matching ignores case.
func (c *OptionCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	typed := strings.TrimLeft(string(line[:pos]), " \t")

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out [][]rune
	lower := strings.ToLower(typed)
	for _, opt := range c.options {
		if strings.HasPrefix(strings.ToLower(opt), lower) {
			out = append(out, []rune(opt[len(typed):]))
		}
	}
	return out, len([]rune(typed))
}
