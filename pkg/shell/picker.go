// Package shell provides the interactive selection prompt used by
// `quire generate` when no flags are given.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/quire/pkg/paper"
)

// ErrAborted is returned when the user ends input before choosing.
var ErrAborted = errors.New("selection aborted")

// lineReader is the part of *readline.Instance the picker needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Question is one choice the picker asks for.
type Question struct {
	Label   string
	Options []string
	Default string
}

// Picker asks for subject, grade and board in turn.
type Picker struct {
	rl        lineReader
	out       io.Writer
	completer *OptionCompleter
	closer    io.Closer
}

// Config holds picker settings.
type Config struct {
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

// New creates a picker on the terminal. Close releases it.
func New(cfg Config) (*Picker, error) {
	completer := NewOptionCompleter()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
		Stdin:           cfg.Stdin,
		Stdout:          cfg.Stdout,
	})
	if err != nil {
		return nil, err
	}
	p := newPicker(rl, rl.Stdout(), completer)
	p.closer = rl
	return p, nil
}

// Close restores the terminal.
func (p *Picker) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func newPicker(rl lineReader, out io.Writer, completer *OptionCompleter) *Picker {
	if completer == nil {
		completer = NewOptionCompleter()
	}
	return &Picker{rl: rl, out: out, completer: completer}
}

// Select asks the three questions and returns the selection. boards are
// the selectable board names.
func (p *Picker) Select(boards []string) (paper.Selection, error) {
	if len(boards) == 0 {
		return paper.Selection{}, errors.New("no boards to choose from")
	}
	subjects := make([]string, 0, len(paper.Subjects()))
	for _, s := range paper.Subjects() {
		subjects = append(subjects, string(s))
	}
	grades := make([]string, 0, len(paper.Grades()))
	for _, g := range paper.Grades() {
		grades = append(grades, g.String())
	}

	var sel paper.Selection
	var err error
	if sel.Subject, err = p.Ask(Question{Label: "Select Subject", Options: subjects, Default: subjects[0]}); err != nil {
		return sel, err
	}
	if sel.Grade, err = p.Ask(Question{Label: "Select Class", Options: grades, Default: grades[0]}); err != nil {
		return sel, err
	}
	if sel.Board, err = p.Ask(Question{Label: "Select Board", Options: boards, Default: boards[0]}); err != nil {
		return sel, err
	}
	return sel, nil
}

// Ask prints the options and reads until the answer names one of them.
// An empty answer takes the default; a number picks by position.
func (p *Picker) Ask(q Question) (string, error) {
	fmt.Fprintf(p.out, "%s:\n", q.Label)
	for i, opt := range q.Options {
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, opt)
	}
	p.completer.SetOptions(q.Options)
	p.rl.SetPrompt(fmt.Sprintf("%s [%s]> ", q.Label, q.Default))

	for {
		line, err := p.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return "", ErrAborted
			}
			return "", err
		}
		if choice, ok := resolve(q, line); ok {
			return choice, nil
		}
		fmt.Fprintf(p.out, "%q is not one of the options\n", strings.TrimSpace(line))
	}
}

// resolve matches an answer against q by number, exact name or unique
// case-insensitive prefix.
func resolve(q Question, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return q.Default, q.Default != ""
	}
	if n, err := strconv.Atoi(answer); err == nil {
		// Grades are numeric; a literal match wins over position.
		for _, opt := range q.Options {
			if opt == answer {
				return opt, true
			}
		}
		if n >= 1 && n <= len(q.Options) {
			return q.Options[n-1], true
		}
		return "", false
	}

	var match string
	for _, opt := range q.Options {
		if strings.EqualFold(opt, answer) {
			return opt, true
		}
		if strings.HasPrefix(strings.ToLower(opt), strings.ToLower(answer)) {
			if match != "" {
				return "", false
			}
			match = opt
		}
	}
	return match, match != ""
}
