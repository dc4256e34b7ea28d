// Package spinner shows terminal feedback while a paper is generated.
// On a terminal it animates; elsewhere it prints one line per update.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/r3d91ll/quire/pkg/crew"
)

const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// CharSet is the sequence of animation frames.
type CharSet []string

var (
	Braille = CharSet{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	Line    = CharSet{"|", "/", "-", "\\"}
)

// Config holds spinner options.
type Config struct {
	CharSet     CharSet
	Message     string
	RefreshRate time.Duration
	ShowElapsed bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// Spinner displays progress for one long-running operation.
type Spinner struct {
	mu sync.Mutex

	config    Config
	isTTY     bool
	active    bool
	startTime time.Time
	frame     int
	width     int
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a spinner writing to stderr.
func New(message string) *Spinner {
	return NewWithConfig(Config{Message: message, ShowElapsed: true})
}

// NewWithConfig creates a spinner from cfg, filling defaults.
func NewWithConfig(cfg Config) *Spinner {
	if len(cfg.CharSet) == 0 {
		cfg.CharSet = Braille
	}
	if cfg.RefreshRate == 0 {
		cfg.RefreshRate = 80 * time.Millisecond
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	isTTY := false
	if f, ok := cfg.Writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	if cfg.IsTTY != nil {
		isTTY = *cfg.IsTTY
	}
	return &Spinner{config: cfg, isTTY: isTTY}
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Message
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start begins the animation. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.startTime = time.Now()
	s.frame = 0

	if !s.isTTY {
		fmt.Fprintln(s.config.Writer, s.config.Message)
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	fmt.Fprint(s.config.Writer, hideCursor)
	go s.spin(s.stopCh, s.doneCh)
}

func (s *Spinner) spin(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.config.RefreshRate)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	frame := s.config.CharSet[s.frame%len(s.config.CharSet)]
	s.frame++
	line := frame + " " + s.config.Message
	if s.config.ShowElapsed {
		line += " " + formatElapsed(time.Since(s.startTime))
	}
	s.clear()
	fmt.Fprint(s.config.Writer, line)
	s.width = len([]rune(line))
}

// clear blanks the current line. Caller holds mu.
func (s *Spinner) clear() {
	if s.width > 0 {
		fmt.Fprint(s.config.Writer, carriageReturn+strings.Repeat(" ", s.width)+carriageReturn)
		s.width = 0
	}
}

// Update changes the message. Off a terminal the new message is printed.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Message = message
	if s.active && !s.isTTY {
		fmt.Fprintln(s.config.Writer, message)
	}
}

// Progress returns a crew callback that mirrors task events in the
// spinner message.
func (s *Spinner) Progress() crew.ProgressFunc {
	return func(e crew.Event) {
		switch e.Kind {
		case crew.TaskStarted:
			s.Update(fmt.Sprintf("[%d/%d] %s: %s", e.Index, e.Total, e.Agent, e.Task))
		case crew.TaskFailed:
			s.Update(fmt.Sprintf("[%d/%d] %s failed after %s", e.Index, e.Total, e.Task, e.Elapsed.Round(time.Millisecond)))
		}
	}
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.finish("", "", "")
}

// Success stops the spinner with a green check and message.
func (s *Spinner) Success(message string) {
	s.finish(message, symbolSuccess, colorGreen)
}

// Fail stops the spinner with a red cross and message.
func (s *Spinner) Fail(message string) {
	s.finish(message, symbolFailure, colorRed)
}

// finish stops the animation, then prints symbol and message unless
// symbol is empty.
func (s *Spinner) finish(message, symbol, color string) {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.mu.Unlock()

	if wasActive && stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isTTY && wasActive {
		s.clear()
		fmt.Fprint(s.config.Writer, showCursor)
	}
	if symbol == "" {
		return
	}
	if message == "" {
		message = s.config.Message
	}
	if s.config.ShowElapsed && !s.startTime.IsZero() {
		message += " " + formatElapsed(time.Since(s.startTime))
	}
	if s.isTTY {
		fmt.Fprintf(s.config.Writer, "%s%s%s %s\n", color, symbol, colorReset, message)
		return
	}
	fmt.Fprintf(s.config.Writer, "%s %s\n", symbol, message)
}

// formatElapsed renders "(1.2s)" or, from a minute on, "(1m 30s)".
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}
