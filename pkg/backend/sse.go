package backend

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// sseEvent is one server-sent event.
type sseEvent struct {
	Event string
	Data  string
}

// parseSSE reads events from r until EOF or ctx is done. Multi-line data
// fields are joined with "\n"; comment lines are skipped.
func parseSSE(ctx context.Context, r io.Reader) <-chan sseEvent {
	events := make(chan sseEvent)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var event string
		var data []string
		emit := func() bool {
			if event == "" && len(data) == 0 {
				return true
			}
			ev := sseEvent{Event: event, Data: strings.Join(data, "\n")}
			event, data = "", nil
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if !emit() {
					return
				}
			case strings.HasPrefix(line, ":"):
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				value := strings.TrimPrefix(line, "data:")
				// one optional space follows the colon
				value = strings.TrimPrefix(value, " ")
				data = append(data, value)
			}
		}
		emit()
	}()

	return events
}
