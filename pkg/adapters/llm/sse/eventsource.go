package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is a single server-sent event.
type Event struct {
	Name string
	Data string
}

// EventSource reads server-sent events from a response body. It
// implements the subset of the SSE framing used by LLM streaming APIs:
// event/data fields separated by blank lines. Multi-line data fields
// are joined with newlines.
type EventSource struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// New creates an EventSource reading from body. The caller keeps
// ownership of the body until Close is called.
func New(body io.ReadCloser) *EventSource {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &EventSource{
		body:    body,
		scanner: scanner,
	}
}

// Next returns the next event. It returns io.EOF when the stream ends.
func (s *EventSource) Next() (*Event, error) {
	var event Event
	var data []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if len(data) > 0 {
				event.Data = strings.Join(data, "\n")
				return &event, nil
			}
			// Blank line without accumulated data, keep reading
			event = Event{}
			continue
		}

		// Comment lines per the SSE spec
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event.Name = value
		case "data":
			data = append(data, value)
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended mid-event
	if len(data) > 0 {
		event.Data = strings.Join(data, "\n")
		return &event, nil
	}

	return nil, io.EOF
}

// Close releases the underlying response body.
func (s *EventSource) Close() error {
	return s.body.Close()
}
