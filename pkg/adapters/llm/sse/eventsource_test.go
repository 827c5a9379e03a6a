package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(body string) *EventSource {
	return New(io.NopCloser(strings.NewReader(body)))
}

func TestNextParsesDataEvents(t *testing.T) {
	s := source("data: {\"a\":1}\n\ndata: {\"b\":2}\n\n")

	event, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, event.Data)

	event, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, event.Data)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNextParsesNamedEvents(t *testing.T) {
	s := source("event: message_start\ndata: {}\n\n")

	event, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "message_start", event.Name)
	assert.Equal(t, "{}", event.Data)
}

func TestNextJoinsMultiLineData(t *testing.T) {
	s := source("data: line one\ndata: line two\n\n")

	event, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", event.Data)
}

func TestNextSkipsComments(t *testing.T) {
	s := source(": keep-alive\n\ndata: payload\n\n")

	event, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "payload", event.Data)
}

func TestNextReturnsTrailingEventWithoutBlankLine(t *testing.T) {
	s := source("data: [DONE]\n")

	event, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "[DONE]", event.Data)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNextEmptyStream(t *testing.T) {
	s := source("")

	_, err := s.Next()
	assert.Equal(t, io.EOF, err)
}
