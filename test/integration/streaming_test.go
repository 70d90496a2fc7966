package integration

import (
	"bufio"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countdownQuery = "subscription { countdown(from: 2) { remaining } }"

// sseEvent is one server-sent event.
type sseEvent struct {
	Type string
	Data string
}

// parseSSEEvents reads events until the body ends.
func parseSSEEvents(t *testing.T, body io.Reader) []sseEvent {
	t.Helper()

	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data:"):
			current.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if current.Type != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func wantCountdown() []sseEvent {
	return []sseEvent{
		{Type: "next", Data: `{"data":{"countdown":{"remaining":2}}}`},
		{Type: "next", Data: `{"data":{"countdown":{"remaining":1}}}`},
		{Type: "next", Data: `{"data":{"countdown":{"remaining":0}}}`},
		{Type: "complete"},
	}
}

func TestSubscriptionOverSSE(t *testing.T) {
	resp := postGraphQL(t, map[string]any{"query": countdownQuery}, "Accept", "text/event-stream")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Empty(t, resp.Header.Get("Content-Length"))
	assert.Equal(t, []string{"chunked"}, resp.TransferEncoding)

	assert.Equal(t, wantCountdown(), parseSSEEvents(t, resp.Body))
}

func TestSubscriptionOverGET(t *testing.T) {
	resp := getGraphQL(t, url.Values{"query": {countdownQuery}}, "Accept", "text/event-stream")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wantCountdown(), parseSSEEvents(t, resp.Body))
}

func TestSubscriptionEventsArriveIncrementally(t *testing.T) {
	resp := postGraphQL(t, map[string]any{"query": "subscription { countdown(from: 1000) { remaining } }"},
		"Accept", "text/event-stream")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The first event must be readable long before the stream could have
	// finished.
	first := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(resp.Body).ReadString('\n')
		first <- line
	}()
	select {
	case line := <-first:
		assert.Equal(t, "event: next\n", line)
	case <-time.After(2 * time.Second):
		t.Fatal("first event was not flushed")
	}
}

func TestSubscriptionOverInvocationIsDrained(t *testing.T) {
	reply := invoke(t, map[string]any{
		"Url":     "https://example.azurewebsites.net/api/graphql",
		"Method":  "POST",
		"Headers": map[string][]string{"Content-Type": {"application/json"}, "Accept": {"text/event-stream"}},
		"Body":    `{"query":"` + countdownQuery + `"}`,
	})

	out := reply.Outputs.Res
	require.Equal(t, http.StatusOK, out.StatusCode)
	assert.Empty(t, out.Headers["transfer-encoding"])
	assert.Equal(t, wantCountdown(), parseSSEEvents(t, strings.NewReader(out.Body)))
}
