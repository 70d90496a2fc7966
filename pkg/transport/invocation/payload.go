package invocation

import (
	"encoding/json"
	"fmt"
)

// Payload is the request body the Functions host sends for one invocation.
type Payload struct {
	Data     map[string]json.RawMessage `json:"Data"`
	Metadata map[string]any             `json:"Metadata,omitempty"`
}

// HTTPTrigger is the HTTP trigger binding inside Payload.Data.
type HTTPTrigger struct {
	URL     string              `json:"Url"`
	Method  string              `json:"Method"`
	Headers map[string][]string `json:"Headers,omitempty"`
	Query   map[string]string   `json:"Query,omitempty"`
	Params  map[string]string   `json:"Params,omitempty"`

	// Body is either a JSON string holding the raw body or, when the host
	// already parsed it, the JSON value itself.
	Body json.RawMessage `json:"Body,omitempty"`
}

// HTTPOutput is the HTTP output binding inside Reply.Outputs.
type HTTPOutput struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

// Reply is the response body returned to the Functions host.
type Reply struct {
	Outputs     map[string]any `json:"Outputs"`
	Logs        []string       `json:"Logs"`
	ReturnValue any            `json:"ReturnValue"`
}

// trigger extracts the named HTTP trigger binding.
func (p *Payload) trigger(binding string) (*HTTPTrigger, error) {
	raw, ok := p.Data[binding]
	if !ok {
		return nil, fmt.Errorf("payload has no %q binding", binding)
	}
	var t HTTPTrigger
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decoding %q binding: %w", binding, err)
	}
	return &t, nil
}

// bodyBytes returns the raw request body. A JSON string is unquoted;
// any other JSON value is passed through as the body text.
func (t *HTTPTrigger) bodyBytes() ([]byte, error) {
	if len(t.Body) == 0 || string(t.Body) == "null" {
		return nil, nil
	}
	if t.Body[0] == '"' {
		var s string
		if err := json.Unmarshal(t.Body, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return t.Body, nil
}
