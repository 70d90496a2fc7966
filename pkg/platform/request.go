package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"sync"
)

// ErrBodyConsumed is returned when a request body is read a second time.
var ErrBodyConsumed = errors.New("request body already consumed")

// Request is the host's view of an inbound HTTP trigger request.
type Request interface {
	// Method returns the HTTP method, or "" when the host did not supply one.
	Method() string

	// Headers iterates over all header entries. Multi-valued headers may be
	// yielded once per value.
	Headers() iter.Seq2[string, string]

	// URL returns the request URL as the host received it.
	URL() string

	// JSON reads the body and decodes it as JSON. The body can be read only
	// once; later calls return ErrBodyConsumed.
	JSON(ctx context.Context) (any, error)
}

// Cloner is implemented by requests that can produce an unconsumed
// duplicate of themselves. Clone must be called before the body is read.
type Cloner interface {
	Clone() (Request, error)
}

// OnceBody is a request body that can be consumed exactly once. Snapshot
// lets a host duplicate the body before it is consumed.
type OnceBody struct {
	mu       sync.Mutex
	r        io.Reader
	consumed bool
}

// NewOnceBody wraps r. A nil reader behaves as an empty body.
func NewOnceBody(r io.Reader) *OnceBody {
	if r == nil {
		r = bytes.NewReader(nil)
	}
	return &OnceBody{r: r}
}

// ReadAll consumes the body.
func (b *OnceBody) ReadAll() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return nil, ErrBodyConsumed
	}
	b.consumed = true
	return io.ReadAll(b.r)
}

// Consumed reports whether ReadAll has been called.
func (b *OnceBody) Consumed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed
}

// Snapshot buffers the remaining body and returns a copy of it without
// consuming b. It fails once the body has been consumed.
func (b *OnceBody) Snapshot() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return nil, ErrBodyConsumed
	}
	data, err := io.ReadAll(b.r)
	if err != nil {
		return nil, err
	}
	b.r = bytes.NewReader(data)
	return bytes.Clone(data), nil
}

// DecodeJSON decodes data into a generic JSON value.
func DecodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
