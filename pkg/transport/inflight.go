package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks chunked responses that are still being streamed
// to a client, so a host can stop open streams before a graceful shutdown.
//
// Entries are keyed by a registry-assigned sequence number. Invocation IDs
// come from the client and may repeat; they are kept for logging only.
//
// All methods are safe for concurrent access.
type InFlightRegistry struct {
	mu      sync.Mutex
	next    uint64
	entries map[uint64]inFlightStream
}

type inFlightStream struct {
	id     string
	cancel context.CancelFunc
}

// NewInFlightRegistry creates a new empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		entries: make(map[uint64]inFlightStream),
	}
}

// Register adds an in-flight stream and returns the function that removes
// exactly this entry again, without cancelling it. Call it when the stream
// completes normally.
func (r *InFlightRegistry) Register(id string, cancel context.CancelFunc) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	key := r.next
	r.entries[key] = inFlightStream{id: id, cancel: cancel}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.entries, key)
	}
}

// CancelAll cancels every registered stream and returns the invocation IDs
// of the streams it stopped.
func (r *InFlightRegistry) CancelAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for key, s := range r.entries {
		s.cancel()
		ids = append(ids, s.id)
		delete(r.entries, key)
	}
	return ids
}

// Len returns the number of registered streams.
func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
