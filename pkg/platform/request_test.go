package platform

import (
	"errors"
	"strings"
	"testing"
)

func TestOnceBodyReadsOnce(t *testing.T) {
	b := NewOnceBody(strings.NewReader(`{"a":1}`))

	data, err := b.ReadAll()
	if err != nil {
		t.Fatalf("first ReadAll: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("data = %q", data)
	}
	if !b.Consumed() {
		t.Error("Consumed() = false after ReadAll")
	}

	if _, err := b.ReadAll(); !errors.Is(err, ErrBodyConsumed) {
		t.Errorf("second ReadAll error = %v, want ErrBodyConsumed", err)
	}
}

func TestOnceBodySnapshotDoesNotConsume(t *testing.T) {
	b := NewOnceBody(strings.NewReader("payload"))

	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if string(snap) != "payload" {
		t.Errorf("snapshot = %q", snap)
	}

	data, err := b.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll after Snapshot: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data after snapshot = %q", data)
	}

	if _, err := b.Snapshot(); !errors.Is(err, ErrBodyConsumed) {
		t.Errorf("Snapshot after consume error = %v, want ErrBodyConsumed", err)
	}
}

func TestOnceBodyNilReader(t *testing.T) {
	data, err := NewOnceBody(nil).ReadAll()
	if err != nil || len(data) != 0 {
		t.Errorf("ReadAll on nil body = %q, %v", data, err)
	}
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"query":"{ hello }"}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["query"] != "{ hello }" {
		t.Errorf("decoded = %#v", v)
	}

	if _, err := DecodeJSON([]byte("{ invalid json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestInvocationLogFallsBack(t *testing.T) {
	var inv *Invocation
	if inv.Log() == nil {
		t.Error("nil Invocation should return the default logger")
	}
	if (&Invocation{}).Log() == nil {
		t.Error("Invocation without logger should return the default logger")
	}
}
