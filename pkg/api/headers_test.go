package api

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func TestHeaderMapCaseInsensitive(t *testing.T) {
	for _, name := range []string{"Content-Type", "content-type", "CoNtEnT-TyPe"} {
		t.Run(name, func(t *testing.T) {
			h := NewHeaderMap()
			h.Set(name, "application/json")

			if got := h.Value("content-type"); got != "application/json" {
				t.Errorf("Value(content-type) = %q, want application/json", got)
			}
			if got := h.Value("CONTENT-TYPE"); got != "application/json" {
				t.Errorf("Value(CONTENT-TYPE) = %q, want application/json", got)
			}
			if h.Len() != 1 {
				t.Errorf("Len() = %d, want 1", h.Len())
			}
		})
	}
}

func TestHeaderMapOrderAndJoin(t *testing.T) {
	h := NewHeaderMap()
	h.Add("X-B", "1")
	h.Add("x-a", "2")
	h.Add("X-b", "3")

	if diff := cmp.Diff([]string{"x-b", "x-a"}, h.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got := h.Value("x-b"); got != "1, 3" {
		t.Errorf("joined value = %q, want %q", got, "1, 3")
	}
}

func TestHeaderMapDelete(t *testing.T) {
	h := NewHeaderMap()
	h.Set("a", "1")
	h.Set("b", "2")
	h.Delete("A")

	if h.Has("a") {
		t.Error("Has(a) after Delete = true")
	}
	if diff := cmp.Diff([]string{"b"}, h.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	h.Delete("missing")
}

func TestHeaderMapZeroValueAndNil(t *testing.T) {
	var h HeaderMap
	h.Add("Accept", "text/plain")
	if got := h.Value("accept"); got != "text/plain" {
		t.Errorf("zero value Add/Value = %q", got)
	}

	var nilMap *HeaderMap
	if nilMap.Len() != 0 || nilMap.Has("x") {
		t.Error("nil HeaderMap should behave as empty")
	}
	for range nilMap.All() {
		t.Error("nil HeaderMap should yield nothing")
	}
}

func TestHeadersFromAndClone(t *testing.T) {
	src := func(yield func(string, string) bool) {
		_ = yield("Accept", "a") && yield("ACCEPT", "b") && yield("Host", "example.com")
	}
	h := HeadersFrom(src)
	c := h.Clone()
	c.Set("host", "other")

	want := map[string]string{"accept": "a, b", "host": "example.com"}
	got := map[string]string{}
	for k, v := range h.All() {
		got[k] = v
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HeadersFrom mismatch (-want +got):\n%s", diff)
	}
	if h.Value("host") != "example.com" {
		t.Error("Clone shares state with original")
	}
}

func TestHeaderLookupIgnoresCaseProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9-]{0,15}`).Draw(t, "name")
		value := rapid.String().Draw(t, "value")
		mixed := rapid.SliceOfN(rapid.Bool(), len(name), len(name)).Draw(t, "upper")

		var b strings.Builder
		for i, r := range name {
			if mixed[i] {
				b.WriteString(strings.ToUpper(string(r)))
			} else {
				b.WriteString(strings.ToLower(string(r)))
			}
		}

		h := NewHeaderMap()
		h.Set(name, value)
		got, ok := h.Get(b.String())
		if !ok || got != value {
			t.Fatalf("Get(%q) = %q, %v; want %q, true", b.String(), got, ok, value)
		}
	})
}
