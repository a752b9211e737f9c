package dispatch

import (
	"testing"

	"gitlab.com/streamkit/asyncio/config"
	"gitlab.com/streamkit/asyncio/persist"
	"gitlab.com/streamkit/asyncio/proactor"
)

// TestNewDispatchesByScheme covers the scheme table: each scheme must
// reach a constructed, non-nil stream bound to the right back-end, with
// the original URL preserved.
func TestNewDispatchesByScheme(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"data", "data://AABB"},
		{"file", "./dispatch_test_data.bin"},
		{"https", "https://x/y"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := proactor.NewEngine(persist.Discard())
			defer engine.Close()

			s, err := New(engine, tc.url, config.Default(), persist.Discard())
			if err != nil {
				t.Fatalf("New(%q) failed: %v", tc.url, err)
			}
			if s == nil {
				t.Fatal("New returned a nil stream with no error")
			}
			if got := s.URL().String(); got != tc.url {
				t.Fatalf("URL() = %q, want %q", got, tc.url)
			}
		})
	}
}

// TestNewRejectsUnsupportedScheme covers the scheme table's default case.
func TestNewRejectsUnsupportedScheme(t *testing.T) {
	engine := proactor.NewEngine(persist.Discard())
	defer engine.Close()

	if _, err := New(engine, "ftp://x/y", config.Default(), persist.Discard()); err == nil {
		t.Fatal("expected an error for an unsupported scheme")
	}
}

// TestNewHTTPStreamFactory covers scenario E6: constructing an http(s)
// stream via the factory returns a non-null stream whose URL round-trips
// exactly, without ever reaching the network — the network round trip
// itself is covered at the back-end level in backend/http.
func TestNewHTTPStreamFactory(t *testing.T) {
	engine := proactor.NewEngine(persist.Discard())
	defer engine.Close()

	s, err := New(engine, "https://x/y", config.Default(), persist.Discard())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s == nil {
		t.Fatal("New returned a nil stream with no error")
	}
	if got := s.URL().String(); got != "https://x/y" {
		t.Fatalf("URL() = %q, want %q", got, "https://x/y")
	}
}
