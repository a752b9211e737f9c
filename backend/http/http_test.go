package http

import (
	"testing"
	"time"

	"gitlab.com/streamkit/asyncio/persist"
	"gitlab.com/streamkit/asyncio/proactor"
	"gitlab.com/streamkit/asyncio/stream"
	"gitlab.com/streamkit/asyncio/streamurl"
)

func newHTTPTestStream(t *testing.T, u streamurl.URL) (*stream.Stream, *Backend, *proactor.Engine) {
	t.Helper()
	engine := proactor.NewEngine(persist.Discard())
	b := New()
	s, err := stream.New(engine, b, u, 0, 0, persist.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return s, b, engine
}

// TestCtrlGetURLRoundTrip covers scenario E6: constructing an http(s)
// stream via SetURL and reading it back via GET_URL must return the same
// URL, without ever touching the network.
func TestCtrlGetURLRoundTrip(t *testing.T) {
	u, err := streamurl.Parse("https://x/y")
	if err != nil {
		t.Fatal(err)
	}
	s, b, engine := newHTTPTestStream(t, u)
	defer engine.Close()

	if !b.Ctrl(s, stream.SetURL, u) {
		t.Fatal("SetURL rejected")
	}

	var out streamurl.URL
	if !b.Ctrl(s, stream.GetURL, &out) {
		t.Fatal("GetURL rejected")
	}
	if out.String() != "https://x/y" {
		t.Fatalf("GetURL = %q, want %q", out.String(), "https://x/y")
	}
}

// TestOpenRejectsURLWithNoHost covers the other half of Open's contract:
// a URL with no host fails Open with UnknownError rather than reaching
// fasthttp at all.
func TestOpenRejectsURLWithNoHost(t *testing.T) {
	u, err := streamurl.Parse("https:///y")
	if err != nil {
		t.Fatal(err)
	}
	s, b, engine := newHTTPTestStream(t, u)
	defer engine.Close()

	done := make(chan stream.State, 1)
	if !b.Open(s, func(st *stream.Stream, state stream.State) bool {
		done <- state
		return false
	}) {
		t.Fatal("Open rejected outright")
	}
	select {
	case state := <-done:
		if state != stream.UnknownError {
			t.Fatalf("Open state = %s, want UnknownError", state)
		}
	case <-time.After(time.Second):
		t.Fatal("Open never completed")
	}
}

// TestSeekUpdatesOffsetWithoutNetwork covers Seek's contract that it never
// reaches the network: it only moves the cursor the next Read's Range
// header is built from.
func TestSeekUpdatesOffsetWithoutNetwork(t *testing.T) {
	u, err := streamurl.Parse("https://x/y")
	if err != nil {
		t.Fatal(err)
	}
	s, b, engine := newHTTPTestStream(t, u)
	defer engine.Close()

	done := make(chan int64, 1)
	if !b.Seek(s, 42, func(st *stream.Stream, state stream.State, offset int64) bool {
		if state != stream.OK {
			t.Errorf("Seek state = %s, want OK", state)
		}
		done <- offset
		return false
	}) {
		t.Fatal("Seek rejected")
	}
	select {
	case offset := <-done:
		if offset != 42 {
			t.Fatalf("Seek offset = %d, want 42", offset)
		}
	case <-time.After(time.Second):
		t.Fatal("Seek never completed")
	}
	if got := b.Offset(s); got != 42 {
		t.Fatalf("Offset() = %d, want 42", got)
	}
}
