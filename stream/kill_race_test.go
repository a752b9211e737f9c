package stream_test

import (
	"sync"
	"testing"
	"time"

	"gitlab.com/streamkit/asyncio/persist"
	"gitlab.com/streamkit/asyncio/proactor"
	"gitlab.com/streamkit/asyncio/stream"
	"gitlab.com/streamkit/asyncio/streamurl"
)

// slowBackend is a minimal stream.Backend whose every operation completes
// asynchronously after a short, deliberate delay, wide enough for a
// concurrent Kill to race the in-flight completion. It exists only to
// exercise that race: a plain (non-composed) Read/Writ/Seek/Sync/Task is
// never stashed in a continuation slot, so Kill has no record of it, and
// the only thing standing between such a completion and being silently
// dropped is the back-end's own delivery path.
type slowBackend struct {
	mu  sync.Mutex
	pos int64
}

const slowBackendDelay = 20 * time.Millisecond

func (b *slowBackend) Open(s *stream.Stream, cb stream.OpenFunc) bool {
	s.Executor().Deliver(func() { cb(s, stream.OK) })
	return true
}

func (b *slowBackend) Clos(s *stream.Stream, calling bool) {}
func (b *slowBackend) Exit(s *stream.Stream, calling bool) {}

func (b *slowBackend) Read(s *stream.Stream, delay time.Duration, dst []byte, size int, cb stream.ReadFunc) bool {
	go func() {
		time.Sleep(slowBackendDelay)
		data := make([]byte, size)
		s.Executor().Deliver(func() { cb(s, stream.OK, data, size, size) })
	}()
	return true
}

func (b *slowBackend) Writ(s *stream.Stream, delay time.Duration, src []byte, size int, cb stream.WritFunc) bool {
	go func() {
		time.Sleep(slowBackendDelay)
		s.Executor().Deliver(func() { cb(s, stream.OK, src, size, size) })
	}()
	return true
}

func (b *slowBackend) Seek(s *stream.Stream, offset int64, cb stream.SeekFunc) bool {
	go func() {
		time.Sleep(slowBackendDelay)
		s.Executor().Deliver(func() { cb(s, stream.OK, offset) })
	}()
	return true
}

func (b *slowBackend) Sync(s *stream.Stream, closing bool, cb stream.SyncFunc) bool {
	go func() {
		time.Sleep(slowBackendDelay)
		s.Executor().Deliver(func() { cb(s, stream.OK, closing) })
	}()
	return true
}

func (b *slowBackend) Task(s *stream.Stream, delay time.Duration, cb stream.TaskFunc) bool {
	go func() {
		time.Sleep(slowBackendDelay)
		s.Executor().Deliver(func() { cb(s, stream.OK) })
	}()
	return true
}

func (b *slowBackend) Ctrl(s *stream.Stream, op stream.ControlOp, args ...interface{}) bool {
	return true
}

func (b *slowBackend) Offset(s *stream.Stream) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

func newSlowTestStream(t *testing.T) (*stream.Stream, *proactor.Engine) {
	t.Helper()
	engine := proactor.NewEngine(persist.Discard())
	u, err := streamurl.Parse("data://slow")
	if err != nil {
		t.Fatal(err)
	}
	s, err := stream.New(engine, &slowBackend{}, u, 0, 0, persist.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return s, engine
}

// TestKillDoesNotDropInFlightPlainRead covers the case E5's single-call
// form doesn't: a plain Read already accepted by the back-end when Kill
// races it. Unlike an open-and-X or sync-then-X composition, a plain
// ReadAfter has no continuation slot for Kill to resolve, so the only
// guarantee available is that the back-end's own completion still reaches
// the user callback instead of being dropped when the executor stops
// first.
func TestKillDoesNotDropInFlightPlainRead(t *testing.T) {
	s, engine := newSlowTestStream(t)
	defer engine.Close()
	openSync(t, s)

	done := make(chan stream.State, 1)
	if !s.ReadAfter(0, 4, func(st *stream.Stream, state stream.State, data []byte, real, size int) bool {
		done <- state
		return false
	}) {
		t.Fatal("ReadAfter rejected")
	}
	s.Kill()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("in-flight read's callback was dropped by a racing Kill")
	}
}

// TestKillDoesNotDropInFlightPlainWrit is TestKillDoesNotDropInFlightPlainRead's
// write counterpart.
func TestKillDoesNotDropInFlightPlainWrit(t *testing.T) {
	s, engine := newSlowTestStream(t)
	defer engine.Close()
	openSync(t, s)

	done := make(chan stream.State, 1)
	if !s.WritAfter(0, []byte("abcd"), 4, func(st *stream.Stream, state stream.State, data []byte, real, size int) bool {
		done <- state
		return false
	}) {
		t.Fatal("WritAfter rejected")
	}
	s.Kill()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("in-flight writ's callback was dropped by a racing Kill")
	}
}
