// Package sock implements the stream.Backend contract for the sock:// and
// socks:// schemes: a plain TCP net.Conn. There is no third-party
// replacement for a raw socket dial/read/write in the dependency set this
// module draws on (see DESIGN.md), so this backend reaches directly for
// net — the same package the teacher's own networking code uses for this
// exact concern.
package sock

import (
	"io"
	"net"
	"sync"
	"time"

	"gitlab.com/streamkit/asyncio/stream"
	"gitlab.com/streamkit/asyncio/streamurl"
)

// Backend is a sock://-backed stream.Backend. socks:// dials the same way
// but keeps TLS off by policy — TLS negotiation itself is out of scope
// for the core (it belongs to the http backend's fasthttp client).
type Backend struct {
	mu          sync.Mutex
	url         streamurl.URL
	conn        net.Conn
	pos         int64
	idleTimeout time.Duration
}

// New returns an unopened Backend.
func New() *Backend { return &Backend{} }

// Open dials the stream's host over TCP.
func (b *Backend) Open(s *stream.Stream, cb stream.OpenFunc) bool {
	u := s.URL()
	addr := u.Host

	go func() {
		conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
		state := stream.OK
		if err != nil {
			state = stream.Refused
		} else {
			b.mu.Lock()
			b.url = u
			b.conn = conn
			b.pos = 0
			b.mu.Unlock()
		}
		s.Executor().Deliver(func() { cb(s, state) })
	}()
	return true
}

// Clos closes the underlying connection.
func (b *Backend) Clos(s *stream.Stream, calling bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Exit is a no-op beyond what Clos already released.
func (b *Backend) Exit(s *stream.Stream, calling bool) {}

// Read reads up to size bytes off the connection.
func (b *Backend) Read(s *stream.Stream, delay time.Duration, dst []byte, size int, cb stream.ReadFunc) bool {
	if dst == nil {
		dst = make([]byte, size)
	}
	b.mu.Lock()
	conn, timeout := b.conn, b.idleTimeout
	b.mu.Unlock()

	go func() {
		if timeout > 0 {
			conn.SetReadDeadline(time.Now().Add(timeout))
		}
		n, err := conn.Read(dst[:size])
		state := stream.OK
		if err != nil {
			switch {
			case err == io.EOF:
				state = stream.EOF
			case isTimeout(err):
				state = stream.Timeout
			default:
				state = stream.UnknownError
			}
		}
		if n > 0 {
			b.mu.Lock()
			b.pos += int64(n)
			b.mu.Unlock()
		}
		s.Executor().Deliver(func() {
			if cb(s, state, dst[:n], n, size) && state == stream.OK && n < size {
				b.Read(s, delay, dst, size, cb)
			}
		})
	}()
	return true
}

// Writ writes size bytes of src to the connection.
func (b *Backend) Writ(s *stream.Stream, delay time.Duration, src []byte, size int, cb stream.WritFunc) bool {
	b.mu.Lock()
	conn, timeout := b.conn, b.idleTimeout
	b.mu.Unlock()

	go func() {
		if timeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(timeout))
		}
		n, err := conn.Write(src[:size])
		state := stream.OK
		if err != nil {
			state = stream.UnknownError
			if isTimeout(err) {
				state = stream.Timeout
			}
		}
		if n > 0 {
			b.mu.Lock()
			b.pos += int64(n)
			b.mu.Unlock()
		}
		s.Executor().Deliver(func() { cb(s, state, src, n, size) })
	}()
	return true
}

// Seek is Unsupported: a TCP byte stream has no addressable position.
func (b *Backend) Seek(s *stream.Stream, offset int64, cb stream.SeekFunc) bool {
	s.Executor().Deliver(func() { cb(s, stream.Unsupported, offset) })
	return true
}

// Sync is a no-op; TCP has no user-visible flush distinct from Write.
func (b *Backend) Sync(s *stream.Stream, closing bool, cb stream.SyncFunc) bool {
	s.Executor().Deliver(func() { cb(s, stream.OK, closing) })
	return true
}

// Task schedules cb's completion after delay, with no I/O attached.
func (b *Backend) Task(s *stream.Stream, delay time.Duration, cb stream.TaskFunc) bool {
	return s.Executor().Schedule(delay, func() { cb(s, stream.OK) })
}

// Ctrl supports SetURL/GetURL/SetTimeout/SetCache; SetCache is accepted
// and ignored since this backend has no buffering of its own below the
// core's caches.
func (b *Backend) Ctrl(s *stream.Stream, op stream.ControlOp, args ...interface{}) bool {
	switch op {
	case stream.SetURL:
		if len(args) != 1 {
			return false
		}
		u, ok := args[0].(streamurl.URL)
		if !ok {
			return false
		}
		b.mu.Lock()
		b.url = u
		b.mu.Unlock()
		return true
	case stream.GetURL:
		if len(args) != 1 {
			return false
		}
		out, ok := args[0].(*streamurl.URL)
		if !ok {
			return false
		}
		b.mu.Lock()
		*out = b.url
		b.mu.Unlock()
		return true
	case stream.SetTimeout:
		if len(args) != 1 {
			return false
		}
		d, ok := args[0].(time.Duration)
		if !ok {
			return false
		}
		b.mu.Lock()
		b.idleTimeout = d
		b.mu.Unlock()
		return true
	case stream.SetCache:
		return true
	default:
		return false
	}
}

// Offset returns the cumulative byte count transferred over the
// connection, the closest TCP analogue of a file's position.
func (b *Backend) Offset(s *stream.Stream) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
