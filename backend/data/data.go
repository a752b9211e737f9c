// Package data implements the stream.Backend contract for the data://
// scheme: a stream whose entire content is the literal bytes supplied in
// the URL body, with no persistent storage behind it. It exists so a
// caller can exercise the full composed-operator surface (open, read,
// seek, sync, close) without a real file or socket.
package data

import (
	"crypto/sha256"
	"sync"
	"time"

	"gitlab.com/NebulousLabs/merkletree"

	"gitlab.com/streamkit/asyncio/stream"
	"gitlab.com/streamkit/asyncio/streamurl"
)

// Backend is a data:// stream's in-memory content plus a read/write
// cursor. The zero value is ready to use via New.
type Backend struct {
	mu      sync.Mutex
	url     streamurl.URL
	content []byte
	pos     int64
}

// New returns an unopened Backend. Ctrl(SetURL) replaces the content with
// the new URL's literal at once; Open reloads the content from the
// stream's own URL, replacing whatever Ctrl(SetURL) stored.
func New() *Backend {
	return &Backend{}
}

func literal(u streamurl.URL) []byte {
	return []byte(u.WithoutScheme())
}

// Open loads the literal content from the stream's URL and resets the
// cursor to zero.
func (b *Backend) Open(s *stream.Stream, cb stream.OpenFunc) bool {
	b.mu.Lock()
	b.url = s.URL()
	b.content = literal(b.url)
	b.pos = 0
	b.mu.Unlock()

	s.Executor().Deliver(func() { cb(s, stream.OK) })
	return true
}

// Clos is a no-op; a data:// backend owns no external resource.
func (b *Backend) Clos(s *stream.Stream, calling bool) {}

// Exit releases the content buffer.
func (b *Backend) Exit(s *stream.Stream, calling bool) {
	b.mu.Lock()
	b.content = nil
	b.mu.Unlock()
}

// Read copies up to size bytes starting at the cursor into dst, or into a
// freshly allocated slice if dst is nil.
func (b *Backend) Read(s *stream.Stream, delay time.Duration, dst []byte, size int, cb stream.ReadFunc) bool {
	lent := dst
	b.mu.Lock()
	remaining := b.content[b.pos:]
	n := size
	if n > len(remaining) {
		n = len(remaining)
	}
	if dst == nil {
		dst = make([]byte, n)
	}
	copy(dst, remaining[:n])
	b.pos += int64(n)
	state := stream.OK
	if n == 0 && size > 0 {
		state = stream.EOF
	}
	b.mu.Unlock()

	s.Executor().Deliver(func() {
		if cb(s, state, dst[:n], n, size) && state == stream.OK && n < size {
			b.Read(s, delay, lent, size, cb)
		}
	})
	return true
}

// Writ writes size bytes of src at the cursor, overwriting existing content
// and growing the content buffer as needed.
func (b *Backend) Writ(s *stream.Stream, delay time.Duration, src []byte, size int, cb stream.WritFunc) bool {
	b.mu.Lock()
	end := int(b.pos) + size
	if end > len(b.content) {
		grown := make([]byte, end)
		copy(grown, b.content)
		b.content = grown
	}
	copy(b.content[b.pos:end], src[:size])
	b.pos += int64(size)
	b.mu.Unlock()

	s.Executor().Deliver(func() { cb(s, stream.OK, src, size, size) })
	return true
}

// Seek repositions the cursor absolutely.
func (b *Backend) Seek(s *stream.Stream, offset int64, cb stream.SeekFunc) bool {
	b.mu.Lock()
	if offset < 0 || offset > int64(len(b.content)) {
		b.mu.Unlock()
		s.Executor().Deliver(func() { cb(s, stream.UnknownError, offset) })
		return true
	}
	b.pos = offset
	b.mu.Unlock()
	s.Executor().Deliver(func() { cb(s, stream.OK, offset) })
	return true
}

// Sync is a no-op; there is nothing buffered below this backend.
func (b *Backend) Sync(s *stream.Stream, closing bool, cb stream.SyncFunc) bool {
	s.Executor().Deliver(func() { cb(s, stream.OK, closing) })
	return true
}

// Task schedules cb's completion after delay, with no I/O attached.
func (b *Backend) Task(s *stream.Stream, delay time.Duration, cb stream.TaskFunc) bool {
	return s.Executor().Schedule(delay, func() { cb(s, stream.OK) })
}

// Ctrl supports SetURL/GetURL; SetTimeout and SetCache are accepted and
// ignored since a data:// stream has no transport-level timeout or
// separate cache tier to configure.
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
		b.content = literal(u)
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
	case stream.SetTimeout, stream.SetCache:
		return true
	default:
		return false
	}
}

// Offset returns the backend's current cursor position.
func (b *Backend) Offset(s *stream.Stream) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// Checksum returns a merkletree root over the currently-held content,
// exposed for callers that want to verify a data:// stream's bytes
// without reading them back through the cache.
func (b *Backend) Checksum() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	tree := merkletree.New(sha256.New())
	tree.SetIndex(0)
	tree.Push(b.content)
	return tree.Root()
}
