// Package http implements the stream.Backend contract for the http:// and
// https:// schemes, backed by github.com/valyala/fasthttp.Client. Since
// HTTP range requests are stateless, Seek never reaches the network — it
// only updates the cursor the next Read's Range header is built from.
// TLS negotiation for https:// is left entirely to fasthttp/the Go
// runtime, per this core's explicit non-goal on TLS logic.
package http

import (
	"fmt"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"gitlab.com/streamkit/asyncio/stream"
	"gitlab.com/streamkit/asyncio/streamurl"
)

// Backend is an http(s)://-backed stream.Backend.
type Backend struct {
	client *fasthttp.Client

	mu      sync.Mutex
	url     streamurl.URL
	pos     int64
	timeout time.Duration
}

// New returns an unopened Backend.
func New() *Backend {
	return &Backend{client: &fasthttp.Client{}}
}

// Open validates the stream's URL carries a host; the actual connection
// is made lazily per request by fasthttp.Client.
func (b *Backend) Open(s *stream.Stream, cb stream.OpenFunc) bool {
	u := s.URL()
	if u.Host == "" {
		s.Executor().Deliver(func() { cb(s, stream.UnknownError) })
		return true
	}
	b.mu.Lock()
	b.url = u
	b.pos = 0
	b.mu.Unlock()
	s.Executor().Deliver(func() { cb(s, stream.OK) })
	return true
}

// Clos is a no-op; fasthttp.Client pools its own connections.
func (b *Backend) Clos(s *stream.Stream, calling bool) {}

// Exit is a no-op.
func (b *Backend) Exit(s *stream.Stream, calling bool) {}

// Read issues a ranged GET for [pos, pos+size).
func (b *Backend) Read(s *stream.Stream, delay time.Duration, dst []byte, size int, cb stream.ReadFunc) bool {
	b.mu.Lock()
	u, pos, timeout := b.url, b.pos, b.timeout
	b.mu.Unlock()
	lent := dst

	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(u.String())
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", pos, pos+int64(size)-1))

		var err error
		if timeout > 0 {
			err = b.client.DoTimeout(req, resp, timeout)
		} else {
			err = b.client.Do(req, resp)
		}

		state := stream.OK
		var n int
		if err != nil {
			state = stream.UnknownError
		} else if resp.StatusCode() >= 400 {
			state = stream.UnknownError
		} else {
			body := resp.Body()
			n = len(body)
			if n > size {
				n = size
			}
			if dst == nil {
				dst = make([]byte, n)
			}
			copy(dst, body[:n])
			if n == 0 {
				state = stream.EOF
			}
		}
		if n > 0 {
			b.mu.Lock()
			b.pos += int64(n)
			b.mu.Unlock()
		}
		s.Executor().Deliver(func() {
			if cb(s, state, dst[:n], n, size) && state == stream.OK && n < size {
				b.Read(s, delay, lent, size, cb)
			}
		})
	}()
	return true
}

// Writ issues a PUT of src with a Content-Range header for [pos,
// pos+size).
func (b *Backend) Writ(s *stream.Stream, delay time.Duration, src []byte, size int, cb stream.WritFunc) bool {
	b.mu.Lock()
	u, pos, timeout := b.url, b.pos, b.timeout
	b.mu.Unlock()

	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(u.String())
		req.Header.SetMethod(fasthttp.MethodPut)
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/*", pos, pos+int64(size)-1))
		req.SetBody(src[:size])

		var err error
		if timeout > 0 {
			err = b.client.DoTimeout(req, resp, timeout)
		} else {
			err = b.client.Do(req, resp)
		}

		state := stream.OK
		n := size
		if err != nil || resp.StatusCode() >= 400 {
			state = stream.UnknownError
			n = 0
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

// Seek updates the cursor used to build the next request's Range header;
// HTTP range requests are stateless, so this never touches the network.
func (b *Backend) Seek(s *stream.Stream, offset int64, cb stream.SeekFunc) bool {
	b.mu.Lock()
	b.pos = offset
	b.mu.Unlock()
	s.Executor().Deliver(func() { cb(s, stream.OK, offset) })
	return true
}

// Sync is a no-op; each Read/Writ is already a complete round trip.
func (b *Backend) Sync(s *stream.Stream, closing bool, cb stream.SyncFunc) bool {
	s.Executor().Deliver(func() { cb(s, stream.OK, closing) })
	return true
}

// Task schedules cb's completion after delay, with no I/O attached.
func (b *Backend) Task(s *stream.Stream, delay time.Duration, cb stream.TaskFunc) bool {
	return s.Executor().Schedule(delay, func() { cb(s, stream.OK) })
}

// Ctrl supports SetURL/GetURL/SetTimeout/SetCache.
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
		b.timeout = d
		b.mu.Unlock()
		return true
	case stream.SetCache:
		return true
	default:
		return false
	}
}

// Offset returns the cursor used to build the next request's Range header.
func (b *Backend) Offset(s *stream.Stream) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}
