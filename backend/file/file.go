// Package file implements the stream.Backend contract for the file://
// scheme (and any bare path, which the dispatcher routes here). Writes are
// journalled through a gitlab.com/NebulousLabs/writeaheadlog transaction
// before being applied to the underlying os.File, grounded on
// modules/host/contractmanager/writeaheadlog.go's
// NewTransaction/SignalSetupComplete/SignalUpdatesApplied sequence, so a
// crash mid-sync leaves the WAL able to recover the pending write instead
// of a torn file.
package file

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gitlab.com/NebulousLabs/merkletree"
	"gitlab.com/NebulousLabs/writeaheadlog"

	"gitlab.com/streamkit/asyncio/stream"
	"gitlab.com/streamkit/asyncio/streamurl"
)

const writUpdateName = "asyncio-writ"

// Backend is a file://-backed stream.Backend. WALDir selects where its
// write-ahead log lives; an empty WALDir places it alongside the target
// file with a ".wal" suffix.
type Backend struct {
	WALDir string

	mu       sync.Mutex
	url      streamurl.URL
	path     string
	f        *os.File
	wal      *writeaheadlog.WAL
	pos      int64
	lastRoot []byte
}

// New returns an unopened Backend whose WAL lives under walDir (or
// alongside the target file if walDir is empty).
func New(walDir string) *Backend {
	return &Backend{WALDir: walDir}
}

func (b *Backend) walPath() string {
	if b.WALDir != "" {
		return filepath.Join(b.WALDir, filepath.Base(b.path)+".wal")
	}
	return b.path + ".wal"
}

// Open opens (creating if necessary) the target file and its WAL.
func (b *Backend) Open(s *stream.Stream, cb stream.OpenFunc) bool {
	u := s.URL()
	path := u.Path
	if path == "" {
		path = u.Host
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		s.Executor().Deliver(func() { cb(s, stream.UnknownError) })
		return true
	}

	b.mu.Lock()
	b.url = u
	b.path = path
	b.f = f
	b.mu.Unlock()

	_, wal, err := writeaheadlog.New(b.walPath())
	if err != nil {
		f.Close()
		s.Executor().Deliver(func() { cb(s, stream.UnknownError) })
		return true
	}
	b.mu.Lock()
	b.wal = wal
	b.pos = 0
	b.mu.Unlock()

	s.Executor().Deliver(func() { cb(s, stream.OK) })
	return true
}

// Clos closes the target file and its WAL without draining anything
// itself; Stream.Close flushes the write cache and syncs before calling
// it, Stream.Kill does not.
func (b *Backend) Clos(s *stream.Stream, calling bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wal != nil {
		b.wal.Close()
	}
	if b.f != nil {
		b.f.Close()
	}
}

// Exit is a no-op beyond what Clos already released.
func (b *Backend) Exit(s *stream.Stream, calling bool) {}

// Read reads up to size bytes starting at the cursor.
func (b *Backend) Read(s *stream.Stream, delay time.Duration, dst []byte, size int, cb stream.ReadFunc) bool {
	if dst == nil {
		dst = make([]byte, size)
	}
	b.mu.Lock()
	f, pos := b.f, b.pos
	b.mu.Unlock()

	n, err := f.ReadAt(dst[:size], pos)
	state := stream.OK
	if err != nil {
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
			b.Read(s, delay, dst, size, cb)
		}
	})
	return true
}

// Writ journals size bytes of src at the cursor through the WAL, then
// applies them to the file.
func (b *Backend) Writ(s *stream.Stream, delay time.Duration, src []byte, size int, cb stream.WritFunc) bool {
	b.mu.Lock()
	f, wal, pos := b.f, b.wal, b.pos
	b.mu.Unlock()

	instructions := make([]byte, 8+size)
	binary.BigEndian.PutUint64(instructions, uint64(pos))
	copy(instructions[8:], src[:size])

	txn, err := wal.NewTransaction([]writeaheadlog.Update{{
		Name:         writUpdateName,
		Instructions: instructions,
	}})
	if err != nil {
		s.Executor().Deliver(func() { cb(s, stream.UnknownError, src, 0, size) })
		return true
	}
	if err := <-txn.SignalSetupComplete(); err != nil {
		s.Executor().Deliver(func() { cb(s, stream.UnknownError, src, 0, size) })
		return true
	}

	n, werr := f.WriteAt(src[:size], pos)
	if werr != nil {
		s.Executor().Deliver(func() { cb(s, stream.UnknownError, src, n, size) })
		return true
	}
	if err := txn.SignalUpdatesApplied(); err != nil {
		s.Executor().Deliver(func() { cb(s, stream.UnknownError, src, n, size) })
		return true
	}

	b.mu.Lock()
	b.pos += int64(n)
	b.mu.Unlock()

	s.Executor().Deliver(func() { cb(s, stream.OK, src, n, size) })
	return true
}

// Seek repositions the cursor absolutely.
func (b *Backend) Seek(s *stream.Stream, offset int64, cb stream.SeekFunc) bool {
	b.mu.Lock()
	b.pos = offset
	b.mu.Unlock()
	s.Executor().Deliver(func() { cb(s, stream.OK, offset) })
	return true
}

// Sync flushes the file to stable storage and refreshes the merkletree
// root GetChecksum reports, computed over the file's bytes up to the
// current cursor.
func (b *Backend) Sync(s *stream.Stream, closing bool, cb stream.SyncFunc) bool {
	b.mu.Lock()
	f, pos := b.f, b.pos
	b.mu.Unlock()

	state := stream.OK
	if err := f.Sync(); err != nil {
		state = stream.UnknownError
	} else if root, err := checksumPrefix(f, pos); err == nil {
		b.mu.Lock()
		b.lastRoot = root
		b.mu.Unlock()
	}
	s.Executor().Deliver(func() { cb(s, state, closing) })
	return true
}

// checksumPrefix computes a merkletree root over the file's first n bytes.
func checksumPrefix(f *os.File, n int64) ([]byte, error) {
	tree := merkletree.New(sha256.New())
	buf := make([]byte, 4096)
	r := io.NewSectionReader(f, 0, n)
	for {
		read, err := r.Read(buf)
		if read > 0 {
			tree.Push(append([]byte(nil), buf[:read]...))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return tree.Root(), nil
}

// Task schedules cb's completion after delay, with no I/O attached.
func (b *Backend) Task(s *stream.Stream, delay time.Duration, cb stream.TaskFunc) bool {
	return s.Executor().Schedule(delay, func() { cb(s, stream.OK) })
}

// ctrlGetChecksum returns a merkletree root over the last-synced region,
// this backend's own opaque opcode above stream.BackendBase().
var ctrlGetChecksum = stream.BackendBase()

// GetChecksum is this backend's own ctrl opcode for retrieving a
// merkletree root over the last-synced region.
func GetChecksum() stream.ControlOp { return ctrlGetChecksum }

// Ctrl supports SetURL/GetURL/SetTimeout/SetCache plus this backend's own
// GetChecksum opcode.
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
	case stream.SetTimeout, stream.SetCache:
		return true
	case ctrlGetChecksum:
		if len(args) != 1 {
			return false
		}
		out, ok := args[0].(*[]byte)
		if !ok {
			return false
		}
		b.mu.Lock()
		*out = b.lastRoot
		b.mu.Unlock()
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
