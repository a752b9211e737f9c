package stream

import (
	"time"

	"gitlab.com/streamkit/asyncio/streamstate"
)

// State is re-exported from streamstate so callers of this package don't
// need a second import for the handful of constants they touch constantly.
type State = streamstate.State

const (
	OK           = streamstate.OK
	Killed       = streamstate.Killed
	Unsupported  = streamstate.Unsupported
	UnknownError = streamstate.UnknownError
	Timeout      = streamstate.Timeout
	Refused      = streamstate.Refused
	EOF          = streamstate.EOF
	TLSFailure   = streamstate.TLSFailure
)

// OpenFunc is the open completion callback.
type OpenFunc func(s *Stream, state State) bool

// ReadFunc is the read completion callback. Returning true when
// state=OK && real<size requests the back-end continue the read; any
// other return value, or any non-OK state, ends the operation.
type ReadFunc func(s *Stream, state State, data []byte, real, size int) bool

// WritFunc is the write completion callback, symmetric to ReadFunc.
type WritFunc func(s *Stream, state State, data []byte, real, size int) bool

// SeekFunc is the seek completion callback.
type SeekFunc func(s *Stream, state State, offset int64) bool

// SyncFunc is the sync completion callback.
type SyncFunc func(s *Stream, state State, closing bool) bool

// TaskFunc is the deferred-task completion callback.
type TaskFunc func(s *Stream, state State) bool

// ControlOp is a back-end ctrl opcode. Back-ends may define additional
// opcodes above ctrlOpBackendBase; the core only ever issues the four
// below.
type ControlOp int

const (
	// SetURL stores the stream's URL on the back-end, issued once by the
	// URL dispatcher right after construction.
	SetURL ControlOp = iota
	// GetURL retrieves the previously-stored URL.
	GetURL
	// SetTimeout configures a back-end-specific timeout.
	SetTimeout
	// SetCache configures the read/write cache thresholds.
	SetCache

	// ctrlOpBackendBase is the first opcode a back-end may use for its own
	// opaque, core-agnostic configuration.
	ctrlOpBackendBase = 1000
)

// BackendBase returns the first ControlOp value available for a back-end's
// own opcodes.
func BackendBase() ControlOp { return ctrlOpBackendBase }

// Backend is the polymorphic transport contract. Every operation is
// non-blocking and, except Exit, reports its result by invoking the
// supplied callback from the stream's executor — never synchronously from
// within the call itself, except for the two cases this core allows a
// synchronous callback (a cached write, an offset-only seek).
// Implementations back file://, sock://, http(s)://, and data://.
type Backend interface {
	// Open establishes the transport. Completion state OK transitions the
	// stream to open.
	Open(s *Stream, cb OpenFunc) bool

	// Clos tears down the transport. It must be idempotent. calling
	// indicates whether Clos is itself being invoked from within a
	// callback already running on the stream's executor.
	Clos(s *Stream, calling bool)

	// Exit releases back-end storage. Called once, after Clos.
	Exit(s *Stream, calling bool)

	// Read reads up to size bytes into dst (or, if dst is nil, into a
	// back-end-owned buffer surfaced via the completion). delay is a
	// non-negative hint in milliseconds' worth of time.Duration; zero means
	// as soon as possible.
	Read(s *Stream, delay time.Duration, dst []byte, size int, cb ReadFunc) bool

	// Writ writes up to size bytes from src.
	Writ(s *Stream, delay time.Duration, src []byte, size int, cb WritFunc) bool

	// Seek positions the stream absolutely at offset. May fail with
	// Unsupported.
	Seek(s *Stream, offset int64, cb SeekFunc) bool

	// Sync flushes transport-level buffering. closing indicates this sync
	// is part of a close sequence.
	Sync(s *Stream, closing bool, cb SyncFunc) bool

	// Task schedules a deferred no-op, used for timed callbacks.
	Task(s *Stream, delay time.Duration, cb TaskFunc) bool

	// Ctrl performs synchronous, back-end-specific configuration.
	Ctrl(s *Stream, op ControlOp, args ...interface{}) bool

	// Offset reports the back-end's current logical position, synchronously.
	// Each back-end owns its own cursor (a file descriptor's position, a
	// socket's cumulative transfer count, an index into a data:// literal)
	// since only the back-end knows what "position" means for its
	// transport; the core queries it to decide whether a Seek is a no-op.
	Offset(s *Stream) int64
}
