package stream

import (
	"sync/atomic"

	"github.com/google/uuid"

	"gitlab.com/streamkit/asyncio/persist"
	"gitlab.com/streamkit/asyncio/proactor"
	"gitlab.com/streamkit/asyncio/sbuffer"
	"gitlab.com/streamkit/asyncio/streamurl"
)

// Stream is the async I/O handle: a URL, a back-end bound to it, an
// optional write-back cache and read-ahead cache, and the continuation
// slots the composed operators in ops.go use to rewrite themselves. Its
// back-end vtable is expressed as the Backend interface, and the
// open/stopped flags are atomic.Bool rather than bit flags guarded by a
// spinlock.
type Stream struct {
	backend Backend
	url     streamurl.URL

	rcacheMaxN int
	wcacheMaxN int
	rcacheData sbuffer.Buffer
	wcacheData sbuffer.Buffer

	openAnd   openCont
	syncAnd   syncCont
	wcacheAnd wcacheCont

	// bopened and bstoped track the stream's open/stopped state as atomic
	// flags rather than a mutex-guarded bit field. bopened is set once
	// Open's back-end callback reports OK and cleared on Clos/Kill.
	// bstoped starts true (never opened) and is cleared the instant Open
	// is attempted, so a second concurrent Open is rejected rather than
	// silently interleaved.
	bopened atomic.Bool
	bstoped atomic.Bool

	engine   *proactor.Engine
	executor *proactor.Executor
	log      *persist.Logger
	traceID  uuid.UUID
}

// New constructs a Stream bound to backend. The back-end's own copy of the
// URL and cache thresholds is delivered via Ctrl after New returns (the
// dispatcher package does this right after constructing the Stream).
// engine supplies the proactor; rcacheBytes/wcacheBytes of zero disable
// the corresponding cache.
func New(engine *proactor.Engine, backend Backend, u streamurl.URL, rcacheBytes, wcacheBytes int, log *persist.Logger) (*Stream, error) {
	if log == nil {
		log = persist.Discard()
	}
	x, err := engine.NewExecutor(u.String())
	if err != nil {
		return nil, err
	}
	traceID := uuid.New()
	s := &Stream{
		backend:    backend,
		url:        u,
		rcacheMaxN: rcacheBytes,
		wcacheMaxN: wcacheBytes,
		engine:     engine,
		executor:   x,
		log:        log.With("stream", u.String()).With("trace_id", traceID),
		traceID:    traceID,
	}
	s.bstoped.Store(true)
	return s, nil
}

// URL returns the stream's bound URL.
func (s *Stream) URL() streamurl.URL { return s.url }

// TraceID returns the stream's per-instance trace identifier, attached to
// every log line this stream emits so a state transition can be traced
// back to the stream that caused it.
func (s *Stream) TraceID() uuid.UUID { return s.traceID }

// IsOpen reports whether the stream's back-end is currently open.
func (s *Stream) IsOpen() bool { return s.bopened.Load() }

// Offset returns the back-end's current logical position.
func (s *Stream) Offset() int64 { return s.backend.Offset(s) }

// Executor returns the proactor executor serializing this stream's
// operations, for back-ends that need to submit their own completions.
func (s *Stream) Executor() *proactor.Executor { return s.executor }

// Log returns this stream's logger.
func (s *Stream) Log() *persist.Logger { return s.log }
