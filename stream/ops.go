package stream

import "time"

// This file implements the composed operators: user-facing entry points
// that either call straight through to the back-end or, when a
// prerequisite is missing, rewrite themselves into that prerequisite plus
// a stored continuation to resume once it completes. Every operator
// checks the open/stopped flags first so a call arriving on a killed or
// not-yet-opened stream is rejected rather than silently interleaved with
// whatever else is in flight.

// Open establishes the back-end transport. Open and the open-then-X
// operators (OpenRead, OpenWrit, OpenSeek) are the only operators legal on
// a fresh or fully-closed stream.
func (s *Stream) Open(cb OpenFunc) bool {
	if s.bopened.Load() || !s.bstoped.Load() || s.openAnd != nil {
		return false
	}
	s.bstoped.Store(false)
	s.openAnd = &openPlainCont{cb: cb}
	ok := s.backend.Open(s, s.openDoneFunc)
	if !ok {
		s.openAnd = nil
		s.bstoped.Store(true)
	}
	return ok
}

// OpenRead opens the stream if necessary, then performs a read once open
// completes — the "open-then-read" composed operator.
func (s *Stream) OpenRead(size int, cb ReadFunc) bool {
	if s.bopened.Load() {
		return s.ReadAfter(0, size, cb)
	}
	if !s.bstoped.Load() || s.openAnd != nil {
		return false
	}
	s.bstoped.Store(false)
	s.openAnd = &openReadCont{size: size, cb: cb}
	ok := s.backend.Open(s, s.openDoneFunc)
	if !ok {
		s.openAnd = nil
		s.bstoped.Store(true)
	}
	return ok
}

// OpenWrit is OpenRead's write counterpart.
func (s *Stream) OpenWrit(data []byte, size int, cb WritFunc) bool {
	if s.bopened.Load() {
		return s.WritAfter(0, data, size, cb)
	}
	if !s.bstoped.Load() || s.openAnd != nil {
		return false
	}
	s.bstoped.Store(false)
	s.openAnd = &openWritCont{data: data, size: size, cb: cb}
	ok := s.backend.Open(s, s.openDoneFunc)
	if !ok {
		s.openAnd = nil
		s.bstoped.Store(true)
	}
	return ok
}

// OpenSeek is OpenRead's seek counterpart.
func (s *Stream) OpenSeek(offset int64, cb SeekFunc) bool {
	if s.bopened.Load() {
		return s.Seek(offset, cb)
	}
	if !s.bstoped.Load() || s.openAnd != nil {
		return false
	}
	s.bstoped.Store(false)
	s.openAnd = &openSeekCont{offset: offset, cb: cb}
	ok := s.backend.Open(s, s.openDoneFunc)
	if !ok {
		s.openAnd = nil
		s.bstoped.Store(true)
	}
	return ok
}

// openDoneFunc is the single callback every Open call, plain or composed,
// hands to the back-end. It resolves the open flags once, then resumes
// whatever was waiting in openAnd.
func (s *Stream) openDoneFunc(st *Stream, state State) bool {
	cont := st.openAnd
	st.openAnd = nil
	if state == OK && st.bstoped.Load() {
		// Kill landed while the open was in flight.
		state = Killed
	}
	if state == OK {
		st.bopened.Store(true)
	} else {
		st.bstoped.Store(true)
	}
	switch c := cont.(type) {
	case *openPlainCont:
		return c.cb(st, state)
	case *openReadCont:
		if state != OK {
			return c.cb(st, state, nil, 0, c.size)
		}
		return st.creadDone(0, c.size, c.cb)
	case *openWritCont:
		if state != OK {
			return c.cb(st, state, c.data, 0, c.size)
		}
		return st.cwritDone(0, c.data, c.size, c.cb)
	case *openSeekCont:
		if state != OK {
			return c.cb(st, state, c.offset)
		}
		return st.seekDone(c.offset, c.cb)
	default:
		return false
	}
}

// ReadAfter reads up to size bytes, delayed by delay. A dirty write cache
// is flushed first, so a read never observes stale bytes behind an
// unflushed write, rewriting this call into a sync-then-read.
func (s *Stream) ReadAfter(delay time.Duration, size int, cb ReadFunc) bool {
	if !s.bopened.Load() || s.bstoped.Load() {
		return false
	}
	if s.wcacheData.Len() > 0 {
		if s.syncAnd != nil {
			return false
		}
		s.syncAnd = &syncReadCont{size: size, cb: cb}
		return s.csyncDone(false, s.syncDoneFunc)
	}
	return s.creadDone(delay, size, cb)
}

// WritAfter writes size bytes from data, delayed by delay. Every write
// goes through the write cache, which absorbs it synchronously or drains
// to the back-end once full (cache.go).
func (s *Stream) WritAfter(delay time.Duration, data []byte, size int, cb WritFunc) bool {
	if !s.bopened.Load() || s.bstoped.Load() {
		return false
	}
	return s.cwritDone(delay, data, size, cb)
}

// Seek positions the stream absolutely at offset. A dirty write cache is
// flushed first, same rationale as ReadAfter. A seek to the current
// offset completes synchronously without reaching the back-end.
func (s *Stream) Seek(offset int64, cb SeekFunc) bool {
	if !s.bopened.Load() || s.bstoped.Load() {
		return false
	}
	if s.wcacheData.Len() > 0 {
		if s.syncAnd != nil {
			return false
		}
		s.syncAnd = &syncSeekCont{offset: offset, cb: cb}
		return s.csyncDone(false, s.syncDoneFunc)
	}
	return s.seekDone(offset, cb)
}

func (s *Stream) seekDone(offset int64, cb SeekFunc) bool {
	if offset == s.Offset() {
		cb(s, OK, offset)
		return true
	}
	return s.backend.Seek(s, offset, cb)
}

// syncDoneFunc resumes a read or seek that was waiting behind a dirty
// write-cache flush.
func (s *Stream) syncDoneFunc(st *Stream, state State, closing bool) bool {
	cont := st.syncAnd
	st.syncAnd = nil
	if state == OK && st.bstoped.Load() {
		// Kill landed while the flush was in flight.
		state = Killed
	}
	switch c := cont.(type) {
	case *syncReadCont:
		if state != OK {
			return c.cb(st, state, nil, 0, c.size)
		}
		return st.creadDone(0, c.size, c.cb)
	case *syncSeekCont:
		if state != OK {
			return c.cb(st, state, c.offset)
		}
		return st.seekDone(c.offset, c.cb)
	default:
		return false
	}
}

// Sync flushes the write cache to the back-end and the back-end's own
// transport-level buffering.
func (s *Stream) Sync(cb SyncFunc) bool {
	if !s.bopened.Load() || s.bstoped.Load() || s.wcacheAnd != nil {
		return false
	}
	return s.csyncDone(false, cb)
}

// Task schedules a deferred no-op callback, used by callers that want a
// timed wakeup without an I/O operation attached.
func (s *Stream) Task(delay time.Duration, cb TaskFunc) bool {
	if s.bstoped.Load() {
		return false
	}
	return s.backend.Task(s, delay, cb)
}

// Close flushes and tears down the back-end gracefully, reporting the
// flush's outcome through cb. It is a no-op, returning false, on a stream
// that was never opened.
func (s *Stream) Close(cb SyncFunc) bool {
	if !s.bopened.Load() {
		return false
	}
	return s.csyncDone(true, func(st *Stream, state State, closing bool) bool {
		st.backend.Clos(st, true)
		st.backend.Exit(st, true)
		st.bopened.Store(false)
		st.bstoped.Store(true)
		st.executor.Stop()
		if cb != nil {
			return cb(st, state, closing)
		}
		return false
	})
}

// Kill force-stops the stream immediately. Per spec.md §5, kill itself
// only flips the stopped flag; resolving whatever continuation was
// pending is proactor-context work like every other operator's, so it
// runs on the stream's own executor goroutine rather than racing
// openDoneFunc/syncDoneFunc/cwritFunc/csyncFunc — which read and clear
// the very same openAnd/syncAnd/wcacheAnd fields — from Kill's caller's
// goroutine. Kill is the only operator safe to call from outside the
// stream's own executor.
func (s *Stream) Kill() {
	s.bstoped.Store(true)
	s.bopened.Store(false)

	if !s.executor.Submit(s.killResolve) {
		// The executor has already stopped, so no job of ours will ever
		// run on it again — nothing else is touching these fields, so
		// it's safe to resolve them directly here instead.
		s.killResolve()
	}
}

// killResolve drains whatever continuation was pending and tears down
// the back-end. It must only ever run on the executor goroutine (or,
// per Kill above, after the executor has already stopped for good).
func (s *Stream) killResolve() {
	if oc := s.openAnd; oc != nil {
		s.openAnd = nil
		switch c := oc.(type) {
		case *openPlainCont:
			c.cb(s, Killed)
		case *openReadCont:
			c.cb(s, Killed, nil, 0, c.size)
		case *openWritCont:
			c.cb(s, Killed, c.data, 0, c.size)
		case *openSeekCont:
			c.cb(s, Killed, c.offset)
		}
	}
	if sc := s.syncAnd; sc != nil {
		s.syncAnd = nil
		switch c := sc.(type) {
		case *syncReadCont:
			c.cb(s, Killed, nil, 0, c.size)
		case *syncSeekCont:
			c.cb(s, Killed, c.offset)
		}
	}
	if wc := s.wcacheAnd; wc != nil {
		s.wcacheAnd = nil
		switch c := wc.(type) {
		case *wcacheWritCont:
			c.cb(s, Killed, c.data, 0, c.size)
		case *wcacheSyncCont:
			c.cb(s, Killed, c.closing)
		}
	}

	s.backend.Clos(s, false)
	s.executor.Stop()
}
