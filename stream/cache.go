package stream

import "time"

// cwritDone is the write-cache entry point. A write that fits under
// wcacheMaxN is absorbed into wcacheData and completed synchronously
// without touching the back-end; once the cache would overflow, the whole
// cache is handed to the back-end as one write and the caller's
// completion is deferred until that drains.
func (s *Stream) cwritDone(delay time.Duration, data []byte, size int, cb WritFunc) bool {
	if s.wcacheMaxN <= 0 {
		return s.backend.Writ(s, delay, data, size, cb)
	}

	if size > 0 {
		s.wcacheData.Append(data[:size])
	}
	pending := s.wcacheData.Len()
	if pending < s.wcacheMaxN {
		s.engine.Metrics().CacheHit()
		cb(s, OK, data, size, size)
		return true
	}

	s.wcacheAnd = &wcacheWritCont{cb: cb, data: data, size: size}
	s.engine.Metrics().CacheFlush()
	return s.backend.Writ(s, delay, s.wcacheData.Bytes(), pending, s.cwritFunc)
}

// cwritFunc drains the write cache against the back-end on behalf of
// cwritDone. A single switch on state replaces what would otherwise be two
// separate checks: real==size on OK finishes the drain and fires the
// caller's completion; any other OK asks the back-end to keep going with
// the same buffer; anything else fails the caller's completion with that
// state.
func (s *Stream) cwritFunc(st *Stream, state State, data []byte, real, size int) bool {
	cont, ok := st.wcacheAnd.(*wcacheWritCont)
	if !ok {
		// Kill already resolved (and cleared) this slot with Killed from
		// the executor goroutine before this completion reached it; the
		// user callback already fired once, so this late arrival is
		// dropped rather than fired a second time.
		return false
	}
	switch {
	case state == OK && real == size:
		st.wcacheData.Clear()
		st.wcacheAnd = nil
		st.engine.Metrics().BytesWritten(cont.size)
		cont.cb(st, OK, cont.data, cont.size, cont.size)
		return false
	case state == OK:
		return true
	default:
		st.wcacheAnd = nil
		cont.cb(st, state, cont.data, 0, cont.size)
		return false
	}
}

// csyncDone flushes a dirty write cache ahead of an explicit Sync. If the
// cache is empty it calls straight through to the back-end's Sync.
func (s *Stream) csyncDone(closing bool, cb SyncFunc) bool {
	pending := s.wcacheData.Len()
	if pending == 0 {
		return s.backend.Sync(s, closing, cb)
	}
	s.wcacheAnd = &wcacheSyncCont{closing: closing, cb: cb}
	return s.backend.Writ(s, 0, s.wcacheData.Bytes(), pending, s.csyncFunc)
}

func (s *Stream) csyncFunc(st *Stream, state State, data []byte, real, size int) bool {
	cont, ok := st.wcacheAnd.(*wcacheSyncCont)
	if !ok {
		// Same race as cwritFunc above: Kill already resolved this slot.
		return false
	}
	if real > 0 {
		st.wcacheData.Memmove(real)
		st.engine.Metrics().BytesWritten(real)
	}
	switch {
	case state == OK && real < size:
		return true
	case state == OK:
		st.wcacheAnd = nil
		if !st.backend.Sync(st, cont.closing, cont.cb) {
			cont.cb(st, UnknownError, cont.closing)
		}
		return false
	default:
		st.wcacheAnd = nil
		cont.cb(st, state, cont.closing)
		return false
	}
}

// creadDone is the read-cache entry point. It is only ever called with an
// empty write cache — callers route a read behind a dirty write cache
// through Sync first (ops.go's ReadAfter). A read cache lends its backing
// buffer to the back-end as the destination slice; with no read cache the
// back-end is given a nil destination and surfaces its own buffer in the
// completion.
func (s *Stream) creadDone(delay time.Duration, size int, cb ReadFunc) bool {
	if s.rcacheMaxN <= 0 {
		return s.backend.Read(s, delay, nil, size, cb)
	}
	if size <= 0 || size > s.rcacheMaxN {
		size = s.rcacheMaxN
	}
	dst := s.rcacheData.Lend(size)
	return s.backend.Read(s, delay, dst, size, cb)
}
