package stream

// A Stream has at most three pending continuations at any time, one per
// slot, each representing a composed operator rewriting itself into a
// prerequisite operation plus what to do afterward. Go has no union type,
// so each slot is a small marker interface with one concrete type per
// variant, in place of a tagged C union.

// openCont is stream.openAnd: what to do once a prerequisite Open
// completes.
type openCont interface{ isOpenCont() }

type openReadCont struct {
	size int
	cb   ReadFunc
}

func (*openReadCont) isOpenCont() {}

type openWritCont struct {
	data []byte
	size int
	cb   WritFunc
}

func (*openWritCont) isOpenCont() {}

type openSeekCont struct {
	offset int64
	cb     SeekFunc
}

func (*openSeekCont) isOpenCont() {}

// openPlainCont is a plain Open with no follow-on operation, folded into
// the same slot so a single dispatch function resolves every Open.
type openPlainCont struct {
	cb OpenFunc
}

func (*openPlainCont) isOpenCont() {}

// syncCont is stream.syncAnd: what to do once a prerequisite cache-drain
// Sync completes.
type syncCont interface{ isSyncCont() }

type syncReadCont struct {
	size int
	cb   ReadFunc
}

func (*syncReadCont) isSyncCont() {}

type syncSeekCont struct {
	offset int64
	cb     SeekFunc
}

func (*syncSeekCont) isSyncCont() {}

// wcacheCont is stream.wcacheAnd: the user-facing completion waiting on a
// write-cache drain in progress against the back-end.
type wcacheCont interface{ isWcacheCont() }

type wcacheWritCont struct {
	data []byte
	size int
	cb   WritFunc
}

func (*wcacheWritCont) isWcacheCont() {}

type wcacheSyncCont struct {
	closing bool
	cb      SyncFunc
}

func (*wcacheSyncCont) isWcacheCont() {}
