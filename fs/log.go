package fs

import (
	"sync"

	"bounds"
	"defs"
	"kstat"
	"proc"
	"util"
)

// logheader is the on-disk journal header: n, the count of logged
// blocks in this transaction, followed by the home block number each
// logged slot belongs to. n == 0 means "no transaction pending" — the
// state recovery and a fresh boot both start from.
type logheader struct {
	n     int
	block [bounds.LOGSIZE - 1]int
}

func (lh *logheader) read(data []byte) {
	lh.n = util.Readn(data, 8, 0)
	for i := range lh.block {
		lh.block[i] = util.Readn(data, 8, 8+i*8)
	}
}

func (lh *logheader) write(data []byte) {
	util.Writen(data, 8, 0, lh.n)
	for i, v := range lh.block {
		util.Writen(data, 8, 8+i*8, v)
	}
}

/// Log_t is the crash-safe journal (C4, §4.4): every filesystem-visible
/// modification is first copied into this fixed region of the disk
/// before being installed at its home location, so a crash between the
/// two leaves either the old or the new state, never a torn mix.
type Log_t struct {
	mu sync.Mutex

	cache *Cache_t
	dev   int
	start int // block number of the header (first log block)
	size  int // total blocks in the log region, header included

	outstanding int  // number of begin_op/end_op pairs currently open
	committing  bool // a commit is in flight; new ops must wait

	lh logheader

	absorbed []*Buf // buffers LogWrite has pinned for this transaction
}

/// MkLog attaches to the log region [start, start+size) on cache, and
/// replays any committed-but-not-installed transaction left over from
/// an unclean shutdown before returning — recovery is unconditional and
/// idempotent, matching §4.4.
func MkLog(cache *Cache_t, dev, start, size int) *Log_t {
	l := &Log_t{cache: cache, dev: dev, start: start, size: size}

	hdr := cache.Read(dev, start)
	l.lh.read(hdr.Data[:])
	cache.Release(hdr)

	l.recoverLocked()
	return l
}

// recoverLocked installs any transaction a prior commit() wrote the
// header for but never finished installing, then clears the header.
// Because install is idempotent (it just overwrites home blocks with
// the logged copy) replaying it after a crash mid-install is always
// safe, even if some home blocks were already updated.
func (l *Log_t) recoverLocked() {
	if l.lh.n == 0 {
		return
	}
	for i := 0; i < l.lh.n; i++ {
		logblk := l.cache.Read(l.dev, l.start+1+i)
		homeblk := l.cache.Read(l.dev, l.lh.block[i])
		homeblk.Data = logblk.Data
		l.cache.Write(homeblk)
		l.cache.Release(homeblk)
		l.cache.Release(logblk)
	}
	l.lh.n = 0
	l.writeHeadLocked()
}

func (l *Log_t) writeHeadLocked() {
	hdr := l.cache.Read(l.dev, l.start)
	l.lh.write(hdr.Data[:])
	l.cache.Write(hdr)
	l.cache.Release(hdr)
}

// admissible reports whether one more operation of at most
// bounds.MAXOPBLOCKS blocks could still fit in the log alongside the
// worst case of every outstanding operation and the blocks already
// logged in this transaction, per §4.4's sizing rule
// MAXOPBLOCKS*MAXCONCURRENTOPS <= LOGSIZE-1.
func (l *Log_t) admissible() bool {
	if l.committing {
		return false
	}
	projected := len(l.absorbed) + (l.outstanding+1)*bounds.MAXOPBLOCKS
	return projected <= l.size-1
}

/// BeginOp admits one filesystem operation into the current
/// transaction, blocking via proc.Sleep/Wakeup (C9) while a commit is in
/// flight or the log has no room left for another operation's worst
/// case, exactly as §4.4 and §5 specify — never a semaphore, since the
/// condition depends on this log's own outstanding/committing state.
func (l *Log_t) BeginOp() {
	l.mu.Lock()
	for !l.admissible() {
		proc.Sleep(l, &l.mu)
	}
	l.outstanding++
	l.mu.Unlock()
}

/// LogWrite records b as dirty within the current transaction. Per
/// §4.4's absorption rule, writing the same block twice before the next
/// commit only occupies one log slot — the log always ships the latest
/// content for each home block.
func (l *Log_t) LogWrite(b *Buf) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b.Dirty = true
	for _, e := range l.absorbed {
		if e.Dev == b.Dev && e.Blkno == b.Blkno {
			return
		}
	}
	if len(l.absorbed) >= l.size-1 {
		panic("fs: transaction exceeds log capacity")
	}
	l.cache.Pin(b)
	l.absorbed = append(l.absorbed, b)
}

/// EndOp closes out one begin_op/end_op bracket. The last to close
/// commits the transaction to disk; an earlier close just frees up
/// room for whoever is waiting in BeginOp's admission loop.
func (l *Log_t) EndOp() {
	l.mu.Lock()
	l.outstanding--
	doCommit := l.outstanding == 0
	if doCommit {
		l.committing = true
	}
	l.mu.Unlock()

	if doCommit {
		l.commit()
		l.mu.Lock()
		l.committing = false
		l.mu.Unlock()
	}

	proc.Wakeup(l)
}

// commit implements the four-step sequence §4.4 names exactly: copy
// every absorbed buffer into a log data slot, write the header with
// n > 0 (the atomic commit point — a crash before this leaves the log
// empty and the transaction never happened), install each block at its
// home location, then write an empty header to retire the transaction.
func (l *Log_t) commit() {
	l.mu.Lock()
	n := len(l.absorbed)
	if n == 0 {
		l.mu.Unlock()
		return
	}
	bufs := l.absorbed
	l.absorbed = nil
	l.mu.Unlock()

	for i, b := range bufs {
		logblk := l.cache.Read(l.dev, l.start+1+i)
		logblk.Data = b.Data
		l.cache.Write(logblk)
		l.cache.Release(logblk)
		l.lh.block[i] = b.Blkno
	}
	l.lh.n = n
	l.writeHeadLocked() // commit point

	for i, b := range bufs {
		homeblk := l.cache.Read(l.dev, b.Blkno)
		homeblk.Data = b.Data
		l.cache.Write(homeblk)
		l.cache.Release(homeblk)
		_ = i
		l.cache.Unpin(b)
	}

	l.lh.n = 0
	l.writeHeadLocked()
	kstat.Kernel.LogCommits.Inc()
}

/// WithOp brackets fn with BeginOp/EndOp, the pattern every fs.Fs_t
/// mutating operation uses (§4.4).
func (l *Log_t) WithOp(fn func() defs.Err_t) defs.Err_t {
	l.BeginOp()
	defer l.EndOp()
	return fn()
}
