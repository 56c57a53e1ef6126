// Package accnt accumulates per-process CPU accounting, kept from the
// teacher kernel nearly verbatim — it is already domain-agnostic and
// exactly fits a PCB's "CPU-time ticks" field from §3.
package accnt

import (
	"sync"
	"sync/atomic"
	"time"
)

/// Accnt_t accumulates the user and system time consumed by one
/// process. The embedded mutex lets callers take a consistent snapshot
/// of both fields when reporting usage.
type Accnt_t struct {
	Userns int64 // nanoseconds of user time
	Sysns  int64 // nanoseconds of system time (trap handling)
	sync.Mutex
}

/// Utadd adds delta nanoseconds to the user-time counter.
func (a *Accnt_t) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

/// Systadd adds delta nanoseconds to the system-time counter.
func (a *Accnt_t) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

/// Now returns the current time in nanoseconds since an arbitrary
/// epoch, suitable only for computing deltas between two calls.
func Now() int64 {
	return time.Now().UnixNano()
}

/// Fetch returns a consistent snapshot of both counters.
func (a *Accnt_t) Fetch() (user int64, sys int64) {
	a.Lock()
	defer a.Unlock()
	return atomic.LoadInt64(&a.Userns), atomic.LoadInt64(&a.Sysns)
}
