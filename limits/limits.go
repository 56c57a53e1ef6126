// Package limits tracks system-wide resource ceilings shared across
// every process, the way the teacher kernel's limits package does —
// trimmed to the resources this core actually manages (networking's
// socket/ARP/route limits are gone, since networking is a Non-goal).
package limits

import "sync/atomic"

/// Sysatomic_t is a numeric limit that can be atomically taken from and
/// given back to, so many goroutines can check out a shared resource
/// without a mutex.
type Sysatomic_t int64

func (s *Sysatomic_t) ptr() *int64 { return (*int64)(s) }

/// Given increases the limit by n (a resource was freed).
func (s *Sysatomic_t) Given(n uint) {
	atomic.AddInt64(s.ptr(), int64(n))
}

/// Taken tries to decrement the limit by n; it returns false and makes
/// no change if that would drive the limit negative.
func (s *Sysatomic_t) Taken(n uint) bool {
	if atomic.AddInt64(s.ptr(), -int64(n)) >= 0 {
		return true
	}
	atomic.AddInt64(s.ptr(), int64(n))
	return false
}

/// Take is Taken(1).
func (s *Sysatomic_t) Take() bool { return s.Taken(1) }

/// Give is Given(1).
func (s *Sysatomic_t) Give() { s.Given(1) }

/// Syslimit_t holds the system-wide ceilings this kernel enforces.
type Syslimit_t struct {
	Procs     Sysatomic_t // process table slots
	OpenFiles Sysatomic_t // system-wide open-file-object slots
	Inodes    Sysatomic_t // cached in-memory inodes
	Blocks    Sysatomic_t // block-cache-backed pages outstanding
}

/// Syslimit is the kernel's single set of configured limits.
var Syslimit = MkSysLimit()

/// MkSysLimit returns a freshly initialized set of default limits.
func MkSysLimit() *Syslimit_t {
	return &Syslimit_t{
		Procs:     1024,
		OpenFiles: 4096,
		Inodes:    4096,
		Blocks:    100000,
	}
}
