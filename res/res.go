// Package res wraps a limits.Sysatomic_t checkout in a single call so
// every resource-bounded allocation path (opening a file, caching an
// inode, pinning a block-cache page) takes the same shape: try to take
// one unit, do the allocation, and release the unit again if the
// allocation itself failed for an unrelated reason (ENOMEM from the
// page allocator, say). This is the same Taken/Given discipline the
// teacher's limits package already establishes; res just gives it a
// name at the call site instead of repeating the take/undo pairing by
// hand in fd and fs.
package res

import (
	"defs"
	"limits"
)

/// Checkout takes one unit from lim, returning ENFILE (the generic
/// "system limit exhausted" sentinel) if none remain.
func Checkout(lim *limits.Sysatomic_t) defs.Err_t {
	if !lim.Take() {
		return defs.ENFILE
	}
	return 0
}

/// Release gives one unit back to lim. Callers use this both on the
/// error path of a checkout that didn't ultimately succeed and when the
/// checked-out resource is freed later (inode evicted, descriptor
/// closed).
func Release(lim *limits.Sysatomic_t) {
	lim.Give()
}

/// WithCheckout takes one unit from lim, runs fn, and gives the unit
/// back automatically unless fn succeeded and asked to keep it by
/// returning keep=true — used when the resource outlives the call that
/// allocated it (e.g. Fs_open's descriptor outlives Fs_open itself).
func WithCheckout(lim *limits.Sysatomic_t, fn func() (keep bool, err defs.Err_t)) defs.Err_t {
	if err := Checkout(lim); err != 0 {
		return err
	}
	keep, err := fn()
	if !keep {
		Release(lim)
	}
	return err
}
