// Package fdops defines the interfaces an open-file implementation
// (a regular inode-backed file, a directory, or a device) must satisfy
// to sit behind a file descriptor, and the interface user-buffer
// copies go through. It is intentionally tiny and interface-only so
// fd, fs, and console can all depend on it without depending on each
// other — exactly the role it plays in the teacher kernel, where the
// same package breaks the fd/fs/console import cycle.
package fdops

import (
	"defs"
	"stat"
)

/// Userio_i abstracts a copy into or out of a caller-supplied buffer.
/// Because this kernel runs every process in supervisor mode sharing
/// the kernel's page table (§9, Non-goals), there is no separate user
/// address space to cross — Userio_i's job in a production port (bounds
/// checking against a process's page table) is reduced here to a plain
/// byte-slice view, but the interface boundary is kept so a future
/// migration to real user/supervisor separation only has to change the
/// implementation, never the callers.
type Userio_i interface {
	// Uiowrite copies from src into the destination the Userio_i
	// wraps, returning the number of bytes copied.
	Uiowrite(src []uint8) (int, defs.Err_t)
	// Uioread copies from the source the Userio_i wraps into dst,
	// returning the number of bytes copied.
	Uioread(dst []uint8) (int, defs.Err_t)
	// Remain reports how many bytes are left uncopied.
	Remain() int
	// Totalsz reports the buffer's original size.
	Totalsz() int
}

/// Ready_t is a bitmask of poll readiness conditions.
type Ready_t int

const (
	R_READ  Ready_t = 1 << 0
	R_WRITE Ready_t = 1 << 1
	R_ERROR Ready_t = 1 << 2
)

/// Pollmsg_t describes one poll request against a descriptor.
type Pollmsg_t struct {
	Events Ready_t
}

/// Fdops_i is implemented by every kind of open file: a regular
/// inode-backed file, a directory, or a device such as the console.
type Fdops_i interface {
	Read(dst Userio_i) (int, defs.Err_t)
	Write(src Userio_i) (int, defs.Err_t)
	Fstat(st *stat.Stat_t) defs.Err_t
	Lseek(off int, whence int) (int, defs.Err_t)
	Close() defs.Err_t
	// Reopen is called when a descriptor is duplicated; it bumps
	// whatever reference count backs the descriptor.
	Reopen() defs.Err_t
	Poll(pm Pollmsg_t) (Ready_t, defs.Err_t)
}
