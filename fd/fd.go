// Package fd is the per-process file descriptor layer (C6, §4.6): a
// thin handle pairing an Fdops_i implementation with permission bits,
// plus the cwd tracker every process carries. Kept directly from the
// teacher kernel's own fd package, which already generalizes across
// exactly the open-file kinds this spec needs (regular files,
// directories, the console device).
package fd

import (
	"sync"

	"bpath"
	"defs"
	"fdops"
	"ustr"
)

// File descriptor permission bits.
const (
	FD_READ    = 0x1 // read permission
	FD_WRITE   = 0x2 // write permission
	FD_CLOEXEC = 0x4 // close-on-exec flag
)

/// Fd_t is one process's handle onto an open file: an Fdops_i
/// implementation (a reference, since it is always a pointer receiver)
/// plus the permission bits fork/exec need to decide what survives.
type Fd_t struct {
	Fops  fdops.Fdops_i
	Perms int
}

/// Copyfd returns a new Fd_t that shares fd's Fdops_i, and with it the
/// file's cursor state, after calling Reopen on it to bump whatever
/// refcount backs it.
func Copyfd(fdt *Fd_t) (*Fd_t, defs.Err_t) {
	nfd := &Fd_t{}
	*nfd = *fdt
	if err := nfd.Fops.Reopen(); err != 0 {
		return nil, err
	}
	return nfd, 0
}

/// Close_panic closes fd and panics if the underlying Fdops_i refuses —
/// used at points (process exit) where a close failure would indicate
/// kernel-internal corruption, not a user error to report.
func Close_panic(fdt *Fd_t) {
	if fdt.Fops.Close() != 0 {
		panic("fd: Close_panic: must succeed")
	}
}

/// Cwd_t tracks a process's current working directory: the open
/// directory fd backing it, and the canonical path string syscalls like
/// getcwd report.
type Cwd_t struct {
	sync.Mutex // serializes concurrent chdir calls
	Fd         *Fd_t
	Path       ustr.Ustr
}

/// Fullpath joins cwd with p, unless p is already absolute.
func (cwd *Cwd_t) Fullpath(p ustr.Ustr) ustr.Ustr {
	if p.IsAbsolute() {
		return p
	}
	full := append(ustr.Ustr{}, cwd.Path...)
	full = append(full, '/')
	return append(full, p...)
}

/// Canonicalpath resolves p relative to cwd and normalizes the result,
/// collapsing "." / ".." / repeated slashes before namei ever sees it.
func (cwd *Cwd_t) Canonicalpath(p ustr.Ustr) ustr.Ustr {
	return bpath.Canonicalize(cwd.Fullpath(p))
}

/// MkRootCwd builds a Cwd_t rooted at "/", backed by fdt (normally an
/// open descriptor on the root inode).
func MkRootCwd(fdt *Fd_t) *Cwd_t {
	c := &Cwd_t{}
	c.Fd = fdt
	c.Path = ustr.MkUstrRoot()
	return c
}
