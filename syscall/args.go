// Package syscall is the numbered syscall dispatcher (C10, §4.10):
// decode a trapframe's a7 syscall number and a0..a6 arguments, run the
// matching handler against the calling process's own state (open files,
// cwd, filesystem), and leave the result in a0. Kept in its own package
// the way the teacher kernel separates syscall dispatch from trap
// entry, so trap only ever calls into one function here.
package syscall

import (
	"defs"
	"proc"
	"ustr"
)

// ArgInt reads the n'th integer syscall argument from tf's register
// file (a0..a6; a7 is the syscall number itself).
func ArgInt(tf *proc.Trapframe_t, n int) int64 {
	return int64(tf.A[n])
}

// ArgAddr is ArgInt under another name, kept distinct so call sites
// document intent (an address vs. a plain integer) even though this
// hosted kernel never distinguishes the two representations.
func ArgAddr(tf *proc.Trapframe_t, n int) uint64 {
	return tf.A[n]
}

// ArgStr returns the trapframe's string argument. See Trapframe_t's
// doc comment for why there is no user-memory copy to perform.
func ArgStr(tf *proc.Trapframe_t) (ustr.Ustr, defs.Err_t) {
	if len(tf.Sarg) == 0 {
		return nil, defs.EFAULT
	}
	return ustr.Ustr(tf.Sarg), 0
}

// ArgBuf returns the trapframe's byte-buffer argument.
func ArgBuf(tf *proc.Trapframe_t) []byte {
	return tf.Barg
}

// ArgFd resolves the n'th integer argument as a descriptor number
// against p's open-file table, returning EBADF if it is out of range or
// unused.
func ArgFd(p *proc.Proc_t, tf *proc.Trapframe_t, n int) (int, defs.Err_t) {
	fdn := int(ArgInt(tf, n))
	if fdn < 0 || fdn >= len(p.Files) || p.Files[fdn] == nil {
		return 0, defs.EBADF
	}
	return fdn, 0
}
