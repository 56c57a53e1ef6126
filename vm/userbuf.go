package vm

import (
	"defs"
	"fdops"
)

/// Fakeubuf_t is the hosted stand-in for a real user-buffer that would
/// cross a user/kernel address space boundary: since every process here
/// runs in supervisor mode sharing the kernel's map (§9, Non-goals),
/// "copying to/from user memory" is just copying to/from a plain byte
/// slice. It is named after and plays the exact role of the teacher
/// kernel's own Fakeubuf_t, used pervasively by its hosted ufs/mkfs
/// tooling for the same reason.
type Fakeubuf_t struct {
	data []uint8
	off  int
}

var _ fdops.Userio_i = (*Fakeubuf_t)(nil)

/// Fake_init points the buffer at backing data, resetting its cursor.
func (fb *Fakeubuf_t) Fake_init(data []uint8) {
	fb.data = data
	fb.off = 0
}

/// Uiowrite copies src into the buffer's backing slice starting at the
/// current cursor (used when the kernel is writing data *to* the
/// caller, e.g. servicing a read syscall).
func (fb *Fakeubuf_t) Uiowrite(src []uint8) (int, defs.Err_t) {
	n := copy(fb.data[fb.off:], src)
	fb.off += n
	return n, 0
}

/// Uioread copies from the buffer's backing slice into dst (used when
/// the kernel is reading data the caller supplied, e.g. servicing a
/// write syscall).
func (fb *Fakeubuf_t) Uioread(dst []uint8) (int, defs.Err_t) {
	n := copy(dst, fb.data[fb.off:])
	fb.off += n
	return n, 0
}

/// Remain reports how many bytes are left uncopied.
func (fb *Fakeubuf_t) Remain() int {
	return len(fb.data) - fb.off
}

/// Totalsz reports the buffer's original size.
func (fb *Fakeubuf_t) Totalsz() int {
	return len(fb.data)
}

/// MkUbuf wraps an existing slice as a Fakeubuf_t.
func MkUbuf(b []uint8) *Fakeubuf_t {
	fb := &Fakeubuf_t{}
	fb.Fake_init(b)
	return fb
}
