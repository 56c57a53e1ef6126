package fs

import (
	"sync"

	"defs"
	"fdops"
	"stat"
)

/// File_t is the Fdops_i a regular file or directory descriptor is
/// backed by: a reference-counted inode plus the descriptor's own
/// cursor, matching how the teacher kernel's ufs hosted tooling wraps
/// an inode for read/write without a real page cache in the path.
type File_t struct {
	mu     sync.Mutex
	fs     *Fs_t
	ip     *Inode_t
	off    int
	append bool
}

var _ fdops.Fdops_i = (*File_t)(nil)

/// MkFile wraps ip (already Idup'd for this descriptor) as an Fdops_i.
func MkFile(fs *Fs_t, ip *Inode_t, appendMode bool) *File_t {
	return &File_t{fs: fs, ip: ip, append: appendMode}
}

func (f *File_t) Read(dst fdops.Userio_i) (int, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fs.Ilock(f.ip)
	defer f.fs.Iunlock(f.ip)

	buf := make([]uint8, dst.Remain())
	n, err := f.fs.Readi(f.ip, buf, f.off)
	if err != 0 {
		return 0, err
	}
	wrote, err := dst.Uiowrite(buf[:n])
	if err != 0 {
		return 0, err
	}
	f.off += wrote
	return wrote, 0
}

func (f *File_t) Write(src fdops.Userio_i) (int, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fs.Ilock(f.ip)
	defer f.fs.Iunlock(f.ip)

	if f.append {
		f.off = f.ip.Size
	}

	buf := make([]uint8, src.Remain())
	got, err := src.Uioread(buf)
	if err != 0 {
		return 0, err
	}

	var wrote int
	lerr := f.fs.Log.WithOp(func() defs.Err_t {
		var e defs.Err_t
		wrote, e = f.fs.Writei(f.ip, buf[:got], f.off)
		return e
	})
	if lerr != 0 {
		return 0, lerr
	}
	f.off += wrote
	return wrote, 0
}

func (f *File_t) Fstat(st *stat.Stat_t) defs.Err_t {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fs.Ilock(f.ip)
	defer f.fs.Iunlock(f.ip)

	st.Wdev(uint(f.fs.Dev))
	st.Wino(uint(f.ip.Inum))
	st.Wmode(uint(f.ip.Type))
	st.Wsize(uint(f.ip.Size))
	st.Wrdev(uint(defs.Mkdev(f.ip.Major, f.ip.Minor)))
	st.Wnlink(uint(f.ip.Nlink))
	return 0
}

func (f *File_t) Lseek(off int, whence int) (int, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch whence {
	case defs.SEEK_SET:
		f.off = off
	case defs.SEEK_CUR:
		f.off += off
	case defs.SEEK_END:
		f.fs.Ilock(f.ip)
		f.off = f.ip.Size + off
		f.fs.Iunlock(f.ip)
	default:
		return 0, defs.EINVAL
	}
	if f.off < 0 {
		f.off = 0
		return 0, defs.EINVAL
	}
	return f.off, 0
}

func (f *File_t) Close() defs.Err_t {
	f.fs.Iput(f.ip)
	return 0
}

func (f *File_t) Reopen() defs.Err_t {
	f.fs.Idup(f.ip)
	return 0
}

func (f *File_t) Poll(pm fdops.Pollmsg_t) (fdops.Ready_t, defs.Err_t) {
	// Regular files and directories are always ready: there is no
	// blocking I/O path once a buffer is in the cache.
	return pm.Events & (fdops.R_READ | fdops.R_WRITE), 0
}
