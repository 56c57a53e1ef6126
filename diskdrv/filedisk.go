package diskdrv

import (
	"os"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"

	"fs"
)

/// FileDisk_t is a file-backed fs.Disk_i: block reads and writes become
/// positioned pread/pwrite calls against an open file descriptor,
/// exactly like the teacher kernel's hosted ahci_disk_t but using
/// golang.org/x/sys/unix's Pread/Pwrite instead of Seek+Read/Write so
/// concurrent callers never race on the file's cursor.
type FileDisk_t struct {
	mu sync.Mutex
	f  *os.File
}

/// OpenFileDisk opens (or creates) path as a file-backed disk image.
func OpenFileDisk(path string) (*FileDisk_t, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &FileDisk_t{f: f}, nil
}

func (d *FileDisk_t) ReadBlock(blkno int, dst []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	off := int64(blkno) * int64(fs.BSIZE)
	n, err := unix.Pread(int(d.f.Fd()), dst, off)
	if err != nil || n != len(dst) {
		panic("diskdrv: short read on block " + strconv.Itoa(blkno))
	}
}

func (d *FileDisk_t) WriteBlock(blkno int, src []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	off := int64(blkno) * int64(fs.BSIZE)
	n, err := unix.Pwrite(int(d.f.Fd()), src, off)
	if err != nil || n != len(src) {
		panic("diskdrv: short write on block " + strconv.Itoa(blkno))
	}
	if err := unix.Fdatasync(int(d.f.Fd())); err != nil {
		panic("diskdrv: fdatasync: " + err.Error())
	}
}

/// Close releases the underlying file.
func (d *FileDisk_t) Close() error {
	return d.f.Close()
}
