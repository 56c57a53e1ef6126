// Package diskdrv provides two concrete fs.Disk_i implementations: an
// in-memory disk for tests, and a file-backed disk using
// golang.org/x/sys/unix's positioned Pread/Pwrite, grounded on the
// teacher kernel's own ufs/driver.go ahci_disk_t (which does the same
// job with os.File.Seek+Read/Write since it never needed concurrent
// callers). Real hardware drivers (ahci, pci, msi, ixgbe, apic) are not
// carried forward: they talk to x86 buses and interrupt controllers
// that have no RISC-V teaching-kernel equivalent in this spec, and
// networking is an explicit Non-goal, so the two packages built only to
// feed it (bnet/unet/inet, ixgbe) have nothing left to serve.
package diskdrv

import (
	"sync"

	"fs"
)

/// MemDisk_t is an in-memory fs.Disk_i backed by a flat byte slice,
/// sized for nblocks blocks of fs.BSIZE bytes each.
type MemDisk_t struct {
	sync.Mutex
	data []byte
}

/// MkMemDisk allocates an nblocks-block in-memory disk, zeroed.
func MkMemDisk(nblocks int) *MemDisk_t {
	return &MemDisk_t{data: make([]byte, nblocks*fs.BSIZE)}
}

func (d *MemDisk_t) ReadBlock(blkno int, dst []byte) {
	d.Lock()
	defer d.Unlock()
	off := blkno * fs.BSIZE
	copy(dst, d.data[off:off+fs.BSIZE])
}

func (d *MemDisk_t) WriteBlock(blkno int, src []byte) {
	d.Lock()
	defer d.Unlock()
	off := blkno * fs.BSIZE
	copy(d.data[off:off+fs.BSIZE], src)
}

/// NBlocks reports the disk's capacity in blocks.
func (d *MemDisk_t) NBlocks() int {
	return len(d.data) / fs.BSIZE
}
