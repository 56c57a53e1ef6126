package fs

import (
	"defs"
	"ustr"
)

// FormatDisk lays out a brand-new volume directly on disk, bypassing
// the cache and log entirely — there is nothing to make crash-safe yet
// because nothing has been committed, exactly the bootstrap step the
// teacher kernel's own mkfs tool performs before ever calling BootFS.
// It writes the superblock to block 1 and zeroes the log, inode, and
// bitmap regions sb describes so StartFS's first read of any of them
// sees a clean volume.
func FormatDisk(disk Disk_i, sb *Superblock_t) {
	disk.WriteBlock(1, sb.Data[:])

	var zero [BSIZE]byte
	dataStart := sb.DataStart()
	for blk := sb.LogStart(); blk < dataStart; blk++ {
		disk.WriteBlock(blk, zero[:])
	}
}

// InitRoot formats inode 1 as an empty root directory, if it is not
// already one — idempotent so StartFS can call it unconditionally on
// every mount without clobbering an existing volume's root.
func (fs *Fs_t) InitRoot() defs.Err_t {
	fs.Ilock(fs.Root)
	alreadyFormatted := fs.Root.Type == defs.I_DIR
	fs.Iunlock(fs.Root)
	if alreadyFormatted {
		return 0
	}

	return fs.Log.WithOp(func() defs.Err_t {
		fs.Ilock(fs.Root)
		defer fs.Iunlock(fs.Root)

		fs.Root.Type = defs.I_DIR
		fs.Root.Nlink = 1
		fs.Iupdate(fs.Root)

		if err := fs.Dirlink(fs.Root, ustr.MkUstrDot(), fs.Root.Inum); err != 0 {
			return err
		}
		if err := fs.Dirlink(fs.Root, ustr.DotDot, fs.Root.Inum); err != 0 {
			return err
		}
		return 0
	})
}
