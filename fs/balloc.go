package fs

import "defs"

// Balloc implements the free-block bitmap allocator (part of C5, §4.5):
// one bit per data block, packed 8 to a byte, starting at the
// superblock's recorded bitmap region. Every mutation goes through the
// log, matching the rule that any write reachable from a crash point
// must be journaled.
func (fs *Fs_t) Balloc() (int, defs.Err_t) {
	nblk := fs.Sb.NData()
	bmapStart := fs.Sb.BmapStart()
	dataStart := fs.Sb.DataStart()

	for blk := 0; blk < nblk; blk++ {
		bbn := bmapStart + blk/(BSIZE*8)
		b := fs.Cache.Read(fs.Dev, bbn)
		byteoff := (blk % (BSIZE * 8)) / 8
		bit := uint(blk % 8)
		if b.Data[byteoff]&(1<<bit) == 0 {
			b.Data[byteoff] |= 1 << bit
			fs.Log.LogWrite(b)
			fs.Cache.Release(b)

			blkno := dataStart + blk
			zb := fs.Cache.Read(fs.Dev, blkno)
			zb.Data = [BSIZE]byte{}
			fs.Log.LogWrite(zb)
			fs.Cache.Release(zb)
			return blkno, 0
		}
		fs.Cache.Release(b)
	}
	return 0, defs.ENOMEM
}

/// Bfree clears blkno's bit, making it eligible for reuse.
func (fs *Fs_t) Bfree(blkno int) {
	dataStart := fs.Sb.DataStart()
	blk := blkno - dataStart
	bmapStart := fs.Sb.BmapStart()

	bbn := bmapStart + blk/(BSIZE*8)
	b := fs.Cache.Read(fs.Dev, bbn)
	byteoff := (blk % (BSIZE * 8)) / 8
	bit := uint(blk % 8)
	if b.Data[byteoff]&(1<<bit) == 0 {
		panic("fs: double free of data block")
	}
	b.Data[byteoff] &^= 1 << bit
	fs.Log.LogWrite(b)
	fs.Cache.Release(b)
}
