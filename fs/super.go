package fs

import "util"

// Superblock field word offsets within block 1 (§6: "Block 1 is the
// superblock"), kept as fixed 8-byte fields the way the teacher
// kernel's fieldr/fieldw helpers address its superblock.
const (
	sbMagic     = 0
	sbSize      = 1 // total blocks on the volume
	sbNData     = 2 // data block count
	sbNInode    = 3 // inode count
	sbLogSize   = 4
	sbLogStart  = 5
	sbInodeStart = 6
	sbBmapStart = 7
	sbNFields  = 8
)

// Magic identifies a formatted volume (§6). StartFS rejects any other
// value, zero included: an unformatted volume is not given a default
// layout and fails to mount with EINVAL.
const Magic = 0x10203040

/// Superblock_t is the in-memory view of block 1.
type Superblock_t struct {
	Data [BSIZE]byte
}

func (sb *Superblock_t) field(i int) int       { return util.Readn(sb.Data[:], 8, i*8) }
func (sb *Superblock_t) setField(i, v int)     { util.Writen(sb.Data[:], 8, i*8, v) }

func (sb *Superblock_t) Magic() int       { return sb.field(sbMagic) }
func (sb *Superblock_t) Size() int        { return sb.field(sbSize) }
func (sb *Superblock_t) NData() int       { return sb.field(sbNData) }
func (sb *Superblock_t) NInode() int      { return sb.field(sbNInode) }
func (sb *Superblock_t) LogSize() int     { return sb.field(sbLogSize) }
func (sb *Superblock_t) LogStart() int    { return sb.field(sbLogStart) }
func (sb *Superblock_t) InodeStart() int  { return sb.field(sbInodeStart) }
func (sb *Superblock_t) BmapStart() int   { return sb.field(sbBmapStart) }

func (sb *Superblock_t) SetMagic(v int)      { sb.setField(sbMagic, v) }
func (sb *Superblock_t) SetSize(v int)       { sb.setField(sbSize, v) }
func (sb *Superblock_t) SetNData(v int)      { sb.setField(sbNData, v) }
func (sb *Superblock_t) SetNInode(v int)     { sb.setField(sbNInode, v) }
func (sb *Superblock_t) SetLogSize(v int)    { sb.setField(sbLogSize, v) }
func (sb *Superblock_t) SetLogStart(v int)   { sb.setField(sbLogStart, v) }
func (sb *Superblock_t) SetInodeStart(v int) { sb.setField(sbInodeStart, v) }
func (sb *Superblock_t) SetBmapStart(v int)  { sb.setField(sbBmapStart, v) }

// IPB is the number of on-disk inodes packed into one block.
const IPB = BSIZE / dinodeSize

// DataStart is the first data block, derived from the superblock's own
// recorded layout rather than hardcoded, so mkfs is free to size the
// bitmap and inode regions however it likes.
func (sb *Superblock_t) DataStart() int {
	nbmapblks := (sb.NData() + BSIZE*8 - 1) / (BSIZE * 8)
	return sb.BmapStart() + nbmapblks
}

// Mkfs lays out a fresh superblock for a volume of the given shape.
// Block 0 is the unused boot block; block 1 is this superblock; the log,
// inode, and bitmap regions follow in order, per §6.
func Mkfs(totalBlocks, logBlocks, inodeBlocks, dataBlocks int) *Superblock_t {
	sb := &Superblock_t{}
	sb.SetMagic(Magic)
	sb.SetSize(totalBlocks)
	sb.SetNData(dataBlocks)
	sb.SetNInode(inodeBlocks * IPB)
	sb.SetLogSize(logBlocks)
	logStart := 2
	sb.SetLogStart(logStart)
	sb.SetInodeStart(logStart + logBlocks)
	bmapStart := logStart + logBlocks + inodeBlocks
	sb.SetBmapStart(bmapStart)
	return sb
}
