package fs

import (
	"sync"

	"bounds"
	"defs"
	"util"
)

// dinode is the on-disk inode layout (part of C5, §4.5): a type tag,
// a device major/minor pair (meaningful only when type is I_DEV), a
// link count, a byte size, and NDIRECT direct block numbers plus one
// indirect block number. dinodeSize must divide evenly enough into
// BSIZE that IPB (super.go) packs a whole number of inodes per block;
// it does not need to divide it exactly.
const dinodeSize = 12 + 4*(bounds.NDIRECT+1)

const (
	diType  = 0
	diMajor = 2
	diMinor = 4
	diNlink = 6
	diSize  = 8
	diAddrs = 12
)

func dinodeSlot(sb *Superblock_t, inum int) (blkno int, off int) {
	blkno = sb.InodeStart() + inum/IPB
	off = (inum % IPB) * dinodeSize
	return
}

type dinodeView struct {
	data []byte
}

func (d dinodeView) Type() int  { return util.Readn(d.data, 2, diType) }
func (d dinodeView) Major() int { return util.Readn(d.data, 2, diMajor) }
func (d dinodeView) Minor() int { return util.Readn(d.data, 2, diMinor) }
func (d dinodeView) Nlink() int { return util.Readn(d.data, 2, diNlink) }
func (d dinodeView) Size() int  { return util.Readn(d.data, 4, diSize) }
func (d dinodeView) Addr(i int) int {
	return util.Readn(d.data, 4, diAddrs+i*4)
}

func (d dinodeView) SetType(v int)  { util.Writen(d.data, 2, diType, v) }
func (d dinodeView) SetMajor(v int) { util.Writen(d.data, 2, diMajor, v) }
func (d dinodeView) SetMinor(v int) { util.Writen(d.data, 2, diMinor, v) }
func (d dinodeView) SetNlink(v int) { util.Writen(d.data, 2, diNlink, v) }
func (d dinodeView) SetSize(v int)  { util.Writen(d.data, 4, diSize, v) }
func (d dinodeView) SetAddr(i, v int) {
	util.Writen(d.data, 4, diAddrs+i*4, v)
}

/// Inode_t is the in-memory inode cache entry (C5, §4.5): a cached,
/// reference-counted copy of one on-disk inode, locked independently of
/// the icache map lock so two processes can hold different inodes
/// locked at once without serializing on the whole filesystem.
type Inode_t struct {
	sync.Mutex // guards Type/Major/Minor/Nlink/Size/Addrs below, once Valid

	Inum int

	refcnt int  // icache reference count (Iget/Iput)
	Valid  bool // on-disk fields have been read into this struct

	Type  int
	Major int
	Minor int
	Nlink int
	Size  int
	Addrs [bounds.NDIRECT + 1]int
}

func (ip *Inode_t) loadFrom(d dinodeView) {
	ip.Type = d.Type()
	ip.Major = d.Major()
	ip.Minor = d.Minor()
	ip.Nlink = d.Nlink()
	ip.Size = d.Size()
	for i := range ip.Addrs {
		ip.Addrs[i] = d.Addr(i)
	}
}

func (ip *Inode_t) storeTo(d dinodeView) {
	d.SetType(ip.Type)
	d.SetMajor(ip.Major)
	d.SetMinor(ip.Minor)
	d.SetNlink(ip.Nlink)
	d.SetSize(ip.Size)
	for i, a := range ip.Addrs {
		d.SetAddr(i, a)
	}
}

/// Ialloc finds a free on-disk inode (type I_FREE), marks it with typ,
/// and returns an icache handle on it — logged, like every mutation
/// reachable from a crash point.
func (fs *Fs_t) Ialloc(typ int) (*Inode_t, defs.Err_t) {
	ninode := fs.Sb.NInode()
	for inum := 1; inum < ninode; inum++ {
		blkno, off := dinodeSlot(fs.Sb, inum)
		b := fs.Cache.Read(fs.Dev, blkno)
		d := dinodeView{b.Data[off : off+dinodeSize]}
		if d.Type() == defs.I_FREE {
			d.SetType(typ)
			d.SetNlink(0)
			d.SetSize(0)
			fs.Log.LogWrite(b)
			fs.Cache.Release(b)
			return fs.Iget(inum)
		}
		fs.Cache.Release(b)
	}
	return nil, defs.ENOMEM
}

/// Iget returns a reference to the icache entry for inum, reading it
/// from disk on first reference. Multiple Igets of the same inum share
/// one Inode_t and one refcount; the caller must Ilock before touching
/// its fields.
func (fs *Fs_t) Iget(inum int) (*Inode_t, defs.Err_t) {
	fs.icacheMu.Lock()
	if ip, ok := fs.icache[inum]; ok {
		ip.refcnt++
		fs.icacheMu.Unlock()
		return ip, 0
	}
	ip := &Inode_t{Inum: inum}
	fs.icache[inum] = ip
	ip.refcnt = 1
	fs.icacheMu.Unlock()
	return ip, 0
}

/// Idup bumps ip's reference count without touching the icache map —
/// used when a second descriptor is opened on an already-cached inode.
func (fs *Fs_t) Idup(ip *Inode_t) *Inode_t {
	fs.icacheMu.Lock()
	ip.refcnt++
	fs.icacheMu.Unlock()
	return ip
}

/// Ilock locks ip and, if this is the first reference to see it,
/// populates it from disk.
func (fs *Fs_t) Ilock(ip *Inode_t) {
	ip.Lock()
	if ip.Valid {
		return
	}
	blkno, off := dinodeSlot(fs.Sb, ip.Inum)
	b := fs.Cache.Read(fs.Dev, blkno)
	d := dinodeView{b.Data[off : off+dinodeSize]}
	ip.loadFrom(d)
	fs.Cache.Release(b)
	ip.Valid = true
}

/// Iunlock releases ip's per-inode lock without affecting its refcount.
func (fs *Fs_t) Iunlock(ip *Inode_t) {
	ip.Unlock()
}

/// Iupdate writes ip's in-memory fields back to its on-disk slot,
/// logged like any other mutation. Callers hold ip locked.
func (fs *Fs_t) Iupdate(ip *Inode_t) {
	blkno, off := dinodeSlot(fs.Sb, ip.Inum)
	b := fs.Cache.Read(fs.Dev, blkno)
	d := dinodeView{b.Data[off : off+dinodeSize]}
	ip.storeTo(d)
	fs.Log.LogWrite(b)
	fs.Cache.Release(b)
}

/// Iput drops one reference to ip. If the refcount reaches zero and
/// ip's link count is also zero, the inode and every block it owns are
/// freed — deletion happens here, on last close, not at unlink time
/// (§4.5: unlink only decrements Nlink).
//
// The free path brackets itself in its own BeginOp/EndOp pair instead
// of relying on a caller's transaction: Iput runs from places with no
// transaction open at all (file.go's Close, StopFS's release of the
// root inode), and LogWrite only ever reaches disk when the bracket
// that absorbed it also closes. Nesting inside a caller that already
// holds one open is fine — BeginOp only counts outstanding brackets,
// it doesn't know or care which goroutine opened them — and
// bounds.MAXCONCURRENTOPS leaves room for exactly this kind of
// one-level nesting.
func (fs *Fs_t) Iput(ip *Inode_t) {
	fs.icacheMu.Lock()
	ip.Lock()
	if ip.refcnt == 1 && ip.Valid && ip.Nlink == 0 {
		ip.Unlock()
		fs.icacheMu.Unlock()

		fs.Log.WithOp(func() defs.Err_t {
			fs.Ilock(ip)
			fs.itrunc(ip)
			ip.Type = defs.I_FREE
			fs.Iupdate(ip)
			fs.Iunlock(ip)
			return 0
		})

		fs.icacheMu.Lock()
		ip.refcnt--
		delete(fs.icache, ip.Inum)
		fs.icacheMu.Unlock()
		return
	}
	ip.refcnt--
	ip.Unlock()
	fs.icacheMu.Unlock()
}

// bmap returns the block number holding the n'th block of ip's data,
// allocating it (and, for n >= NDIRECT, the indirect block) on demand.
// Part of C5's file-content mapping, §4.5.
func (fs *Fs_t) bmap(ip *Inode_t, n int) (int, defs.Err_t) {
	if n < bounds.NDIRECT {
		if ip.Addrs[n] == 0 {
			blkno, err := fs.Balloc()
			if err != 0 {
				return 0, err
			}
			ip.Addrs[n] = blkno
		}
		return ip.Addrs[n], 0
	}

	n -= bounds.NDIRECT
	if n >= bounds.NINDIRECT {
		return 0, defs.EINVAL
	}

	if ip.Addrs[bounds.NDIRECT] == 0 {
		blkno, err := fs.Balloc()
		if err != 0 {
			return 0, err
		}
		ip.Addrs[bounds.NDIRECT] = blkno
	}

	ib := fs.Cache.Read(fs.Dev, ip.Addrs[bounds.NDIRECT])
	blkno := util.Readn(ib.Data[:], 4, n*4)
	if blkno == 0 {
		nb, err := fs.Balloc()
		if err != 0 {
			fs.Cache.Release(ib)
			return 0, err
		}
		util.Writen(ib.Data[:], 4, n*4, nb)
		fs.Log.LogWrite(ib)
		blkno = nb
	}
	fs.Cache.Release(ib)
	return blkno, 0
}

// itrunc frees every block ip owns, direct and indirect, and resets its
// size to zero. Called from Iput when the last reference to a
// zero-link inode goes away.
func (fs *Fs_t) itrunc(ip *Inode_t) {
	for i := 0; i < bounds.NDIRECT; i++ {
		if ip.Addrs[i] != 0 {
			fs.Bfree(ip.Addrs[i])
			ip.Addrs[i] = 0
		}
	}
	if ip.Addrs[bounds.NDIRECT] != 0 {
		ib := fs.Cache.Read(fs.Dev, ip.Addrs[bounds.NDIRECT])
		for i := 0; i < bounds.NINDIRECT; i++ {
			blkno := util.Readn(ib.Data[:], 4, i*4)
			if blkno != 0 {
				fs.Bfree(blkno)
			}
		}
		fs.Cache.Release(ib)
		fs.Bfree(ip.Addrs[bounds.NDIRECT])
		ip.Addrs[bounds.NDIRECT] = 0
	}
	ip.Size = 0
	fs.Iupdate(ip)
}

/// Readi copies up to len(dst) bytes from ip starting at off into dst,
/// returning the number of bytes actually copied (truncated at ip.Size).
func (fs *Fs_t) Readi(ip *Inode_t, dst []uint8, off int) (int, defs.Err_t) {
	if off > ip.Size {
		return 0, 0
	}
	n := len(dst)
	if off+n > ip.Size {
		n = ip.Size - off
	}
	got := 0
	for got < n {
		blkoff := off + got
		blkno, err := fs.bmap(ip, blkoff/BSIZE)
		if err != 0 {
			return got, err
		}
		b := fs.Cache.Read(fs.Dev, blkno)
		m := copy(dst[got:n], b.Data[blkoff%BSIZE:])
		fs.Cache.Release(b)
		got += m
	}
	return got, 0
}

/// Writei copies src into ip starting at off, allocating new blocks as
/// needed and extending ip.Size, up to bounds.MAXFILE blocks.
func (fs *Fs_t) Writei(ip *Inode_t, src []uint8, off int) (int, defs.Err_t) {
	if off+len(src) > bounds.MAXFILE*BSIZE {
		return 0, defs.EINVAL
	}
	wrote := 0
	for wrote < len(src) {
		blkoff := off + wrote
		blkno, err := fs.bmap(ip, blkoff/BSIZE)
		if err != 0 {
			return wrote, err
		}
		b := fs.Cache.Read(fs.Dev, blkno)
		m := copy(b.Data[blkoff%BSIZE:], src[wrote:])
		fs.Log.LogWrite(b)
		fs.Cache.Release(b)
		wrote += m
	}
	if off+wrote > ip.Size {
		ip.Size = off + wrote
	}
	fs.Iupdate(ip)
	return wrote, 0
}
