// Package fs implements the block cache (C3), the crash-safe log (C4),
// and the inode/directory layer (C5) — §4.3, §4.4, §4.5. The on-disk
// layout and struct field accessors are kept directly from the teacher
// kernel's fs/blk.go and fs/super.go; the cache itself is restructured
// around a fixed pool of bounds.NBUF buffers in an MRU→LRU
// container/list, exactly as §4.3 specifies, with a hashtable index
// added on top for O(1) lookup (see hashtable's doc comment).
package fs

import (
	"container/list"
	"fmt"
	"sync"

	"bounds"
	"hashtable"
	"kstat"
)

// BSIZE is the size of one disk block in bytes.
const BSIZE = 4096

/// Disk_i is the block device collaborator from §6: two functions, no
/// more. The filesystem never knows or cares whether blocks live in an
/// in-memory array or on a virtio disk.
type Disk_i interface {
	ReadBlock(blkno int, dst []byte)
	WriteBlock(blkno int, src []byte)
}

/// Buf is one cached disk block.
type Buf struct {
	Dev    int
	Blkno  int
	Valid  bool
	Dirty  bool
	Data   [BSIZE]byte
	refcnt int
	elem   *list.Element // this buffer's node in the cache's LRU list
}

type cacheKey = [2]int

/// Cache_t is the fixed-size block cache pool: bounds.NBUF buffers kept
/// in an MRU→LRU doubly linked list with a hash index over {dev,blk}.
type Cache_t struct {
	sync.Mutex
	disk  Disk_i
	lru   *list.List // front = MRU, back = LRU
	index *hashtable.Hashtable_t
	bufs  []*Buf
}

/// MkCache allocates the fixed buffer pool and wires it to disk.
func MkCache(disk Disk_i) *Cache_t {
	c := &Cache_t{
		disk:  disk,
		lru:   list.New(),
		index: hashtable.MkHashtable(bounds.NBUF),
		bufs:  make([]*Buf, 0, bounds.NBUF),
	}
	for i := 0; i < bounds.NBUF; i++ {
		b := &Buf{}
		b.elem = c.lru.PushBack(b)
		c.bufs = append(c.bufs, b)
	}
	return c
}

// evictVictim scans from the LRU end for a buffer with refcnt 0. Per
// §4.3, exhaustion (every buffer pinned) is a fatal panic: it indicates
// a caller forgot to Release.
func (c *Cache_t) evictVictim() *Buf {
	for e := c.lru.Back(); e != nil; e = e.Prev() {
		b := e.Value.(*Buf)
		if b.refcnt == 0 {
			return b
		}
	}
	panic("fs: block cache exhausted; a caller forgot to Release")
}

func (c *Cache_t) touchMRU(b *Buf) {
	c.lru.MoveToFront(b.elem)
}

/// Read returns the buffer for {dev, blk}, populating it from disk on
/// a first touch, per §4.3's algorithm.
func (c *Cache_t) Read(dev, blk int) *Buf {
	c.Lock()
	key := cacheKey{dev, blk}
	if v, ok := c.index.Get(key); ok {
		b := v.(*Buf)
		b.refcnt++
		c.touchMRU(b)
		c.Unlock()
		kstat.Kernel.CacheHits.Inc()
		return b
	}

	b := c.evictVictim()
	if b.Valid {
		c.index.Del(cacheKey{b.Dev, b.Blkno})
	}
	b.Dev, b.Blkno = dev, blk
	b.Valid = false
	b.Dirty = false
	b.refcnt = 1
	c.index.Set(key, b)
	c.touchMRU(b)
	c.Unlock()

	kstat.Kernel.CacheMisses.Inc()
	c.disk.ReadBlock(blk, b.Data[:])
	b.Valid = true
	return b
}

/// Write persists b to disk immediately. Per §4.3's consistency rule,
/// ordinary modifications must go through LogWrite instead; Write is
/// reserved for the log's own commit/recovery sequence.
func (c *Cache_t) Write(b *Buf) {
	c.disk.WriteBlock(b.Blkno, b.Data[:])
	b.Dirty = false
}

/// Release drops one reference to b, moving it to the MRU position
/// once its refcount reaches zero (it remains in the pool, eligible
/// for reuse, but is not immediately overwritten).
func (c *Cache_t) Release(b *Buf) {
	c.Lock()
	defer c.Unlock()
	if b.refcnt <= 0 {
		panic("fs: over-released buffer")
	}
	b.refcnt--
	if b.refcnt == 0 {
		c.touchMRU(b)
	}
}

/// Pin increments refcount without changing LRU order, keeping a dirty
/// buffer alive across an intervening Release — used by the log to
/// hold logged blocks pinned until install completes (§4.4).
func (c *Cache_t) Pin(b *Buf) {
	c.Lock()
	defer c.Unlock()
	b.refcnt++
}

/// Unpin is Pin's inverse.
func (c *Cache_t) Unpin(b *Buf) {
	c.Release(b)
}

func (c *Cache_t) String() string {
	return fmt.Sprintf("blockcache: %d/%d buffers, %d indexed",
		bounds.NBUF-c.freeCount(), bounds.NBUF, c.index.Len())
}

func (c *Cache_t) freeCount() int {
	c.Lock()
	defer c.Unlock()
	n := 0
	for _, b := range c.bufs {
		if b.refcnt == 0 {
			n++
		}
	}
	return n
}
