package fs

import (
	"testing"

	"bounds"
	"defs"
	"diskdrv"
)

func freshMountedFS(t *testing.T, dataBlocks int) *Fs_t {
	t.Helper()
	// Boot block, superblock and one bitmap block come on top of the
	// data, log and inode regions.
	total := dataBlocks + bounds.LOGSIZE + 4 + 3
	disk := diskdrv.MkMemDisk(total)
	sb := Mkfs(total, bounds.LOGSIZE, 4, dataBlocks)
	FormatDisk(disk, sb)
	fsys, err := StartFS(disk)
	if err != 0 {
		t.Fatalf("StartFS failed: %v", err)
	}
	return fsys
}

func TestIallocAssignsDistinctFreeInodes(t *testing.T) {
	fsys := freshMountedFS(t, 64)

	a, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc failed: %v", err)
	}
	b, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc failed: %v", err)
	}
	if a.Inum == b.Inum {
		t.Fatalf("Ialloc returned the same inum %d twice", a.Inum)
	}
}

func TestIupdatePersistsAcrossIcacheEviction(t *testing.T) {
	fsys := freshMountedFS(t, 64)

	ip, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc failed: %v", err)
	}
	fsys.Ilock(ip)
	ip.Nlink = 3
	ip.Size = 4096
	fsys.Iupdate(ip)
	fsys.Iunlock(ip)
	inum := ip.Inum

	fsys.Fs_evict()

	reread, err := fsys.Iget(inum)
	if err != 0 {
		t.Fatalf("Iget after evict failed: %v", err)
	}
	fsys.Ilock(reread)
	defer fsys.Iunlock(reread)
	if reread.Nlink != 3 || reread.Size != 4096 {
		t.Fatalf("reread inode = {Nlink:%d Size:%d}, want {3 4096}", reread.Nlink, reread.Size)
	}
}

func TestWriteiReadiRoundTrip(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	ip, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc failed: %v", err)
	}
	fsys.Ilock(ip)
	defer fsys.Iunlock(ip)

	payload := []byte("hello, file")
	n, err := fsys.Writei(ip, payload, 0)
	if err != 0 || n != len(payload) {
		t.Fatalf("Writei = (%d, %v), want (%d, 0)", n, err, len(payload))
	}

	dst := make([]byte, len(payload))
	got, err := fsys.Readi(ip, dst, 0)
	if err != 0 || got != len(payload) {
		t.Fatalf("Readi = (%d, %v), want (%d, 0)", got, err, len(payload))
	}
	if string(dst) != string(payload) {
		t.Fatalf("Readi = %q, want %q", dst, payload)
	}
}

func TestWriteiSpanningIndirectBlocks(t *testing.T) {
	fsys := freshMountedFS(t, bounds.NDIRECT+8)
	ip, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc failed: %v", err)
	}
	fsys.Ilock(ip)
	defer fsys.Iunlock(ip)

	// Write one byte into the first indirect-mapped block, past all
	// NDIRECT direct pointers.
	off := bounds.NDIRECT * BSIZE
	if _, err := fsys.Writei(ip, []byte{0x5A}, off); err != 0 {
		t.Fatalf("Writei into indirect range failed: %v", err)
	}
	if ip.Addrs[bounds.NDIRECT] == 0 {
		t.Fatal("indirect block pointer was never allocated")
	}

	dst := make([]byte, 1)
	if _, err := fsys.Readi(ip, dst, off); err != 0 || dst[0] != 0x5A {
		t.Fatalf("Readi from indirect range = (%v, %v), want (0x5A, 0)", dst, err)
	}
}

func TestItruncFreesAllBlocksAndBitmapReflectsIt(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	ip, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc failed: %v", err)
	}
	fsys.Ilock(ip)

	if _, err := fsys.Writei(ip, make([]byte, BSIZE*3), 0); err != 0 {
		t.Fatalf("Writei failed: %v", err)
	}

	var used []int
	for i := 0; i < 3; i++ {
		used = append(used, ip.Addrs[i])
	}

	fsys.itrunc(ip)
	fsys.Iunlock(ip)

	if ip.Size != 0 {
		t.Fatalf("Size after itrunc = %d, want 0", ip.Size)
	}
	// Every freed block must be allocatable again.
	seen := map[int]bool{}
	for range used {
		blkno, err := fsys.Balloc()
		if err != 0 {
			t.Fatalf("Balloc after itrunc failed: %v", err)
		}
		seen[blkno] = true
	}
	for _, u := range used {
		if !seen[u] {
			t.Fatalf("block %d freed by itrunc was never reallocated", u)
		}
	}
}

func TestIputFreesInodeOnlyWhenUnlinkedAndUnreferenced(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	ip, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc failed: %v", err)
	}
	inum := ip.Inum
	fsys.Ilock(ip)
	ip.Nlink = 1
	fsys.Iupdate(ip)
	fsys.Iunlock(ip)

	dup := fsys.Idup(ip)
	fsys.Iput(dup) // one of two references gone; inode must survive

	fsys.Ilock(ip)
	ip.Nlink = 0
	fsys.Iupdate(ip)
	fsys.Iunlock(ip)

	fsys.Iput(ip) // last reference, and Nlink is 0: this frees it

	reopened, err := fsys.Ialloc(defs.I_FILE)
	if err != 0 {
		t.Fatalf("Ialloc after free failed: %v", err)
	}
	if reopened.Inum != inum {
		t.Fatalf("freed inode %d was not reused by the next Ialloc (got %d)", inum, reopened.Inum)
	}
}

// TestIputFreeCommitsWithoutAnOpenTransaction guards against a free that
// only ever lands in the in-memory cache: Iput here is called exactly
// the way StopFS and File_t.Close call it, with no Log.WithOp already
// open on the call stack, so the only thing making the free durable is
// Iput bracketing its own BeginOp/EndOp.
func TestIputFreeCommitsWithoutAnOpenTransaction(t *testing.T) {
	total := 64 + bounds.LOGSIZE + 4 + 3 // data, log, inodes, boot+super+bitmap
	disk := diskdrv.MkMemDisk(total)
	sb := Mkfs(total, bounds.LOGSIZE, 4, 64)
	FormatDisk(disk, sb)
	fsys, err := StartFS(disk)
	if err != 0 {
		t.Fatalf("StartFS failed: %v", err)
	}

	var ip *Inode_t
	if err := fsys.Log.WithOp(func() defs.Err_t {
		var err defs.Err_t
		ip, err = fsys.Ialloc(defs.I_FILE)
		if err != 0 {
			return err
		}
		fsys.Ilock(ip)
		ip.Nlink = 1
		ip.Size = 777 // a sentinel distinguishable from any freed/default field
		fsys.Iupdate(ip)
		fsys.Iunlock(ip)
		return 0
	}); err != 0 {
		t.Fatalf("allocating the sentinel inode failed: %v", err)
	}
	inum := ip.Inum
	blkno, off := dinodeSlot(sb, inum)

	var committed [BSIZE]byte
	disk.ReadBlock(blkno, committed[:])
	if got := dinodeView{committed[off : off+dinodeSize]}.Size(); got != 777 {
		t.Fatalf("sentinel Size on disk after its own WithOp = %d, want 777 (sanity check)", got)
	}

	fsys.Ilock(ip)
	ip.Nlink = 0
	fsys.Iunlock(ip)
	fsys.Iput(ip) // no WithOp on this call stack; Iput must open its own

	var raw [BSIZE]byte
	disk.ReadBlock(blkno, raw[:])
	d := dinodeView{raw[off : off+dinodeSize]}
	if d.Size() != 0 || d.Type() != defs.I_FREE {
		t.Fatalf("inode %d on disk after Iput = {Type:%d Size:%d}, want {I_FREE 0}; "+
			"the free never committed over the sentinel", inum, d.Type(), d.Size())
	}
}
