package fs

import (
	"testing"
	"time"

	"bounds"
	"diskdrv"
	"proc"
)

// freshLogDisk formats nblocks as boot block, superblock, a
// bounds.LOGSIZE-block log, 4 inode blocks, one bitmap block and data;
// with nblocks = 64 the data region starts at block 37.
func freshLogDisk(t *testing.T, nblocks int) (*diskdrv.MemDisk_t, *Cache_t, *Log_t) {
	t.Helper()
	disk := diskdrv.MkMemDisk(nblocks)
	sb := Mkfs(nblocks, bounds.LOGSIZE, 4, nblocks-bounds.LOGSIZE-4-3)
	FormatDisk(disk, sb)
	c := MkCache(disk)
	l := MkLog(c, 0, sb.LogStart(), sb.LogSize())
	return disk, c, l
}

func TestLogCommitInstallsToHome(t *testing.T) {
	_, c, l := freshLogDisk(t, 64)

	l.BeginOp()
	b := c.Read(0, 40)
	b.Data[0] = 0x42
	l.LogWrite(b)
	c.Release(b)
	l.EndOp()

	// Reread the home block through the cache: the committed write
	// must have reached it.
	got := c.Read(0, 40)
	if got.Data[0] != 0x42 {
		t.Fatalf("home block byte 0 = %#x, want 0x42", got.Data[0])
	}
	c.Release(got)

	hdr := c.Read(0, l.start)
	var empty logheader
	empty.read(hdr.Data[:])
	c.Release(hdr)
	if empty.n != 0 {
		t.Fatalf("header n = %d after commit, want 0 (retired)", empty.n)
	}
}

func TestLogAbsorbsRepeatedWritesIntoOneSlot(t *testing.T) {
	_, c, l := freshLogDisk(t, 64)

	l.BeginOp()
	b := c.Read(0, 45)
	b.Data[0] = 1
	l.LogWrite(b)
	b.Data[0] = 2
	l.LogWrite(b) // same block again: must not grow the transaction
	c.Release(b)
	if len(l.absorbed) != 1 {
		t.Fatalf("absorbed %d buffers for one repeatedly-written block, want 1", len(l.absorbed))
	}
	l.EndOp()

	got := c.Read(0, 45)
	if got.Data[0] != 2 {
		t.Fatalf("home block byte 0 = %d, want 2 (latest write)", got.Data[0])
	}
	c.Release(got)
}

func TestLogRecoveryReplaysCommittedHeader(t *testing.T) {
	disk, c, l := freshLogDisk(t, 64)

	// Simulate a crash between commit()'s header write and its install
	// step: write the log data slot and a non-zero header by hand,
	// without ever touching the home block.
	l.lh.n = 1
	l.lh.block[0] = 50
	logblk := c.Read(0, l.start+1)
	logblk.Data[0] = 0x7

	// Set the logged payload and force it to disk, then write the
	// commit-point header, exactly matching commit()'s first two steps.
	c.Write(logblk)
	c.Release(logblk)
	l.writeHeadLocked()

	// Home block 50 is still zero, as the fresh disk left it.
	var preCrash [BSIZE]byte
	disk.ReadBlock(50, preCrash[:])
	if preCrash[0] != 0 {
		t.Fatalf("home block already has the write before recovery runs")
	}

	// A fresh MkLog over the same disk simulates rebooting after the
	// crash: it must replay the pending transaction.
	recovered := MkLog(c, 0, l.start, l.size)

	var postRecovery [BSIZE]byte
	disk.ReadBlock(50, postRecovery[:])
	if postRecovery[0] != 0x7 {
		t.Fatalf("home block byte 0 after recovery = %#x, want 0x7", postRecovery[0])
	}

	hdr := c.Read(0, recovered.start)
	var check logheader
	check.read(hdr.Data[:])
	c.Release(hdr)
	if check.n != 0 {
		t.Fatalf("header n after recovery = %d, want 0", check.n)
	}
}

func TestLogBeginOpBlocksUntilRoomFrees(t *testing.T) {
	_, _, l := freshLogDisk(t, 64)

	// Saturate outstanding ops so the next BeginOp must wait.
	l.mu.Lock()
	for l.admissible() {
		l.outstanding++
	}
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.BeginOp()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("BeginOp returned before room was freed")
	case <-time.After(50 * time.Millisecond):
	}

	l.mu.Lock()
	l.outstanding = 0
	l.mu.Unlock()
	proc.Wakeup(l)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BeginOp never woke up after room freed")
	}
}
