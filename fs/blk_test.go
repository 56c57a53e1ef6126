package fs

import (
	"testing"

	"bounds"
	"diskdrv"
)

func TestCacheReadWritePersists(t *testing.T) {
	disk := diskdrv.MkMemDisk(8)
	c := MkCache(disk)

	b := c.Read(0, 3)
	b.Data[0] = 0xAB
	c.Write(b)
	c.Release(b)

	// Reading the block straight from the disk shows the write: Write
	// goes straight to disk, bypassing the log.
	var raw [BSIZE]byte
	disk.ReadBlock(3, raw[:])
	if raw[0] != 0xAB {
		t.Fatalf("Write did not reach the underlying disk")
	}
}

func TestCacheReadSharesOneBufferAcrossCallers(t *testing.T) {
	disk := diskdrv.MkMemDisk(8)
	c := MkCache(disk)

	b1 := c.Read(0, 1)
	b2 := c.Read(0, 1)
	if b1 != b2 {
		t.Fatal("two Reads of the same {dev,blk} returned different buffers")
	}
	c.Release(b1)
	c.Release(b2)
}

func TestCacheEvictsLRUNotPinned(t *testing.T) {
	disk := diskdrv.MkMemDisk(bounds.NBUF + 4)
	c := MkCache(disk)

	pinned := c.Read(0, 0) // stays referenced for the whole test
	for i := 1; i < bounds.NBUF; i++ {
		b := c.Read(0, i)
		c.Release(b)
	}
	// Pool is now full: pinned plus NBUF-1 released buffers. One more
	// distinct block forces an eviction; it must not touch pinned.
	b := c.Read(0, bounds.NBUF)
	c.Release(b)

	if pinned.Dev != 0 || pinned.Blkno != 0 {
		t.Fatal("evictVictim reused a still-pinned buffer")
	}
	c.Release(pinned)
}

func TestCacheExhaustionPanics(t *testing.T) {
	disk := diskdrv.MkMemDisk(bounds.NBUF + 1)
	c := MkCache(disk)

	for i := 0; i < bounds.NBUF; i++ {
		c.Read(0, i) // never released: pins every buffer in the pool
	}

	defer func() {
		if recover() == nil {
			t.Fatal("Read on a fully pinned cache did not panic")
		}
	}()
	c.Read(0, bounds.NBUF)
}

func TestCacheOverReleasePanics(t *testing.T) {
	disk := diskdrv.MkMemDisk(4)
	c := MkCache(disk)
	b := c.Read(0, 0)
	c.Release(b)

	defer func() {
		if recover() == nil {
			t.Fatal("Release on an unreferenced buffer did not panic")
		}
	}()
	c.Release(b)
}
