package fs

import "testing"

func TestBallocBfreeRoundTrip(t *testing.T) {
	fsys := freshMountedFS(t, 32)

	blkno, err := fsys.Balloc()
	if err != 0 {
		t.Fatalf("Balloc failed: %v", err)
	}
	fsys.Bfree(blkno)

	// The freed block must be handed out again before any higher block.
	again, err := fsys.Balloc()
	if err != 0 {
		t.Fatalf("Balloc after Bfree failed: %v", err)
	}
	if again != blkno {
		t.Fatalf("Balloc after Bfree returned %d, want the freed block %d", again, blkno)
	}
}

func TestBallocExhaustionReturnsENOMEM(t *testing.T) {
	fsys := freshMountedFS(t, 4)
	// The root directory's entries already occupy one of the 4 data
	// blocks, so 3 remain.
	for i := 0; i < 3; i++ {
		if _, err := fsys.Balloc(); err != 0 {
			t.Fatalf("Balloc %d failed: %v", i, err)
		}
	}
	if _, err := fsys.Balloc(); err == 0 {
		t.Fatal("Balloc succeeded after exhausting every data block")
	}
}

func TestBfreeDoubleFreePanics(t *testing.T) {
	fsys := freshMountedFS(t, 16)
	blkno, err := fsys.Balloc()
	if err != 0 {
		t.Fatalf("Balloc failed: %v", err)
	}
	fsys.Bfree(blkno)

	defer func() {
		if recover() == nil {
			t.Fatal("Bfree on an already-free block did not panic")
		}
	}()
	fsys.Bfree(blkno)
}
