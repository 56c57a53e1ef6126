package mem

import "testing"

func freshPhysmem(npages int) *Physmem_t {
	m := &Physmem_t{}
	m.Init(0, uintptr(npages*PGSIZE))
	return m
}

func TestAllocFreeRoundTrip(t *testing.T) {
	m := freshPhysmem(4)

	pa, ok := m.AllocPage()
	if !ok {
		t.Fatal("AllocPage failed on a fresh pool")
	}
	if pa&PGOFFSET != 0 {
		t.Fatalf("AllocPage returned misaligned address %#x", pa)
	}
	if m.FreeListLen() != 3 {
		t.Fatalf("free list len = %d, want 3", m.FreeListLen())
	}

	m.FreePage(pa)
	if m.FreeListLen() != 4 {
		t.Fatalf("free list len after free = %d, want 4", m.FreeListLen())
	}
}

func TestAllocExhaustion(t *testing.T) {
	m := freshPhysmem(2)
	var got []Pa_t
	for i := 0; i < 2; i++ {
		pa, ok := m.AllocPage()
		if !ok {
			t.Fatalf("AllocPage failed before pool exhausted (i=%d)", i)
		}
		got = append(got, pa)
	}
	if _, ok := m.AllocPage(); ok {
		t.Fatal("AllocPage succeeded on an exhausted pool")
	}
	m.FreeN(got)
	if m.FreeListLen() != 2 {
		t.Fatalf("free list len after FreeN = %d, want 2", m.FreeListLen())
	}
}

func TestFreeOutOfRangePanics(t *testing.T) {
	m := freshPhysmem(1)
	pa, ok := m.AllocPage()
	if !ok {
		t.Fatal("AllocPage failed")
	}
	m.FreePage(pa)

	defer func() {
		if recover() == nil {
			t.Fatal("FreePage on an out-of-range address did not panic")
		}
	}()
	m.FreePage(pa + Pa_t(PGSIZE)*1000)
}

func TestAllocZeroed(t *testing.T) {
	m := freshPhysmem(2)
	pa, pg, ok := m.AllocZeroed()
	if !ok {
		t.Fatal("AllocZeroed failed")
	}
	for i, b := range pg {
		if b != 0 {
			t.Fatalf("page not zeroed at offset %d", i)
		}
	}
	if !m.Contains(pa) {
		t.Fatalf("Contains(%#x) = false for an allocated page", pa)
	}
}

func TestDerefAliasesBacking(t *testing.T) {
	m := freshPhysmem(1)
	pa, ok := m.AllocPage()
	if !ok {
		t.Fatal("AllocPage failed")
	}
	pg := m.Deref(pa)
	pg[0] = 0xAB
	if m.Deref(pa)[0] != 0xAB {
		t.Fatal("Deref did not alias the same backing storage across calls")
	}
}
