// Package mem implements the physical page frame allocator (§4.1, C1):
// a LIFO free list threaded through the first machine word of each
// free frame. This single-hart version is a deliberate simplification
// of the teacher kernel's mem package, which additionally shards the
// free list per-CPU and reference-counts shared page-table pages for
// an SMP, copy-on-write-capable kernel — both are explicit Non-goals
// here (§1), so AllocPage/FreePage reduce to the plain two-instruction
// push/pop §5 describes, protected by a single mutex standing in for
// the single-hart interrupt-disable window.
package mem

import (
	"sync"
	"unsafe"

	"kstat"
)

/// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of one physical page in bytes.
const PGSIZE int = 1 << PGSHIFT

/// PGOFFSET masks the in-page offset of an address.
const PGOFFSET Pa_t = Pa_t(PGSIZE) - 1

/// PGMASK masks the page-aligned portion of an address.
const PGMASK Pa_t = ^PGOFFSET

/// Pa_t is a physical address.
type Pa_t uintptr

/// Pg_t is one physical page, addressable as a flat byte array.
type Pg_t [PGSIZE]byte

/// Page_i abstracts physical page allocation for callers (the block
/// cache, the virtual memory package) that must not depend on mem's
/// concrete allocator, only on its contract.
type Page_i interface {
	AllocPage() (Pa_t, *Pg_t, bool)
	FreePage(Pa_t)
}

// freeFrame reinterprets a free frame's first machine word as the next
// pointer in the free list — the layout optimization §9 calls out as
// not a semantic requirement, only how this implementation happens to
// thread the list through frames it does not otherwise need to touch.
type freeFrame struct {
	next Pa_t
}

func frameAt(backing []byte, pa Pa_t, base Pa_t) *freeFrame {
	off := uintptr(pa - base)
	return (*freeFrame)(unsafe.Pointer(&backing[off]))
}

func pageAt(backing []byte, pa Pa_t, base Pa_t) *Pg_t {
	off := uintptr(pa - base)
	return (*Pg_t)(unsafe.Pointer(&backing[off]))
}

/// Physmem_t is the kernel's single physical-frame allocator instance.
/// It owns a contiguous backing array standing in for the RAM region
/// between the end of the kernel image and PHYSTOP; a hosted kernel has
/// no real physical address space, so the "physical addresses" handed
/// out are offsets into this array reinterpreted as Pa_t, which is
/// sufficient for every invariant in §3 (frame is free xor owned by
/// exactly one subsystem; first word is a next-pointer while free).
type Physmem_t struct {
	sync.Mutex
	backing []byte
	base    Pa_t
	limit   Pa_t
	head    Pa_t
	hasHead bool
	nfree   int
}

const noFrame = ^Pa_t(0)

/// Init seeds the free list with every page-aligned frame in
/// [ceil_page(start), floor_page(end)), per §4.1.
func (m *Physmem_t) Init(start, end uintptr) {
	m.Lock()
	defer m.Unlock()

	s := Pa_t(roundup(uintptr(start), uintptr(PGSIZE)))
	e := Pa_t(rounddown(uintptr(end), uintptr(PGSIZE)))
	if e <= s {
		panic("mem.Init: empty region")
	}
	m.base = s
	m.limit = e
	m.backing = make([]byte, uintptr(e-s))
	m.head = noFrame
	m.hasHead = false
	m.nfree = 0

	for pa := s; pa < e; pa += Pa_t(PGSIZE) {
		m.pushLocked(pa)
	}
}

func roundup(v, b uintptr) uintptr   { return ((v + b - 1) / b) * b }
func rounddown(v, b uintptr) uintptr { return (v / b) * b }

func (m *Physmem_t) pushLocked(pa Pa_t) {
	f := frameAt(m.backing, pa, m.base)
	if m.hasHead {
		f.next = m.head
	} else {
		f.next = noFrame
	}
	m.head = pa
	m.hasHead = true
	m.nfree++
}

/// AllocPage unlinks and returns the head of the free list. Its
/// contents are unspecified (not zeroed) — callers that need a zeroed
/// page must zero it themselves, matching §4.1.
func (m *Physmem_t) AllocPage() (Pa_t, bool) {
	m.Lock()
	defer m.Unlock()
	if !m.hasHead {
		return 0, false
	}
	pa := m.head
	f := frameAt(m.backing, pa, m.base)
	if f.next == noFrame {
		m.hasHead = false
	} else {
		m.head = f.next
	}
	m.nfree--
	kstat.Kernel.PageAllocs.Inc()
	return pa, true
}

/// AllocZeroed is AllocPage followed by zeroing the frame, for callers
/// (page-table intermediate levels) that require it.
func (m *Physmem_t) AllocZeroed() (Pa_t, *Pg_t, bool) {
	pa, ok := m.AllocPage()
	if !ok {
		return 0, nil, false
	}
	pg := m.Deref(pa)
	for i := range pg {
		pg[i] = 0
	}
	return pa, pg, true
}

/// FreePage pushes pa back onto the head of the free list. Per §4.1 a
/// misaligned or out-of-range address is a no-op in the teaching
/// kernel; this implementation panics instead, the documented
/// strengthening for correctness testing.
func (m *Physmem_t) FreePage(pa Pa_t) {
	if pa&PGOFFSET != 0 {
		panic("mem.FreePage: misaligned address")
	}
	m.Lock()
	defer m.Unlock()
	if pa < m.base || pa >= m.limit {
		panic("mem.FreePage: address out of range")
	}
	m.pushLocked(pa)
	kstat.Kernel.PageFrees.Inc()
}

/// AllocN detaches up to n frames from the free list in one locked
/// traversal, returning however many were available.
func (m *Physmem_t) AllocN(n int) []Pa_t {
	m.Lock()
	defer m.Unlock()
	out := make([]Pa_t, 0, n)
	for i := 0; i < n && m.hasHead; i++ {
		pa := m.head
		f := frameAt(m.backing, pa, m.base)
		if f.next == noFrame {
			m.hasHead = false
		} else {
			m.head = f.next
		}
		m.nfree--
		out = append(out, pa)
	}
	kstat.Kernel.PageAllocs.Add(int64(len(out)))
	return out
}

/// FreeN returns a batch of frames to the free list.
func (m *Physmem_t) FreeN(pas []Pa_t) {
	m.Lock()
	defer m.Unlock()
	for _, pa := range pas {
		if pa&PGOFFSET != 0 || pa < m.base || pa >= m.limit {
			panic("mem.FreeN: bad address")
		}
		m.pushLocked(pa)
	}
	kstat.Kernel.PageFrees.Add(int64(len(pas)))
}

/// FreeListLen returns the number of frames currently free, by O(1)
/// counter rather than a traversal.
func (m *Physmem_t) FreeListLen() int {
	m.Lock()
	defer m.Unlock()
	return m.nfree
}

/// Deref returns the page of memory at physical address pa as a flat
/// byte array — the hosted stand-in for the teacher kernel's direct
/// map (Dmap): since "physical" addresses here are just offsets into
/// Physmem_t's own backing array, dereferencing one is a slice of that
/// array rather than a walk through a recursive mapping.
func (m *Physmem_t) Deref(pa Pa_t) *Pg_t {
	if pa < m.base || pa >= m.limit {
		panic("mem.Deref: address out of range")
	}
	return pageAt(m.backing, pa&PGMASK, m.base)
}

/// Contains reports whether pa falls within the managed region.
func (m *Physmem_t) Contains(pa Pa_t) bool {
	return pa >= m.base && pa < m.limit
}

/// Physmem is the kernel's global physical allocator instance, matching
/// the teacher kernel's single global Physmem variable.
var Physmem = &Physmem_t{}
