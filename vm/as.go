package vm

import (
	"sync"

	"defs"
	"mem"
)

// KERNBASE..PHYSTOP bookkeeping for the shared kernel map. Since every
// process runs in supervisor mode sharing the kernel's page table
// (§9, Non-goals: no user-mode isolation), there is exactly one set of
// these ranges, installed into every process's table at creation.
type KernelLayout_t struct {
	Kernbase uintptr
	Etext    uintptr
	Phystop  uintptr
	UartMMIO uintptr
	UartLen  int
}

/// Vm_t is a process's address space handle: its page table root plus
/// the lock serializing modifications to it, matching the teacher
/// kernel's Vm_t (there guarding Vmregion/Pmap/P_pmap together).
type Vm_t struct {
	sync.Mutex
	Root mem.Pa_t
}

/// Lock_pmap acquires the address-space lock before walking or
/// modifying the page table.
func (as *Vm_t) Lock_pmap() { as.Lock() }

/// Unlock_pmap releases it.
func (as *Vm_t) Unlock_pmap() { as.Unlock() }

/// NewAddrSpace allocates a fresh table and maps the shared kernel
/// layout into it, so every process can service a trap (which runs
/// kernel code) regardless of which process was interrupted.
func NewAddrSpace(alloc Allocator, kl KernelLayout_t) (*Vm_t, defs.Err_t) {
	root, ok := NewTable(alloc)
	if !ok {
		return nil, defs.ENOMEM
	}
	as := &Vm_t{Root: root}
	if err := mapKernel(alloc, root, kl); err != 0 {
		DestroyTable(alloc, root)
		return nil, err
	}
	return as, 0
}

func mapKernel(alloc Allocator, root mem.Pa_t, kl KernelLayout_t) defs.Err_t {
	// [KERNBASE, etext) is R+X: kernel code and rodata.
	if kl.Etext > kl.Kernbase {
		if err := MapRange(alloc, root, mem.Pa_t(kl.Kernbase), kl.Kernbase,
			int(kl.Etext-kl.Kernbase), PTE_R|PTE_X); err != 0 {
			return err
		}
	}
	// [etext, PHYSTOP) is R+W: kernel data and the rest of usable RAM.
	if kl.Phystop > kl.Etext {
		if err := MapRange(alloc, root, mem.Pa_t(kl.Etext), kl.Etext,
			int(kl.Phystop-kl.Etext), PTE_R|PTE_W); err != 0 {
			return err
		}
	}
	// UART MMIO is R+W.
	if kl.UartLen > 0 {
		if err := MapRange(alloc, root, mem.Pa_t(kl.UartMMIO), kl.UartMMIO,
			kl.UartLen, PTE_R|PTE_W); err != 0 {
			return err
		}
	}
	return 0
}

/// CurrentRoot simulates the satp CSR: the page table root the
/// currently-activated address space points at. Since every process
/// shares the same kernel map and this is a single-hart design, one
/// field is enough; a multi-hart port would move this into a per-hart
/// CPU record.
var currentRoot mem.Pa_t

/// Activate simulates writing satp and fencing the TLB: Sv39 mode,
/// asid 0, ppn = root>>12. There is no real MMU or TLB to flush in a
/// hosted kernel; this records which table is "active" so Userdmap8
/// and friends know which root to walk.
func Activate(root mem.Pa_t) {
	currentRoot = root
}

/// CurrentRoot returns the page table root last passed to Activate.
func CurrentRoot() mem.Pa_t {
	return currentRoot
}
