// Package proc implements the process table, scheduler, and sleep/wake
// primitives (C8/C9, §4.9, §5). Processes are hosted as goroutines
// parked on a per-process handoff channel pair rather than switched via
// hand-written assembly: the scheduler is the sole arbiter of which
// goroutine may execute kernel code at any moment, which is what gives
// this hosted kernel the single-hart "exactly zero or one Running
// process" invariant real hardware gets from swtch touching one stack
// at a time. See SPEC_FULL.md §0 for the full rationale; §9's own note
// that a port "implements [swtch] as a small assembly stub callable
// from safe code" is satisfied here by the Go scheduler playing that
// role instead.
package proc

import (
	"sync"

	"accnt"
	"bounds"
	"defs"
	"fd"
	"mem"
	"vm"
)

/// State_t is a process's scheduling state, per §3.
type State_t int

const (
	Unused State_t = iota
	Used
	Runnable
	Running
	Sleeping
	Zombie
)

func (s State_t) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Used:
		return "USED"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Sleeping:
		return "SLEEPING"
	case Zombie:
		return "ZOMBIE"
	default:
		return "?"
	}
}

/// Trapframe_t holds the general-purpose register file and exception
/// PC saved at trap entry (§3). a0..a5 and a7 are the syscall ABI
/// registers the arg_* helpers and the dispatcher read and write.
/// Scause/Stval hold the decoded trap cause, filled in by whatever
/// simulates trap entry (trap.Handle).
//
// Sarg and Barg carry a syscall's string/byte-buffer arguments
// directly as Go values rather than as a raw pointer into a user
// address space: since every process here runs in supervisor mode
// sharing the kernel's page table (§9, Non-goals — no user/kernel
// address space split), there is no buffer to copy across a boundary,
// so arg_str/arg_buf have nothing left to do but hand back what the
// caller already attached to the frame.
type Trapframe_t struct {
	A      [8]uint64 // a0..a7; a7 carries the syscall number, a0 the return value
	Epc    uint64    // exception program counter
	Scause uint64
	Stval  uint64

	Sarg string
	Barg []byte
}

/// Proc_t is a process control block (§3). Parent links are stable
/// table indices, not pointers, per §9's design note: the table is the
/// sole owner of every PCB and a non-owning index sidesteps any
/// ownership-cycle question.
type Proc_t struct {
	sync.Mutex // guards State, Chan, Killed, ExitStatus, Priority, waitTime

	idx        int // stable table index, set once at allocation
	Pid        int
	Name       string
	State      State_t
	Priority   int
	waitTime   int
	Killed     bool
	ExitStatus int
	ParentIdx  int // -1 if none (init/orphan)

	Chan interface{} // opaque sleep channel address

	Accnt accnt.Accnt_t
	Vm    *vm.Vm_t
	TF    Trapframe_t

	Files [bounds.NOFILE]*fd.Fd_t
	Cwd   *fd.Cwd_t

	entry func()

	resumec chan struct{}
	yieldc  chan struct{}
}

var tableMu sync.Mutex
var table [bounds.NPROC]Proc_t
var nextPid = 1

/// KernelLayout is installed into every new process's address space by
/// CreateProcess; Boot sets it once before any process is created.
var KernelLayout vm.KernelLayout_t

/// TableSlice exposes the process table for the scheduler, wakeup, and
/// kill to scan; it is never resized after Boot.
func TableSlice() []Proc_t { return table[:] }

/// ByIdx returns a pointer to the table slot at i.
func ByIdx(i int) *Proc_t { return &table[i] }

/// ByPid finds a live process by its stable PID, or returns nil.
func ByPid(pid int) *Proc_t {
	tableMu.Lock()
	defer tableMu.Unlock()
	for i := range table {
		p := &table[i]
		p.Lock()
		if p.State != Unused && p.Pid == pid {
			p.Unlock()
			return p
		}
		p.Unlock()
	}
	return nil
}

func allocSlot() (int, defs.Err_t) {
	tableMu.Lock()
	defer tableMu.Unlock()
	for i := range table {
		p := &table[i]
		p.Lock()
		if p.State == Unused {
			p.State = Used
			p.Pid = nextPid
			p.idx = i
			nextPid++
			p.Unlock()
			return i, 0
		}
		p.Unlock()
	}
	return -1, defs.ENOMEM
}

/// CreateProcess allocates a PCB, an address space seeded with the
/// shared kernel mappings, and a goroutine that will run entry once the
/// scheduler first resumes it — the hosted equivalent of setting up a
/// trampoline context whose return address calls entry() then exit(0),
/// per §4.9.
func CreateProcess(entry func(), name string, priority int) (*Proc_t, defs.Err_t) {
	idx, err := allocSlot()
	if err != 0 {
		return nil, err
	}
	p := &table[idx]

	as, err := vm.NewAddrSpace(mem.Physmem, KernelLayout)
	if err != 0 {
		p.Lock()
		p.State = Unused
		p.Unlock()
		return nil, err
	}

	p.Lock()
	p.Name = name
	p.Priority = priority
	p.waitTime = 0
	p.Killed = false
	p.ExitStatus = 0
	p.ParentIdx = -1
	p.Chan = nil
	p.Vm = as
	p.Accnt = accnt.Accnt_t{}
	p.entry = entry
	p.resumec = make(chan struct{})
	p.yieldc = make(chan struct{})
	p.State = Runnable
	p.Unlock()

	go func() {
		<-p.resumec
		p.entry()
		Exit(p, 0)
	}()

	return p, 0
}

/// Idx returns p's own table index, used by Wait/reaping and by the
/// scheduler's round-robin tie-break.
func Idx(p *Proc_t) int {
	return p.idx
}

/// Entry returns the function p's goroutine was created to run — used
/// by fork to give a child the same entry point as its parent, since
/// there is no saved register file to resume from instead (§9,
/// Non-goals).
func (p *Proc_t) Entry() func() {
	return p.entry
}
