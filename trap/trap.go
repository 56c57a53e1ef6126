// Package trap is the trap dispatcher (C7, §4.7): it looks at a
// process's saved Scause and routes to a timer tick, a breakpoint, an
// ecall (syscall), or a fatal exception, the same split the
// teacher kernel's own trap.go makes on the real riscv64 Scause
// encoding. There is no hardware vector table to install here — every
// "trap" is an explicit call made at a safe point the scheduler already
// controls (§0) — but the decode-and-dispatch shape is kept identical
// to what a real port would do in its trap vector.
package trap

import (
	"fmt"

	"caller"
	"kernel"
	"proc"
	"syscall"
)

// Scause encodings this hosted kernel recognizes. Real Sv39 Scause
// values reserve the top bit for "interrupt", which is mirrored here so
// a future port swapping in genuine trap entry only has to change where
// these values are produced, never how they are consumed.
const (
	ScauseTimerInterrupt = uint64(1)<<63 | 5 // supervisor timer interrupt
	ScauseBreakpoint     = uint64(3)         // ebreak
	ScauseEcallFromU     = uint64(8)         // environment call (syscall)
	ScauseIllegalInsn    = uint64(2)
	ScausePageFault      = uint64(13) // load page fault; 15 is store, handled the same
)

var panics caller.Distinct_caller_t

func init() {
	panics.Enabled = true
}

// panicf is kernel.Panic by default. handleFatal calls through this var
// instead of kernel.Panic directly so a test can substitute a recorder
// and recover its own way out, since the real kernel.Panic calls
// os.Exit and would otherwise take the whole test binary down with it.
var panicf = kernel.Panic

/// Handle dispatches one trap recorded in p.TF. It returns true if p
/// should keep running (the trap was serviced and execution continues
/// past Epc), or false if p was killed and the caller (the scheduler
/// loop) should let it exit instead of resuming it.
func Handle(p *proc.Proc_t) bool {
	switch {
	case p.TF.Scause == ScauseTimerInterrupt:
		handleTick(p)
		return true

	case p.TF.Scause == ScauseBreakpoint:
		p.TF.Epc += 2 // step past the 2-byte ebreak instruction
		return true

	case p.TF.Scause == ScauseEcallFromU:
		syscall.Dispatch(p)
		p.TF.Epc += 4 // step past the ecall instruction, per §4.7
		return true

	case p.TF.Scause == ScauseIllegalInsn || p.TF.Scause == ScausePageFault:
		return handleFatal(p)

	default:
		return handleFatal(p)
	}
}

// handleTick services a timer interrupt by giving the scheduler a
// chance to rotate the runnable process — the hosted stand-in for real
// timer-driven preemption, invoked instead at whatever safe point a
// long-running kernel loop chooses to check for it (§0).
func handleTick(p *proc.Proc_t) {
	proc.Yield(p)
}

// handleFatal reports an unrecoverable trap (illegal instruction, bad
// address, or an unrecognized scause) and escalates to a kernel panic,
// per §4.7: this teaching kernel has no user/supervisor isolation
// (§9, Non-goals), so there is no sandbox for a faulting process to die
// inside of instead — the fault is treated as a fatal condition for the
// whole kernel, not softened into "terminate the offending process"
// (that relaxation is explicitly the production alternative in §7's
// error table, not this implementation). caller.Distinct_caller_t still
// dedupes the diagnostic by call site before the panic halts everything
// anyway, so a crash loop during development doesn't flood the console
// on its way down.
func handleFatal(p *proc.Proc_t) bool {
	if new, trace := panics.Distinct(); new {
		fmt.Printf("trap: fatal scause=%#x stval=%#x epc=%#x pid=%d\n%s",
			p.TF.Scause, p.TF.Stval, p.TF.Epc, p.Pid, trace)
	}
	panicf("trap: fatal scause=%#x stval=%#x epc=%#x pid=%d",
		p.TF.Scause, p.TF.Stval, p.TF.Epc, p.Pid)
	return false
}
