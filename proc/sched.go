package proc

import (
	"runtime"
	"sync"

	"bounds"
	"kstat"
)

/// Cpu_t is the single-hart CPU record (§3, §9: SMP is a Non-goal, so
/// one record suffices — a multi-hart port would make this per-hart).
type Cpu_t struct {
	mu          sync.Mutex
	current     int // table index of the Running process, or -1
	noff        int // nested PushOff depth
	intenaSaved bool
}

var MyCpu = &Cpu_t{current: -1}

/// CurrentProc returns the process the scheduler last resumed, or nil
/// if none is running — either because no scheduler loop is active
/// (a standalone caller, e.g. mkfs or a package test) or because the
/// scheduler is between processes.
func CurrentProc() *Proc_t {
	MyCpu.mu.Lock()
	idx := MyCpu.current
	MyCpu.mu.Unlock()
	if idx < 0 {
		return nil
	}
	return &table[idx]
}

var lastPicked = -1
var agingTick int

// pickNext chooses the next Runnable process using highest-priority
// first with round-robin rotation among equal priority, starting just
// past the last process picked (§4.9).
func pickNext() (int, bool) {
	tableMu.Lock()
	defer tableMu.Unlock()

	best := -1
	bestPrio := -1
	n := len(table)
	for off := 1; off <= n; off++ {
		i := (lastPicked + off) % n
		p := &table[i]
		p.Lock()
		st, prio := p.State, p.Priority
		p.Unlock()
		if st != Runnable {
			continue
		}
		if prio > bestPrio {
			best, bestPrio = i, prio
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}

// agingSweep implements §4.9's starvation guard: every bounds.AGINGPERIOD
// scheduler rounds, every Runnable process's wait_time is bumped; once it
// crosses bounds.AGINGTHRESHOLD its priority is boosted by
// bounds.AGINGBOOST (clamped to bounds.MAXPRIO) and its wait_time reset.
func agingSweep() {
	agingTick++
	if agingTick < bounds.AGINGPERIOD {
		return
	}
	agingTick = 0

	tableMu.Lock()
	defer tableMu.Unlock()
	for i := range table {
		p := &table[i]
		p.Lock()
		if p.State == Runnable {
			p.waitTime++
			if p.waitTime >= bounds.AGINGTHRESHOLD {
				p.Priority += bounds.AGINGBOOST
				if p.Priority > bounds.MAXPRIO {
					p.Priority = bounds.MAXPRIO
				}
				p.waitTime = 0
				kstat.Kernel.Aged.Inc()
			}
		}
		p.Unlock()
	}
}

/// Run is the scheduler's main loop (C8): repeatedly pick the
/// highest-priority Runnable process, hand it the baton, and wait for
/// it to yield, sleep, or exit. It never returns.
func Run() {
	for {
		agingSweep()

		idx, ok := pickNext()
		if !ok {
			runtime.Gosched() // idle-spin; interrupts stay logically "on"
			continue
		}

		p := &table[idx]
		p.Lock()
		p.State = Running
		p.Unlock()

		MyCpu.mu.Lock()
		MyCpu.current = idx
		MyCpu.mu.Unlock()
		lastPicked = idx

		p.resumec <- struct{}{}
		<-p.yieldc

		MyCpu.mu.Lock()
		MyCpu.current = -1
		MyCpu.mu.Unlock()
		kstat.Kernel.SchedSwitches.Inc()
	}
}

/// Sched hands control back to the scheduler: it must be called with
/// p.State already set to anything but Running. A Zombie process never
/// resumes — its goroutine falls out of Sched and returns, ending the
/// goroutine for good, which is this hosted kernel's analogue of exit()
/// "never returning" to its caller.
func Sched(p *Proc_t) {
	p.Lock()
	st := p.State
	p.Unlock()
	if st == Running {
		panic("proc: Sched called with State == Running")
	}

	p.yieldc <- struct{}{}
	if st != Zombie {
		<-p.resumec
	}
}

/// Yield voluntarily gives up the remainder of p's slice: it resets
/// wait_time (it just ran, so it is not starved) and re-enters the
/// Runnable pool (§4.9).
func Yield(p *Proc_t) {
	p.Lock()
	p.State = Runnable
	p.waitTime = 0
	p.Unlock()
	Sched(p)
}

/// PushOff and PopOff bracket a critical section the way disabling
/// interrupts would on real hardware; mismatched pairs panic, matching
/// the teacher kernel's own push_off/pop_off discipline.
func PushOff() {
	MyCpu.mu.Lock()
	defer MyCpu.mu.Unlock()
	if MyCpu.noff == 0 {
		MyCpu.intenaSaved = true
	}
	MyCpu.noff++
}

func PopOff() {
	MyCpu.mu.Lock()
	defer MyCpu.mu.Unlock()
	if MyCpu.noff == 0 {
		panic("proc: PopOff without matching PushOff")
	}
	MyCpu.noff--
}
