package proc

import (
	"mem"
	"vm"

	"defs"
)

/// Exit tears p down: clears its open-file table without calling Close
/// on any of the files, reparents any children to -1
/// (orphans), wakes a waiting parent, and marks itself Zombie so the
/// scheduler never resumes its goroutine again (§4.9). It returns only
/// because the goroutine wrapper calls it as its last statement — from
/// the scheduler's perspective this process never runs again.
func Exit(p *Proc_t, status int) {
	for i := range p.Files {
		p.Files[i] = nil
	}

	tableMu.Lock()
	myIdx := Idx(p)
	for i := range table {
		q := &table[i]
		q.Lock()
		if q.State != Unused && q.ParentIdx == myIdx {
			q.ParentIdx = -1
		}
		q.Unlock()
	}
	tableMu.Unlock()

	p.Lock()
	p.State = Zombie
	p.ExitStatus = status
	parentIdx := p.ParentIdx
	p.Unlock()

	if parentIdx >= 0 {
		Wakeup(&table[parentIdx])
	}

	Sched(p)
}

/// Wait blocks until one of p's children exits, reaps it, and returns
/// its pid and status. It returns -1 if p has no children at all.
func Wait(p *Proc_t) (int, int, defs.Err_t) {
	myIdx := Idx(p)
	for {
		tableMu.Lock()
		haveChild := false
		for i := range table {
			q := &table[i]
			q.Lock()
			if q.State == Unused || q.ParentIdx != myIdx {
				q.Unlock()
				continue
			}
			haveChild = true
			if q.State == Zombie {
				pid, status := q.Pid, q.ExitStatus
				root := q.Vm.Root
				q.State = Unused
				q.ParentIdx = -1
				q.Unlock()
				tableMu.Unlock()
				vm.DestroyTable(mem.Physmem, root)
				return pid, status, 0
			}
			q.Unlock()
		}

		if !haveChild {
			tableMu.Unlock()
			return -1, 0, defs.ECHILD
		}

		// Sleep releases tableMu and reacquires it on wake, so a Wakeup
		// fired by a child's Exit between our scan and blocking here is
		// never lost — the same discipline the filesystem log uses.
		Sleep(p, &tableMu)
		tableMu.Unlock()
	}
}

/// Kill marks the process owning pid for death: if it is Sleeping it is
/// moved to Runnable so it observes the Killed flag and can unwind on
/// its own, per §4.9.
func Kill(pid int) defs.Err_t {
	p := ByPid(pid)
	if p == nil {
		return defs.ESRCH
	}
	p.Lock()
	p.Killed = true
	if p.State == Sleeping {
		p.State = Runnable
		p.waitTime = 0
	}
	p.Unlock()
	return 0
}

/// Killed reports whether p has been marked for death.
func Killed(p *Proc_t) bool {
	p.Lock()
	defer p.Unlock()
	return p.Killed
}
