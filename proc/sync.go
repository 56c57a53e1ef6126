package proc

import "sync"

// Sleep/Wakeup (C9, §4.9) follow the xv6 discipline exactly: the caller
// must check its own condition and call Sleep while still holding the
// lock guarding that condition, passing the same lock in so it can be
// released and reacquired atomically around the block — otherwise a
// Wakeup landing between the condition check and the block is lost.
//
// A process scheduled through Run() blocks by handing the baton back to
// the scheduler (its goroutine parks on its own resumec). A caller with
// no scheduler behind it at all — mkfs, or a package test calling fs
// directly — still needs Sleep/Wakeup to work, so that path parks the
// calling goroutine on a condition variable keyed by the channel
// address instead.

var standMu sync.Mutex
var standConds = map[interface{}]*sync.Cond{}

func standCond(ch interface{}) *sync.Cond {
	if c, ok := standConds[ch]; ok {
		return c
	}
	c := sync.NewCond(&standMu)
	standConds[ch] = c
	return c
}

/// Sleep blocks the caller until some other code calls Wakeup(ch). lk
/// must be held on entry and is held again on return; it is released
/// while blocked.
func Sleep(ch interface{}, lk sync.Locker) {
	p := CurrentProc()
	if p == nil {
		standMu.Lock()
		c := standCond(ch)
		lk.Unlock()
		c.Wait()
		standMu.Unlock()
		lk.Lock()
		return
	}

	p.Lock()
	p.Chan = ch
	p.State = Sleeping
	p.Unlock()

	lk.Unlock()
	Sched(p)
	lk.Lock()
}

/// Wakeup moves every process sleeping on ch to Runnable, and releases
/// any standalone (non-scheduled) goroutine blocked on the same
/// channel. It is harmless to call with nobody waiting.
func Wakeup(ch interface{}) {
	tableMu.Lock()
	for i := range table {
		q := &table[i]
		q.Lock()
		if q.State == Sleeping && q.Chan == ch {
			q.State = Runnable
			q.waitTime = 0
		}
		q.Unlock()
	}
	tableMu.Unlock()

	standMu.Lock()
	if c, ok := standConds[ch]; ok {
		c.Broadcast()
	}
	standMu.Unlock()
}
