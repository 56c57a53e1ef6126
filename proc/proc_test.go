package proc

import (
	"os"
	"sync"
	"testing"
	"time"

	"bounds"
	"defs"
)

// TestMain starts exactly one scheduler loop for the whole package: Run
// never returns, so every test shares it rather than each spinning up
// its own (two concurrent Run loops would race pickNext against each
// other over the same global table).
func TestMain(m *testing.M) {
	go Run()
	os.Exit(m.Run())
}

func waitState(t *testing.T, p *Proc_t, want State_t, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p.Lock()
		st := p.State
		p.Unlock()
		if st == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("process %d never reached state %v", p.Pid, want)
}

func TestCreateRunExit(t *testing.T) {
	var ran sync.WaitGroup
	ran.Add(1)
	p, err := CreateProcess(func() { ran.Done() }, "exit-demo", 10)
	if err != 0 {
		t.Fatalf("CreateProcess failed: %v", err)
	}
	ran.Wait()
	waitState(t, p, Zombie, time.Second)
}

func TestForkAndWaitReaps(t *testing.T) {
	childStarted := make(chan struct{})
	type result struct{ pid, status int }
	results := make(chan result, 1)

	parentEntry := func() {
		parent := CurrentProc()
		child, err := Fork(parent, func() { close(childStarted) }, nil)
		if err != 0 {
			t.Errorf("Fork failed: %v", err)
			Exit(parent, 1)
			return
		}
		pid, status, werr := Wait(parent)
		if werr != 0 {
			t.Errorf("Wait failed: %v", werr)
		}
		if pid != child.Pid {
			t.Errorf("Wait returned pid %d, want %d", pid, child.Pid)
		}
		results <- result{pid, status}
		Exit(parent, 0)
	}

	parent, err := CreateProcess(parentEntry, "fork-parent", 10)
	if err != 0 {
		t.Fatalf("CreateProcess failed: %v", err)
	}

	select {
	case <-childStarted:
	case <-time.After(time.Second):
		t.Fatal("child never started")
	}

	select {
	case r := <-results:
		if r.status != 0 {
			t.Errorf("reaped status = %d, want 0", r.status)
		}
	case <-time.After(time.Second):
		t.Fatal("parent never reaped its child")
	}
	waitState(t, parent, Zombie, time.Second)
}

func TestWaitWithNoChildrenReturnsECHILD(t *testing.T) {
	done := make(chan defs.Err_t, 1)
	entry := func() {
		p := CurrentProc()
		_, _, err := Wait(p)
		done <- err
		Exit(p, 0)
	}
	p, cerr := CreateProcess(entry, "childless", 10)
	if cerr != 0 {
		t.Fatalf("CreateProcess failed: %v", cerr)
	}
	select {
	case err := <-done:
		if err != defs.ECHILD {
			t.Errorf("Wait err = %v, want ECHILD", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait never returned")
	}
	waitState(t, p, Zombie, time.Second)
}

// TestAgingBoostsStarvedPriority pits a high-priority process that
// never blocks against a low-priority one: pickNext's strict
// highest-priority-first rule means the low-priority process is never
// selected to run at all, so it sits Runnable long enough for repeated
// aging sweeps to cross bounds.AGINGTHRESHOLD and boost it.
func TestAgingBoostsStarvedPriority(t *testing.T) {
	stop := make(chan struct{})
	_, err := CreateProcess(func() {
		me := CurrentProc()
		for {
			select {
			case <-stop:
				return
			default:
				Yield(me)
			}
		}
	}, "aging-hog", 10)
	if err != 0 {
		t.Fatalf("CreateProcess failed: %v", err)
	}
	defer close(stop)

	starved, err := CreateProcess(func() {}, "aging-starved", 1)
	if err != 0 {
		t.Fatalf("CreateProcess failed: %v", err)
	}

	for i := 0; i < bounds.AGINGTHRESHOLD*bounds.AGINGPERIOD; i++ {
		agingSweep()
	}

	starved.Lock()
	prio := starved.Priority
	starved.Unlock()
	if prio <= 1 {
		t.Fatalf("starved process priority = %d, want > 1 after repeated aging sweeps", prio)
	}
}

func TestAgingSkipsSleepingProcesses(t *testing.T) {
	block := new(int)
	var mu sync.Mutex

	p, err := CreateProcess(func() {
		me := CurrentProc()
		mu.Lock()
		Sleep(block, &mu)
		mu.Unlock()
		_ = me
	}, "aging-sleeper", 5)
	if err != 0 {
		t.Fatalf("CreateProcess failed: %v", err)
	}
	waitState(t, p, Sleeping, time.Second)

	p.Lock()
	startPrio := p.Priority
	p.Unlock()

	for i := 0; i < bounds.AGINGTHRESHOLD*2; i++ {
		agingSweep()
	}

	p.Lock()
	prio := p.Priority
	p.Unlock()
	if prio != startPrio {
		t.Fatalf("sleeping process priority changed from %d to %d; aging must only touch Runnable processes", startPrio, prio)
	}

	Wakeup(block)
	waitState(t, p, Zombie, time.Second)
}

func TestSleepWakeupStandalone(t *testing.T) {
	// CurrentProc() is nil here: this goroutine is not one Run
	// schedules, so Sleep/Wakeup must take the sync.Cond fallback path.
	var mu sync.Mutex
	ch := new(int)
	woke := make(chan struct{})

	go func() {
		mu.Lock()
		Sleep(ch, &mu)
		mu.Unlock()
		close(woke)
	}()

	time.Sleep(10 * time.Millisecond) // let the goroutine reach Sleep
	Wakeup(ch)

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("standalone Sleep never woke up")
	}
}
