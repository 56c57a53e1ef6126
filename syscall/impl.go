package syscall

import (
	"proc"
	"vm"

	"defs"
)

// Every handler below reads its arguments out of p.TF via the Arg*
// helpers and returns the value to install in a0 — either a
// non-negative result or a negative defs.Err_t, exactly the convention
// defs.Err_t itself documents.

func sysExit(p *proc.Proc_t) int64 {
	status := int(ArgInt(&p.TF, 0))
	proc.Exit(p, status)
	return 0 // unreachable: Exit's Sched(p) never returns to a live goroutine
}

func sysGetpid(p *proc.Proc_t) int64 {
	return int64(p.Pid)
}

// sysFork spawns a child via proc.Fork. This hosted kernel gives every
// process only the shared kernel mapping (§9, Non-goals: no user
// address space), so there are no private data pages to duplicate —
// the pages argument is always empty, and the child resumes at the
// same entry point as its parent, since there is no saved register
// file to replay instead.
func sysFork(p *proc.Proc_t) int64 {
	child, err := proc.Fork(p, p.Entry(), nil)
	if err != 0 {
		return int64(err)
	}
	return int64(child.Pid)
}

// sysWait reaps one exited child. There is no user pointer to write
// the exit status through (§9, Non-goals), so it is returned in a1
// rather than via an out-argument the way a hosted port with real user
// memory would do it.
func sysWait(p *proc.Proc_t) int64 {
	pid, status, err := proc.Wait(p)
	if err != 0 {
		return int64(err)
	}
	p.TF.A[1] = uint64(int64(status))
	return int64(pid)
}

func sysRead(p *proc.Proc_t) int64 {
	fdn, err := ArgFd(p, &p.TF, 0)
	if err != 0 {
		return int64(err)
	}
	buf := ArgBuf(&p.TF)
	n, err := p.Files[fdn].Fops.Read(vm.MkUbuf(buf))
	if err != 0 {
		return int64(err)
	}
	return int64(n)
}

func sysWrite(p *proc.Proc_t) int64 {
	fdn, err := ArgFd(p, &p.TF, 0)
	if err != 0 {
		return int64(err)
	}
	buf := ArgBuf(&p.TF)
	n, err := p.Files[fdn].Fops.Write(vm.MkUbuf(buf))
	if err != 0 {
		return int64(err)
	}
	return int64(n)
}

func sysOpen(p *proc.Proc_t) int64 {
	path, err := ArgStr(&p.TF)
	if err != 0 {
		return int64(err)
	}
	flags := int(ArgInt(&p.TF, 1))
	mode := int(ArgInt(&p.TF, 2))

	full := p.Cwd.Canonicalpath(path)
	fdt, err := theFS.Fs_open(full, flags, mode)
	if err != 0 {
		return int64(err)
	}

	slot, err := allocFdSlot(p)
	if err != 0 {
		fdt.Fops.Close()
		return int64(err)
	}
	p.Files[slot] = fdt
	return int64(slot)
}

func sysClose(p *proc.Proc_t) int64 {
	fdn, err := ArgFd(p, &p.TF, 0)
	if err != 0 {
		return int64(err)
	}
	fdt := p.Files[fdn]
	p.Files[fdn] = nil
	if err := fdt.Fops.Close(); err != 0 {
		return int64(err)
	}
	return 0
}

func sysKill(p *proc.Proc_t) int64 {
	pid := int(ArgInt(&p.TF, 0))
	return int64(proc.Kill(pid))
}

func sysUnlink(p *proc.Proc_t) int64 {
	path, err := ArgStr(&p.TF)
	if err != 0 {
		return int64(err)
	}
	full := p.Cwd.Canonicalpath(path)
	return int64(theFS.Fs_unlink(full))
}

func sysMkdir(p *proc.Proc_t) int64 {
	path, err := ArgStr(&p.TF)
	if err != 0 {
		return int64(err)
	}
	mode := int(ArgInt(&p.TF, 1))
	full := p.Cwd.Canonicalpath(path)
	return int64(theFS.Fs_mkdir(full, mode))
}

func sysSetpriority(p *proc.Proc_t) int64 {
	prio := int(ArgInt(&p.TF, 0))
	p.Lock()
	p.Priority = prio
	p.Unlock()
	return 0
}

func sysGetpriority(p *proc.Proc_t) int64 {
	p.Lock()
	defer p.Unlock()
	return int64(p.Priority)
}

// allocFdSlot finds the lowest free descriptor index in p's table.
func allocFdSlot(p *proc.Proc_t) (int, defs.Err_t) {
	for i := range p.Files {
		if p.Files[i] == nil {
			return i, 0
		}
	}
	return 0, defs.EMFILE
}
