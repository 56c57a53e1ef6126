package kernel

import (
	"console"
	"defs"
	"fd"
	"fs"
	"mem"
	"proc"
	"syscall"
	"vm"
)

/// Config gathers everything Boot needs from the port-specific main
/// (cmd/kernel): the memory region to hand to the frame allocator, the
/// disk to mount, and the UART to wire the console device to. A real
/// port discovers these from a device tree (§9, Non-goals); the hosted
/// demo binary just supplies them directly.
type Config struct {
	MemStart, MemEnd uintptr
	KernelLayout     vm.KernelLayout_t
	Disk             fs.Disk_i
	Uart             console.Uart_i
}

/// Boot brings up C1 through C6 in the order real boot firmware would
/// hand control down through them (§2): the frame allocator first
/// (everything else needs pages), then the shared kernel address-space
/// layout every process will carry, then the filesystem and its log
/// (replaying any pending transaction before anything else touches
/// disk), then the console device and the syscall dispatcher's
/// filesystem handle. It does not start the scheduler — callers spawn
/// an init process and call proc.Run() themselves, the same way the
/// teacher kernel's main() creates its first process before falling
/// into its scheduler loop.
func Boot(cfg Config) (*fs.Fs_t, *console.Console_t, defs.Err_t) {
	mem.Physmem.Init(cfg.MemStart, cfg.MemEnd)
	proc.KernelLayout = cfg.KernelLayout

	fsys, err := fs.StartFS(cfg.Disk)
	if err != 0 {
		return nil, nil, err
	}

	cons := console.MkConsole(cfg.Uart, 256)
	syscall.Init(fsys)

	return fsys, cons, 0
}

/// SpawnInit creates the first process: priority bounds.MAXPRIO/2 is
/// arbitrary and chosen only so the first aging sweep has somewhere to
/// go in either direction, and its descriptor table is seeded with the
/// console on fd 0/1/2 and a cwd rooted at "/", matching the teacher
/// kernel's own init process conventions.
func SpawnInit(fsys *fs.Fs_t, cons *console.Console_t, entry func()) (*proc.Proc_t, defs.Err_t) {
	p, err := proc.CreateProcess(entry, "init", 15)
	if err != 0 {
		return nil, err
	}

	consFd := &fd.Fd_t{Fops: cons, Perms: fd.FD_READ | fd.FD_WRITE}
	p.Files[0] = consFd
	if dup, err := fd.Copyfd(consFd); err == 0 {
		p.Files[1] = dup
	}
	if dup, err := fd.Copyfd(consFd); err == 0 {
		p.Files[2] = dup
	}

	p.Cwd = fd.MkRootCwd(fsys.MkRootFd())
	return p, 0
}
