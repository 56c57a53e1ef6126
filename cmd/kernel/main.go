// Command kernel boots the hosted demo kernel: it formats an in-memory
// disk, mounts it, spawns an init process that exercises the
// filesystem and scheduler, and runs until init exits — standing in
// for the teacher kernel's own main.go, which does the equivalent over
// real hardware discovered from a device tree (§9, Non-goals).
package main

import (
	"fmt"
	"os"
	"time"

	"console"
	"defs"
	"diskdrv"
	"fs"
	"kernel"
	"proc"
	"ustr"
	"vm"
)

const (
	memBytes  = 16 << 20 // 16 MiB of simulated physical RAM
	diskBlocks = 4096
)

func main() {
	disk := diskdrv.MkMemDisk(diskBlocks)
	sb := fs.Mkfs(diskBlocks, 64, 32, diskBlocks-64-32-2)
	fs.FormatDisk(disk, sb)

	backing := make([]byte, memBytes)
	base := uintptr(1)
	kl := vm.KernelLayout_t{
		Kernbase: base,
		Etext:    base,
		Phystop:  base + uintptr(len(backing)),
	}

	fsys, cons, err := kernel.Boot(kernel.Config{
		MemStart:     base,
		MemEnd:       base + uintptr(len(backing)),
		KernelLayout: kl,
		Disk:         disk,
		Uart:         console.MkSimUart(),
	})
	if err != 0 {
		fmt.Fprintln(os.Stderr, "boot failed:", err)
		os.Exit(1)
	}

	initp, err := kernel.SpawnInit(fsys, cons, func() { runDemo(fsys) })
	if err != 0 {
		fmt.Fprintln(os.Stderr, "spawning init failed:", err)
		os.Exit(1)
	}

	go proc.Run()
	waitForExit(initp)

	fs.StopFS(fsys)
}

// waitForExit polls initp's state until it reaches Zombie. main runs
// outside the scheduler (it is not itself a Proc_t the way every other
// goroutine in this demo is), so it cannot use proc.Sleep/Wakeup's
// scheduled-process path the way Wait does internally; a short poll is
// the standalone equivalent for this one-off demo harness.
func waitForExit(p *proc.Proc_t) {
	for {
		p.Lock()
		st := p.State
		p.Unlock()
		if st == proc.Zombie {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// runDemo is init's entry point: it exercises mkdir/open/write/close
// through the syscall-free direct fs API, then exits — a smoke test
// for the whole boot sequence rather than a real shell.
func runDemo(fsys *fs.Fs_t) {
	fsys.Fs_mkdir(ustr.Ustr("/tmp"), 0755)
	fdt, err := fsys.Fs_open(ustr.Ustr("/tmp/hello"), defs.O_CREAT|defs.O_WRONLY, 0644)
	if err == 0 {
		fdt.Fops.Write(vm.MkUbuf([]byte("hello from init\n")))
		fdt.Fops.Close()
	}
	proc.Exit(proc.CurrentProc(), 0)
}
