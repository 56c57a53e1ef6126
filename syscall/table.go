package syscall

import (
	"accnt"
	"defs"
	"fs"
	"proc"
)

// theFS is the single mounted filesystem every path-taking syscall
// resolves against (§9, Non-goals — one device, so there is no mount
// table to thread through every call). Init installs it once at boot,
// before proc.Run() starts handing out time slices.
var theFS *fs.Fs_t

/// Init installs fsys as the filesystem every syscall dispatches
/// against.
func Init(fsys *fs.Fs_t) {
	theFS = fsys
}

/// Dispatch decodes p.TF.A[7] as a syscall number and runs the matching
/// handler, leaving the result in p.TF.A[0] (§4.10). It is the only
/// entry point trap.Handle calls into for an ecall trap.
func Dispatch(p *proc.Proc_t) {
	start := accnt.Now()
	num := int(p.TF.A[7])

	var ret int64
	switch num {
	case defs.SYS_EXIT:
		ret = sysExit(p)
	case defs.SYS_GETPID:
		ret = sysGetpid(p)
	case defs.SYS_FORK:
		ret = sysFork(p)
	case defs.SYS_WAIT:
		ret = sysWait(p)
	case defs.SYS_READ:
		ret = sysRead(p)
	case defs.SYS_WRITE:
		ret = sysWrite(p)
	case defs.SYS_OPEN:
		ret = sysOpen(p)
	case defs.SYS_CLOSE:
		ret = sysClose(p)
	case defs.SYS_EXEC:
		ret = int64(defs.ENOSYS) // process-image loading is out of scope (§9 Non-goals)
	case defs.SYS_SBRK:
		ret = int64(defs.ENOSYS) // dynamic heap growth is out of scope (§9 Non-goals)
	case defs.SYS_KILL:
		ret = sysKill(p)
	case defs.SYS_UNLINK:
		ret = sysUnlink(p)
	case defs.SYS_MKDIR:
		ret = sysMkdir(p)
	case defs.SYS_SETPRIORITY:
		ret = sysSetpriority(p)
	case defs.SYS_GETPRIORITY:
		ret = sysGetpriority(p)
	default:
		ret = int64(defs.ENOSYS)
	}

	p.TF.A[0] = uint64(ret)
	p.Accnt.Systadd(accnt.Now() - start)
}
