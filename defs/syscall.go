package defs

// Syscall numbers. Stable across runs per §6: user programs (or, in
// this hosted kernel, test harnesses) compile/call against these
// values directly.
const (
	SYS_EXIT        = 1
	SYS_GETPID      = 2
	SYS_FORK        = 3
	SYS_WAIT        = 4
	SYS_READ        = 5
	SYS_WRITE       = 6
	SYS_OPEN        = 7
	SYS_CLOSE       = 8
	SYS_EXEC        = 9
	SYS_SBRK        = 10
	SYS_KILL        = 11
	SYS_UNLINK      = 12
	SYS_MKDIR       = 13
	SYS_SETPRIORITY = 14
	SYS_GETPRIORITY = 15
)

// Open-flag bitfield (§6). RDONLY/WRONLY/RDWR are mutually exclusive
// low bits; CREATE and TRUNC compose with any of them.
const (
	O_RDONLY = 0
	O_WRONLY = 1
	O_RDWR   = 2
	O_CREAT  = 0x200
	O_TRUNC  = 0x400
)

// Lseek whence values, used by fd.Fd_t.Lseek.
const (
	SEEK_SET = 0
	SEEK_CUR = 1
	SEEK_END = 2
)

// Inode types, stored in the on-disk inode's Type field.
const (
	I_FREE   = 0
	I_DIR    = 1
	I_FILE   = 2
	I_DEV    = 3
)
