// Package bounds centralizes the compile-time tunables that size every
// fixed-capacity kernel table: the process table, the open-file table,
// the block cache pool, the log, and the on-disk inode/direct-block
// layout. Keeping them in one package means a single edit resizes every
// table consistently, the way the teacher kernel's link-script symbols
// size the image.
package bounds

// NPROC is the number of slots in the process table.
const NPROC = 64

// NOFILE is the number of descriptor slots per process.
const NOFILE = 16

// NBUF is the number of buffers in the block cache pool.
const NBUF = 64

// NDIRECT is the number of direct block pointers in an on-disk inode.
const NDIRECT = 11

// NINDIRECT is the number of block numbers held in one indirect block
// (BSIZE / sizeof(uint32)).
const NINDIRECT = 4096 / 4

// MAXFILE is the largest file size expressible with NDIRECT direct
// blocks plus one indirect block, in blocks.
const MAXFILE = NDIRECT + NINDIRECT

// DIRSIZ is the maximum length of one path component / directory entry
// name.
const DIRSIZ = 14

// LOGSIZE is the number of blocks reserved for the journal, including
// its header block.
const LOGSIZE = 30

// MAXOPBLOCKS is the maximum number of distinct blocks one filesystem
// operation may log.
const MAXOPBLOCKS = 10

// MAXCONCURRENTOPS bounds how many begin_op/end_op transactions may be
// outstanding at once; MAXOPBLOCKS*MAXCONCURRENTOPS must not exceed
// LOGSIZE-1 (slot 0 is the header).
const MAXCONCURRENTOPS = 2

// AGINGTHRESHOLD is the number of aging sweeps (one every AGINGPERIOD
// scheduler rounds) a runnable process may wait before its priority is
// boosted.
const AGINGTHRESHOLD = 30

// AGINGBOOST is the amount added to a starved process's priority.
const AGINGBOOST = 1

// AGINGPERIOD is how many scheduler loop iterations elapse between
// aging sweeps.
const AGINGPERIOD = 8

// MAXPRIO is the highest priority value a process may reach through
// aging.
const MAXPRIO = 31
