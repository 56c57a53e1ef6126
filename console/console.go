// Package console implements the D_CONSOLE device (§6): a small
// circbuf-backed line buffer sitting above a raw Uart_i putc/getc pair,
// grounded on the teacher kernel's ufs/driver.go console_t stub (there
// just enough of a shape to satisfy fdops during hosted tests) expanded
// into a real fdops.Fdops_i implementation, since this spec gives the
// console actual read/write semantics rather than discarding input.
package console

import (
	"sync"

	"circbuf"
	"defs"
	"fdops"
	"stat"
)

/// Uart_i is the raw byte-at-a-time hardware collaborator (§6): a real
/// port implements this against the UART MMIO registers vm.as.go maps;
/// tests implement it against an in-memory loopback.
type Uart_i interface {
	Putc(b byte)
	Getc() (byte, bool) // false if no byte is pending
}

/// Console_t is the console device: an input ring buffer fed by an
/// interrupt-like Feed call, and direct passthrough writes to the UART.
type Console_t struct {
	mu   sync.Mutex
	uart Uart_i
	in   *circbuf.Circbuf_t
}

var _ fdops.Fdops_i = (*Console_t)(nil)

/// MkConsole wires a Console_t to uart with an inbound ring buffer of
/// bufsz bytes.
func MkConsole(uart Uart_i, bufsz int) *Console_t {
	return &Console_t{uart: uart, in: circbuf.MkCircbuf(bufsz)}
}

/// Feed delivers one input byte to the console's ring buffer — the
/// hosted stand-in for a UART receive interrupt, called by whatever
/// drives Uart_i in a given port.
func (c *Console_t) Feed(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.Putb(b)
}

func (c *Console_t) Read(dst fdops.Userio_i) (int, defs.Err_t) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := dst.Remain()
	buf := make([]byte, n)
	got := c.in.Read(buf)
	if got == 0 {
		return 0, 0
	}
	wrote, err := dst.Uiowrite(buf[:got])
	return wrote, err
}

func (c *Console_t) Write(src fdops.Userio_i) (int, defs.Err_t) {
	n := src.Remain()
	buf := make([]byte, n)
	got, err := src.Uioread(buf)
	if err != 0 {
		return 0, err
	}
	for _, b := range buf[:got] {
		c.uart.Putc(b)
	}
	return got, 0
}

func (c *Console_t) Fstat(st *stat.Stat_t) defs.Err_t {
	st.Wmode(uint(defs.I_DEV))
	st.Wrdev(defs.Mkdev(defs.D_CONSOLE, 0))
	return 0
}

func (c *Console_t) Lseek(off int, whence int) (int, defs.Err_t) {
	return 0, defs.EINVAL
}

func (c *Console_t) Close() defs.Err_t  { return 0 }
func (c *Console_t) Reopen() defs.Err_t { return 0 }

func (c *Console_t) Poll(pm fdops.Pollmsg_t) (fdops.Ready_t, defs.Err_t) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ready fdops.Ready_t
	if pm.Events&fdops.R_READ != 0 && c.in.Len() > 0 {
		ready |= fdops.R_READ
	}
	if pm.Events&fdops.R_WRITE != 0 {
		ready |= fdops.R_WRITE
	}
	return ready, 0
}
