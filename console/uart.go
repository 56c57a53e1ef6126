package console

import "sync"

// SimUart_t is an in-memory loopback Uart_i for tests and for the demo
// kernel binary, standing in for a real 8250-style MMIO UART the way
// mem.Physmem stands in for real physical RAM (§0): there is no
// simulated hardware register file to bit-bang, only an output buffer
// that Putc appends to.
type SimUart_t struct {
	mu  sync.Mutex
	out []byte
}

var _ Uart_i = (*SimUart_t)(nil)

func MkSimUart() *SimUart_t { return &SimUart_t{} }

func (u *SimUart_t) Putc(b byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.out = append(u.out, b)
}

// Getc always reports nothing pending: a SimUart_t's "input" arrives
// through Console_t.Feed directly, not through the UART collaborator,
// since nothing in this hosted kernel emulates receive interrupts.
func (u *SimUart_t) Getc() (byte, bool) { return 0, false }

/// Output returns everything written so far, for tests to assert
/// against.
func (u *SimUart_t) Output() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]byte, len(u.out))
	copy(out, u.out)
	return out
}
