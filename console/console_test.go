package console

import (
	"testing"

	"fdops"
	"vm"
)

func TestConsoleWriteReachesUart(t *testing.T) {
	uart := MkSimUart()
	c := MkConsole(uart, 64)

	if _, err := c.Write(vm.MkUbuf([]byte("hi"))); err != 0 {
		t.Fatalf("Write failed: %v", err)
	}
	if string(uart.Output()) != "hi" {
		t.Fatalf("uart output = %q, want %q", uart.Output(), "hi")
	}
}

func TestConsoleFeedThenReadDrainsRingBuffer(t *testing.T) {
	uart := MkSimUart()
	c := MkConsole(uart, 64)

	c.Feed('a')
	c.Feed('b')
	c.Feed('c')

	dst := make([]byte, 8)
	n, err := c.Read(vm.MkUbuf(dst))
	if err != 0 {
		t.Fatalf("Read failed: %v", err)
	}
	if string(dst[:n]) != "abc" {
		t.Fatalf("Read = %q, want %q", dst[:n], "abc")
	}

	n2, err := c.Read(vm.MkUbuf(dst))
	if err != 0 || n2 != 0 {
		t.Fatalf("Read after drain = (%d, %v), want (0, 0)", n2, err)
	}
}

func TestConsolePollReflectsPendingInput(t *testing.T) {
	uart := MkSimUart()
	c := MkConsole(uart, 64)

	pm := fdops.Pollmsg_t{Events: fdops.R_READ}
	ready, err := c.Poll(pm)
	if err != 0 {
		t.Fatalf("Poll failed: %v", err)
	}
	if ready != 0 {
		t.Fatalf("Poll on an empty console reported ready = %#x, want 0", ready)
	}

	c.Feed('x')
	ready, err = c.Poll(pm)
	if err != 0 {
		t.Fatalf("Poll failed: %v", err)
	}
	if ready == 0 {
		t.Fatal("Poll did not report read-readiness after Feed")
	}
}
