// Package kernel wires the other packages together into a bootable
// (hosted) kernel: diag.go carries the console-backed logging split the
// original_source tooling has but spec.md's distillation never named
// (a Printf that degrades gracefully with no console attached yet, and
// a Panic that always halts), and boot.go sequences C1 through C6's
// initialization the way the teacher kernel's own main.go does.
package kernel

import (
	"fmt"
	"os"
)

// diagConsole is where Printf writes once a real console device is
// attached; nil (the zero value) routes to os.Stdout instead, so
// diagnostics during early boot — before StartFS and MkConsole run —
// are never silently dropped.
var diagConsole writer

type writer interface {
	Write(p []byte) (int, error)
}

/// AttachConsole points subsequent Printf output at w (normally a
/// console.Console_t's underlying Uart_i, wrapped to satisfy io.Writer).
func AttachConsole(w writer) {
	diagConsole = w
}

/// Printf is the kernel's ordinary diagnostic log, matching the
/// teacher's own log.Printf/Cprintf split: routed at the attached
/// console once boot has gotten that far, os.Stdout before then.
func Printf(format string, args ...interface{}) {
	if diagConsole != nil {
		fmt.Fprintf(diagConsole, format, args...)
		return
	}
	fmt.Fprintf(os.Stdout, format, args...)
}

/// Panic reports a fatal, unrecoverable kernel error and halts the
/// process. trap.Handle's handleFatal calls through to this same Panic
/// on a fatal scause (§4.7) — this teaching kernel has no
/// user/supervisor boundary (§9, Non-goals) for a faulting process to
/// die behind instead, so an illegal instruction or page fault is just
/// as fatal to the kernel as an invariant violation in kernel code
/// itself.
func Panic(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "kernel panic: "+format+"\n", args...)
	os.Exit(1)
}
