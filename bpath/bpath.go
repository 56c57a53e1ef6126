// Package bpath canonicalizes paths built from a process's current
// working directory plus a relative path component, the way
// fd.Cwd_t.Canonicalpath needs: collapsing "." and ".." elements and
// repeated slashes into a single absolute path before namei ever sees
// it. namei itself never needs to special-case ".." against the
// filesystem root this way — the path arriving at namei is already
// normalized.
package bpath

import "ustr"

// Canonicalize rewrites p (assumed absolute — the caller has already
// joined it against a cwd) into a normalized absolute path: "." is
// dropped, ".." pops the previous retained component, and repeated or
// trailing slashes disappear. The result always begins with "/".
func Canonicalize(p ustr.Ustr) ustr.Ustr {
	comps := p.Components()
	stack := make([]ustr.Ustr, 0, len(comps))
	for _, c := range comps {
		switch {
		case c.Isdot():
			// no-op
		case c.Isdotdot():
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, c)
		}
	}
	out := ustr.Ustr{'/'}
	for i, c := range stack {
		if i > 0 {
			out = append(out, '/')
		}
		out = append(out, c...)
	}
	return out
}
