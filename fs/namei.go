package fs

import (
	"defs"
	"ustr"
)

// Namei and Nameiparent walk a canonical path one component at a time
// from the filesystem root, locking and unlocking each intermediate
// directory in turn so no two path lookups can deadlock against each
// other by acquiring inode locks in different orders (C5, §4.5). The
// caller is always responsible for Iput'ing whatever these return.

/// Namei resolves path (already canonicalized by fd.Cwd_t.Canonicalpath)
/// to its inode, or ENOENT if any component is missing.
func (fs *Fs_t) Namei(path ustr.Ustr) (*Inode_t, defs.Err_t) {
	ip := fs.Idup(fs.Root)
	comps := path.Components()
	for _, c := range comps {
		fs.Ilock(ip)
		if ip.Type != defs.I_DIR {
			fs.Iunlock(ip)
			fs.Iput(ip)
			return nil, defs.ENOTDIR
		}
		inum, _, err := fs.Dirlookup(ip, c)
		fs.Iunlock(ip)
		if err != 0 {
			fs.Iput(ip)
			return nil, err
		}
		next, err := fs.Iget(inum)
		fs.Iput(ip)
		if err != 0 {
			return nil, err
		}
		ip = next
	}
	return ip, 0
}

/// Nameiparent resolves all but the last component of path, returning
/// the parent directory's inode and the final component's name —
/// exactly what Create, Unlink, and Mkdir need: a locked-free handle on
/// the directory they are about to modify, plus the name to add or
/// remove.
func (fs *Fs_t) Nameiparent(path ustr.Ustr) (*Inode_t, ustr.Ustr, defs.Err_t) {
	comps := path.Components()
	if len(comps) == 0 {
		return nil, nil, defs.EINVAL
	}
	last := comps[len(comps)-1]

	ip := fs.Idup(fs.Root)
	for _, c := range comps[:len(comps)-1] {
		fs.Ilock(ip)
		if ip.Type != defs.I_DIR {
			fs.Iunlock(ip)
			fs.Iput(ip)
			return nil, nil, defs.ENOTDIR
		}
		inum, _, err := fs.Dirlookup(ip, c)
		fs.Iunlock(ip)
		if err != 0 {
			fs.Iput(ip)
			return nil, nil, err
		}
		next, err := fs.Iget(inum)
		fs.Iput(ip)
		if err != 0 {
			return nil, nil, err
		}
		ip = next
	}
	return ip, last, 0
}
