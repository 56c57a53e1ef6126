package fs

import (
	"bounds"
	"defs"
	"ustr"
	"util"
)

// A directory's data blocks are a flat array of fixed-size dirents:
// a 2-byte inode number followed by a bounds.DIRSIZ-byte name, NUL
// padded. An inum of 0 marks a free slot, reused by future Dirlink
// calls before the directory is ever extended (C5, §4.5).
const direntSize = 2 + bounds.DIRSIZ

func directInum(data []byte) int   { return util.Readn(data, 2, 0) }
func direntName(data []byte) ustr.Ustr {
	raw := data[2 : 2+bounds.DIRSIZ]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return ustr.Ustr(raw[:n])
}

func writeDirent(data []byte, inum int, name ustr.Ustr) {
	util.Writen(data, 2, 0, inum)
	raw := data[2 : 2+bounds.DIRSIZ]
	for i := range raw {
		raw[i] = 0
	}
	copy(raw, name)
}

/// Dirlookup scans directory ip for name, returning the child's inode
/// number and its byte offset within the directory's data (the offset
/// lets Unlink overwrite that slot's inum with 0 in place).
func (fs *Fs_t) Dirlookup(ip *Inode_t, name ustr.Ustr) (int, int, defs.Err_t) {
	if ip.Type != defs.I_DIR {
		return 0, 0, defs.ENOTDIR
	}
	if len(name) > bounds.DIRSIZ {
		return 0, 0, defs.ENAMETOOLONG
	}

	for off := 0; off+direntSize <= ip.Size; off += direntSize {
		var ent [direntSize]byte
		if _, err := fs.Readi(ip, ent[:], off); err != 0 {
			return 0, 0, err
		}
		inum := directInum(ent[:])
		if inum == 0 {
			continue
		}
		if direntName(ent[:]).Eq(name) {
			return inum, off, 0
		}
	}
	return 0, 0, defs.ENOENT
}

/// Dirlink adds a {name, inum} entry to directory ip, reusing the first
/// free slot if one exists, otherwise extending the directory by one
/// dirent. Returns EEXIST if name is already present.
func (fs *Fs_t) Dirlink(ip *Inode_t, name ustr.Ustr, inum int) defs.Err_t {
	if ip.Type != defs.I_DIR {
		return defs.ENOTDIR
	}
	if len(name) > bounds.DIRSIZ {
		return defs.ENAMETOOLONG
	}
	if _, _, err := fs.Dirlookup(ip, name); err == 0 {
		return defs.EEXIST
	}

	off := 0
	for ; off+direntSize <= ip.Size; off += direntSize {
		var ent [direntSize]byte
		if _, err := fs.Readi(ip, ent[:], off); err != 0 {
			return err
		}
		if directInum(ent[:]) == 0 {
			break
		}
	}

	var ent [direntSize]byte
	writeDirent(ent[:], inum, name)
	_, err := fs.Writei(ip, ent[:], off)
	return err
}

/// Dirunlink clears the dirent at byte offset off within directory ip
/// (obtained from a prior Dirlookup), leaving a hole future Dirlinks may
/// reuse.
func (fs *Fs_t) Dirunlink(ip *Inode_t, off int) defs.Err_t {
	var ent [direntSize]byte
	_, err := fs.Writei(ip, ent[:], off)
	return err
}

/// Dirempty reports whether directory ip has no entries besides "."
/// and "..", the precondition §4.5 imposes on rmdir.
func (fs *Fs_t) Dirempty(ip *Inode_t) (bool, defs.Err_t) {
	for off := 0; off+direntSize <= ip.Size; off += direntSize {
		var ent [direntSize]byte
		if _, err := fs.Readi(ip, ent[:], off); err != 0 {
			return false, err
		}
		inum := directInum(ent[:])
		if inum == 0 {
			continue
		}
		name := direntName(ent[:])
		if !name.Isdot() && !name.Isdotdot() {
			return false, 0
		}
	}
	return true, 0
}
