package fs

import (
	"testing"

	"defs"
	"ustr"
)

func TestNameiResolvesNestedPath(t *testing.T) {
	fsys := freshMountedFS(t, 64)

	if err := fsys.Fs_mkdir(ustr.Ustr("/a"), 0755); err != 0 {
		t.Fatalf("Fs_mkdir /a failed: %v", err)
	}
	if err := fsys.Fs_mkdir(ustr.Ustr("/a/b"), 0755); err != 0 {
		t.Fatalf("Fs_mkdir /a/b failed: %v", err)
	}
	fdt, err := fsys.Fs_open(ustr.Ustr("/a/b/leaf"), defs.O_CREAT|defs.O_WRONLY, 0644)
	if err != 0 {
		t.Fatalf("Fs_open /a/b/leaf failed: %v", err)
	}
	fdt.Fops.Close()

	ip, err := fsys.Namei(ustr.Ustr("/a/b/leaf"))
	if err != 0 {
		t.Fatalf("Namei /a/b/leaf failed: %v", err)
	}
	fsys.Iput(ip)
}

func TestNameiMissingComponentReturnsENOENT(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	if _, err := fsys.Namei(ustr.Ustr("/nope")); err != defs.ENOENT {
		t.Fatalf("Namei on a missing path = %v, want ENOENT", err)
	}
}

func TestNameiThroughNonDirectoryReturnsENOTDIR(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	fdt, err := fsys.Fs_open(ustr.Ustr("/plain"), defs.O_CREAT|defs.O_WRONLY, 0644)
	if err != 0 {
		t.Fatalf("Fs_open failed: %v", err)
	}
	fdt.Fops.Close()

	if _, err := fsys.Namei(ustr.Ustr("/plain/child")); err != defs.ENOTDIR {
		t.Fatalf("Namei through a file = %v, want ENOTDIR", err)
	}
}

func TestNameiparentSplitsLastComponent(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	fsys.Fs_mkdir(ustr.Ustr("/dir"), 0755)

	dir, name, err := fsys.Nameiparent(ustr.Ustr("/dir/newname"))
	if err != 0 {
		t.Fatalf("Nameiparent failed: %v", err)
	}
	defer fsys.Iput(dir)
	if !name.Eq(ustr.Ustr("newname")) {
		t.Fatalf("Nameiparent name = %q, want %q", name, "newname")
	}
}
