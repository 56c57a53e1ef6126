package fs

import (
	"testing"

	"defs"
	"stat"
	"ustr"
	"vm"
)

func TestFileWriteReadLseek(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	fdt, err := fsys.Fs_open(ustr.Ustr("/f"), defs.O_CREAT|defs.O_RDWR, 0644)
	if err != 0 {
		t.Fatalf("Fs_open failed: %v", err)
	}
	defer fdt.Fops.Close()

	payload := []byte("0123456789")
	n, err := fdt.Fops.Write(vm.MkUbuf(payload))
	if err != 0 || n != len(payload) {
		t.Fatalf("Write = (%d, %v), want (%d, 0)", n, err, len(payload))
	}

	if _, err := fdt.Fops.Lseek(0, defs.SEEK_SET); err != 0 {
		t.Fatalf("Lseek failed: %v", err)
	}

	dst := make([]byte, len(payload))
	got, err := fdt.Fops.Read(vm.MkUbuf(dst))
	if err != 0 || got != len(payload) {
		t.Fatalf("Read = (%d, %v), want (%d, 0)", got, err, len(payload))
	}
	if string(dst) != string(payload) {
		t.Fatalf("Read = %q, want %q", dst, payload)
	}
}

func TestFileAppendIgnoresSeekPosition(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	fdt, err := fsys.Fs_open(ustr.Ustr("/f"), defs.O_CREAT|defs.O_WRONLY, 0644)
	if err != 0 {
		t.Fatalf("Fs_open failed: %v", err)
	}
	fdt.Fops.Write(vm.MkUbuf([]byte("abc")))
	fdt.Fops.Close()

	ip, err := fsys.Namei(ustr.Ustr("/f"))
	if err != 0 {
		t.Fatalf("Namei failed: %v", err)
	}
	appendFile := MkFile(fsys, ip, true)

	if _, err := appendFile.Write(vm.MkUbuf([]byte("def"))); err != 0 {
		t.Fatalf("append Write failed: %v", err)
	}
	appendFile.Close()

	fdt2, err := fsys.Fs_open(ustr.Ustr("/f"), 0, 0)
	if err != 0 {
		t.Fatalf("reopen failed: %v", err)
	}
	defer fdt2.Fops.Close()
	dst := make([]byte, 6)
	n, err := fdt2.Fops.Read(vm.MkUbuf(dst))
	if err != 0 || n != 6 || string(dst) != "abcdef" {
		t.Fatalf("Read after append = (%q, %d, %v), want (\"abcdef\", 6, 0)", dst, n, err)
	}
}

func TestFstatReportsInodeFields(t *testing.T) {
	fsys := freshMountedFS(t, 64)
	fdt, err := fsys.Fs_open(ustr.Ustr("/f"), defs.O_CREAT|defs.O_WRONLY, 0644)
	if err != 0 {
		t.Fatalf("Fs_open failed: %v", err)
	}
	defer fdt.Fops.Close()
	fdt.Fops.Write(vm.MkUbuf([]byte("xyz")))

	var st stat.Stat_t
	if err := fdt.Fops.Fstat(&st); err != 0 {
		t.Fatalf("Fstat failed: %v", err)
	}
	if st.Size() != 3 {
		t.Fatalf("Fstat size = %d, want 3", st.Size())
	}
	if st.Mode() != uint(defs.I_FILE) {
		t.Fatalf("Fstat mode = %d, want %d", st.Mode(), defs.I_FILE)
	}
}
