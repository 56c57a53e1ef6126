// Command mkfs builds a formatted disk image from a YAML layout
// description and, optionally, copies a host directory tree into it —
// the hosted equivalent of the teacher kernel's own mkfs tool, which
// combines a bootloader/kernel image with a skeleton directory into one
// bootable disk image (biscuit/src/mkfs/mkfs.go). This port drops the
// bootloader/kernel-embedding step (§9, Non-goals: booting real
// hardware) and keeps the part that matters to this spec — laying out
// a volume and populating it before first boot.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"defs"
	"diskdrv"
	"fs"
	"ustr"
	"vm"
)

// Layout is the on-disk volume shape, read from a YAML file so a course
// can hand out differently-sized images without recompiling the tool.
type Layout struct {
	TotalBlocks int `yaml:"total_blocks"`
	LogBlocks   int `yaml:"log_blocks"`
	InodeBlocks int `yaml:"inode_blocks"`
	DataBlocks  int `yaml:"data_blocks"`
}

func defaultLayout() Layout {
	return Layout{TotalBlocks: 8192, LogBlocks: 64, InodeBlocks: 32, DataBlocks: 8000}
}

func loadLayout(path string) (Layout, error) {
	l := defaultLayout()
	if path == "" {
		return l, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("mkfs: parsing %s: %w", path, err)
	}
	return l, nil
}

func main() {
	var configPath, outPath, skelDir string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			configPath = args[i]
		case "-out":
			i++
			outPath = args[i]
		case "-skel":
			i++
			skelDir = args[i]
		default:
			fmt.Fprintf(os.Stderr, "mkfs: unrecognized argument %q\n", args[i])
			os.Exit(1)
		}
	}
	if outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: mkfs -out <image> [-config <layout.yaml>] [-skel <dir>]")
		os.Exit(1)
	}

	layout, err := loadLayout(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "mkfs:", err)
		os.Exit(1)
	}
	disk, err := diskdrv.OpenFileDisk(outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mkfs:", err)
		os.Exit(1)
	}

	sb := fs.Mkfs(layout.TotalBlocks, layout.LogBlocks, layout.InodeBlocks, layout.DataBlocks)
	fs.FormatDisk(disk, sb)

	fsys, ferr := fs.StartFS(disk)
	if ferr != 0 {
		fmt.Fprintf(os.Stderr, "mkfs: mounting fresh volume: %v\n", ferr)
		os.Exit(1)
	}

	if skelDir != "" {
		addfiles(fsys, skelDir)
	}

	fs.StopFS(fsys)
	if err := disk.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "mkfs:", err)
		os.Exit(1)
	}
}

// skelCopyConcurrency bounds how many regular files addfiles copies at
// once. It is deliberately set above bounds.MAXCONCURRENTOPS so a
// skeleton with more than a couple of files actually drives the log's
// admission
// backpressure (BeginOp blocking until an in-flight transaction
// commits), the same contention a real multi-process workload would
// put on it — not just the single-writer path every other mkfs-style
// tool exercises.
const skelCopyConcurrency = 8

// addfiles walks skelDir on the host and replicates its contents into
// fsys, mirroring the teacher tool's own addfiles/copydata pair.
// Directories are created as they're encountered, in walk order, since
// a file's parent must exist before Fs_open can create it; regular
// files are handed off to a bounded worker group so copying a skeleton
// with many files doesn't serialize on one at a time.
func addfiles(fsys *fs.Fs_t, skelDir string) {
	var g errgroup.Group
	g.SetLimit(skelCopyConcurrency)

	err := filepath.WalkDir(skelDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			fmt.Fprintf(os.Stderr, "mkfs: %s: %v\n", path, err)
			return err
		}
		rel := strings.TrimPrefix(path, skelDir)
		if rel == "" {
			return nil
		}
		dst := ustr.Ustr("/" + strings.TrimPrefix(rel, "/"))

		if d.IsDir() {
			if e := fsys.Fs_mkdir(dst, 0755); e != 0 && e != defs.EEXIST {
				fmt.Fprintf(os.Stderr, "mkfs: mkdir %s: %v\n", rel, e)
			}
			return nil
		}

		src, dst := path, dst
		g.Go(func() error {
			copyfile(fsys, src, dst)
			return nil
		})
		return nil
	})
	g.Wait()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: walking %s: %v\n", skelDir, err)
		os.Exit(1)
	}
}

func copyfile(fsys *fs.Fs_t, src string, dst ustr.Ustr) {
	in, err := os.Open(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: %s: %v\n", src, err)
		return
	}
	defer in.Close()

	fdt, e := fsys.Fs_open(dst, defs.O_CREAT|defs.O_WRONLY|defs.O_TRUNC, 0644)
	if e != 0 {
		fmt.Fprintf(os.Stderr, "mkfs: creating %s: %v\n", dst, e)
		return
	}
	defer fdt.Fops.Close()

	buf := make([]byte, fs.BSIZE)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := fdt.Fops.Write(vm.MkUbuf(buf[:n])); werr != 0 {
				fmt.Fprintf(os.Stderr, "mkfs: writing %s: %v\n", dst, werr)
				return
			}
		}
		if rerr == io.EOF {
			return
		}
		if rerr != nil {
			fmt.Fprintf(os.Stderr, "mkfs: reading %s: %v\n", src, rerr)
			return
		}
	}
}
