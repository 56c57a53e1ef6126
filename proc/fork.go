package proc

import (
	"mem"
	"vm"

	"defs"
)

// Fork performs an eager copy-on-fork (§5 Open Question: COW deferred,
// not modeled — every page listed in pages is duplicated immediately
// into a fresh frame mapped at the same address in the child's table;
// nothing else of the parent's address space is copied). The child
// inherits parent's open files (shared *fd.Fd_t, matching dup
// semantics), cwd, and priority, and starts at childEntry instead of
// resuming the parent's own PC, since there is no saved register file
// to replay here the way real fork() replays the parent's trapframe.
func Fork(parent *Proc_t, childEntry func(), pages []mem.Pa_t) (*Proc_t, defs.Err_t) {
	child, err := CreateProcess(childEntry, parent.Name+"/fork", parent.Priority)
	if err != 0 {
		return nil, err
	}

	for _, pa := range pages {
		src := mem.Physmem.Deref(pa)
		if src == nil {
			continue
		}
		dstPa, ok := mem.Physmem.AllocPage()
		if !ok {
			vm.DestroyTable(mem.Physmem, child.Vm.Root)
			child.Lock()
			child.State = Unused
			child.Unlock()
			return nil, defs.ENOMEM
		}
		*mem.Physmem.Deref(dstPa) = *src
		if err := vm.MapRange(mem.Physmem, child.Vm.Root, dstPa, uintptr(pa),
			mem.PGSIZE, vm.PTE_R|vm.PTE_W); err != 0 {
			mem.Physmem.FreePage(dstPa)
			vm.DestroyTable(mem.Physmem, child.Vm.Root)
			child.Lock()
			child.State = Unused
			child.Unlock()
			return nil, err
		}
	}

	child.Lock()
	child.ParentIdx = Idx(parent)
	child.Files = parent.Files
	child.Cwd = parent.Cwd
	child.Unlock()

	return child, 0
}
