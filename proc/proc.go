// Package proc stands in for the process subsystem spec.md §1 treats as
// an external collaborator: it supplies the process record the paging
// engine consumes (page directory, kernel stack, saved stack pointer,
// cr3-equivalent) and the curr_proc notion the teacher's vm.Vm_t methods
// assume implicitly.
package proc

import (
	"vmcore/kpool"
	"vmcore/pgdir"
	"vmcore/region"
)

// Tid identifies a thread of control within a process, mirroring the
// teacher's defs.Tid_t.
type Tid int

// Proc is one process's address-space and kernel-context record: the
// subset of the real process subsystem's fields spec.md §6 lists as
// consumed by the MM core.
type Proc struct {
	Pid int

	Pgdir   *pgdir.Dir
	Cr3     int // opaque cr3-equivalent: the kernel-pool slot of Pgdir's own page
	Regions *region.Table

	Kstack     kpool.KPg
	KstackVA   uintptr // base of the kernel stack's kernel-virtual window
	Kesp       uintptr // saved kernel stack pointer
	Kebp       uintptr // saved frame pointer, valid only if KernelMode
	KernelMode bool    // was executing in the kernel when last descheduled
	// (KERNEL_RUNNING in spec.md).
}

// KernelRunning reports whether p was executing in kernel mode, the
// predicate crtpgdir consults to decide whether to rebase a saved ebp.
func (p *Proc) KernelRunning() bool { return p.KernelMode }

var current *Proc

// Current returns the process the core currently services, the
// equivalent of the teacher's curr_proc.
func Current() *Proc { return current }

// SetCurrent installs p as the current process. Callers (the scheduler,
// external to this core) call this on every context switch.
func SetCurrent(p *Proc) { current = p }
