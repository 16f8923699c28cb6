// Package paging implements the paging/fault engine (PE): per-process
// page directories, PTE manipulation, address-space clone/destroy,
// demand-fill/zero population, copy-on-write, and the validity/
// protection fault handlers.
//
// Grounded throughout on the teacher's vm/as.go (Vm_t, Sys_pgfault,
// Page_insert/Page_remove, Pgfault, Uvmfree), generalized from biscuit's
// VANON/VFILE/VSANON mapping-type model to spec.md's more direct
// present/fill/zero PTE states (the xk/xv6-style crtpgdir/vfault/pfault
// naming spec.md itself uses).
package paging

import (
	"vmcore/diag"
	"vmcore/frame"
	"vmcore/hal"
	"vmcore/kpool"
	"vmcore/pgdir"
	"vmcore/proc"
	"vmcore/pte"
	"vmcore/vmerr"
)

// Proc aliases proc.Proc so the rest of this package can read closer to
// spec.md's own "proc" vocabulary without every file importing vmcore/proc.
type Proc = proc.Proc

// current is shorthand for proc.Current(), the teacher's curr_proc.
func current() *proc.Proc { return proc.Current() }

// Core wires the paging engine to its three collaborators: the HAL, the
// kernel page pool, and the frame allocator. One Core serves every
// process in the system, mirroring the teacher's single global
// mem.Physmem.
type Core struct {
	Hal    *hal.Machine
	Kpages *kpool.Pool
	Frames *frame.Pool
	Diag   *diag.Counters // optional; nil is a valid, silent Core

	kernelSlots map[uint64]pgdir.Table
}

// New builds a Core over the given collaborators. d may be nil.
func New(h *hal.Machine, kp *kpool.Pool, fp *frame.Pool, d *diag.Counters) *Core {
	return &Core{Hal: h, Kpages: kp, Frames: fp, Diag: d, kernelSlots: make(map[uint64]pgdir.Table)}
}

// pageShift, pageSize are shorthand for the configured geometry.
func (c *Core) pageShift() uint { return c.Hal.Config().PageShift }
func (c *Core) pageSize() int   { return c.Hal.Config().PageSize }

func (c *Core) pageRound(va uintptr) uintptr {
	return va &^ uintptr(c.pageSize()-1)
}

// InitKernelMappings installs the page tables mirrored into every
// process's directory: slot 0 (low-memory identity map) plus the tables
// covering KBASE_VIRT, KPOOL_VIRT, and INITRD_VIRT. It must run once at
// boot before the first Crtpgdir call with a nil parent.
func (c *Core) InitKernelMappings() error {
	cfg := c.Hal.Config()
	keys := []uint64{
		0,
		pgdir.PDX(cfg.KBaseVirt, cfg.PageShift),
		pgdir.PDX(cfg.KPoolVirt, cfg.PageShift),
		pgdir.PDX(cfg.InitrdVirt, cfg.PageShift),
	}
	for _, k := range keys {
		if _, ok := c.kernelSlots[k]; ok {
			continue // KBASE_VIRT/KPOOL_VIRT/etc. may alias the same table
		}
		t, ok := pgdir.NewTable(c.Kpages)
		if !ok {
			if c.Diag != nil {
				c.Diag.KpoolExhausted.Inc()
			}
			return vmerr.ENOMEM
		}
		if c.Diag != nil {
			c.Diag.KpoolAcquires.Inc()
		}
		c.kernelSlots[k] = t
	}
	return nil
}

// Getpde returns the page-table mapped at the PDE slot covering va.
func (c *Core) Getpde(p *proc.Proc, va uintptr) (pgdir.Table, bool) {
	return p.Pgdir.Lookup(pgdir.PDX(va, c.pageShift()))
}

// Getpte dereferences the PDE covering va to locate the PTE for va
// itself, returning a pointer suitable for in-place mutation.
func (c *Core) Getpte(p *proc.Proc, va uintptr) (*pte.Entry, bool) {
	t, ok := c.Getpde(p, va)
	if !ok {
		return nil, false
	}
	return t.PtePtr(int(pgdir.PTX(va, c.pageShift()))), true
}

// Mappgtab installs pgtab into p's directory at the slot indexed by va.
// The slot must currently be clear: mapping into a busy PDE is a fatal
// invariant violation (pgdir.Dir.Map panics).
func (c *Core) Mappgtab(p *proc.Proc, va uintptr, pgtab pgdir.Table) {
	p.Pgdir.Map(pgdir.PDX(va, c.pageShift()), pgtab)
	if p == proc.Current() {
		c.Hal.TlbFlush()
	}
}

// Umappgtab clears the PDE slot indexed by va. Per spec.md §9's
// resolution of the source's inverted condition, it panics if the slot
// is already clear rather than if it is mapped.
func (c *Core) Umappgtab(p *proc.Proc, va uintptr) {
	p.Pgdir.Unmap(pgdir.PDX(va, c.pageShift()))
	if p == proc.Current() {
		c.Hal.TlbFlush()
	}
}

// Crtpgdir creates a new address space whose kernel half mirrors
// parent's. parent may be nil only for the very first process created
// after InitKernelMappings, in which case the bootstrap kernel slots are
// mirrored instead of a running process's directory.
//
// User mappings are not cloned here: spec.md's design assigns that to
// the region subsystem's Linkupg, invoked by the caller over each of
// parent's user PTEs after Crtpgdir returns.
func (c *Core) Crtpgdir(parent *proc.Proc) (*proc.Proc, error) {
	dir, ok := pgdir.NewDir(c.Kpages)
	if !ok {
		if c.Diag != nil {
			c.Diag.KpoolExhausted.Inc()
		}
		return nil, vmerr.ENOMEM
	}
	kstack, ok := c.Kpages.Acquire(true)
	if !ok {
		c.Kpages.Release(dir.KPg())
		if c.Diag != nil {
			c.Diag.KpoolExhausted.Inc()
		}
		return nil, vmerr.ENOMEM
	}
	if c.Diag != nil {
		c.Diag.KpoolAcquires.Inc()
		c.Diag.KpoolAcquires.Inc()
	}

	cfg := c.Hal.Config()
	if parent != nil {
		for _, slot := range []uintptr{0, cfg.KBaseVirt, cfg.KPoolVirt, cfg.InitrdVirt} {
			pdx := pgdir.PDX(slot, cfg.PageShift)
			if t, ok := parent.Pgdir.Lookup(pdx); ok {
				dir.Map(pdx, t)
			}
		}
	} else {
		for pdx, t := range c.kernelSlots {
			dir.Map(pdx, t)
		}
	}

	newKstackVA := uintptr(kstack.Index()) * uintptr(cfg.PageSize)
	p := &proc.Proc{
		Pgdir:    dir,
		Cr3:      dir.KPg().Index(),
		Kstack:   kstack,
		KstackVA: newKstackVA,
	}

	if parent != nil {
		copy(c.Kpages.Bytes(kstack), c.Kpages.Bytes(parent.Kstack))
		delta := newKstackVA - parent.KstackVA
		p.Kesp = parent.Kesp + delta
		if parent.KernelRunning() {
			p.Kebp = parent.Kebp + delta
		}
	}
	return p, nil
}

// Dstrypgdir releases the kernel pool pages backing p's address space.
// The caller must already have freed every user PTE (via Freeupg) before
// calling this.
func (c *Core) Dstrypgdir(p *proc.Proc) {
	c.Kpages.Release(p.Kstack)
	c.Kpages.Release(p.Pgdir.KPg())
}
