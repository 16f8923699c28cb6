package paging

import (
	"vmcore/pte"
	"vmcore/region"
	"vmcore/vmerr"
)

// Allocupg installs a freshly allocated, zeroed frame at va in p's
// address space, writable iff writable is set; the TLB is flushed only
// when p is curr_proc. The PDE covering va must already be
// populated by the caller (vfault always locates it via Getpte first).
func (c *Core) Allocupg(p *Proc, va uintptr, writable bool) error {
	fn, ok := c.Frames.Alloc()
	if !ok {
		if c.Diag != nil {
			c.Diag.FrameExhausted.Inc()
		}
		return vmerr.ENOMEM
	}
	if c.Diag != nil {
		c.Diag.FrameAllocs.Inc()
	}
	va = c.pageRound(va)
	ptr, ok := c.Getpte(p, va)
	if !ok {
		panic("allocupg: PDE not populated")
	}
	*ptr = pte.MkPresent(fn, writable, false)
	if p == current() {
		c.Hal.TlbFlush()
	}
	c.Hal.ZeroFrame(fn)
	return nil
}

// Readpg demand-fills the page at va from reg's backing file. On read
// failure it unwinds the frame Allocupg installed via Freeupg, matching
// spec.md's "if it returns < 0, call freeupg(pte) and return error". A
// short, non-negative read is success: the unread tail stays zero from
// Allocupg (spec.md §9).
func (c *Core) Readpg(p *Proc, reg *region.Region, va uintptr) error {
	writable := reg.Mode&region.MayWrite != 0
	if err := c.Allocupg(p, va, writable); err != nil {
		return err
	}
	va = c.pageRound(va)
	ptr, _ := c.Getpte(p, va)

	// off is the byte offset into the backing file: File.Off (the file
	// position the region's first page maps to) plus how far va has
	// advanced past the region's own start.
	off := reg.File.Off + int64(va-reg.Start)

	n, err := reg.File.Reader.ReadAt(reg.File.Inode, c.Frames.Bytes(ptr.Frame()), off)
	if err != nil || n < 0 {
		c.Freeupg(p, ptr)
		return vmerr.ENOENT
	}
	if c.Diag != nil {
		c.Diag.DemandFill.Inc()
	}
	return nil
}

// Freeupg releases whatever va's PTE currently holds: a frame if
// present, nothing if merely marked fill/zero, or nothing at all if the
// PTE is already clear. Any other state is an invariant violation.
func (c *Core) Freeupg(p *Proc, ptr *pte.Entry) {
	e := *ptr
	switch {
	case e.Clear():
		return
	case e.Present():
		c.Frames.Free(e.Frame())
		*ptr = 0
	case e.Fill() || e.Zero():
		*ptr = 0
	default:
		panic("freeupg: invalid pte state")
	}
	if p == current() {
		c.Hal.TlbFlush()
	}
}

// Markpg marks a non-present PTE as demand-fill or demand-zero. Marking
// an already-present page is an invariant violation.
func (c *Core) Markpg(ptr *pte.Entry, fill bool) {
	if ptr.Present() {
		panic("markpg: page already present")
	}
	*ptr = pte.MkDemand(fill)
}
