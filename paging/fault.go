package paging

import (
	"context"
	"time"

	"vmcore/diag"
	"vmcore/region"
	"vmcore/vmerr"
)

// Vfault resolves a validity fault: a trap from accessing a non-present
// PTE. It locates the covering region (probing one page beyond the
// fault, and growing the stack, if the fault address itself is
// unmapped), demand-fills or demand-zeros the page, and returns.
//
// Grounded on the teacher's Sys_pgfault in vm/as.go, restructured around
// spec.md's explicit fill/zero PTE states rather than biscuit's
// VANON/VFILE mtype dispatch.
func (c *Core) Vfault(ctx context.Context, p *Proc, addr uintptr) error {
	reg, ok := p.Regions.Find(addr)
	if !ok {
		grown, ok2 := p.Regions.Find(addr + uintptr(c.pageSize()))
		if !ok2 || !grown.Stack {
			c.trace(addr, false, "fail", true)
			return vmerr.EFAULT
		}
		grown.Grow(1, c.pageSize())
		reg = grown
		c.trace(addr, false, "stack-grow", false)
	}

	if err := reg.Lock(ctx); err != nil {
		return err
	}
	defer reg.Unlock()

	ptr, ok := c.Getpte(p, addr)
	if !ok {
		c.trace(addr, false, "fail", true)
		return vmerr.EFAULT
	}
	if !ptr.Fill() && !ptr.Zero() {
		c.trace(addr, false, "fail", true)
		return vmerr.EFAULT
	}

	if ptr.Fill() {
		if err := c.Readpg(p, reg, addr); err != nil {
			c.trace(addr, false, "fail", true)
			return err
		}
		c.trace(addr, false, "fill", false)
		return nil
	}

	writable := reg.Mode&region.MayWrite != 0
	if err := c.Allocupg(p, addr, writable); err != nil {
		c.trace(addr, false, "fail", true)
		return err
	}
	if c.Diag != nil {
		c.Diag.DemandZero.Inc()
	}
	c.trace(addr, false, "zero", false)
	return nil
}

// Pfault resolves a protection fault: a write trapped against a
// present-but-read-only PTE. Only a genuinely COW-enabled page is
// recoverable; anything else is a real access violation.
func (c *Core) Pfault(ctx context.Context, p *Proc, addr uintptr) error {
	reg, ok := p.Regions.Find(addr)
	if !ok {
		c.trace(addr, true, "fail", true)
		return vmerr.EFAULT
	}
	if err := reg.Lock(ctx); err != nil {
		return err
	}
	defer reg.Unlock()

	ptr, ok := c.Getpte(p, addr)
	if !ok || !CowEnabled(ptr) {
		c.trace(addr, true, "fail", true)
		return vmerr.EFAULT
	}
	if err := c.CowDisable(p, ptr); err != nil {
		c.trace(addr, true, "fail", true)
		return err
	}
	c.trace(addr, true, "cow", false)
	return nil
}

func (c *Core) trace(addr uintptr, write bool, kind string, failed bool) {
	if c.Diag == nil {
		return
	}
	if failed {
		c.Diag.FaultFailures.Inc()
	}
	c.Diag.Trace(diag.FaultEvent{Addr: addr, Write: write, Kind: kind, Failed: failed, At: time.Now()})
}
