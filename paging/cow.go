package paging

import (
	"vmcore/pte"
	"vmcore/vmerr"
)

// cpypg allocates a new frame, copies src's flag bits onto it, and
// physically copies src's frame contents into the new one. It is used
// only by CowDisable when a COW frame is still shared.
func (c *Core) cpypg(src pte.Entry) (pte.Entry, error) {
	fn, ok := c.Frames.Alloc()
	if !ok {
		if c.Diag != nil {
			c.Diag.FrameExhausted.Inc()
		}
		return 0, vmerr.ENOMEM
	}
	c.Hal.PhysCpy(fn, src.Frame())
	return src.WithFrame(fn), nil
}

// CowEnable marks ptr copy-on-write and clears its write bit.
func CowEnable(ptr *pte.Entry) {
	*ptr = ptr.WithCowEnabled()
}

// CowEnabled reports whether ptr is in the armed COW state (cow=1,
// write=0).
func CowEnabled(ptr *pte.Entry) bool {
	return ptr.CowEnabled()
}

// CowDisable breaks copy-on-write on ptr. If the underlying frame is
// still shared with another address space, it allocates and installs a
// private copy; if this mapping was the last reference, it simply grants
// write access to the existing frame.
func (c *Core) CowDisable(p *Proc, ptr *pte.Entry) error {
	e := *ptr
	fn := e.Frame()
	if c.Frames.IsShared(fn) {
		priv, err := c.cpypg(e)
		if err != nil {
			return err
		}
		c.Frames.Free(fn)
		*ptr = priv.WithCowDisabled()
	} else {
		*ptr = e.WithCowDisabled()
	}
	if c.Diag != nil {
		c.Diag.CowBreaks.Inc()
	}
	if p == current() {
		c.Hal.TlbFlush()
	}
	return nil
}

// Linkupg duplicates src's mapping into dst for a child address space
// being constructed by the region subsystem's clone path:
//
//   - src clear: dst is left untouched.
//   - src demand-fill/demand-zero: byte-copied verbatim, no frame involved.
//   - src present and writable: COW is enabled on src first (so both
//     copies end up write-protected), the frame's refcount is bumped,
//     then the (now COW) entry is copied into dst.
//   - src present and already read-only (already COW, or genuinely
//     read-only): the frame's refcount is bumped and src is copied as-is.
//   - any other present combination (e.g. present with fill/zero also
//     set) is an invariant violation.
func (c *Core) Linkupg(src, dst *pte.Entry) {
	s := *src
	switch {
	case s.Clear():
		return
	case s.Present() && (s.Fill() || s.Zero()):
		panic("linkupg: invalid pte flags")
	case !s.Present():
		*dst = s
	case s.Writable():
		CowEnable(src)
		c.Frames.Share(src.Frame())
		*dst = *src
	default:
		c.Frames.Share(s.Frame())
		*dst = s
	}
}
