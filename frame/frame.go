// Package frame implements the user page-frame allocator (FA): a
// fixed-size array of physical user frames with per-frame reference
// counts, supporting sharing for copy-on-write.
//
// Grounded on the teacher's mem.Physmem_t (mem/mem.go): Refup/Refdown/
// Refcnt are this package's Share/Free/IsShared, and frame_alloc's
// first-fit scan mirrors Physmem_t's free-list fallback path without the
// per-CPU caching layer real kernel scale needs.
package frame

import (
	"vmcore/diag"
	"vmcore/hal"
	"vmcore/pte"
)

// Pool is the frame allocator: NR_FRAMES = UMemSize/PageSize refcounted
// frames. Frame number 0 is reserved as the allocation-failure sentinel
// and is never handed out, matching the teacher's convention of a frame
// permanently owned by the zero page.
//
// As with kpool.Pool, no internal lock guards this array (spec.md §5);
// callers serialize their own access.
type Pool struct {
	m    *hal.Machine
	refs []int32 // refs[i] is the refcount of frame number i+1
}

// New builds an empty frame pool of m.Config().NrFrames() frames.
func New(m *hal.Machine) *Pool {
	return &Pool{m: m, refs: make([]int32, m.Config().NrFrames())}
}

// Len reports NR_FRAMES.
func (p *Pool) Len() int { return len(p.refs) }

// Alloc finds the first free frame, sets its refcount to 1, and returns
// its frame number. It returns (0, false) on exhaustion; 0 is never a
// live frame number.
func (p *Pool) Alloc() (pte.FrameNum, bool) {
	for i, c := range p.refs {
		if c == 0 {
			p.refs[i] = 1
			return pte.FrameNum(i + 1), true
		}
	}
	diag.Logf("%s", diag.Exhausted("frame", 0, len(p.refs)))
	return 0, false
}

// Free decrements fn's refcount. Freeing an already-free frame is an
// invariant violation and panics.
func (p *Pool) Free(fn pte.FrameNum) {
	i := p.index(fn)
	if p.refs[i] <= 0 {
		panic("frame: double free")
	}
	p.refs[i]--
}

// Share increments fn's refcount: a PTE referencing this frame has been
// duplicated into another address space.
func (p *Pool) Share(fn pte.FrameNum) {
	i := p.index(fn)
	if p.refs[i] <= 0 {
		panic("frame: share of free frame")
	}
	p.refs[i]++
}

// IsShared reports whether fn's refcount exceeds one.
func (p *Pool) IsShared(fn pte.FrameNum) bool {
	return p.refs[p.index(fn)] > 1
}

// Refcount reports fn's current refcount, for tests and diagnostics.
func (p *Pool) Refcount(fn pte.FrameNum) int32 {
	return p.refs[p.index(fn)]
}

// Bytes returns the PageSize-byte backing store for fn.
func (p *Pool) Bytes(fn pte.FrameNum) []byte {
	return p.m.FramePage(fn)
}

func (p *Pool) index(fn pte.FrameNum) int {
	if fn == 0 {
		panic("frame: frame 0 is the null sentinel")
	}
	return int(fn) - 1
}
