// Package kpool implements the kernel page pool (KPP): a fixed-size array
// of kernel-mapped pages handed out to callers that need page-sized
// kernel storage (page directories, page tables, kernel stacks).
//
// Grounded on mem.Physmem_t's refcount bookkeeping in the teacher's
// mem/mem.go, simplified to the spec's first-fit linear scan — the pool
// is small and allocation is rare, so the free-list/per-CPU machinery the
// teacher needs at real kernel scale buys nothing here.
//
// Per spec.md §5, no lock protects this array: mutual exclusion is the
// caller's responsibility under the single-CPU, non-preemptive-critical-
// section discipline the rest of vmcore assumes. Callers that do want
// concurrent access (e.g. a multi-goroutine test) must serialize their
// own calls.
package kpool

import (
	"vmcore/diag"
	"vmcore/hal"
)

// KPg identifies one live kernel-pool allocation.
type KPg struct {
	idx int
}

// Index returns the underlying pool slot. Exposed so paging can use it as
// a stable handle (e.g. to derive a PDE's frame field) without the pool
// leaking its internals.
func (k KPg) Index() int { return k.idx }

// Pool is the kernel page pool: NR_KPAGES = KPoolSize/PageSize refcounted
// slots backed by a hal.Machine's kernel-pool arena.
type Pool struct {
	m    *hal.Machine
	refs []uint16
}

// New builds an empty pool of m.Config().NrKpages() slots.
func New(m *hal.Machine) *Pool {
	return &Pool{m: m, refs: make([]uint16, m.Config().NrKpages())}
}

// Len reports the total number of slots, i.e. NR_KPAGES.
func (p *Pool) Len() int { return len(p.refs) }

// Acquire scans for the first free slot, marks it live (refcount 1), and
// returns it. If clean, the page is zeroed before being handed back. ok
// is false when the pool is exhausted; acquisition never panics on
// exhaustion, matching spec.md §4.1.
func (p *Pool) Acquire(clean bool) (KPg, bool) {
	for i, c := range p.refs {
		if c == 0 {
			p.refs[i] = 1
			if clean {
				p.m.ZeroKPage(i)
			}
			return KPg{idx: i}, true
		}
	}
	diag.Logf("%s", diag.Exhausted("kpool", 0, len(p.refs)))
	return KPg{}, false
}

// Release decrements k's refcount. A release of an already-free slot is
// an invariant violation and panics the "kernel".
func (p *Pool) Release(k KPg) {
	if p.refs[k.idx] == 0 {
		panic("kpool: double release")
	}
	p.refs[k.idx]--
}

// Bytes returns the PageSize-byte backing store for k.
func (p *Pool) Bytes(k KPg) []byte {
	return p.m.KPage(k.idx)
}

// Refcount reports the live reference count of slot idx, for tests and
// diagnostics.
func (p *Pool) Refcount(idx int) uint16 {
	return p.refs[idx]
}
