// Package region stands in for the region subsystem spec.md §1 treats as
// external to the MM core: it supplies per-process virtual-address
// ranges, their access mode, and any backing-file metadata, plus the
// region lock the fault handlers hold across a possibly-blocking
// demand-fill read.
//
// The lock is built on golang.org/x/sync/semaphore.Weighted with weight
// one, a direct encoding of spec.md §5's single-owner, non-preemptive
// critical section discipline ("this serializes concurrent faults on the
// same region") as a context-aware mutex rather than a bespoke one.
package region

import (
	"context"

	"golang.org/x/sync/semaphore"

	"vmcore/fsiface"
)

// Mode is a region's access mode bitmask.
type Mode uint

const (
	MayRead  Mode = 1 << iota
	MayWrite      // MAY_WRITE in spec.md
)

// FileBacking describes the file a VFILE-style region demand-fills from.
// The zero value means "anonymous" (demand-zero only).
type FileBacking struct {
	Inode  fsiface.Inode
	Off    int64
	Reader fsiface.Reader
}

// Region is one contiguous virtual-address range within a process.
type Region struct {
	Start, End uintptr
	Mode       Mode
	File       FileBacking // File.Reader == nil means anonymous
	Stack      bool        // true iff this is the process's stack region

	lock *semaphore.Weighted
}

// New builds a region covering [start, end).
func New(start, end uintptr, mode Mode, isStack bool) *Region {
	return &Region{Start: start, End: end, Mode: mode, Stack: isStack, lock: semaphore.NewWeighted(1)}
}

// Contains reports whether va falls within the region.
func (r *Region) Contains(va uintptr) bool {
	return va >= r.Start && va < r.End
}

// Anon reports whether the region has no file backing.
func (r *Region) Anon() bool {
	return r.File.Reader == nil
}

// Lock acquires the region's lock, blocking until available or ctx is
// done.
func (r *Region) Lock(ctx context.Context) error {
	return r.lock.Acquire(ctx, 1)
}

// Unlock releases the region's lock.
func (r *Region) Unlock() {
	r.lock.Release(1)
}

// Grow extends a stack region downward by n pages, the MM core's view of
// growreg(region, +n). It panics if called on a non-stack region: the
// paging engine only ever grows the stack.
func (r *Region) Grow(n, pageSize int) {
	if !r.Stack {
		panic("region: growreg on non-stack region")
	}
	r.Start -= uintptr(n * pageSize)
}

// Table is the set of regions belonging to one process.
type Table struct {
	regions []*Region
}

// NewTable returns an empty region table.
func NewTable() *Table { return &Table{} }

// Insert adds r to the table.
func (t *Table) Insert(r *Region) { t.regions = append(t.regions, r) }

// Find returns the region covering va, the MM core's findreg(proc, va).
func (t *Table) Find(va uintptr) (*Region, bool) {
	for _, r := range t.regions {
		if r.Contains(va) {
			return r, true
		}
	}
	return nil, false
}

// All returns every region in the table, for diagnostics.
func (t *Table) All() []*Region {
	return t.regions
}
