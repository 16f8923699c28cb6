// Package pgdir models the page-directory/page-table structures the
// paging engine walks: a Table is one 512-entry page table (sized so it
// fits exactly in one kernel-pool page, mirroring the teacher's
// mem.Pmap_t [512]Pa_t); a Dir is a process's page directory.
//
// Real x86-style paging walks a fixed number of levels whose indices are
// slices of the virtual address. vmcore's Dir instead keys its PDE slots
// by PDX(va) in a map rather than a fixed top-level array: the kernel
// slots this core mirrors into every address space (KBASE_VIRT,
// KPOOL_VIRT, INITRD_VIRT) live at the top of the 64-bit canonical
// address space while user regions start near zero, and a single flat
// table covering that whole span is wasteful to model as a dense array.
// The map preserves the spec's exact "slot is clear / slot is busy"
// semantics (absence == clear) without a real multi-level radix walk;
// see DESIGN.md.
package pgdir

import (
	"unsafe"

	"vmcore/kpool"
	"vmcore/pte"
)

// PtBits is the number of virtual-address bits a single page table
// indexes: 512 entries per table, the same fan-out as the teacher's
// Pmap_t.
const PtBits = 9

// PtEntries is the number of PTE slots in one Table (512).
const PtEntries = 1 << PtBits

// Table is one page table: PtEntries PTEs backed by a single kernel-pool
// page (512 entries * 8 bytes/entry == 4096 bytes == one page).
type Table struct {
	kp  kpool.KPg
	ent []pte.Entry
}

// NewTable acquires a clean kernel page and returns it reinterpreted as a
// page table, mirroring mem.Physmem_t's pg2pmap cast in the teacher.
func NewTable(pool *kpool.Pool) (Table, bool) {
	kp, ok := pool.Acquire(true)
	if !ok {
		return Table{}, false
	}
	b := pool.Bytes(kp)
	if len(b)%8 != 0 {
		panic("pgdir: kernel page size is not entry-aligned")
	}
	ent := unsafe.Slice((*pte.Entry)(unsafe.Pointer(&b[0])), len(b)/8)
	return Table{kp: kp, ent: ent}, true
}

// KPg returns the kernel-pool page backing t, so callers can release it.
func (t Table) KPg() kpool.KPg { return t.kp }

// PtePtr returns a pointer to the i'th entry for in-place mutation, the
// analogue of the teacher's pmap_walk returning *Pa_t.
func (t Table) PtePtr(i int) *pte.Entry {
	return &t.ent[i]
}

// Get returns the i'th entry by value.
func (t Table) Get(i int) pte.Entry { return t.ent[i] }

// Set overwrites the i'th entry.
func (t Table) Set(i int, e pte.Entry) { t.ent[i] = e }

// Dir is a process's page directory: a PDE slot map plus the kernel page
// that accounts for the directory's own KPP allocation.
type Dir struct {
	kp   kpool.KPg
	pdes map[uint64]Table
}

// NewDir acquires a clean kernel page to represent the directory's own
// storage and returns an empty Dir (every PDE slot clear).
func NewDir(pool *kpool.Pool) (*Dir, bool) {
	kp, ok := pool.Acquire(true)
	if !ok {
		return nil, false
	}
	return &Dir{kp: kp, pdes: make(map[uint64]Table)}, true
}

// KPg returns the kernel page backing the directory itself.
func (d *Dir) KPg() kpool.KPg { return d.kp }

// PDX returns the page-directory index for va under the given page shift.
func PDX(va uintptr, pageShift uint) uint64 {
	return uint64(va) >> (pageShift + PtBits)
}

// PTX returns the page-table index for va under the given page shift.
func PTX(va uintptr, pageShift uint) uint64 {
	return (uint64(va) >> pageShift) & (PtEntries - 1)
}

// Lookup returns the table mapped at PDE slot pdx, if any.
func (d *Dir) Lookup(pdx uint64) (Table, bool) {
	t, ok := d.pdes[pdx]
	return t, ok
}

// Map installs t at PDE slot pdx. It panics if the slot is already
// mapped: spec.md's mappgtab requires the slot be clear beforehand.
func (d *Dir) Map(pdx uint64, t Table) {
	if _, busy := d.pdes[pdx]; busy {
		panic("pgdir: busy PDE")
	}
	d.pdes[pdx] = t
}

// Unmap clears PDE slot pdx. Per spec.md §9's resolution of the
// umappgtab open question, unmapping an already-clear slot panics.
func (d *Dir) Unmap(pdx uint64) {
	if _, ok := d.pdes[pdx]; !ok {
		panic("pgdir: PDE already clear")
	}
	delete(d.pdes, pdx)
}

// Slots returns every currently-mapped PDE index, in no particular
// order, for diagnostics such as paging.Dump.
func (d *Dir) Slots() []uint64 {
	out := make([]uint64, 0, len(d.pdes))
	for k := range d.pdes {
		out = append(out, k)
	}
	return out
}
