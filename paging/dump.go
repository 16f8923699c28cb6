package paging

import "vmcore/pgdir"

// Mapping is one populated PTE slot surfaced by Dump, identified by its
// full virtual address rather than by its raw PDX/PTX pair.
type Mapping struct {
	VA    uintptr
	Entry string // pte.Entry.String(); kept as text so Dump has no pte import leakage into callers
}

// Dump walks every page table currently installed in p's directory and
// reports every non-clear PTE it finds, sorted by virtual address. It is
// the diagnostic analogue of the teacher's Pgcount/pmap-walk
// introspection in mem/mem.go, exposed here so callers such as
// cmd/vmcoreinfo can render a process's address space without reaching
// into pgdir themselves.
func (c *Core) Dump(p *Proc) []Mapping {
	shift := c.pageShift()
	var out []Mapping
	for _, pdx := range p.Pgdir.Slots() {
		t, ok := p.Pgdir.Lookup(pdx)
		if !ok {
			continue
		}
		base := uintptr(pdx) << (shift + pgdir.PtBits)
		for i := 0; i < pgdir.PtEntries; i++ {
			e := t.Get(i)
			if e.Clear() {
				continue
			}
			va := base | uintptr(i)<<shift
			out = append(out, Mapping{VA: va, Entry: e.String()})
		}
	}
	sortMappings(out)
	return out
}

// sortMappings is a tiny insertion sort: Dump's output is small (a
// handful of live mappings per process in any test or demo scenario),
// so pulling in sort.Slice's reflection-based comparator isn't worth it.
func sortMappings(m []Mapping) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && m[j].VA < m[j-1].VA; j-- {
			m[j], m[j-1] = m[j-1], m[j]
		}
	}
}
