package paging

import (
	"testing"

	"vmcore/region"
)

func TestDumpListsPopulatedMappings(t *testing.T) {
	c, p := newHarness(t, 16, 16)

	const va1 = 0x200000
	const va2 = 0x400000
	installRegion(t, c, p, va1, region.MayRead|region.MayWrite, false)
	installRegion(t, c, p, va2, region.MayRead, false)

	if err := c.Allocupg(p, va1, true); err != nil {
		t.Fatalf("Allocupg: %v", err)
	}
	ptr, _ := c.Getpte(p, va2)
	c.Markpg(ptr, true)

	mappings := c.Dump(p)
	if len(mappings) != 2 {
		t.Fatalf("len(Dump()) = %d, want 2", len(mappings))
	}
	if mappings[0].VA != va1 || mappings[1].VA != va2 {
		t.Fatalf("Dump() not sorted by VA: %+v", mappings)
	}
	if mappings[0].Entry == "clear" || mappings[1].Entry == "clear" {
		t.Fatal("Dump() should only report non-clear entries")
	}
}

func TestDumpEmptyForFreshAddressSpace(t *testing.T) {
	c, p := newHarness(t, 16, 16)
	if got := c.Dump(p); len(got) != 0 {
		t.Fatalf("Dump() on a fresh process = %v, want empty", got)
	}
}
