// vmcoreinfo is a small, single-purpose inspector: it boots a vmcore
// instance, drives a short scripted sequence of page faults through it,
// and prints the resulting fault trace, counters, and page-table dump.
// It exists to give diag and paging something runnable to demonstrate
// against, the way the teacher's kernel/chentry.go is a tiny standalone
// driver for one subsystem rather than a full kernel entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"vmcore/diag"
	"vmcore/frame"
	"vmcore/hal"
	"vmcore/kpool"
	"vmcore/paging"
	"vmcore/pgdir"
	"vmcore/proc"
	"vmcore/region"
)

type step struct {
	name string
	va   uintptr
	run  func(ctx context.Context, p *proc.Proc, addr uintptr) error
}

func main() {
	cfg := hal.DefaultConfig()
	cfg.KPoolSize = 64 * cfg.PageSize
	cfg.UMemSize = 64 * cfg.PageSize

	m, err := hal.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vmcoreinfo: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	kp := kpool.New(m)
	fp := frame.New(m)
	d := diag.New(32)
	core := paging.New(m, kp, fp, d)

	if err := core.InitKernelMappings(); err != nil {
		fmt.Fprintf(os.Stderr, "vmcoreinfo: init kernel mappings: %v\n", err)
		os.Exit(1)
	}
	p, err := core.Crtpgdir(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vmcoreinfo: crtpgdir: %v\n", err)
		os.Exit(1)
	}
	p.Regions = region.NewTable()
	proc.SetCurrent(p)

	// Spaced 2MB apart so each region lands in a distinct page table
	// (pdx = va >> (PageShift+9) on this core's 512-entry tables).
	const (
		heapVA   = 0x200000
		fileVA   = 0x400000
		stackTop = 0x601000
	)

	mapPage := func(va uintptr, mode region.Mode, stack bool) *region.Region {
		tbl, ok := pgdir.NewTable(kp)
		if !ok {
			fmt.Fprintln(os.Stderr, "vmcoreinfo: kpool exhausted setting up demo mappings")
			os.Exit(1)
		}
		core.Mappgtab(p, va, tbl)
		reg := region.New(va, va+uintptr(cfg.PageSize), mode, stack)
		p.Regions.Insert(reg)
		return reg
	}

	mapPage(heapVA, region.MayRead|region.MayWrite, false)
	fileReg := mapPage(fileVA, region.MayRead, false)
	fileReg.File.Reader = demoReader{}
	stackReg := mapPage(stackTop, region.MayRead|region.MayWrite, true)

	ptr, _ := core.Getpte(p, heapVA)
	core.Markpg(ptr, false)
	ptr, _ = core.Getpte(p, fileVA)
	core.Markpg(ptr, true)

	growVA := stackReg.Start - uintptr(cfg.PageSize)
	ptr, _ = core.Getpte(p, growVA)
	core.Markpg(ptr, false)

	ctx := context.Background()
	script := []step{
		{name: "demand-zero heap page", va: heapVA, run: core.Vfault},
		{name: "demand-fill file page", va: fileVA, run: core.Vfault},
		{name: "grow stack one page", va: growVA, run: core.Vfault},
	}
	for _, s := range script {
		if err := s.run(ctx, p, s.va); err != nil {
			fmt.Printf("%-28s FAILED: %v\n", s.name, err)
			continue
		}
		fmt.Printf("%-28s ok\n", s.name)
	}

	fmt.Println()
	fmt.Println("page table:")
	for _, mp := range core.Dump(p) {
		fmt.Printf("  %#016x  %s\n", mp.VA, mp.Entry)
	}

	fmt.Println()
	fmt.Println("counters:")
	snap := d.Snapshot()
	for _, s := range snap.Sample {
		fmt.Printf("  %-18s %d\n", s.Label["counter"][0], s.Value[0])
	}

	fmt.Println()
	fmt.Println("fault trace:")
	for _, ev := range d.RecentFaults() {
		fmt.Printf("  addr=%#x write=%v kind=%-10s failed=%v\n", ev.Addr, ev.Write, ev.Kind, ev.Failed)
	}
}

type demoReader struct{}

func (demoReader) ReadAt(inode any, buf []byte, off int64) (int, error) {
	for i := range buf {
		buf[i] = byte('A' + i%26)
	}
	return len(buf), nil
}
