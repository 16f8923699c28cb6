// Package hal stands in for the kernel's hardware-abstraction layer: the
// physical memory substrate, the machine constants the rest of vmcore is
// built against, and the couple of primitives (PhysCpy, TlbFlush) that a
// real HAL would implement in assembly.
//
// vmcore runs as an ordinary Go process, so "physical memory" here is two
// anonymous mappings obtained with golang.org/x/sys/unix.Mmap, one for the
// kernel page pool and one for the user frames — the direct-map trick the
// teacher's mem.Dmap uses (translate a physical address into a
// kernel-virtual pointer into a contiguous region),
// just realized without a real MMU underneath it.
package hal

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"vmcore/pte"
)

// Config describes machine geometry. Field names follow the constants
// spec.md §6 lists as HAL-supplied.
type Config struct {
	PageSize   int
	PageShift  uint
	KBaseVirt  uintptr
	KPoolVirt  uintptr
	UBasePhys  uintptr
	InitrdVirt uintptr
	KStackSize int
	KPoolSize  int // bytes; NR_KPAGES = KPoolSize / PageSize
	UMemSize   int // bytes; NR_FRAMES = UMemSize / PageSize
}

// PageMask returns the in-page offset mask for the configured page size.
func (c Config) PageMask() pte.Pa_t { return pte.Pa_t(c.PageSize - 1) }

// NrKpages returns the number of kernel-pool slots this configuration holds.
func (c Config) NrKpages() int { return c.KPoolSize / c.PageSize }

// NrFrames returns the number of user frames this configuration holds.
func (c Config) NrFrames() int { return c.UMemSize / c.PageSize }

// DefaultConfig mirrors the teacher's hardcoded geometry (mem/dmap.go's
// VDIRECT/VUSER slots, mem/mem.go's PGSHIFT) at a size small enough to
// exercise exhaustion tests quickly: 256 kernel pages, 4096 user frames.
func DefaultConfig() Config {
	const pageSize = 1 << 12
	return Config{
		PageSize:   pageSize,
		PageShift:  12,
		KBaseVirt:  0xffff800000000000,
		KPoolVirt:  0xffff800040000000,
		UBasePhys:  0,
		InitrdVirt: 0xffff800080000000,
		KStackSize: 2 * pageSize,
		KPoolSize:  256 * pageSize,
		UMemSize:   4096 * pageSize,
	}
}

// Machine owns the mmap'd arenas backing the kernel page pool and the
// user frame pool, plus the handful of HAL primitives built on them.
type Machine struct {
	cfg Config

	kArena []byte // len == cfg.KPoolSize, one slot per kernel page
	fArena []byte // len == cfg.UMemSize, one slot per user frame

	tlbFlushes uint64
}

// New allocates the simulated physical memory backing a Machine.
func New(cfg Config) (*Machine, error) {
	kArena, err := unix.Mmap(-1, 0, cfg.KPoolSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("hal: mmap kernel pool: %w", err)
	}
	fArena, err := unix.Mmap(-1, 0, cfg.UMemSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		_ = unix.Munmap(kArena)
		return nil, fmt.Errorf("hal: mmap frame pool: %w", err)
	}
	return &Machine{cfg: cfg, kArena: kArena, fArena: fArena}, nil
}

// Close releases the mmap'd arenas. Not used by the kernel proper (the
// pools live for the lifetime of the system) but kept for test hygiene.
func (m *Machine) Close() error {
	err1 := unix.Munmap(m.kArena)
	err2 := unix.Munmap(m.fArena)
	if err1 != nil {
		return err1
	}
	return err2
}

// Config returns the geometry this machine was built with.
func (m *Machine) Config() Config { return m.cfg }

// KPage returns the PageSize-byte backing store for kernel-pool slot i.
func (m *Machine) KPage(i int) []byte {
	off := i * m.cfg.PageSize
	return m.kArena[off : off+m.cfg.PageSize]
}

// FramePage returns the PageSize-byte backing store for frame number fn.
// Frame numbers are 1-based; fn==0 is the reserved failure sentinel and
// must never reach here.
func (m *Machine) FramePage(fn pte.FrameNum) []byte {
	if fn == 0 {
		panic("hal: frame 0 is the null sentinel")
	}
	off := (int(fn) - 1) * m.cfg.PageSize
	return m.fArena[off : off+m.cfg.PageSize]
}

// PhysCpy copies PageSize bytes from one frame to another, the frame-pool
// analogue of the HAL's physcpy(dst_pa, src_pa, len).
func (m *Machine) PhysCpy(dst, src pte.FrameNum) {
	copy(m.FramePage(dst), m.FramePage(src))
}

// ZeroFrame fills a frame with zero bytes.
func (m *Machine) ZeroFrame(fn pte.FrameNum) {
	clear(m.FramePage(fn))
}

// ZeroKPage fills a kernel pool slot with zero bytes.
func (m *Machine) ZeroKPage(i int) {
	clear(m.KPage(i))
}

// TlbFlush invalidates cached translations for the current address space.
// There is no real TLB to shoot down here; the count is retained purely
// as a diagnostic of how often the paging engine believes a flush is due.
func (m *Machine) TlbFlush() {
	atomic.AddUint64(&m.tlbFlushes, 1)
}

// TlbFlushes reports how many TlbFlush calls have been made, for diag.
func (m *Machine) TlbFlushes() uint64 {
	return atomic.LoadUint64(&m.tlbFlushes)
}
