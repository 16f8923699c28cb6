// Package pte defines the machine-format page-table and page-directory
// entry types shared by hal, frame, pgdir, and paging. It has no knowledge of
// physical memory layout; it only masks and shifts bits the way a real
// MMU would.
package pte

// Pa_t is a physical address, biased by hal.Config.UBasePhys where applicable.
type Pa_t uintptr

// FrameNum identifies one physical user frame (1-based; 0 is the
// allocation-failure sentinel and is never a live frame).
type FrameNum uint32

const (
	P    Pa_t = 1 << 0 // present
	W    Pa_t = 1 << 1 // writable
	U    Pa_t = 1 << 2 // user-accessible
	COW  Pa_t = 1 << 3 // copy-on-write
	ZERO Pa_t = 1 << 4 // demand-zero
	FILL Pa_t = 1 << 5 // demand-fill

	addrShift = 12
	flagsMask = Pa_t(1<<addrShift) - 1
)

// Entry is a PTE or PDE value: flag bits in the low addrShift bits, a
// frame/page-table number in the high bits. The zero Entry is clear.
type Entry Pa_t

// Clear reports whether the entry carries no mapping and no demand state.
func (e Entry) Clear() bool {
	return e == 0
}

// Present reports whether the entry refers to a backed, valid page.
func (e Entry) Present() bool { return Pa_t(e)&P != 0 }

// Writable reports whether writes through this entry are permitted.
func (e Entry) Writable() bool { return Pa_t(e)&W != 0 }

// User reports whether user-mode accesses through this entry are permitted.
func (e Entry) User() bool { return Pa_t(e)&U != 0 }

// Cow reports whether the entry is copy-on-write protected.
func (e Entry) Cow() bool { return Pa_t(e)&COW != 0 }

// Zero reports whether the entry is marked demand-zero.
func (e Entry) Zero() bool { return Pa_t(e)&ZERO != 0 }

// Fill reports whether the entry is marked demand-fill.
func (e Entry) Fill() bool { return Pa_t(e)&FILL != 0 }

// CowEnabled reports the specific "cow=1, write=0" combination the spec
// treats as the armed copy-on-write state.
func (e Entry) CowEnabled() bool {
	return e.Cow() && !e.Writable()
}

// Frame extracts the frame number carried by a present entry.
func (e Entry) Frame() FrameNum {
	return FrameNum(Pa_t(e) >> addrShift)
}

// Flags returns the low flag bits with the frame number masked off.
func (e Entry) Flags() Pa_t {
	return Pa_t(e) & flagsMask
}

// MkPresent builds a present entry for fn with the given rw/cow bits.
// user is always set: no live PTE in this core is a kernel-only mapping.
func MkPresent(fn FrameNum, writable, cow bool) Entry {
	f := P | U
	if writable {
		f |= W
	}
	if cow {
		f |= COW
	}
	return Entry(Pa_t(fn)<<addrShift | f)
}

// MkDemand builds a non-present entry marked fill or zero.
func MkDemand(fill bool) Entry {
	if fill {
		return Entry(FILL)
	}
	return Entry(ZERO)
}

// WithCowEnabled returns e with cow set and write cleared.
func (e Entry) WithCowEnabled() Entry {
	return Entry(Pa_t(e)&^W | COW)
}

// WithCowDisabled returns e with cow cleared and write set, frame unchanged.
func (e Entry) WithCowDisabled() Entry {
	return Entry(Pa_t(e)&^COW | W)
}

// WithFrame returns e with its frame number replaced by fn, flags unchanged.
func (e Entry) WithFrame(fn FrameNum) Entry {
	return Entry(Pa_t(fn)<<addrShift | e.Flags())
}

// MkPde builds a mapped page-directory entry pointing at the page table
// occupying kernel page fn. PDEs only ever use present/write/user.
func MkPde(fn FrameNum) Entry {
	return Entry(Pa_t(fn)<<addrShift | P | W | U)
}

// String renders an entry's logical state for diagnostics.
func (e Entry) String() string {
	switch {
	case e.Clear():
		return "clear"
	case e.Fill():
		return "demand-fill"
	case e.Zero():
		return "demand-zero"
	case e.Present():
		s := "present"
		if e.Writable() {
			s += ",w"
		}
		if e.Cow() {
			s += ",cow"
		}
		return s
	default:
		return "invalid"
	}
}
