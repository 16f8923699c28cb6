// Package vmerr carries the MM core's recoverable error codes. Spec.md §7
// splits failures into two disjoint classes: resource exhaustion, which
// the teacher represents as a negative errno (defs.Err_t, e.g.
// -defs.ENOMEM) and which this package keeps as ordinary Go errors; and
// invariant violations, which stay as panics at their call sites and
// never surface here.
package vmerr

// Errno is a POSIX-flavored error code, comparable with errors.Is.
type Errno int

const (
	// ENOMEM indicates the kernel page pool or frame allocator is
	// exhausted.
	ENOMEM Errno = iota + 1
	// EFAULT indicates an access to an address with no backing region,
	// or a write to a region that forbids it.
	EFAULT
	// ENOENT indicates a file-backed read found no underlying data.
	ENOENT
)

func (e Errno) Error() string {
	switch e {
	case ENOMEM:
		return "vmcore: out of memory"
	case EFAULT:
		return "vmcore: bad address"
	case ENOENT:
		return "vmcore: backing data unavailable"
	default:
		return "vmcore: unknown error"
	}
}
