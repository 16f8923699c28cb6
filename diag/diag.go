// Package diag collects the ambient observability the teacher's kernel
// keeps for its own memory-management subsystems: plain counters
// (stats.Counter_t in mem/stats.go), a small fixed-size event trace
// (circbuf.Circbuf_t), and — since a hosted process can't expose a
// /dev/kprof character device the way biscuit's D_PROF does — a
// pprof-compatible snapshot an external inspector can pull instead.
package diag

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/arch/x86/x86asm"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/google/pprof/profile"
)

// Counter is a monotonically increasing event count, the equivalent of
// the teacher's stats.Counter_t (always enabled here; the teacher gates
// its counters behind a Stats build flag vmcore has no analogue for).
type Counter struct{ v int64 }

// Inc increments c by one and returns the new value.
func (c *Counter) Inc() int64 { return atomic.AddInt64(&c.v, 1) }

// Load returns c's current value.
func (c *Counter) Load() int64 { return atomic.LoadInt64(&c.v) }

// FaultEvent records one page-fault outcome for the trace ring buffer.
type FaultEvent struct {
	Addr   uintptr
	Write  bool
	Kind   string // "zero", "fill", "cow", "stack-grow", "fail"
	Failed bool
	At     time.Time
}

// ring is a fixed-capacity circular buffer of FaultEvents, grounded on
// the teacher's circbuf.Circbuf_t: a flat backing slice plus a head index
// and a full flag, overwriting the oldest entry once full.
type ring struct {
	buf  []FaultEvent
	head int
	full bool
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]FaultEvent, capacity)}
}

func (r *ring) push(e FaultEvent) {
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	if r.head == 0 {
		r.full = true
	}
}

// recent returns the trace in oldest-to-newest order.
func (r *ring) recent() []FaultEvent {
	if !r.full {
		return append([]FaultEvent(nil), r.buf[:r.head]...)
	}
	out := make([]FaultEvent, 0, len(r.buf))
	out = append(out, r.buf[r.head:]...)
	out = append(out, r.buf[:r.head]...)
	return out
}

// Counters is the full set of MM-core event counters plus its fault
// trace. The zero value is unusable; use New.
type Counters struct {
	KpoolAcquires  Counter
	KpoolExhausted Counter
	FrameAllocs    Counter
	FrameExhausted Counter
	DemandZero     Counter
	DemandFill     Counter
	CowBreaks      Counter
	FaultFailures  Counter

	trace *ring
}

// New returns a Counters with a trace ring of the given capacity.
func New(traceCapacity int) *Counters {
	return &Counters{trace: newRing(traceCapacity)}
}

// Trace records a fault outcome in the ring buffer.
func (c *Counters) Trace(e FaultEvent) {
	if c == nil {
		return
	}
	c.trace.push(e)
}

// RecentFaults returns the fault trace, oldest first.
func (c *Counters) RecentFaults() []FaultEvent {
	if c == nil {
		return nil
	}
	return c.trace.recent()
}

// printer formats diagnostic numbers with grouped thousands, the way a
// kernel log intended for a human operator (rather than a parser) would.
var printer = message.NewPrinter(language.English)

// Exhausted formats a pool-exhaustion diagnostic, e.g.
// "kpool: exhausted (0 of 4,096 free)".
func Exhausted(pool string, free, total int) string {
	return printer.Sprintf("%s: exhausted (%d of %d free)", pool, number.Decimal(free), number.Decimal(total))
}

// Logf writes a formatted diagnostic line, mirroring the teacher's plain
// fmt.Printf diagnostics (mem.Phys_init, mem.Dmap_init) rather than a
// structured logging library: see DESIGN.md for why no third-party
// logger is wired into this package.
func Logf(format string, args ...any) {
	fmt.Printf("vmcore: "+format+"\n", args...)
}

// DescribeFault decodes the first instruction in code as amd64 machine
// code and renders it for a SIGSEGV diagnostic, the userspace analogue of
// a kernel dumping the faulting EIP's disassembly.
func DescribeFault(code []byte) string {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return fmt.Sprintf("<undecodable: %v>", err)
	}
	return x86asm.GNUSyntax(inst, 0, nil)
}

// Snapshot renders the live counters as a pprof profile.Profile with a
// single "events"/"count" sample type, one sample per counter labelled
// with the counter's name, so an external tool can consume it with
// the same tooling the teacher's D_PROF device exists to feed.
func (c *Counters) Snapshot() *profile.Profile {
	mk := func(name string, value int64) *profile.Sample {
		return &profile.Sample{
			Location: nil,
			Value:    []int64{value},
			Label:    map[string][]string{"counter": {name}},
		}
	}
	return &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "events", Unit: "count"}},
		Sample: []*profile.Sample{
			mk("kpool_acquires", c.KpoolAcquires.Load()),
			mk("kpool_exhausted", c.KpoolExhausted.Load()),
			mk("frame_allocs", c.FrameAllocs.Load()),
			mk("frame_exhausted", c.FrameExhausted.Load()),
			mk("demand_zero", c.DemandZero.Load()),
			mk("demand_fill", c.DemandFill.Load()),
			mk("cow_breaks", c.CowBreaks.Load()),
			mk("fault_failures", c.FaultFailures.Load()),
		},
		TimeNanos: time.Now().UnixNano(),
	}
}
