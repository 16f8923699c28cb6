package diag

import (
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	var c Counter
	if c.Load() != 0 {
		t.Fatal("fresh counter should read 0")
	}
	c.Inc()
	c.Inc()
	if c.Load() != 2 {
		t.Fatalf("Load() = %d, want 2", c.Load())
	}
}

func TestCountersTraceWraps(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		c.Trace(FaultEvent{Addr: uintptr(i), Kind: "zero", At: time.Unix(int64(i), 0)})
	}
	recent := c.RecentFaults()
	if len(recent) != 3 {
		t.Fatalf("len(RecentFaults()) = %d, want 3", len(recent))
	}
	// the ring holds capacity 3 and saw 5 pushes, so only events 2,3,4 survive.
	for i, want := range []uintptr{2, 3, 4} {
		if recent[i].Addr != want {
			t.Errorf("recent[%d].Addr = %d, want %d", i, recent[i].Addr, want)
		}
	}
}

func TestCountersNilSafe(t *testing.T) {
	var c *Counters
	c.Trace(FaultEvent{}) // must not panic
	if got := c.RecentFaults(); got != nil {
		t.Fatalf("RecentFaults() on nil Counters = %v, want nil", got)
	}
}

func TestExhausted(t *testing.T) {
	got := Exhausted("kpool", 0, 4096)
	want := "kpool: exhausted (0 of 4,096 free)"
	if got != want {
		t.Fatalf("Exhausted() = %q, want %q", got, want)
	}
}

func TestSnapshotHasAllCounters(t *testing.T) {
	c := New(1)
	c.KpoolAcquires.Inc()
	c.FrameExhausted.Inc()
	c.FrameExhausted.Inc()

	snap := c.Snapshot()
	if len(snap.Sample) != 8 {
		t.Fatalf("len(Sample) = %d, want 8", len(snap.Sample))
	}
	found := map[string]int64{}
	for _, s := range snap.Sample {
		found[s.Label["counter"][0]] = s.Value[0]
	}
	if found["kpool_acquires"] != 1 {
		t.Errorf("kpool_acquires = %d, want 1", found["kpool_acquires"])
	}
	if found["frame_exhausted"] != 2 {
		t.Errorf("frame_exhausted = %d, want 2", found["frame_exhausted"])
	}
}

func TestDescribeFaultUndecodable(t *testing.T) {
	got := DescribeFault(nil)
	if got == "" {
		t.Fatal("expected a non-empty description for undecodable input")
	}
}

func TestDescribeFaultDecodesNop(t *testing.T) {
	// 0x90 is NOP on amd64.
	got := DescribeFault([]byte{0x90})
	if got == "" {
		t.Fatal("expected a decoded instruction string")
	}
}
