package frame

import (
	"testing"

	"vmcore/hal"
)

func newTestMachine(t *testing.T, nrFrames int) *hal.Machine {
	t.Helper()
	cfg := hal.DefaultConfig()
	cfg.UMemSize = nrFrames * cfg.PageSize
	m, err := hal.New(cfg)
	if err != nil {
		t.Fatalf("hal.New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestAllocFree(t *testing.T) {
	m := newTestMachine(t, 4)
	p := New(m)

	fn, ok := p.Alloc()
	if !ok {
		t.Fatal("expected alloc to succeed")
	}
	if fn == 0 {
		t.Fatal("frame 0 must never be handed out")
	}
	if p.Refcount(fn) != 1 {
		t.Fatalf("refcount = %d, want 1", p.Refcount(fn))
	}
	p.Free(fn)
	if p.Refcount(fn) != 0 {
		t.Fatalf("refcount = %d, want 0 after free", p.Refcount(fn))
	}
}

func TestShareIsShared(t *testing.T) {
	m := newTestMachine(t, 4)
	p := New(m)

	fn, _ := p.Alloc()
	if p.IsShared(fn) {
		t.Fatal("freshly allocated frame should not be shared")
	}
	p.Share(fn)
	if !p.IsShared(fn) {
		t.Fatal("frame with refcount 2 should be shared")
	}
	p.Free(fn)
	if p.IsShared(fn) {
		t.Fatal("frame with refcount 1 should not be shared")
	}
	p.Free(fn)
	if p.Refcount(fn) != 0 {
		t.Fatal("expected refcount 0 after both references freed")
	}
}

func TestExhaustion(t *testing.T) {
	const n = 3
	m := newTestMachine(t, n)
	p := New(m)

	for i := 0; i < n; i++ {
		if _, ok := p.Alloc(); !ok {
			t.Fatalf("alloc %d should have succeeded", i)
		}
	}
	if _, ok := p.Alloc(); ok {
		t.Fatal("alloc on an exhausted frame pool should fail")
	}
}

func TestDoubleFreePanics(t *testing.T) {
	m := newTestMachine(t, 2)
	p := New(m)
	fn, _ := p.Alloc()
	p.Free(fn)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	p.Free(fn)
}

func TestShareOfFreeFramePanics(t *testing.T) {
	m := newTestMachine(t, 2)
	p := New(m)
	fn, _ := p.Alloc()
	p.Free(fn)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when sharing a free frame")
		}
	}()
	p.Share(fn)
}

func TestBytesRoundtrip(t *testing.T) {
	m := newTestMachine(t, 2)
	p := New(m)
	fn, _ := p.Alloc()
	b := p.Bytes(fn)
	b[0] = 0x42
	if p.Bytes(fn)[0] != 0x42 {
		t.Fatal("expected write through Bytes to persist")
	}
}
