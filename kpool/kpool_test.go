package kpool

import (
	"testing"

	"vmcore/hal"
)

func newTestMachine(t *testing.T, nrKpages int) *hal.Machine {
	t.Helper()
	cfg := hal.DefaultConfig()
	cfg.KPoolSize = nrKpages * cfg.PageSize
	m, err := hal.New(cfg)
	if err != nil {
		t.Fatalf("hal.New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestAcquireRelease(t *testing.T) {
	m := newTestMachine(t, 4)
	p := New(m)

	k, ok := p.Acquire(true)
	if !ok {
		t.Fatal("expected acquire to succeed")
	}
	if p.Refcount(k.Index()) != 1 {
		t.Fatalf("refcount = %d, want 1", p.Refcount(k.Index()))
	}
	p.Release(k)
	if p.Refcount(k.Index()) != 0 {
		t.Fatalf("refcount = %d, want 0 after release", p.Refcount(k.Index()))
	}
}

func TestAcquireCleanZeroes(t *testing.T) {
	m := newTestMachine(t, 2)
	p := New(m)

	k, _ := p.Acquire(true)
	b := p.Bytes(k)
	b[0] = 0xff
	p.Release(k)

	k2, _ := p.Acquire(true)
	if k2.Index() != k.Index() {
		t.Skip("allocator did not reuse the same slot; zeroing check not meaningful")
	}
	if p.Bytes(k2)[0] != 0 {
		t.Fatal("expected clean acquire to zero the page")
	}
}

func TestExhaustion(t *testing.T) {
	const n = 4
	m := newTestMachine(t, n)
	p := New(m)

	var acquired []KPg
	for i := 0; i < n; i++ {
		k, ok := p.Acquire(false)
		if !ok {
			t.Fatalf("acquire %d should have succeeded", i)
		}
		acquired = append(acquired, k)
	}

	if _, ok := p.Acquire(false); ok {
		t.Fatal("acquire on an exhausted pool should fail")
	}

	p.Release(acquired[0])
	if _, ok := p.Acquire(false); !ok {
		t.Fatal("acquire should succeed again after a release")
	}
}

func TestDoubleReleasePanics(t *testing.T) {
	m := newTestMachine(t, 2)
	p := New(m)
	k, _ := p.Acquire(false)
	p.Release(k)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double release")
		}
	}()
	p.Release(k)
}
