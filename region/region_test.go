package region

import (
	"context"
	"testing"
)

func TestContains(t *testing.T) {
	r := New(0x1000, 0x3000, MayRead|MayWrite, false)
	cases := []struct {
		va   uintptr
		want bool
	}{
		{0x0fff, false},
		{0x1000, true},
		{0x2fff, true},
		{0x3000, false},
	}
	for _, tc := range cases {
		if got := r.Contains(tc.va); got != tc.want {
			t.Errorf("Contains(%#x) = %v, want %v", tc.va, got, tc.want)
		}
	}
}

func TestAnon(t *testing.T) {
	anon := New(0, 0x1000, MayRead, false)
	if !anon.Anon() {
		t.Fatal("region with no file reader should be anonymous")
	}
	anon.File = FileBacking{Reader: stubReader{}}
	if anon.Anon() {
		t.Fatal("region with a file reader should not be anonymous")
	}
}

type stubReader struct{}

func (stubReader) ReadAt(inode any, buf []byte, off int64) (int, error) { return len(buf), nil }

func TestLockUnlock(t *testing.T) {
	r := New(0, 0x1000, MayRead, false)
	if err := r.Lock(context.Background()); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	r.Unlock()
	if err := r.Lock(context.Background()); err != nil {
		t.Fatalf("Lock after Unlock: %v", err)
	}
	r.Unlock()
}

func TestLockBlocksSecondAcquire(t *testing.T) {
	r := New(0, 0x1000, MayRead, false)
	if err := r.Lock(context.Background()); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer r.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Lock(ctx); err == nil {
		t.Fatal("expected second Lock with a cancelled context to fail while held")
	}
}

func TestGrowStack(t *testing.T) {
	r := New(0x2000, 0x3000, MayRead|MayWrite, true)
	r.Grow(2, 0x1000)
	if r.Start != 0x0000 {
		t.Fatalf("Start = %#x, want 0", r.Start)
	}
}

func TestGrowNonStackPanics(t *testing.T) {
	r := New(0x2000, 0x3000, MayRead|MayWrite, false)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic growing a non-stack region")
		}
	}()
	r.Grow(1, 0x1000)
}

func TestTableFind(t *testing.T) {
	tbl := NewTable()
	a := New(0, 0x1000, MayRead, false)
	b := New(0x1000, 0x2000, MayRead|MayWrite, false)
	tbl.Insert(a)
	tbl.Insert(b)

	got, ok := tbl.Find(0x1500)
	if !ok || got != b {
		t.Fatal("expected Find to return region b")
	}
	if _, ok := tbl.Find(0x5000); ok {
		t.Fatal("expected Find to miss outside any region")
	}
	if len(tbl.All()) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(tbl.All()))
	}
}
