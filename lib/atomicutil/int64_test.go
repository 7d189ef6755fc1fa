package atomicutil

import (
	"sync"
	"testing"
	"unsafe"
)

func TestInt64(t *testing.T) {
	var x Int64
	if n := x.Load(); n != 0 {
		t.Fatalf("unexpected initial value; got %d; want 0", n)
	}
	x.Add(123)
	x.Add(-23)
	if n := x.Load(); n != 100 {
		t.Fatalf("unexpected value after adds; got %d; want 100", n)
	}
	if n := x.Add(-300); n != -200 {
		t.Fatalf("unexpected value returned from Add; got %d; want -200", n)
	}
	x.Store(0)
	if n := x.Load(); n != 0 {
		t.Fatalf("unexpected value after Store(0); got %d; want 0", n)
	}
}

func TestInt64Concurrent(t *testing.T) {
	const workers = 8
	const addsPerWorker = 10000

	var x Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < addsPerWorker; j++ {
				x.Add(2)
				x.Add(-1)
			}
		}()
	}
	wg.Wait()
	if n := x.Load(); n != workers*addsPerWorker {
		t.Fatalf("unexpected value after concurrent adds; got %d; want %d", n, workers*addsPerWorker)
	}
}

func TestInt64Padding(t *testing.T) {
	// Adjacent Int64 values in a slice must not share a cache line.
	a := make([]Int64, 2)
	a[0].Store(1)
	a[1].Store(2)
	if n := a[0].Load(); n != 1 {
		t.Fatalf("unexpected a[0]; got %d; want 1", n)
	}
	if n := a[1].Load(); n != 2 {
		t.Fatalf("unexpected a[1]; got %d; want 2", n)
	}
	p0 := uintptr(unsafe.Pointer(&a[0].Int64))
	p1 := uintptr(unsafe.Pointer(&a[1].Int64))
	if d := p1 - p0; d < uintptr(CacheLineSize) {
		t.Fatalf("embedded values are %d bytes apart; want at least %d", d, CacheLineSize)
	}
}
