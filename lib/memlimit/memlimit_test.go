package memlimit

import (
	"testing"
)

func TestAllowed(t *testing.T) {
	n := Allowed()
	if n <= 0 {
		t.Fatalf("Allowed() must return positive value; got %d", n)
	}
}

func TestRemaining(t *testing.T) {
	n := Remaining()
	if n < 0 {
		t.Fatalf("Remaining() must return non-negative value; got %d", n)
	}
	total := Allowed() + n
	if total <= 0 {
		t.Fatalf("total memory must be positive; got %d", total)
	}
}

func TestSysTotalMemory(t *testing.T) {
	mem := sysTotalMemory()
	if mem <= 0 {
		t.Fatalf("sysTotalMemory() must return positive value; got %d", mem)
	}
}
