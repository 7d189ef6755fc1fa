package cgroup

import (
	"testing"
)

func TestCountCPUs(t *testing.T) {
	f := func(s string, nExpected int) {
		t.Helper()
		n := countCPUs(s)
		if n != nExpected {
			t.Fatalf("unexpected result of countCPUs(%q); got %d; want %d", s, n, nExpected)
		}
	}
	f("", -1)
	f("1", 1)
	f("234", 1)
	f("1,2", 2)
	f("0-1", 2)
	f("0-0", 1)
	f("1-2,3,5-9,200-210", 2+1+5+11)
	f("0 1", -1)
	f("1-3-5", -1)
	f("foo", -1)
	f("1-foo", -1)
}

func TestParseCPUMaxSuccess(t *testing.T) {
	f := func(s string, want float64) {
		t.Helper()
		got, err := parseCPUMax(s)
		if err != nil {
			t.Fatalf("unexpected error in parseCPUMax(%q): %s", s, err)
		}
		if got != want {
			t.Fatalf("unexpected result of parseCPUMax(%q); got %f; want %f", s, got, want)
		}
	}
	f("max 100000", -1)
	f("200000 100000", 2)
	f("50000 100000", 0.5)
}

func TestParseCPUMaxFailure(t *testing.T) {
	f := func(s string) {
		t.Helper()
		if _, err := parseCPUMax(s); err == nil {
			t.Fatalf("expecting non-nil error in parseCPUMax(%q)", s)
		}
	}
	f("")
	f("foo")
	f("-100000 100000")
	f("100000 foo")
}

func TestGetCPUQuotaV2(t *testing.T) {
	// There is no cpu.max file in testdata, so the quota must be unavailable.
	if _, err := getCPUQuotaV2("testdata", "testdata/self/cgroup"); err == nil {
		t.Fatalf("expecting non-nil error for missing cpu.max")
	}
}
