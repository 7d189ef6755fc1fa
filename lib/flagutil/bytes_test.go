package flagutil

import (
	"testing"
)

func TestBytesSetSuccess(t *testing.T) {
	f := func(value string, nExpected int64) {
		t.Helper()
		var b Bytes
		if err := b.Set(value); err != nil {
			t.Fatalf("unexpected error in b.Set(%q): %s", value, err)
		}
		if b.N != nExpected {
			t.Fatalf("unexpected value for %q; got %d; want %d", value, b.N, nExpected)
		}
		if s := b.String(); s != normalizeBytesString(value) {
			t.Fatalf("unexpected string representation for %q: %q", value, s)
		}
	}
	f("", 0)
	f("0", 0)
	f("1", 1)
	f("-1234", -1234)
	f("123.456", 123)
	f("1KiB", 1024)
	f("1.5kib", 1536)
	f("-1KiB", -1024)
	f("23MiB", 23*1024*1024)
	f("0.25GiB", 256*1024*1024)
	f("1.25TiB", 1.25*(1<<40))
	f("1KB", 1000)
	f("1.5kb", 1500)
	f("23MB", 23*1000*1000)
	f("0.25GB", 250*1000*1000)
	f("1.25TB", 1.25*1e12)
}

func TestBytesSetFailure(t *testing.T) {
	f := func(value string) {
		t.Helper()
		var b Bytes
		if err := b.Set(value); err == nil {
			t.Fatalf("expecting non-nil error in b.Set(%q)", value)
		}
	}
	f("foobar")
	f("5foobar")
	f("aKB")
	f("KiB")
	f("134xMB")
	f("2.43sdfGb")
	f("2.43sdfGIb")
}
