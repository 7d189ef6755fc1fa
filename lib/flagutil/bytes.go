package flagutil

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// NewBytes returns new `bytes` flag with the given name, defaultValue and description.
func NewBytes(name string, defaultValue int64, description string) *Bytes {
	description += "\nSupports the following optional suffixes for `size` values: KB, MB, GB, TB, KiB, MiB, GiB, TiB"
	b := Bytes{
		N:           defaultValue,
		valueString: fmt.Sprintf("%d", defaultValue),
	}
	flag.Var(&b, name, description)
	return &b
}

// Bytes is a flag for holding size in bytes.
//
// It supports the following optional suffixes for values: KB, MB, GB, TB, KiB, MiB, GiB, TiB.
type Bytes struct {
	// N contains the parsed flag value in bytes.
	N int64

	valueString string
}

var byteSuffixes = []struct {
	suffix string
	scale  float64
}{
	{"KiB", 1 << 10},
	{"MiB", 1 << 20},
	{"GiB", 1 << 30},
	{"TiB", 1 << 40},
	{"KB", 1e3},
	{"MB", 1e6},
	{"GB", 1e9},
	{"TB", 1e12},
}

// String implements flag.Value interface
func (b *Bytes) String() string {
	return b.valueString
}

// Set implements flag.Value interface
func (b *Bytes) Set(value string) error {
	if value == "" {
		b.N = 0
		b.valueString = ""
		return nil
	}
	value = normalizeBytesString(value)
	scale := float64(1)
	numStr := value
	for _, bs := range byteSuffixes {
		if strings.HasSuffix(value, bs.suffix) {
			scale = bs.scale
			numStr = value[:len(value)-len(bs.suffix)]
			break
		}
	}
	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return fmt.Errorf("cannot parse `bytes` value %q: %w", value, err)
	}
	b.N = int64(f * scale)
	b.valueString = value
	return nil
}

func normalizeBytesString(s string) string {
	s = strings.ToUpper(s)
	return strings.ReplaceAll(s, "I", "i")
}
