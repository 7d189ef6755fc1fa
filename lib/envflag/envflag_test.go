package envflag

import (
	"flag"
	"os"
	"testing"
)

func TestParseFlagSetCommandLinePriority(t *testing.T) {
	if err := os.Setenv("tst_flag_cmdline", "envValue"); err != nil {
		t.Fatalf("cannot set environment variable: %s", err)
	}
	defer os.Unsetenv("tst_flag_cmdline")

	*enable = true
	defer func() { *enable = false }()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	s := fs.String("tst.flag.cmdline", "default", "test flag")
	ParseFlagSet(fs, []string{"-tst.flag.cmdline=cmdlineValue"})
	if *s != "cmdlineValue" {
		t.Fatalf("unexpected flag value; got %q; want %q", *s, "cmdlineValue")
	}
}

func TestParseFlagSetEnvValue(t *testing.T) {
	if err := os.Setenv("tst_flag_env", "envValue"); err != nil {
		t.Fatalf("cannot set environment variable: %s", err)
	}
	defer os.Unsetenv("tst_flag_env")

	*enable = true
	defer func() { *enable = false }()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	s := fs.String("tst.flag.env", "default", "test flag")
	ParseFlagSet(fs, nil)
	if *s != "envValue" {
		t.Fatalf("unexpected flag value; got %q; want %q", *s, "envValue")
	}
}

func TestParseFlagSetDisabledEnv(t *testing.T) {
	if err := os.Setenv("tst_flag_disabled", "envValue"); err != nil {
		t.Fatalf("cannot set environment variable: %s", err)
	}
	defer os.Unsetenv("tst_flag_disabled")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	s := fs.String("tst.flag.disabled", "default", "test flag")
	ParseFlagSet(fs, nil)
	if *s != "default" {
		t.Fatalf("unexpected flag value; got %q; want %q", *s, "default")
	}
}
