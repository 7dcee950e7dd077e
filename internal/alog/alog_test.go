package alog

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	if err != nil || lvl != logrus.InfoLevel {
		t.Fatalf("ParseLevel(\"\") = %v, %v; want InfoLevel, nil", lvl, err)
	}

	lvl, err = ParseLevel("trace")
	if err != nil || lvl != logrus.TraceLevel {
		t.Fatalf("ParseLevel(trace) = %v, %v; want TraceLevel, nil", lvl, err)
	}

	if _, err := ParseLevel("not-a-level"); err == nil {
		t.Fatal("expected an error for an unrecognized level")
	}
}

func TestNopImplementsLogger(t *testing.T) {
	var l Logger = Nop{}
	l.Trace("t")
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
}

func TestFields(t *testing.T) {
	f := fields([]any{"a", 1, "b", "two", "oddKeyIgnored"})
	if f["a"] != 1 || f["b"] != "two" {
		t.Fatalf("unexpected fields: %+v", f)
	}
	if len(f) != 2 {
		t.Fatalf("expected oddly-placed trailing key to be dropped, got %+v", f)
	}
}
