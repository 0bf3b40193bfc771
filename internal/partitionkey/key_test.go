package partitionkey

import (
	"errors"
	"testing"
)

func TestNewAccessors(t *testing.T) {
	k := New(1, 2, 3)
	if k.ItemID() != 1 || k.PropertyID() != 2 || k.ContextID() != 3 {
		t.Fatalf("accessors mismatch: %+v", k)
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	cases := []Key{
		New(0, 0, 0),
		New(1, 2, 3),
		New(^uint64(0), ^uint64(0), ^uint64(0)),
		New(1<<63, 0, 1),
	}
	for _, k := range cases {
		s := k.String()
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got != k {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, k)
		}
	}
}

func TestLessOrdersByItemThenPropertyThenContext(t *testing.T) {
	a := New(1, 0, 0)
	b := New(1, 0, 1)
	c := New(2, 0, 0)
	if !a.Less(b) {
		t.Error("expected a < b on context")
	}
	if !b.Less(c) {
		t.Error("expected b < c on item")
	}
	if a.Less(a) {
		t.Error("key must not be less than itself")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{"", "-1", "abc", "1.5"}
	for _, s := range cases {
		if _, err := Parse(s); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q): expected ErrMalformed, got %v", s, err)
		}
	}
}

func TestParseRejectsOversizedValue(t *testing.T) {
	// 2^192 overflows the 24-byte key.
	tooBig := "6277101735386680763835789423207666416102355444464034512896"
	if _, err := Parse(tooBig); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for oversized value, got %v", err)
	}
}

func TestZeroDecimalStringHasNoLeadingZeros(t *testing.T) {
	if got := New(0, 0, 0).String(); got != "0" {
		t.Fatalf("expected %q, got %q", "0", got)
	}
}
