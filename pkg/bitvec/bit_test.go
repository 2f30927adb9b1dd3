package bitvec

import (
	"errors"
	"testing"
)

func TestBitNot(t *testing.T) {
	if Zero.Not() != One || One.Not() != Zero {
		t.Fatal("Not truth table wrong")
	}
	for _, b := range []Bit{Zero, One} {
		if b.Not().Not() != b {
			t.Errorf("not(not(%v)) != %v", b, b)
		}
	}
}

func TestBitAndOrXorIdempotent(t *testing.T) {
	for _, b := range []Bit{Zero, One} {
		if b.And(b) != b {
			t.Errorf("%v AND %v != %v", b, b, b)
		}
		if b.Or(b) != b {
			t.Errorf("%v OR %v != %v", b, b, b)
		}
		if b.Xor(b) != Zero {
			t.Errorf("%v XOR %v != 0", b, b)
		}
	}
}

func TestBitTruthTables(t *testing.T) {
	cases := []struct {
		a, b         Bit
		and, or, xor Bit
	}{
		{Zero, Zero, Zero, Zero, Zero},
		{Zero, One, Zero, One, One},
		{One, Zero, Zero, One, One},
		{One, One, One, One, Zero},
	}
	for _, c := range cases {
		if got := c.a.And(c.b); got != c.and {
			t.Errorf("%v AND %v = %v, want %v", c.a, c.b, got, c.and)
		}
		if got := c.a.Or(c.b); got != c.or {
			t.Errorf("%v OR %v = %v, want %v", c.a, c.b, got, c.or)
		}
		if got := c.a.Xor(c.b); got != c.xor {
			t.Errorf("%v XOR %v = %v, want %v", c.a, c.b, got, c.xor)
		}
	}
}

func TestBitFromChar(t *testing.T) {
	b, err := BitFromChar('0')
	if err != nil || b != Zero {
		t.Fatalf("'0' -> %v, %v", b, err)
	}
	b, err = BitFromChar('1')
	if err != nil || b != One {
		t.Fatalf("'1' -> %v, %v", b, err)
	}
	if _, err := BitFromChar('x'); !errors.Is(err, ErrParseBit) {
		t.Fatalf("expected ErrParseBit, got %v", err)
	}
}

func TestBitFromIntErrors(t *testing.T) {
	if _, err := BitFromInt(0); err != nil {
		t.Fatal(err)
	}
	if _, err := BitFromInt(1); err != nil {
		t.Fatal(err)
	}
	if _, err := BitFromInt(2); !errors.Is(err, ErrParseBit) {
		t.Fatalf("expected ErrParseBit, got %v", err)
	}
}

func TestBitBoolRoundTrip(t *testing.T) {
	if BitFromBool(true) != One || BitFromBool(false) != Zero {
		t.Fatal("bool conversion wrong")
	}
	if !One.Bool() || Zero.Bool() {
		t.Fatal("Bool() wrong")
	}
}
