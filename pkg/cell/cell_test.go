package cell

import (
	"testing"

	"github.com/oisee/arbolta/pkg/bitvec"
	"github.com/oisee/arbolta/pkg/signal"
)

func TestOneInputGates(t *testing.T) {
	cases := []struct {
		fn       Function
		a        bitvec.Bit
		expected bitvec.Bit
	}{
		{Inverter, bitvec.Zero, bitvec.One},
		{Inverter, bitvec.One, bitvec.Zero},
		{Buf, bitvec.Zero, bitvec.Zero},
		{Buf, bitvec.One, bitvec.One},
	}
	for _, c := range cases {
		signals := []signal.Signal{signal.NewConstant(c.a), signal.NewNet(1)}
		cl := Cell{Function: c.fn, NumInputs: 1}
		cl.InputIndices[0] = 0
		cl.OutputIndex = 1

		cl.Eval(signals)

		if got := signals[1].Value(); got != c.expected {
			t.Errorf("%v(%v) = %v, want %v", c.fn, c.a, got, c.expected)
		}
	}
}

func TestTwoInputGates(t *testing.T) {
	z, o := bitvec.Zero, bitvec.One
	cases := []struct {
		fn       Function
		a, b     bitvec.Bit
		expected bitvec.Bit
	}{
		{And, z, z, z}, {And, z, o, z}, {And, o, z, z}, {And, o, o, o},
		{Nor, z, z, o}, {Nor, z, o, z}, {Nor, o, z, z}, {Nor, o, o, z},
		{Nand, z, z, o}, {Nand, z, o, o}, {Nand, o, z, o}, {Nand, o, o, z},
		{Or, z, z, z}, {Or, z, o, o}, {Or, o, z, o}, {Or, o, o, o},
		{Xor, z, z, z}, {Xor, z, o, o}, {Xor, o, z, o}, {Xor, o, o, z},
		{Xnor, z, z, o}, {Xnor, z, o, z}, {Xnor, o, z, z}, {Xnor, o, o, o},
	}
	for _, c := range cases {
		signals := []signal.Signal{
			signal.NewConstant(c.a),
			signal.NewConstant(c.b),
			signal.NewNet(2),
		}
		cl := Cell{Function: c.fn, NumInputs: 2}
		cl.InputIndices[0], cl.InputIndices[1] = 0, 1
		cl.OutputIndex = 2

		cl.Eval(signals)

		if got := signals[2].Value(); got != c.expected {
			t.Errorf("%v(%v,%v) = %v, want %v", c.fn, c.a, c.b, got, c.expected)
		}
	}
}

func TestThreeInputOr(t *testing.T) {
	z, o := bitvec.Zero, bitvec.One
	cases := []struct {
		a, b, c, expected bitvec.Bit
	}{
		{z, z, z, z}, {z, z, o, o}, {z, o, z, o}, {z, o, o, o},
		{o, z, z, o}, {o, z, o, o}, {o, o, z, o}, {o, o, o, o},
	}
	for _, tc := range cases {
		signals := []signal.Signal{
			signal.NewConstant(tc.a),
			signal.NewConstant(tc.b),
			signal.NewConstant(tc.c),
			signal.NewNet(3),
		}
		cl := Cell{Function: Or, NumInputs: 3}
		cl.InputIndices[0], cl.InputIndices[1], cl.InputIndices[2] = 0, 1, 2
		cl.OutputIndex = 3

		cl.Eval(signals)

		if got := signals[3].Value(); got != tc.expected {
			t.Errorf("OR(%v,%v,%v) = %v, want %v", tc.a, tc.b, tc.c, got, tc.expected)
		}
	}
}

// TestDffPosEdge: with data held steady, three evaluations toggling clock
// 0 -> 1 -> 0 must latch exactly at the rising edge.
func TestDffPosEdge(t *testing.T) {
	cases := []struct {
		data     bitvec.Bit
		expected bitvec.Bit
	}{
		{bitvec.Zero, bitvec.Zero},
		{bitvec.One, bitvec.One},
	}
	for _, c := range cases {
		clk := signal.NewNet(0)
		signals := []signal.Signal{clk, signal.NewConstant(c.data), signal.NewNet(2)}

		cl := Cell{Function: DffPosEdge, NumInputs: 2}
		cl.InputIndices[0], cl.InputIndices[1] = 0, 1
		cl.OutputIndex = 2

		signals[0].SetValue(bitvec.Zero)
		cl.Eval(signals)
		signals[0].SetValue(bitvec.One)
		cl.Eval(signals)
		signals[0].SetValue(bitvec.Zero)
		cl.Eval(signals)

		if got := signals[2].Value(); got != c.expected {
			t.Errorf("DFF with data=%v -> q=%v, want %v", c.data, got, c.expected)
		}
	}
}

func TestDffClockSequence(t *testing.T) {
	clk := signal.NewNet(0)
	d := signal.NewNet(1)
	signals := []signal.Signal{clk, d, signal.NewNet(2)}

	cl := Cell{Function: DffPosEdge, NumInputs: 2}
	cl.InputIndices[0], cl.InputIndices[1] = 0, 1
	cl.OutputIndex = 2

	step := func(clkVal, dVal bitvec.Bit) bitvec.Bit {
		signals[1].SetValue(dVal)
		signals[0].SetValue(clkVal)
		cl.Eval(signals)
		return signals[2].Value()
	}

	if q := step(bitvec.Zero, bitvec.One); q != bitvec.Zero {
		t.Fatalf("after d=1,clk=0: q=%v, want 0", q)
	}
	if q := step(bitvec.One, bitvec.One); q != bitvec.One {
		t.Fatalf("after clk rising: q=%v, want 1", q)
	}
	if q := step(bitvec.One, bitvec.Zero); q != bitvec.One {
		t.Fatalf("held clk=1, d=0: q=%v, want 1 (no new edge)", q)
	}
	if q := step(bitvec.Zero, bitvec.Zero); q != bitvec.One {
		t.Fatalf("clk falls: q=%v, want 1", q)
	}
	if q := step(bitvec.One, bitvec.Zero); q != bitvec.Zero {
		t.Fatalf("clk rises again with d=0: q=%v, want 0", q)
	}
}

func TestResetClearsDffStateOnly(t *testing.T) {
	cl := Cell{Function: DffPosEdge, NumInputs: 2}
	cl.State[0], cl.State[1] = true, true
	cl.Reset()
	if cl.State[0] || cl.State[1] {
		t.Error("Reset must clear DFF state")
	}

	buf := Cell{Function: Buf, NumInputs: 1}
	buf.Reset() // no-op, must not panic
}

func TestTooManyInputsRejected(t *testing.T) {
	if _, err := New("X", And, ConnectionSize+1); err == nil {
		t.Fatal("expected ErrTooManyInputs")
	}
}
