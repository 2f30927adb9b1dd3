// Package cell implements standard-cell instances: the atomic units of
// combinational or sequential compute that a HardwareModule wires together.
package cell

import (
	"errors"
	"fmt"

	"github.com/oisee/arbolta/pkg/bitvec"
	"github.com/oisee/arbolta/pkg/signal"
)

func boolBit(b bool) bitvec.Bit {
	return bitvec.BitFromBool(b)
}

// ConnectionSize bounds a cell's fan-in, so Cell stays a flat,
// cache-friendly value instead of carrying a heap-allocated slice.
const ConnectionSize = 8

// StateSize bounds the per-instance state array; only DffPosEdge uses it,
// to hold (last output, last clock).
const StateSize = 2

// Function identifies a standard cell's combinational or sequential
// behavior.
type Function int

const (
	Buf Function = iota
	Inverter
	And
	Or
	Nand
	Nor
	Xor
	Xnor
	DffPosEdge
)

var functionNames = map[Function]string{
	Buf: "BUF", Inverter: "NOT", And: "AND", Or: "OR",
	Nand: "NAND", Nor: "NOR", Xor: "XOR", Xnor: "XNOR", DffPosEdge: "DFF_POSEDGE",
}

func (f Function) String() string {
	if name, ok := functionNames[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// ErrTooManyInputs is returned when a cell is asked to carry more inputs
// than ConnectionSize allows.
var ErrTooManyInputs = errors.New("cell: num_inputs exceeds ConnectionSize")

// Cell is one standard-cell instance: a function, its input/output wiring
// (as indices into the owning module's signal array), and any per-instance
// state needed for sequential behavior.
type Cell struct {
	Name         string
	Function     Function
	NumInputs    int
	InputIndices [ConnectionSize]int
	OutputIndex  int
	State        [StateSize]bool // only meaningful for DffPosEdge: (last_Q, last_clock)
}

// New creates a cell of the given function and name with no wiring set yet;
// callers (the netlist importer) fill in InputIndices/OutputIndex/NumInputs.
func New(name string, fn Function, numInputs int) (Cell, error) {
	if numInputs > ConnectionSize {
		return Cell{}, fmt.Errorf("%w: %s wants %d", ErrTooManyInputs, name, numInputs)
	}
	return Cell{Name: name, Function: fn, NumInputs: numInputs}, nil
}

// Eval reads NumInputs bits from the shared signal array, computes one
// output bit per the cell's Function, and writes it to OutputIndex (which
// itself silently no-ops against a constant sink and keeps toggle counters
// accurate, since writes flow through Signal.SetValue).
func (c *Cell) Eval(signals []signal.Signal) {
	in := func(i int) bool {
		return signals[c.InputIndices[i]].Value().Bool()
	}

	var out bool
	switch c.Function {
	case Buf:
		out = in(0)
	case Inverter:
		out = !in(0)
	case And:
		out = in(0)
		for i := 1; i < c.NumInputs; i++ {
			out = out && in(i)
		}
	case Or:
		out = in(0)
		for i := 1; i < c.NumInputs; i++ {
			out = out || in(i)
		}
	case Xor:
		out = in(0)
		for i := 1; i < c.NumInputs; i++ {
			out = out != in(i)
		}
	case Nand:
		out = in(0)
		for i := 1; i < c.NumInputs; i++ {
			out = out && in(i)
		}
		out = !out
	case Nor:
		out = in(0)
		for i := 1; i < c.NumInputs; i++ {
			out = out || in(i)
		}
		out = !out
	case Xnor:
		out = in(0)
		for i := 1; i < c.NumInputs; i++ {
			out = out != in(i)
		}
		out = !out
	case DffPosEdge:
		clock, data := in(0), in(1)
		lastOut, lastClock := c.State[0], c.State[1]
		if clock && !lastClock {
			out = data
		} else {
			out = lastOut
		}
		c.State[0], c.State[1] = out, clock
	}

	signals[c.OutputIndex].SetValue(boolBit(out))
}

// Reset clears DFF state to zero; other cell functions have no state.
func (c *Cell) Reset() {
	if c.Function == DffPosEdge {
		c.State[0], c.State[1] = false, false
	}
}
