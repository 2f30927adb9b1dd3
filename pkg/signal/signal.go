// Package signal implements wires: either a fixed constant bit or a named,
// mutable net that tracks rising/falling toggle activity.
package signal

import (
	"bytes"
	"encoding/gob"

	"github.com/oisee/arbolta/pkg/bitvec"
)

// Signal is either an immutable Constant or a mutable, named Net. It is a
// small tagged struct rather than an interface so dispatch stays a few field
// checks instead of a virtual call, since evaluation walks these by the million.
type Signal struct {
	isConst bool
	value   bitvec.Bit

	// Net-only fields; zero-valued and unused for Constants.
	index         int
	name          string
	togglesRising int
	togglesFall   int
}

// NewConstant creates an immutable constant signal holding val.
func NewConstant(val bitvec.Bit) Signal {
	return Signal{isConst: true, value: val}
}

// NewNet creates a mutable net at the given index, value zero.
func NewNet(index int) Signal {
	return Signal{index: index}
}

// NewNetFrom creates a mutable net at the given index with an initial value.
func NewNetFrom(index int, val bitvec.Bit) Signal {
	return Signal{index: index, value: val}
}

// NewList returns a slice of size Constant(Zero) signals.
func NewList(size int) []Signal {
	out := make([]Signal, size)
	for i := range out {
		out[i] = NewConstant(bitvec.Zero)
	}
	return out
}

// IsConstant reports whether the signal is an immutable constant.
func (s *Signal) IsConstant() bool {
	return s.isConst
}

// Value returns the signal's current bit value.
func (s *Signal) Value() bitvec.Bit {
	return s.value
}

// Index returns the net's index. Constants report 0 (they have no identity
// in the netlist's signal array, per the upstream convention that slots 0
// and 1 are the reserved constant signals).
func (s *Signal) Index() int {
	if s.isConst {
		return 0
	}
	return s.index
}

// Name returns the net's name, or the literal "const" for a constant.
func (s *Signal) Name() string {
	if s.isConst {
		return "const"
	}
	return s.name
}

// SetName renames a net. No-op on constants.
func (s *Signal) SetName(name string) {
	if s.isConst {
		return
	}
	s.name = name
}

// SetValue writes a new value, updating toggle counters on a Net. 0->1
// increments the rising counter, 1->0 increments the falling counter; a
// same-value write is a no-op and does not touch the counters. Writes to a
// Constant are always silent no-ops.
func (s *Signal) SetValue(val bitvec.Bit) {
	if s.isConst {
		return
	}
	switch {
	case s.value == bitvec.Zero && val == bitvec.One:
		s.togglesRising++
	case s.value == bitvec.One && val == bitvec.Zero:
		s.togglesFall++
	default:
		return
	}
	s.value = val
}

// Reset zeroes the value and both toggle counters of a Net. Constants are
// unaffected.
func (s *Signal) Reset() {
	if s.isConst {
		return
	}
	s.value = bitvec.Zero
	s.togglesRising = 0
	s.togglesFall = 0
}

// TotalToggleCount returns rising+falling transitions since the last reset.
// Always 0 for constants.
func (s *Signal) TotalToggleCount() int {
	if s.isConst {
		return 0
	}
	return s.togglesRising + s.togglesFall
}

// RisingToggleCount returns the number of 0->1 transitions since reset.
func (s *Signal) RisingToggleCount() int {
	if s.isConst {
		return 0
	}
	return s.togglesRising
}

// FallingToggleCount returns the number of 1->0 transitions since reset.
func (s *Signal) FallingToggleCount() int {
	if s.isConst {
		return 0
	}
	return s.togglesFall
}

// signalGob mirrors Signal's private fields for gob serialization, since
// gob only sees exported fields.
type signalGob struct {
	IsConst       bool
	Value         bitvec.Bit
	Index         int
	Name          string
	TogglesRising int
	TogglesFall   int
}

// GobEncode lets a design's saved signal array round-trip its toggle
// counters and net identity, not just its current value.
func (s Signal) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	g := signalGob{s.isConst, s.value, s.index, s.name, s.togglesRising, s.togglesFall}
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode is the inverse of GobEncode.
func (s *Signal) GobDecode(data []byte) error {
	var g signalGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err
	}
	s.isConst, s.value, s.index, s.name = g.IsConst, g.Value, g.Index, g.Name
	s.togglesRising, s.togglesFall = g.TogglesRising, g.TogglesFall
	return nil
}
