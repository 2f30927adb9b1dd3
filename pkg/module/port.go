package module

import (
	"fmt"

	"github.com/oisee/arbolta/pkg/bitvec"
	"github.com/oisee/arbolta/pkg/signal"
)

// Direction is a port's data-flow direction at a module boundary.
type Direction int

const (
	Input Direction = iota
	Output
)

// ErrPortDirection is returned when writing to an Output port.
var ErrPortDirection = fmt.Errorf("module: cannot write to an output port")

// ErrPortConversion is returned when a bit-packing conversion fails.
var ErrPortConversion = fmt.Errorf("module: port value conversion failed")

// ShapeError reports an incompatible [rows, cols] reshape or array-set.
type ShapeError struct {
	Requested [2]int
	Actual    [2]int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("module: incompatible shapes: requested=%v, actual=%v", e.Requested, e.Actual)
}

// Port is a named, ordered bundle of signal indices at a module boundary,
// with a reinterpret shape and a direction.
type Port struct {
	SignalIndices []int
	Shape         [2]int // [num_elems, elem_size]; num_elems*elem_size == len(SignalIndices)
	Direction     Direction
	Signed        bool
}

// NewPort builds a Port with shape [1, len(indices)] (a single wide value).
func NewPort(indices []int, dir Direction, signed bool) Port {
	idx := make([]int, len(indices))
	copy(idx, indices)
	return Port{SignalIndices: idx, Shape: [2]int{1, len(idx)}, Direction: dir, Signed: signed}
}

// Width returns the port's bit width.
func (p *Port) Width() int {
	return len(p.SignalIndices)
}

// SetShape reinterprets the port's bits as [rows, cols] with rows*cols ==
// the port's bit width.
func (p *Port) SetShape(shape [2]int) error {
	if shape[0]*shape[1] != len(p.SignalIndices) {
		return &ShapeError{Requested: shape, Actual: p.Shape}
	}
	p.Shape = shape
	return nil
}

// Bits reads the port's current value as a BitVector.
func (p *Port) Bits(signals []signal.Signal) bitvec.BitVector {
	bits := make([]bitvec.Bit, len(p.SignalIndices))
	for i, idx := range p.SignalIndices {
		bits[i] = signals[idx].Value()
	}
	return bitvec.FromBits(bits)
}

// SetBits writes the first min(len(vals), Width()) bits of vals to the
// port's signal indices. Rejects with ErrPortDirection if the port is
// Output.
func (p *Port) SetBits(vals bitvec.BitVector, signals []signal.Signal) error {
	if p.Direction == Output {
		return ErrPortDirection
	}
	bits := vals.Bits()
	n := len(bits)
	if n > len(p.SignalIndices) {
		n = len(p.SignalIndices)
	}
	for i := 0; i < n; i++ {
		signals[p.SignalIndices[i]].SetValue(bits[i])
	}
	return nil
}

// Int reads the port's value as an integer of type T using the port's full
// width for the conversion.
func Int[T bitvec.Integer](p *Port, signals []signal.Signal) T {
	return bitvec.To[T](p.Bits(signals))
}

// SetInt writes val (sized to T's bit width) to the port's signals. On a
// port wider than T, the high bits beyond T's width are left untouched.
func SetInt[T bitvec.Integer](p *Port, val T, signals []signal.Signal) error {
	return p.SetBits(bitvec.FromInt(val), signals)
}

// IntVec reads the port's value as a slice of n=Shape[0] integers, each
// Shape[1] bits wide.
func IntVec[T bitvec.Integer](p *Port, signals []signal.Signal) []T {
	return bitvec.ToIntsSized[T](p.Bits(signals), p.Shape[1])
}

// SetIntVec writes vals to the port, chunked using Shape[1]-bit elements.
// Requires len(vals) == Shape[0].
func SetIntVec[T bitvec.Integer](p *Port, vals []T, signals []signal.Signal) error {
	if len(vals) != p.Shape[0] {
		return &ShapeError{Requested: [2]int{len(vals), p.Shape[1]}, Actual: p.Shape}
	}
	return p.SetBits(bitvec.FromIntsSized(vals, p.Shape[1]), signals)
}

// String renders the port's current value MSB-leftmost.
func (p *Port) String(signals []signal.Signal) string {
	return p.Bits(signals).String()
}
