package cell

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Info is a cell-library entry: the proxy for a Liberty standard-cell
// record the netlist importer and area reporting need.
type Info struct {
	Name      string
	Function  Function
	NumInputs int
	Area      float64
}

// Library maps cell-type names to their library entries. Callers may
// extend or replace it; the importer and area/breakdown reporting only
// depend on this interface.
type Library struct {
	cells map[string]Info
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{cells: make(map[string]Info)}
}

// Register adds or replaces a cell-library entry.
func (l *Library) Register(info Info) {
	l.cells[info.Name] = info
}

// Lookup returns the library entry for name.
func (l *Library) Lookup(name string) (Info, bool) {
	info, ok := l.cells[name]
	return info, ok
}

// Generate instantiates a fresh Cell for the named library entry, with
// zeroed wiring (the importer fills InputIndices/OutputIndex in).
func (l *Library) Generate(name string) (Cell, error) {
	info, ok := l.cells[name]
	if !ok {
		return Cell{}, fmt.Errorf("cell: library has no cell named %q", name)
	}
	return New(info.Name, info.Function, info.NumInputs)
}

// Area returns the per-instance area of the named cell.
func (l *Library) Area(name string) (float64, error) {
	info, ok := l.cells[name]
	if !ok {
		return 0, fmt.Errorf("cell: library has no cell named %q", name)
	}
	return info.Area, nil
}

// BreakdownArea sums count*area over a cell-name -> instance-count
// breakdown, as produced by a HardwareModule cell-breakdown search.
func (l *Library) BreakdownArea(breakdown map[string]int) (float64, error) {
	var total float64
	for name, count := range breakdown {
		area, err := l.Area(name)
		if err != nil {
			return 0, err
		}
		total += float64(count) * area
	}
	return total, nil
}

// GobEncode exposes the library's private cell map to gob, so a saved
// Design carries the exact library it was built against.
func (l Library) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l.cells); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode is the inverse of GobEncode.
func (l *Library) GobDecode(data []byte) error {
	cells := make(map[string]Info)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cells); err != nil {
		return err
	}
	l.cells = cells
	return nil
}

// DefaultLibrary returns the minimum cell library named in the external
// interface: BUF, NOT, NAND, NOR, DFF.
func DefaultLibrary() *Library {
	lib := NewLibrary()
	lib.Register(Info{Name: "BUF", Function: Buf, NumInputs: 1, Area: 4})
	lib.Register(Info{Name: "NOT", Function: Inverter, NumInputs: 1, Area: 2})
	lib.Register(Info{Name: "NAND", Function: Nand, NumInputs: 2, Area: 4})
	lib.Register(Info{Name: "NOR", Function: Nor, NumInputs: 2, Area: 4})
	lib.Register(Info{Name: "DFF", Function: DffPosEdge, NumInputs: 2, Area: 8})
	return lib
}
