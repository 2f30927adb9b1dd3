// Package module implements the hierarchical netlist data structure: ports,
// components (cells or submodules), and the synchronous evaluation pass
// that propagates bit values through a module tree.
package module

import (
	"fmt"
	"sort"

	"github.com/oisee/arbolta/pkg/bitvec"
	"github.com/oisee/arbolta/pkg/cell"
	"github.com/oisee/arbolta/pkg/signal"
)

// MissingSignalError reports a lookup for a signal name the module does not
// own.
type MissingSignalError struct{ Name string }

func (e *MissingSignalError) Error() string {
	return fmt.Sprintf("module: no signal named %q", e.Name)
}

// MissingSignalIndexError reports a signal index outside the module's
// signal array.
type MissingSignalIndexError struct{ Index int }

func (e *MissingSignalIndexError) Error() string {
	return fmt.Sprintf("module: no signal at index %d", e.Index)
}

// MissingPortError reports a lookup for a port name the module does not
// have.
type MissingPortError struct{ Name string }

func (e *MissingPortError) Error() string {
	return fmt.Sprintf("module: no port named %q", e.Name)
}

// MissingModuleError reports a hierarchical search target that was never
// found.
type MissingModuleError struct{ Name string }

func (e *MissingModuleError) Error() string {
	return fmt.Sprintf("module: no submodule named %q", e.Name)
}

// Component is exactly one of a Cell or a child HardwareModule.
type Component struct {
	Cell   *cell.Cell
	Module *HardwareModule
}

// HardwareModule is a named container of signals, cells, and submodule
// instances, wired together by parent<->child signal bindings.
//
// Components is kept in the synthesizer's topological order and MUST NOT be
// reordered: it is also the evaluation order. Eval makes one linear pass,
// never iterating to a fixed point.
type HardwareModule struct {
	Name      string
	Ports     map[string]Port
	Signals   []signal.Signal
	SignalMap map[string]int

	Components   []Component
	ComponentMap map[string]int

	// InputConnections/OutputConnections are (parent_signal_id,
	// child_signal_id) pairs populated by the *parent* at the point this
	// module is instantiated as a child.
	InputConnections  [][2]int
	OutputConnections [][2]int
}

// New creates an empty HardwareModule ready for the importer to populate.
func New(name string) *HardwareModule {
	return &HardwareModule{
		Name:         name,
		Ports:        make(map[string]Port),
		SignalMap:    make(map[string]int),
		ComponentMap: make(map[string]int),
	}
}

// GetSignalIndex looks up a signal's index by name.
func (m *HardwareModule) GetSignalIndex(name string) (int, error) {
	idx, ok := m.SignalMap[name]
	if !ok {
		return 0, &MissingSignalError{Name: name}
	}
	return idx, nil
}

// SetSignal writes a bit directly to a signal index.
func (m *HardwareModule) SetSignal(idx int, val bitvec.Bit) error {
	if idx >= len(m.Signals) {
		return &MissingSignalIndexError{Index: idx}
	}
	m.Signals[idx].SetValue(val)
	return nil
}

// Eval traverses Components in order. For each Cell it evaluates against
// this module's signal array; for each submodule it copies parent->child
// across InputConnections, recursively evaluates the child, then copies
// child->parent across OutputConnections. Correctness depends on
// Components already being a topological sort of the combinational DAG,
// a guarantee Eval itself does not check.
func (m *HardwareModule) Eval() {
	for i := range m.Components {
		c := &m.Components[i]
		if c.Cell != nil {
			c.Cell.Eval(m.Signals)
			continue
		}
		child := c.Module
		for _, conn := range child.InputConnections {
			bit := m.Signals[conn[0]].Value()
			child.Signals[conn[1]].SetValue(bit)
		}
		child.Eval()
		for _, conn := range child.OutputConnections {
			bit := child.Signals[conn[1]].Value()
			m.Signals[conn[0]].SetValue(bit)
		}
	}
}

// Reset zeroes every owned Net (constants are unaffected) and recursively
// resets every component, clearing DFF state.
func (m *HardwareModule) Reset() {
	for i := range m.Signals {
		m.Signals[i].Reset()
	}
	for i := range m.Components {
		c := &m.Components[i]
		if c.Cell != nil {
			c.Cell.Reset()
		} else {
			c.Module.Reset()
		}
	}
}

// SearchSignal performs a depth-first, by-name lookup for a signal's
// current value, scanning this module's own signals first and then
// recursing into submodules.
func (m *HardwareModule) SearchSignal(name string) (bitvec.Bit, bool) {
	for i := range m.Signals {
		if m.Signals[i].Name() == name {
			return m.Signals[i].Value(), true
		}
	}
	for i := range m.Components {
		if m.Components[i].Module == nil {
			continue
		}
		if val, ok := m.Components[i].Module.SearchSignal(name); ok {
			return val, ok
		}
	}
	return bitvec.Zero, false
}

// --- Port access, routed through bitvec's packing rules. ---

func (m *HardwareModule) port(name string) (*Port, error) {
	p, ok := m.Ports[name]
	if !ok {
		return nil, &MissingPortError{Name: name}
	}
	// Ports is a value map, so the pointer is to a fresh copy and writes
	// through it are lost; callers that mutate a port read and store
	// m.Ports[name] themselves.
	return &p, nil
}

// SetPortShape reinterprets a port's bits as [rows, cols].
func (m *HardwareModule) SetPortShape(name string, shape [2]int) error {
	p, ok := m.Ports[name]
	if !ok {
		return &MissingPortError{Name: name}
	}
	if err := p.SetShape(shape); err != nil {
		return err
	}
	m.Ports[name] = p
	return nil
}

// GetPortShape returns a port's current [rows, cols] shape.
func (m *HardwareModule) GetPortShape(name string) ([2]int, error) {
	p, err := m.port(name)
	if err != nil {
		return [2]int{}, err
	}
	return p.Shape, nil
}

// GetPortDirection returns a port's direction.
func (m *HardwareModule) GetPortDirection(name string) (Direction, error) {
	p, err := m.port(name)
	if err != nil {
		return 0, err
	}
	return p.Direction, nil
}

// GetPortBits reads a port's current value as a BitVector.
func (m *HardwareModule) GetPortBits(name string) (bitvec.BitVector, error) {
	p, err := m.port(name)
	if err != nil {
		return bitvec.BitVector{}, err
	}
	return p.Bits(m.Signals), nil
}

// SetPortBits writes a BitVector to a port's signals.
func (m *HardwareModule) SetPortBits(name string, vals bitvec.BitVector) error {
	p, ok := m.Ports[name]
	if !ok {
		return &MissingPortError{Name: name}
	}
	return p.SetBits(vals, m.Signals)
}

// GetPortInt reads a port's value as an integer of type T.
func GetPortInt[T bitvec.Integer](m *HardwareModule, name string) (T, error) {
	p, err := m.port(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return Int[T](p, m.Signals), nil
}

// SetPortInt writes val to a named port.
func SetPortInt[T bitvec.Integer](m *HardwareModule, name string, val T) error {
	p, ok := m.Ports[name]
	if !ok {
		return &MissingPortError{Name: name}
	}
	return SetInt(&p, val, m.Signals)
}

// GetPortIntVec reads a port's value as a slice of Shape[0] integers.
func GetPortIntVec[T bitvec.Integer](m *HardwareModule, name string) ([]T, error) {
	p, err := m.port(name)
	if err != nil {
		return nil, err
	}
	if p.Shape[1] > bitvec.BitSize[T]() {
		return nil, fmt.Errorf("%w: %d-bit elements do not fit a %d-bit target",
			ErrPortConversion, p.Shape[1], bitvec.BitSize[T]())
	}
	return IntVec[T](p, m.Signals), nil
}

// SetPortIntVec writes vals to a named port, chunked per Shape[1].
func SetPortIntVec[T bitvec.Integer](m *HardwareModule, name string, vals []T) error {
	p, ok := m.Ports[name]
	if !ok {
		return &MissingPortError{Name: name}
	}
	if p.Shape[1] > bitvec.BitSize[T]() {
		return fmt.Errorf("%w: %d-bit elements do not fit a %d-bit source",
			ErrPortConversion, p.Shape[1], bitvec.BitSize[T]())
	}
	return SetIntVec(&p, vals, m.Signals)
}

// GetPortString renders a port's current value MSB-leftmost.
func (m *HardwareModule) GetPortString(name string) (string, error) {
	p, err := m.port(name)
	if err != nil {
		return "", err
	}
	return p.String(m.Signals), nil
}

// --- Hierarchical search. ---

// cellBreakdown aggregates leaf-cell instance counts (1 each) over this
// module and every descendant, by cell-type name.
func (m *HardwareModule) cellBreakdown() map[string]int {
	breakdown := make(map[string]int)
	for i := range m.Components {
		c := &m.Components[i]
		if c.Cell != nil {
			breakdown[c.Cell.Name]++
			continue
		}
		for name, count := range c.Module.cellBreakdown() {
			breakdown[name] += count
		}
	}
	return breakdown
}

// SearchModuleCellBreakdown returns the cell-type -> instance-count
// breakdown for the first module named `name` found via depth-first search
// rooted at m (m itself counts as a match).
func (m *HardwareModule) SearchModuleCellBreakdown(name string) (map[string]int, error) {
	if name == m.Name {
		return m.cellBreakdown(), nil
	}
	for i := range m.Components {
		c := &m.Components[i]
		if c.Module == nil {
			continue
		}
		if breakdown, err := c.Module.SearchModuleCellBreakdown(name); err == nil {
			return breakdown, nil
		}
	}
	return nil, &MissingModuleError{Name: name}
}

// totalToggleCount sums TotalToggleCount over every Net owned by this
// module and its descendants, excluding nets that are the child side of an
// InputConnections entry (those are driven copies of parent-side nets and
// would double-count that activity).
func (m *HardwareModule) totalToggleCount() int {
	driven := make(map[int]struct{}, len(m.InputConnections))
	for _, conn := range m.InputConnections {
		driven[conn[1]] = struct{}{}
	}

	total := 0
	for i := range m.Signals {
		if _, isDriven := driven[m.Signals[i].Index()]; isDriven {
			continue
		}
		total += m.Signals[i].TotalToggleCount()
	}
	for i := range m.Components {
		if m.Components[i].Module != nil {
			total += m.Components[i].Module.totalToggleCount()
		}
	}
	return total
}

// SearchModuleTotalToggleCount sums toggle activity over the subtree rooted
// at the first module named `name` found via depth-first search.
func (m *HardwareModule) SearchModuleTotalToggleCount(name string) (int, error) {
	if name == m.Name {
		return m.totalToggleCount(), nil
	}
	for i := range m.Components {
		c := &m.Components[i]
		if c.Module == nil {
			continue
		}
		if count, err := c.Module.SearchModuleTotalToggleCount(name); err == nil {
			return count, nil
		}
	}
	return 0, &MissingModuleError{Name: name}
}

// GetModulePortInt descends through the named submodule path (each
// element a direct child's name, outer to inner) and reads an integer port
// from the module found at the end of the path.
func GetModulePortInt[T bitvec.Integer](m *HardwareModule, path []string, name string) (T, error) {
	if len(path) == 0 {
		return GetPortInt[T](m, name)
	}
	for i := range m.Components {
		c := &m.Components[i]
		if c.Module != nil && c.Module.Name == path[0] {
			return GetModulePortInt[T](c.Module, path[1:], name)
		}
	}
	var zero T
	return zero, &MissingModuleError{Name: path[0]}
}

// ToggleStat is one net's toggle statistics, as reported by ToggleReport.
type ToggleStat struct {
	Name    string
	Rising  int
	Falling int
	Total   int
}

// ToggleReport snapshots toggle activity over every owned Net in this
// module's subtree (excluding child-side InputConnections nets, same rule
// as SearchModuleTotalToggleCount), sorted by total toggle count
// descending.
func (m *HardwareModule) ToggleReport() []ToggleStat {
	driven := make(map[int]struct{}, len(m.InputConnections))
	for _, conn := range m.InputConnections {
		driven[conn[1]] = struct{}{}
	}

	var stats []ToggleStat
	for i := range m.Signals {
		s := &m.Signals[i]
		if s.IsConstant() {
			continue
		}
		if _, isDriven := driven[s.Index()]; isDriven {
			continue
		}
		stats = append(stats, ToggleStat{
			Name:    s.Name(),
			Rising:  s.RisingToggleCount(),
			Falling: s.FallingToggleCount(),
			Total:   s.TotalToggleCount(),
		})
	}
	for i := range m.Components {
		if m.Components[i].Module != nil {
			stats = append(stats, m.Components[i].Module.ToggleReport()...)
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Total > stats[j].Total
	})
	return stats
}
