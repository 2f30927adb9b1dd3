// Package netlist holds the intermediate, symbolic form a synthesis
// description is parsed into before it is materialized into an executable
// module.HardwareModule tree.
package netlist

import (
	"fmt"

	"github.com/oisee/arbolta/pkg/bitvec"
	"github.com/oisee/arbolta/pkg/cell"
	"github.com/oisee/arbolta/pkg/module"
	"github.com/oisee/arbolta/pkg/signal"
)

// Bit is either a constant 0/1 or an index into the owning module's net
// array, in the local context of one SynthModule.
type Bit struct {
	IsConstant bool
	Constant   bitvec.Bit
	NetIndex   int
}

// ConstBit builds a constant SynthBit.
func ConstBit(b bitvec.Bit) Bit { return Bit{IsConstant: true, Constant: b} }

// NetBit builds a net-index SynthBit.
func NetBit(idx int) Bit { return Bit{NetIndex: idx} }

// Port is one port of a symbolic module: direction, signedness, and the
// per-bit wiring (constant or net index) in the context of its own module.
type Port struct {
	Direction module.Direction
	Bits      []Bit
	Signed    bool
}

// Cell is one cell/submodule instance: its library/submodule type name and
// its per-port-name bit-list connections.
type Cell struct {
	CellType    string
	Connections map[string][]Bit
	// ConnectionOrder preserves the deterministic (sorted) order
	// Connections must be walked in: Go map iteration order is randomized,
	// and materialization must build the same executable module every time.
	ConnectionOrder []string
}

// Module is the symbolic form of one synthesized module: its ports, its
// cell/submodule instances (in synthesizer/topological order), and its
// named nets.
type Module struct {
	Ports map[string]Port
	// PortOrder/CellOrder preserve deterministic iteration order.
	PortOrder []string
	Cells     map[string]Cell
	CellOrder []string
	Nets      map[string][]Bit
	// NetOrder preserves deterministic iteration order over Nets.
	NetOrder []string
}

// MaxNetIndex returns the highest net index referenced anywhere in the
// module's named nets.
func (m *Module) MaxNetIndex() int {
	max := 0
	for _, bits := range m.Nets {
		for _, b := range bits {
			if !b.IsConstant && b.NetIndex > max {
				max = b.NetIndex
			}
		}
	}
	return max
}

// NetlistError reports a malformed or unsupported synthesis input.
type NetlistError struct{ Reason string }

func (e *NetlistError) Error() string { return fmt.Sprintf("netlist: %s", e.Reason) }

// Netlist is a parsed synthesis description: every module, keyed by name.
type Netlist struct {
	Modules map[string]Module
	// ModuleOrder preserves deterministic iteration order over Modules.
	ModuleOrder []string
}

func bitToIndex(b Bit) int {
	if b.IsConstant {
		if b.Constant == bitvec.One {
			return 1
		}
		return 0
	}
	return b.NetIndex
}

func portFromSynth(p Port) module.Port {
	indices := make([]int, len(p.Bits))
	for i, b := range p.Bits {
		indices[i] = bitToIndex(b)
	}
	return module.NewPort(indices, p.Direction, p.Signed)
}

// GenerateModule materializes the named module (and, recursively, every
// submodule instance it references whose cell type is not present in
// lib) into an executable module.HardwareModule tree.
//
// Materialization order:
//  1. Build the ports map from the SynthModule's ports.
//  2. Allocate signals[0..max_net_index]; 0 and 1 are the reserved
//     constants.
//  3. Install a Net at each net-indexed bit of every named net, so names
//     resolve through SignalMap.
//  4. For each cell instance (in deterministic order): either instantiate a
//     library Cell, or recurse to build a child HardwareModule and record
//     the parent<->child bindings on the child's InputConnections /
//     OutputConnections.
func (n *Netlist) GenerateModule(name string, lib *cell.Library) (*module.HardwareModule, error) {
	top, ok := n.Modules[name]
	if !ok {
		return nil, &NetlistError{Reason: fmt.Sprintf("module %q does not exist", name)}
	}

	hw := module.New(name)
	for _, portName := range top.PortOrder {
		hw.Ports[portName] = portFromSynth(top.Ports[portName])
	}

	maxIdx := top.MaxNetIndex()
	hw.Signals = signal.NewList(maxIdx + 1)
	// Bit indices 0 and 1 are reserved by upstream convention for the
	// constants 0 and 1 respectively.
	hw.Signals[1] = signal.NewConstant(bitvec.One)

	for _, netName := range top.NetOrder {
		bits := top.Nets[netName]
		for i, b := range bits {
			if b.IsConstant {
				continue
			}
			signalName := netName
			if len(bits) > 1 {
				signalName = fmt.Sprintf("%s[%d]", netName, i)
			}
			s := signal.NewNet(b.NetIndex)
			s.SetName(signalName)
			hw.SignalMap[signalName] = b.NetIndex
			hw.Signals[b.NetIndex] = s
		}
	}

	for _, instanceName := range top.CellOrder {
		synthCell := top.Cells[instanceName]
		comp, err := n.buildComponent(synthCell, lib)
		if err != nil {
			return nil, err
		}
		hw.ComponentMap[instanceName] = len(hw.Components)
		hw.Components = append(hw.Components, comp)
	}

	return hw, nil
}

func (n *Netlist) buildComponent(synthCell Cell, lib *cell.Library) (module.Component, error) {
	if info, ok := lib.Lookup(synthCell.CellType); ok {
		c, err := cell.New(info.Name, info.Function, info.NumInputs)
		if err != nil {
			return module.Component{}, err
		}
		for i, portName := range synthCell.ConnectionOrder {
			bits := synthCell.Connections[portName]
			c.InputIndices[i] = bitToIndex(bits[0])
		}
		// Inputs first, then output: the output slot is the one
		// immediately after the last declared input.
		c.OutputIndex = c.InputIndices[c.NumInputs]
		return module.Component{Cell: &c}, nil
	}

	submodule, err := n.GenerateModule(synthCell.CellType, lib)
	if err != nil {
		return module.Component{}, err
	}
	for _, portName := range synthCell.ConnectionOrder {
		bits := synthCell.Connections[portName]
		port, ok := submodule.Ports[portName]
		if !ok {
			return module.Component{}, &NetlistError{
				Reason: fmt.Sprintf("instance of %q has no port %q", synthCell.CellType, portName),
			}
		}
		for i, b := range bits {
			idx := bitToIndex(b)
			pair := [2]int{idx, port.SignalIndices[i]}
			if port.Direction == module.Input {
				submodule.InputConnections = append(submodule.InputConnections, pair)
			} else {
				submodule.OutputConnections = append(submodule.OutputConnections, pair)
			}
		}
	}
	return module.Component{Module: submodule}, nil
}
