// Package yosys decodes the JSON netlist format emitted by Yosys's
// write_json backend into the synthesis-neutral netlist.Netlist form.
package yosys

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/golang/glog"

	"github.com/oisee/arbolta/pkg/bitvec"
	"github.com/oisee/arbolta/pkg/module"
	"github.com/oisee/arbolta/pkg/netlist"
)

// PortDirection mirrors Yosys's "input"/"output"/"inout" port-direction
// strings.
type PortDirection string

const (
	DirectionInput  PortDirection = "input"
	DirectionOutput PortDirection = "output"
	DirectionInOut  PortDirection = "inout"
)

// BitVal is one bit of a Yosys bit vector: either a net index (a JSON
// number) or one of the special strings "0", "1", "x", "z".
type BitVal struct {
	IsNet   bool
	NetIdx  int
	Special string
}

// UnmarshalJSON accepts both encodings Yosys emits for a single bit.
func (b *BitVal) UnmarshalJSON(data []byte) error {
	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		b.IsNet = true
		b.NetIdx = asInt
		return nil
	}
	var asStr string
	if err := json.Unmarshal(data, &asStr); err != nil {
		return fmt.Errorf("yosys: bit value is neither a number nor a string: %s", data)
	}
	b.Special = asStr
	return nil
}

// Port is one module port: its direction, signedness, and per-bit wiring.
type Port struct {
	Direction PortDirection `json:"direction"`
	Bits      []BitVal      `json:"bits"`
	Signed    int           `json:"signed"`
}

// Cell is one cell or submodule instance within a module.
type Cell struct {
	CellType    string              `json:"type"`
	Connections map[string][]BitVal `json:"connections"`
}

// NetName is a named alias over a run of bits, used to recover readable
// signal names for internal wires.
type NetName struct {
	Bits []BitVal `json:"bits"`
}

// Module is one Yosys JSON module record.
type Module struct {
	Ports    map[string]Port    `json:"ports"`
	Cells    map[string]Cell    `json:"cells"`
	NetNames map[string]NetName `json:"netnames"`
}

// Netlist is the root of a Yosys JSON netlist document.
type Netlist struct {
	Creator string            `json:"creator"`
	Modules map[string]Module `json:"modules"`
}

// ErrUnsupportedBit reports a constant X or Z bit, which this simulator has
// no two-valued representation for.
var ErrUnsupportedBit = fmt.Errorf("yosys: X/Z constant bits are not supported")

// ErrUnsupportedDirection reports an inout port, which this simulator does
// not model.
var ErrUnsupportedDirection = fmt.Errorf("yosys: inout ports are not supported")

func toSynthBit(b BitVal) (netlist.Bit, error) {
	if b.IsNet {
		return netlist.NetBit(b.NetIdx), nil
	}
	switch b.Special {
	case "0":
		return netlist.ConstBit(bitvec.Zero), nil
	case "1":
		return netlist.ConstBit(bitvec.One), nil
	default:
		return netlist.Bit{}, fmt.Errorf("%w: got %q", ErrUnsupportedBit, b.Special)
	}
}

func toSynthBits(bits []BitVal) ([]netlist.Bit, error) {
	out := make([]netlist.Bit, len(bits))
	for i, b := range bits {
		sb, err := toSynthBit(b)
		if err != nil {
			return nil, err
		}
		out[i] = sb
	}
	return out, nil
}

func toDirection(d PortDirection) (module.Direction, error) {
	switch d {
	case DirectionInput:
		return module.Input, nil
	case DirectionOutput:
		return module.Output, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrUnsupportedDirection, d)
	}
}

func toSynthPort(p Port) (netlist.Port, error) {
	dir, err := toDirection(p.Direction)
	if err != nil {
		return netlist.Port{}, err
	}
	bits, err := toSynthBits(p.Bits)
	if err != nil {
		return netlist.Port{}, err
	}
	return netlist.Port{Direction: dir, Bits: bits, Signed: p.Signed > 0}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSynthModule(m Module) (netlist.Module, error) {
	out := netlist.Module{
		Ports:     make(map[string]netlist.Port),
		PortOrder: sortedKeys(m.Ports),
		Cells:     make(map[string]netlist.Cell),
		CellOrder: sortedKeys(m.Cells),
		Nets:      make(map[string][]netlist.Bit),
		NetOrder:  sortedKeys(m.NetNames),
	}

	for _, name := range out.PortOrder {
		p, err := toSynthPort(m.Ports[name])
		if err != nil {
			return netlist.Module{}, fmt.Errorf("port %q: %w", name, err)
		}
		out.Ports[name] = p
	}

	for _, name := range out.CellOrder {
		yosysCell := m.Cells[name]
		order := sortedKeys(yosysCell.Connections)
		conns := make(map[string][]netlist.Bit, len(order))
		for _, portName := range order {
			bits, err := toSynthBits(yosysCell.Connections[portName])
			if err != nil {
				return netlist.Module{}, fmt.Errorf("cell %q port %q: %w", name, portName, err)
			}
			conns[portName] = bits
		}
		out.Cells[name] = netlist.Cell{
			CellType:        yosysCell.CellType,
			Connections:     conns,
			ConnectionOrder: order,
		}
	}

	for _, name := range out.NetOrder {
		bits, err := toSynthBits(m.NetNames[name].Bits)
		if err != nil {
			return netlist.Module{}, fmt.Errorf("net %q: %w", name, err)
		}
		out.Nets[name] = bits
	}

	return out, nil
}

func toNetlist(doc Netlist) (netlist.Netlist, error) {
	out := netlist.Netlist{
		Modules:     make(map[string]netlist.Module),
		ModuleOrder: sortedKeys(doc.Modules),
	}
	for _, name := range out.ModuleOrder {
		m, err := toSynthModule(doc.Modules[name])
		if err != nil {
			return netlist.Netlist{}, fmt.Errorf("module %q: %w", name, err)
		}
		out.Modules[name] = m
	}
	return out, nil
}

// ParseBytes decodes a Yosys JSON netlist document already held in memory.
func ParseBytes(raw []byte) (netlist.Netlist, error) {
	var doc Netlist
	if err := json.Unmarshal(raw, &doc); err != nil {
		return netlist.Netlist{}, &netlist.NetlistError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	out, err := toNetlist(doc)
	if err != nil {
		return netlist.Netlist{}, &netlist.NetlistError{Reason: err.Error()}
	}
	glog.V(1).Infof("yosys: parsed %d module(s) (creator=%q)", len(out.Modules), doc.Creator)
	return out, nil
}

// ParseFile reads and decodes a Yosys JSON netlist file from disk.
func ParseFile(path string) (netlist.Netlist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return netlist.Netlist{}, fmt.Errorf("yosys: reading %s: %w", path, err)
	}
	glog.V(2).Infof("yosys: loaded %s (%d bytes)", path, len(raw))
	return ParseBytes(raw)
}
