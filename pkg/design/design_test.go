package design

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oisee/arbolta/pkg/cell"
	"github.com/oisee/arbolta/pkg/module"
	"github.com/oisee/arbolta/pkg/signal"
)

// dffDesign builds a Design wrapping a single DFF_POSEDGE cell with ports
// clk, d (inputs) and q (output), clock bound to "clk".
func dffDesign(t *testing.T) *Design {
	t.Helper()
	m := module.New("top")
	m.Signals = append(m.Signals, signal.NewNet(0), signal.NewNet(1), signal.NewNet(2))
	m.Signals[0].SetName("clk")
	m.Signals[1].SetName("d")
	m.Signals[2].SetName("q")
	m.SignalMap["clk"] = 0
	m.SignalMap["d"] = 1
	m.SignalMap["q"] = 2
	m.Ports["clk"] = module.NewPort([]int{0}, module.Input, false)
	m.Ports["d"] = module.NewPort([]int{1}, module.Input, false)
	m.Ports["q"] = module.NewPort([]int{2}, module.Output, false)

	c := cell.Cell{Name: "DFF", Function: cell.DffPosEdge, NumInputs: 2}
	c.InputIndices[0], c.InputIndices[1] = 0, 1
	c.OutputIndex = 2
	m.Components = append(m.Components, module.Component{Cell: &c})

	d := FromModule(m, cell.DefaultLibrary())
	if err := d.SetClock("clk"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestEvalClockedLatchesDffOnRisingEdge(t *testing.T) {
	d := dffDesign(t)
	module.SetPortInt(d.Module, "d", uint8(1))
	if err := d.EvalClocked(); err != nil {
		t.Fatal(err)
	}
	got, _ := module.GetPortInt[uint8](d.Module, "q")
	if got != 1 {
		t.Fatalf("q = %d after clocked eval with d=1, want 1", got)
	}

	module.SetPortInt(d.Module, "d", uint8(0))
	if err := d.EvalClocked(); err != nil {
		t.Fatal(err)
	}
	got, _ = module.GetPortInt[uint8](d.Module, "q")
	if got != 0 {
		t.Fatalf("q = %d after clocked eval with d=0, want 0", got)
	}
}

func TestEvalClockedMissingClockError(t *testing.T) {
	m := module.New("top")
	d := FromModule(m, cell.DefaultLibrary())
	err := d.EvalClocked()
	if _, ok := err.(*module.MissingSignalError); !ok {
		t.Fatalf("expected *module.MissingSignalError, got %v (%T)", err, err)
	}
}

func TestResetClockedMissingResetError(t *testing.T) {
	d := dffDesign(t)
	err := d.ResetClocked()
	if _, ok := err.(*module.MissingSignalError); !ok {
		t.Fatalf("expected *module.MissingSignalError, got %v (%T)", err, err)
	}
}

func TestResetClockedAssertsThenDeassertsReset(t *testing.T) {
	m := module.New("top")
	m.Signals = append(m.Signals, signal.NewNet(0), signal.NewNet(1), signal.NewNet(2))
	m.SignalMap["clk"], m.SignalMap["rst"], m.SignalMap["q"] = 0, 1, 2
	m.Ports["rst"] = module.NewPort([]int{1}, module.Input, false)

	d := FromModule(m, cell.DefaultLibrary())
	if err := d.SetClock("clk"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetReset("rst"); err != nil {
		t.Fatal(err)
	}
	if err := d.ResetClocked(); err != nil {
		t.Fatal(err)
	}
	if m.Signals[1].Value().Bool() {
		t.Fatal("reset should be deasserted after ResetClocked returns")
	}
}

// TestGetModuleAreaDefaultLibrary: 3 NAND + 2 NOT + 1 DFF against the
// default library is 3*4 + 2*2 + 1*8 = 24.
func TestGetModuleAreaDefaultLibrary(t *testing.T) {
	m := module.New("top")
	add := func(name string, fn cell.Function) {
		c := cell.Cell{Name: name, Function: fn}
		m.Components = append(m.Components, module.Component{Cell: &c})
	}
	add("NAND", cell.Nand)
	add("NAND", cell.Nand)
	add("NAND", cell.Nand)
	add("NOT", cell.Inverter)
	add("NOT", cell.Inverter)
	add("DFF", cell.DffPosEdge)

	d := FromModule(m, cell.DefaultLibrary())
	area, err := d.GetModuleArea("top")
	if err != nil {
		t.Fatal(err)
	}
	if area != 24 {
		t.Fatalf("area = %v, want 24", area)
	}
}

func TestGetModuleTotalToggleCount(t *testing.T) {
	d := dffDesign(t)
	for _, v := range []uint8{0, 1, 0, 1} {
		module.SetPortInt(d.Module, "d", v)
		d.Eval()
	}
	count, err := d.GetModuleTotalToggleCount("top")
	if err != nil {
		t.Fatal(err)
	}
	if count == 0 {
		t.Fatal("expected nonzero toggle activity after driving d through 0,1,0,1")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := dffDesign(t)
	module.SetPortInt(d.Module, "d", uint8(1))
	if err := d.EvalClocked(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "design.gob.gz")
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	wantQ, _ := module.GetPortInt[uint8](d.Module, "q")
	gotQ, err := module.GetPortInt[uint8](loaded.Module, "q")
	if err != nil {
		t.Fatal(err)
	}
	if gotQ != wantQ {
		t.Fatalf("loaded q = %d, want %d", gotQ, wantQ)
	}

	if loaded.Clock == nil || *loaded.Clock != *d.Clock {
		t.Fatal("loaded design lost its clock binding")
	}

	area, err := loaded.GetModuleArea("top")
	if err != nil {
		t.Fatal(err)
	}
	if area != 8 {
		t.Fatalf("loaded DFF area = %v, want 8", area)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
