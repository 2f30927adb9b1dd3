// Command arbolta loads a synthesized gate-level netlist, evaluates it
// against caller-supplied port values, and reports area and toggle
// activity.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/oisee/arbolta/pkg/cell"
	"github.com/oisee/arbolta/pkg/design"
	"github.com/oisee/arbolta/pkg/module"
	"github.com/oisee/arbolta/pkg/netlist/yosys"
)

func main() {
	defer glog.Flush()

	rootCmd := &cobra.Command{
		Use:   "arbolta",
		Short: "Gate-level netlist simulator",
	}
	// Surface glog's -v/-logtostderr flags alongside cobra's own.
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	var topModule string
	var setFlags []string
	var clock string

	evalCmd := &cobra.Command{
		Use:   "eval [netlist.json]",
		Short: "Evaluate a module once against the given port values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nl, err := yosys.ParseFile(args[0])
			if err != nil {
				return err
			}
			hw, err := nl.GenerateModule(topModule, cell.DefaultLibrary())
			if err != nil {
				return err
			}

			for _, assignment := range setFlags {
				name, val, err := parseAssignment(assignment)
				if err != nil {
					return err
				}
				if err := module.SetPortInt(hw, name, val); err != nil {
					return fmt.Errorf("setting %s: %w", name, err)
				}
			}

			d := design.FromModule(hw, cell.DefaultLibrary())
			if clock != "" {
				if err := d.SetClock(clock); err != nil {
					return err
				}
				if err := d.EvalClocked(); err != nil {
					return err
				}
			} else {
				d.Eval()
			}

			names := make([]string, 0, len(hw.Ports))
			for name := range hw.Ports {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if hw.Ports[name].Direction != module.Output {
					continue
				}
				str, _ := hw.GetPortString(name)
				fmt.Printf("%s = %s\n", name, str)
			}
			return nil
		},
	}
	evalCmd.Flags().StringVar(&topModule, "module", "", "top-level module name (required)")
	evalCmd.Flags().StringArrayVar(&setFlags, "set", nil, "port=value assignment, repeatable")
	evalCmd.Flags().StringVar(&clock, "clock", "", "clock port name; when set, evaluates one clocked cycle")
	evalCmd.MarkFlagRequired("module")

	reportCmd := &cobra.Command{
		Use:   "report [netlist.json]",
		Short: "Print a module's cell-area breakdown and total toggle activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nl, err := yosys.ParseFile(args[0])
			if err != nil {
				return err
			}
			lib := cell.DefaultLibrary()
			hw, err := nl.GenerateModule(topModule, lib)
			if err != nil {
				return err
			}
			d := design.FromModule(hw, lib)

			breakdown, err := d.GetModuleBreakdown(topModule)
			if err != nil {
				return err
			}
			fmt.Println("cell breakdown:")
			cellNames := make([]string, 0, len(breakdown))
			for name := range breakdown {
				cellNames = append(cellNames, name)
			}
			sort.Strings(cellNames)
			for _, name := range cellNames {
				fmt.Printf("  %-8s x%d\n", name, breakdown[name])
			}

			area, err := d.GetModuleArea(topModule)
			if err != nil {
				return err
			}
			fmt.Printf("total area: %.1f\n", area)

			toggles, err := d.GetModuleTotalToggleCount(topModule)
			if err != nil {
				return err
			}
			fmt.Printf("total toggles: %d\n", toggles)
			return nil
		},
	}
	reportCmd.Flags().StringVar(&topModule, "module", "", "top-level module name (required)")
	reportCmd.MarkFlagRequired("module")

	rootCmd.AddCommand(evalCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseAssignment(s string) (string, uint64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf("--set wants name=value, got %q", s)
	}
	val, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return "", 0, fmt.Errorf("--set %s: %w", s, err)
	}
	return name, val, nil
}
