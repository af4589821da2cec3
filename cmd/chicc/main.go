// Command chicc is a thin demonstration driver for the MIR→LLVM code generation core: it
// assembles a target.Target and an isa.Config from flags, builds a small worked-example
// MirModule (see demo.go), and writes the LLVM IR text the module emitter produces. It is not
// the compiler — the front end and resolver that would produce a real MirModule from surface
// source live outside this core (spec.md §1) — it is the one place a Target/CpuIsaConfig/
// MirModule gets wired together end to end, kept as a worked example per SPEC_FULL.md §10.1.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chicc/internal/codegen/module"
	"chicc/internal/diag"
	"chicc/internal/isa"
	"chicc/internal/layout"
	"chicc/internal/target"
)

var (
	flagArch    string
	flagOS      string
	flagVendor  string
	flagCPUISA  string
	flagSVEBits uint32
	flagOut     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chicc",
		Short: "MIR to LLVM IR code generator demonstration driver",
		RunE:  runGenerate,
	}
	flags := cmd.Flags()
	flags.StringVar(&flagArch, "target", "x86_64", "target architecture (x86_64, aarch64)")
	flags.StringVar(&flagOS, "os", "linux", "target operating system (linux, windows, macos)")
	flags.StringVar(&flagVendor, "vendor", "pc", "target triple vendor field (pc, apple, unknown)")
	flags.StringVar(&flagCPUISA, "cpu-isa", "baseline", "CPU ISA tier list, CPU profile name, or \"auto\"")
	flags.Uint32Var(&flagSVEBits, "sve-bits", 0, "SVE vector width in bits, a multiple of 128 (aarch64 only)")
	flags.StringVarP(&flagOut, "out", "o", "", "output file path (default: stdout)")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	arch, err := target.ParseArch(flagArch)
	if err != nil {
		return err
	}
	t := target.Target{Arch: arch, Vendor: parseVendor(flagVendor), OS: parseOS(flagOS)}

	cpuIsa, err := isa.ParseList(flagCPUISA)
	if err != nil {
		return err
	}
	if flagSVEBits != 0 {
		if err := cpuIsa.SetSveBits(flagSVEBits); err != nil {
			return err
		}
	}

	bag := &diag.Bag{}
	effective := cpuIsa.EffectiveTiers(t.Arch)
	if len(effective) == 0 {
		bag.Fatalf("cmd/chicc", "cpu-isa %q named no tiers valid for target %s", flagCPUISA, t.Arch)
	}
	if bag.Fatal() {
		return fmt.Errorf("%s", bag.String())
	}

	layouts := layout.NewTable()
	mod := buildDemoModule(layouts)

	ir, err := module.Emit(layouts, mod, t.Triple(), t.DataLayout(), t.Arch)
	if err != nil {
		return fmt.Errorf("code generation error: %w", err)
	}

	if flagOut == "" {
		_, err = fmt.Fprint(os.Stdout, ir)
		return err
	}
	return os.WriteFile(flagOut, []byte(ir), 0o644)
}

func parseVendor(s string) target.Vendor {
	switch s {
	case "pc":
		return target.PC
	case "apple":
		return target.Apple
	default:
		return target.UnknownVendor
	}
}

func parseOS(s string) target.OS {
	switch s {
	case "linux":
		return target.Linux
	case "windows":
		return target.Windows
	case "macos":
		return target.MacOS
	default:
		return target.UnknownOS
	}
}
