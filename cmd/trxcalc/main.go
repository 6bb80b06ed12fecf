package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dougsko/trx8/pkg/config"
	"github.com/dougsko/trx8/pkg/display"
	"github.com/dougsko/trx8/pkg/synth"
	"github.com/pborman/getopt"
)

func main() {
	defaults := config.Default()

	help := getopt.BoolLong("help", 'h', "display help")
	freq := getopt.Uint32Long("frequency", 'f', 7120000, "VFO frequency in Hz")
	lo := getopt.Uint32Long("lo", 'l', 0, "Local oscillator frequency in Hz (0 to skip)")
	offset := getopt.Uint32Long("offset", 'o', defaults.Radio.InterFrequency, "Intermediate frequency in Hz")
	clock := getopt.Uint32Long("clock", 'k', uint32(defaults.Radio.DDSClock), "DDS system clock in Hz")
	xtal := getopt.Uint32Long("xtal", 'x', defaults.Radio.CrystalFreq, "Si5351 crystal in Hz")
	ratio := getopt.Uint32Long("ratio", 'r', defaults.Radio.PLLRatio, "Si5351 PLL multiplier")
	asJSON := getopt.BoolLong("json", 'j', "Print JSON")

	getopt.Parse()

	if *help {
		fmt.Println("trxcalc - show the synthesizer programming for a frequency")
		getopt.Usage()
		os.Exit(0)
	}
	if *clock == 0 || *xtal == 0 || *ratio == 0 {
		fmt.Fprintln(os.Stderr, "clock, xtal and ratio must be positive")
		os.Exit(1)
	}

	dds := synth.ReportDDS(*freq, *offset, float64(*clock))
	var pll *synth.PLLReport
	if *lo != 0 {
		r := synth.ReportPLL(*lo, float64(*xtal), *ratio)
		pll = &r
	}

	if *asJSON {
		out := map[string]interface{}{"dds": dds}
		if pll != nil {
			out["pll"] = pll
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("VFO %s Hz (IF %s)\n", display.FormatFrequency(dds.Frequency), display.FormatFrequencySI(dds.Offset))
	fmt.Printf("  tuning word  %d (0x%08x)\n", dds.Word, dds.Word)
	fmt.Printf("  frame        %s\n", dds.Frame)
	fmt.Printf("  actual       %.3f Hz\n", dds.Actual)

	if pll == nil {
		return
	}
	fmt.Printf("LO  %s Hz\n", display.FormatFrequency(pll.Frequency))
	fmt.Printf("  P1/P2/P3     %d/%d/%d\n", pll.Params.P1, pll.Params.P2, pll.Params.P3)
	fmt.Printf("  divider      %.6f\n", pll.Divider)
	fmt.Printf("  registers    %s\n", pll.Registers)
	fmt.Printf("  actual       %.3f Hz\n", pll.Actual)
}
