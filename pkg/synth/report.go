package synth

import "github.com/dougsko/trx8/pkg/verbose"

// DDSReport is the AD9951 programming for one VFO frequency
type DDSReport struct {
	Frequency uint32  `json:"frequency"`
	Offset    uint32  `json:"offset"`
	Word      uint32  `json:"word"`
	Frame     string  `json:"frame"`
	Actual    float64 `json:"actual"`
}

// PLLReport is the Si5351 multisynth programming for one LO frequency
type PLLReport struct {
	Frequency uint32  `json:"frequency"`
	Params    Params  `json:"params"`
	Registers string  `json:"registers"`
	Divider   float64 `json:"divider"`
	Actual    float64 `json:"actual"`
}

// ReportDDS computes what the DDS is sent for f
func ReportDDS(f, offset uint32, clock float64) DDSReport {
	word := TuningWord(f, offset, ScaleFactor(clock))
	frame := DDSFrame(word)
	return DDSReport{
		Frequency: f,
		Offset:    offset,
		Word:      word,
		Frame:     verbose.Hex(frame[:]),
		Actual:    float64(word)/ScaleFactor(clock) - float64(offset),
	}
}

// ReportPLL computes what the Si5351 multisynth is sent for f
func ReportPLL(f uint32, xtal float64, ratio uint32) PLLReport {
	params := Multisynth(float64(f), xtal, float64(ratio))
	regs := params.Registers()
	return PLLReport{
		Frequency: f,
		Params:    params,
		Registers: verbose.Hex(regs[:]),
		Divider:   params.Divider(),
		Actual:    OutputFrequency(params, xtal, float64(ratio)),
	}
}
