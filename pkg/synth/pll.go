package synth

import (
	"fmt"
	"math"
	"sync"

	"github.com/dougsko/trx8/pkg/hardware"
	"github.com/dougsko/trx8/pkg/logging"
)

// Si5351 register map
const (
	RegClockEnable    = 3
	RegPLLSource      = 15
	RegClock0Control  = 16
	RegClock1Control  = 17
	RegClock2Control  = 18
	RegSynthPLLA      = 26
	RegSynthPLLB      = 34
	RegSynthMS0       = 42
	RegSynthMS1       = 50
	RegSynthMS2       = 58
	RegSpreadSpectrum = 149
	RegPLLReset       = 177
	RegXtalLoadCap    = 183
)

// Denominator is the fixed fractional denominator c used for every divider
const Denominator = 0xFFFFF

// Params are the divider a + b/c of one Si5351 synthesizer block and its
// register encoding
type Params struct {
	A, B, C    uint32
	P1, P2, P3 uint32
}

// encode turns a + b/c into the chip's P1/P2/P3 form
func encode(a, b, c uint32) Params {
	t := 128 * b / c
	return Params{
		A:  a,
		B:  b,
		C:  c,
		P1: 128*a + t - 512,
		P2: 128*b - c*t,
		P3: c,
	}
}

// Multisynth returns the divider parameters that make the multisynth emit f
// from a VCO running at xtal*ratio
func Multisynth(f, xtal, ratio float64) Params {
	fdiv := xtal * ratio / f
	a := math.Floor(fdiv)
	b := math.Floor((fdiv - a) * Denominator)
	return encode(uint32(a), uint32(b), Denominator)
}

// VCOParams returns the feedback divider parameters for an integer ratio
func VCOParams(ratio uint32) Params {
	return encode(ratio, 0, Denominator)
}

// Registers packs params into the 8-byte register block layout
func (p Params) Registers() [8]byte {
	return [8]byte{
		byte(p.P3 >> 8),
		byte(p.P3),
		byte((p.P1 >> 16) & 0x03),
		byte(p.P1 >> 8),
		byte(p.P1),
		byte((p.P3>>12)&0xF0) | byte((p.P2>>16)&0x0F),
		byte(p.P2 >> 8),
		byte(p.P2),
	}
}

// Divider recovers a + b/c from the encoded parameters
func (p Params) Divider() float64 {
	// P1 = 128a + floor(128b/c) - 512, P2 = 128b - c*floor(128b/c)
	// so 128*(a + b/c) = P1 + 512 + P2/c
	return (float64(p.P1) + 512 + float64(p.P2)/float64(p.P3)) / 128
}

// OutputFrequency returns the frequency the multisynth produces with params
func OutputFrequency(p Params, xtal, ratio float64) float64 {
	return xtal * ratio / p.Divider()
}

// Si5351 drives the clock generator that provides the local oscillator
type Si5351 struct {
	mu    sync.Mutex
	bus   hardware.Bus
	addr  uint16
	xtal  float64
	ratio uint32
	freq  uint32
}

// NewSi5351 creates a driver for the chip at addr
func NewSi5351(bus hardware.Bus, addr uint16, xtal float64, ratio uint32) *Si5351 {
	return &Si5351{bus: bus, addr: addr, xtal: xtal, ratio: ratio}
}

// Start configures the crystal source, outputs and PLLA
func (s *Si5351) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := []struct {
		reg   byte
		value byte
	}{
		{RegPLLSource, 0x00},
		{RegSpreadSpectrum, 0x00},
		{RegXtalLoadCap, 0xD2},
		{RegClockEnable, 0x00},
		{RegClock0Control, 0x0E},
		{RegClock1Control, 0x0E},
		{RegClock2Control, 0x0E},
		{RegPLLReset, 1 << 5},
	}
	for _, w := range steps {
		if err := s.bus.WriteRegister(s.addr, w.reg, w.value); err != nil {
			return fmt.Errorf("si5351 init register %d: %w", w.reg, err)
		}
	}

	if err := s.writeBlock(RegSynthPLLA, VCOParams(s.ratio)); err != nil {
		return fmt.Errorf("si5351 pll: %w", err)
	}

	logging.Debugf("si5351", "started at 0x%02x, VCO %.0f Hz", s.addr, s.xtal*float64(s.ratio))
	return nil
}

// SetFrequency programs multisynth 0
func (s *Si5351) SetFrequency(hz uint32) error {
	return s.SetOutput(0, hz)
}

// SetOutput programs multisynth 0, 1 or 2 to hz
func (s *Si5351) SetOutput(output int, hz uint32) error {
	if output < 0 || output > 2 {
		return fmt.Errorf("si5351 has no output %d", output)
	}
	if hz == 0 {
		return fmt.Errorf("si5351 cannot generate 0 Hz")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	params := Multisynth(float64(hz), s.xtal, float64(s.ratio))
	if err := s.writeBlock(RegSynthMS0+byte(output)*8, params); err != nil {
		return fmt.Errorf("si5351 multisynth %d: %w", output, err)
	}
	if output == 0 {
		s.freq = hz
	}
	return nil
}

// Frequency returns the last frequency programmed on output 0
func (s *Si5351) Frequency() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freq
}

func (s *Si5351) writeBlock(start byte, params Params) error {
	regs := params.Registers()
	for i, value := range regs {
		if err := s.bus.WriteRegister(s.addr, start+byte(i), value); err != nil {
			return err
		}
	}
	return nil
}
