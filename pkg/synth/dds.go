package synth

import (
	"fmt"
	"sync"

	"github.com/dougsko/trx8/pkg/hardware"
)

// InstructionSetFTW is the AD9951 serial instruction that writes the frequency tuning word
const InstructionSetFTW = 0x04

// ScaleFactor returns K = 2^32 / clock, the tuning-word units per hertz
func ScaleFactor(clock float64) float64 {
	return 4294967296.0 / clock
}

// TuningWord returns floor((f + offset) * k) as an unsigned 32-bit word.
// The result is truncated, not rounded. There is no range check: the sum
// and the product both wrap modulo 2^32.
func TuningWord(f, offset uint32, k float64) uint32 {
	return uint32(uint64(float64(f+offset) * k))
}

// DDSFrame serializes a tuning word behind the instruction byte, MSB first
func DDSFrame(word uint32) [5]byte {
	return [5]byte{
		InstructionSetFTW,
		byte(word >> 24),
		byte(word >> 16),
		byte(word >> 8),
		byte(word),
	}
}

// AD9951 drives the DDS that generates the VFO signal
type AD9951 struct {
	mu     sync.Mutex
	port   hardware.DDSPort
	offset uint32
	k      float64
	word   uint32
	freq   uint32
}

// NewAD9951 creates a DDS driver; offset is the intermediate frequency added
// to every target frequency and clock the DDS reference clock in Hz
func NewAD9951(port hardware.DDSPort, offset uint32, clock float64) *AD9951 {
	return &AD9951{
		port:   port,
		offset: offset,
		k:      ScaleFactor(clock),
	}
}

// Reset pulses the DDS reset line
func (d *AD9951) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port.Reset()
}

// SetFrequency transmits the tuning word for f framed by the update strobe:
// strobe low, instruction + 4 word bytes, strobe high
func (d *AD9951) SetFrequency(f uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	word := TuningWord(f, d.offset, d.k)
	frame := DDSFrame(word)

	if err := d.port.SetStrobe(false); err != nil {
		return fmt.Errorf("dds strobe: %w", err)
	}
	if err := d.port.Transfer(frame[:]); err != nil {
		return fmt.Errorf("dds transfer: %w", err)
	}
	if err := d.port.SetStrobe(true); err != nil {
		return fmt.Errorf("dds strobe: %w", err)
	}

	d.word = word
	d.freq = f
	return nil
}

// Last returns the last programmed frequency and its tuning word
func (d *AD9951) Last() (freq, word uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freq, d.word
}
