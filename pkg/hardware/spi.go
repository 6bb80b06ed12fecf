package hardware

import (
	"fmt"
	"sync"

	"github.com/dougsko/trx8/pkg/verbose"
)

// DDSPort is the serial link to the direct digital synthesizer
type DDSPort interface {
	// SetStrobe drives the I/O update strobe
	SetStrobe(high bool) error
	// Transfer shifts bytes out MSB-first
	Transfer(data []byte) error
	// Reset pulses the synthesizer reset line
	Reset() error
}

// BitBangSPI drives the AD9951 serial port from four GPIO lines
type BitBangSPI struct {
	gpio   GPIOInterface
	clock  int
	data   int
	strobe int
	reset  int
}

// NewBitBangSPI creates a bit-banged port on the given pins
func NewBitBangSPI(gpio GPIOInterface, clock, data, strobe, reset int) *BitBangSPI {
	return &BitBangSPI{gpio: gpio, clock: clock, data: data, strobe: strobe, reset: reset}
}

// SetStrobe drives the IO_UD line
func (s *BitBangSPI) SetStrobe(high bool) error {
	return s.gpio.SetPin(s.strobe, high)
}

// Transfer clocks each bit out on the rising edge of SCLK
func (s *BitBangSPI) Transfer(data []byte) error {
	verbose.Frame("dds", 0, "w", data)
	for _, b := range data {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if err := s.gpio.SetPin(s.clock, false); err != nil {
				return err
			}
			if err := s.gpio.SetPin(s.data, b&mask != 0); err != nil {
				return err
			}
			if err := s.gpio.SetPin(s.clock, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reset drives RESET high, low, high
func (s *BitBangSPI) Reset() error {
	for _, level := range []bool{true, false, true} {
		if err := s.gpio.SetPin(s.reset, level); err != nil {
			return fmt.Errorf("dds reset: %w", err)
		}
	}
	return nil
}

// MockDDSPort records the frames sent between strobe low and strobe high
type MockDDSPort struct {
	mu      sync.Mutex
	open    bool
	current []byte
	frames  [][]byte
	resets  int
}

// NewMockDDSPort creates a recording DDS port
func NewMockDDSPort() *MockDDSPort {
	return &MockDDSPort{}
}

// SetStrobe opens a frame on low and closes it on high
func (m *MockDDSPort) SetStrobe(high bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !high {
		m.open = true
		m.current = nil
		return nil
	}
	if m.open {
		m.frames = append(m.frames, m.current)
		m.open = false
	}
	return nil
}

// Transfer appends to the open frame
func (m *MockDDSPort) Transfer(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return fmt.Errorf("dds transfer outside of update strobe")
	}
	m.current = append(m.current, data...)
	return nil
}

// Reset counts reset pulses
func (m *MockDDSPort) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return nil
}

// Frames returns every completed frame
func (m *MockDDSPort) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.frames...)
}

// Resets returns the number of reset pulses
func (m *MockDDSPort) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}
