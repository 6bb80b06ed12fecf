package hardware

import (
	"fmt"
	"sync"
)

// ADC channels of the front panel
const (
	ChannelKeys        = 4
	ChannelSupply      = 5
	ChannelMeter       = 6
	ChannelTemperature = 7
)

// ADC reads raw 12-bit conversions
type ADC interface {
	Read(channel int) (int, error)
}

// Sensors reports the analog housekeeping values shown on the display
type Sensors interface {
	// SupplyVoltage returns the supply in tenths of a volt
	SupplyVoltage() (int, error)
	// PATemperature returns the PA heatsink temperature in degrees Celsius
	PATemperature() (int, error)
	// MeterLevel returns the S-meter / power reading, 0..255
	MeterLevel() (int, error)
	// Transmitting reports the TX/RX sense line
	Transmitting() (bool, error)
}

// VoltageFromADC converts the 1:11 supply divider reading to tenths of a volt
func VoltageFromADC(counts int) int {
	return int(float64(counts) * 0.088623046875)
}

// TemperatureFromADC converts a KTY81-210 reading in a 1k divider to degrees Celsius
func TemperatureFromADC(counts int) int {
	ux := 3.3 * float64(counts) / 4096
	if ux <= 0 {
		return 0
	}
	rx := 1000 / (3.3/ux - 1)
	return int((rx - 1630) / 17.62)
}

// MeterFromADC scales a 12-bit meter reading to 0..255
func MeterFromADC(counts int) int {
	return counts >> 4
}

// ADCSensors derives Sensors from an ADC and a TX sense input
type ADCSensors struct {
	adc   ADC
	gpio  GPIOInterface
	txPin int
}

// NewADCSensors creates sensors on adc; gpio may be nil when there is no TX sense line
func NewADCSensors(adc ADC, gpio GPIOInterface, txPin int) *ADCSensors {
	return &ADCSensors{adc: adc, gpio: gpio, txPin: txPin}
}

func (s *ADCSensors) SupplyVoltage() (int, error) {
	counts, err := s.adc.Read(ChannelSupply)
	if err != nil {
		return 0, fmt.Errorf("supply voltage: %w", err)
	}
	return VoltageFromADC(counts), nil
}

func (s *ADCSensors) PATemperature() (int, error) {
	counts, err := s.adc.Read(ChannelTemperature)
	if err != nil {
		return 0, fmt.Errorf("pa temperature: %w", err)
	}
	return TemperatureFromADC(counts), nil
}

func (s *ADCSensors) MeterLevel() (int, error) {
	counts, err := s.adc.Read(ChannelMeter)
	if err != nil {
		return 0, fmt.Errorf("meter: %w", err)
	}
	return MeterFromADC(counts), nil
}

// Transmitting reads the active-low TX sense line
func (s *ADCSensors) Transmitting() (bool, error) {
	if s.gpio == nil {
		return false, nil
	}
	level, err := s.gpio.GetPin(s.txPin)
	if err != nil {
		return false, err
	}
	return !level, nil
}

// MockADC returns fixed counts per channel
type MockADC struct {
	mu     sync.Mutex
	counts map[int]int
}

// NewMockADC creates an ADC reading a 13.7 V supply, 21 C heatsink and an idle meter
func NewMockADC() *MockADC {
	return &MockADC{counts: map[int]int{
		ChannelKeys:        4095,
		ChannelSupply:      1557,
		ChannelMeter:       320,
		ChannelTemperature: 2731,
	}}
}

// Set changes the counts returned for channel
func (m *MockADC) Set(channel, counts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[channel] = counts
}

func (m *MockADC) Read(channel int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts, ok := m.counts[channel]
	if !ok {
		return 0, fmt.Errorf("adc channel %d not connected", channel)
	}
	return counts, nil
}
