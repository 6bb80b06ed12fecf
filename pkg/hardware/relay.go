package hardware

import "fmt"

// Relay selects the band filter relays
type Relay interface {
	SetBandCode(code uint8) error
}

// GPIORelay drives a 3-bit band code onto three GPIO outputs, bit 0 first
type GPIORelay struct {
	gpio GPIOInterface
	pins [3]int
}

// NewGPIORelay creates a relay driver; pins must hold exactly three pin numbers
func NewGPIORelay(gpio GPIOInterface, pins []int) (*GPIORelay, error) {
	if len(pins) != 3 {
		return nil, fmt.Errorf("band relay needs 3 pins, got %d", len(pins))
	}
	r := &GPIORelay{gpio: gpio}
	copy(r.pins[:], pins)
	return r, nil
}

// SetBandCode sets each relay line from the matching code bit
func (r *GPIORelay) SetBandCode(code uint8) error {
	for bit, pin := range r.pins {
		if err := r.gpio.SetPin(pin, code&(1<<uint(bit)) != 0); err != nil {
			return fmt.Errorf("band relay bit %d: %w", bit, err)
		}
	}
	return nil
}
