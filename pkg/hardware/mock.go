package hardware

import (
	"fmt"
	"sync"

	"github.com/dougsko/trx8/pkg/logging"
)

// PinChange is one recorded MockGPIO write
type PinChange struct {
	Pin   int
	Value bool
}

// MockGPIO implements GPIOInterface for testing
type MockGPIO struct {
	pins    map[int]bool
	history []PinChange
	record  bool
	mu      sync.RWMutex
}

// NewMockGPIO creates a new mock GPIO interface
func NewMockGPIO() *MockGPIO {
	return &MockGPIO{
		pins: make(map[int]bool),
	}
}

// Initialize initializes the mock GPIO
func (g *MockGPIO) Initialize() error {
	logging.Debug("gpio", "mock GPIO initialized")
	return nil
}

// Close closes the mock GPIO
func (g *MockGPIO) Close() error {
	return nil
}

// Record turns pin history recording on or off and clears it
func (g *MockGPIO) Record(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record = on
	g.history = nil
}

// History returns the recorded pin writes
func (g *MockGPIO) History() []PinChange {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]PinChange(nil), g.history...)
}

// SetPin sets a GPIO pin value
func (g *MockGPIO) SetPin(pin int, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pins[pin] = value
	if g.record {
		g.history = append(g.history, PinChange{Pin: pin, Value: value})
	}
	return nil
}

// GetPin gets a GPIO pin value
func (g *MockGPIO) GetPin(pin int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.pins[pin], nil
}

// OLEDInterface defines a line-oriented text panel
type OLEDInterface interface {
	Initialize() error
	Close() error
	Clear() error
	WriteLine(line int, text string) error
	Display() error
	GetWidth() int
	GetHeight() int
}

// MockOLED implements OLEDInterface for testing
type MockOLED struct {
	width  int
	height int
	lines  map[int]string
	shown  map[int]string
	mu     sync.RWMutex
}

// NewMockOLED creates a new mock OLED interface
func NewMockOLED(width, height int) *MockOLED {
	return &MockOLED{
		width:  width,
		height: height,
		lines:  make(map[int]string),
		shown:  make(map[int]string),
	}
}

// Initialize initializes the mock OLED
func (o *MockOLED) Initialize() error {
	logging.Debugf("oled", "mock OLED initialized (%dx%d)", o.width, o.height)
	return nil
}

// Close closes the mock OLED
func (o *MockOLED) Close() error {
	return nil
}

// Clear clears the mock OLED display
func (o *MockOLED) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lines = make(map[int]string)
	return nil
}

// WriteLine writes a line to the mock OLED
func (o *MockOLED) WriteLine(line int, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if line < 0 || line >= o.height/8 { // 8 pixel rows per text line
		return fmt.Errorf("line %d out of range", line)
	}

	o.lines[line] = text
	return nil
}

// Display latches the written lines
func (o *MockOLED) Display() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.shown = make(map[int]string, len(o.lines))
	for i, text := range o.lines {
		o.shown[i] = text
	}
	return nil
}

// Line returns what the panel currently shows on line
func (o *MockOLED) Line(line int) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.shown[line]
}

// GetWidth returns the mock OLED width
func (o *MockOLED) GetWidth() int {
	return o.width
}

// GetHeight returns the mock OLED height
func (o *MockOLED) GetHeight() int {
	return o.height
}
