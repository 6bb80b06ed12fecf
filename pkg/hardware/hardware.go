package hardware

import (
	"fmt"
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/logging"
)

// EEPROMSize is the capacity of the 24C65 frequency store in bytes
const EEPROMSize = 8192

// HardwareConfig represents hardware configuration
type HardwareConfig struct {
	Mock bool

	I2CBus        string
	Si5351Address uint16
	EEPROMAddress uint16
	BusTimeout    time.Duration

	DDSClockPin  int
	DDSDataPin   int
	DDSUpdatePin int
	DDSResetPin  int

	RelayPins    []int
	StatusLEDPin int
	TXSensePin   int

	EncoderPinA string
	EncoderPinB string

	EnableOLED bool
	OLEDWidth  int
	OLEDHeight int
}

// HardwareManager manages all hardware interfaces
type HardwareManager struct {
	config HardwareConfig
	mutex  sync.RWMutex

	// Hardware interfaces
	gpio    GPIOInterface
	bus     Bus
	dds     DDSPort
	relay   Relay
	oled    OLEDInterface
	sensors Sensors
	encoder *PeriphEncoder
	keypad  *Keypad
	adc     *MockADC

	ledOn bool

	// State
	initialized bool
}

// NewHardwareManager creates a new hardware manager
func NewHardwareManager(config HardwareConfig) *HardwareManager {
	return &HardwareManager{
		config: config,
	}
}

// Initialize builds the mock or Linux collaborators
func (h *HardwareManager) Initialize() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initialized {
		return nil
	}

	logging.Info("hardware", "initializing hardware manager", logging.Fields{"mock": h.config.Mock})

	var err error
	if h.config.Mock {
		err = h.initMock()
	} else {
		err = h.initLinux()
	}
	if err != nil {
		h.closeLocked()
		return err
	}

	relay, err := NewGPIORelay(h.gpio, h.config.RelayPins)
	if err != nil {
		h.closeLocked()
		return err
	}
	h.relay = relay

	if h.config.EnableOLED {
		// Use mock OLED for now - the panel driver is not wired yet
		h.oled = NewMockOLED(h.config.OLEDWidth, h.config.OLEDHeight)
		if err := h.oled.Initialize(); err != nil {
			h.closeLocked()
			return fmt.Errorf("failed to initialize OLED: %w", err)
		}
	}

	h.initialized = true
	logging.Info("hardware", "hardware manager initialized")
	return nil
}

func (h *HardwareManager) initMock() error {
	gpio := NewMockGPIO()
	if err := gpio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize GPIO: %w", err)
	}
	// TX sense is active-low; idle the mock in receive
	if err := gpio.SetPin(h.config.TXSensePin, true); err != nil {
		return fmt.Errorf("failed to idle TX sense: %w", err)
	}
	h.gpio = gpio

	bus := NewMockBus()
	bus.AddRegisterDevice(h.config.Si5351Address)
	bus.AddEEPROM(h.config.EEPROMAddress, EEPROMSize)
	h.bus = bus

	h.dds = NewMockDDSPort()
	h.adc = NewMockADC()
	h.sensors = NewADCSensors(h.adc, gpio, h.config.TXSensePin)
	h.keypad = NewKeypad(h.adc)

	logging.Debugf("hardware", "mock bus: si5351 at 0x%02x, eeprom at 0x%02x",
		h.config.Si5351Address, h.config.EEPROMAddress)
	return nil
}

func (h *HardwareManager) initLinux() error {
	gpio := NewLinuxGPIO()
	if err := gpio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize GPIO: %w", err)
	}
	h.gpio = gpio

	bus, err := OpenPeriphBus(h.config.I2CBus, h.config.BusTimeout)
	if err != nil {
		return err
	}
	h.bus = bus

	h.dds = NewBitBangSPI(gpio, h.config.DDSClockPin, h.config.DDSDataPin,
		h.config.DDSUpdatePin, h.config.DDSResetPin)

	if h.config.EncoderPinA != "" {
		encoder, err := OpenPeriphEncoder(h.config.EncoderPinA, h.config.EncoderPinB)
		if err != nil {
			return err
		}
		h.encoder = encoder
	}

	// No ADC driver on the SBC build: only the TX sense line is read
	h.sensors = NewADCSensors(noADC{}, gpio, h.config.TXSensePin)

	logging.Infof("hardware", "linux hardware on i2c bus %q, DDS on GPIO %d/%d/%d/%d",
		h.config.I2CBus, h.config.DDSClockPin, h.config.DDSDataPin,
		h.config.DDSUpdatePin, h.config.DDSResetPin)
	return nil
}

// Close shuts down hardware interfaces
func (h *HardwareManager) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initialized {
		return nil
	}

	logging.Info("hardware", "shutting down hardware manager")
	h.closeLocked()
	h.initialized = false
	return nil
}

func (h *HardwareManager) closeLocked() {
	if h.encoder != nil {
		if err := h.encoder.Halt(); err != nil {
			logging.Warnf("hardware", "error halting encoder: %v", err)
		}
		h.encoder = nil
	}
	if h.oled != nil {
		if err := h.oled.Close(); err != nil {
			logging.Warnf("hardware", "error closing OLED: %v", err)
		}
		h.oled = nil
	}
	if closer, ok := h.bus.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logging.Warnf("hardware", "error closing bus: %v", err)
		}
	}
	h.bus = nil
	if h.gpio != nil {
		if err := h.gpio.Close(); err != nil {
			logging.Warnf("hardware", "error closing GPIO: %v", err)
		}
		h.gpio = nil
	}
}

// SetStatusLED drives the status LED
func (h *HardwareManager) SetStatusLED(on bool) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.gpio == nil {
		return fmt.Errorf("hardware not initialized")
	}
	if err := h.gpio.SetPin(h.config.StatusLEDPin, on); err != nil {
		return fmt.Errorf("status LED: %w", err)
	}
	h.ledOn = on
	return nil
}

// ToggleStatusLED inverts the status LED
func (h *HardwareManager) ToggleStatusLED() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.gpio == nil {
		return
	}
	if err := h.gpio.SetPin(h.config.StatusLEDPin, !h.ledOn); err != nil {
		logging.Debugf("hardware", "status LED: %v", err)
		return
	}
	h.ledOn = !h.ledOn
}

// StatusLED reports the status LED state
func (h *HardwareManager) StatusLED() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.ledOn
}

// IsInitialized returns whether hardware is initialized
func (h *HardwareManager) IsInitialized() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.initialized
}

// GetConfig returns the hardware configuration
func (h *HardwareManager) GetConfig() HardwareConfig {
	return h.config
}

// GPIO returns the GPIO interface
func (h *HardwareManager) GPIO() GPIOInterface {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.gpio
}

// Bus returns the I2C bus shared by the Si5351 and the EEPROM
func (h *HardwareManager) Bus() Bus {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.bus
}

// DDSPort returns the DDS serial port
func (h *HardwareManager) DDSPort() DDSPort {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.dds
}

// Relay returns the band relay driver
func (h *HardwareManager) Relay() Relay {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.relay
}

// OLED returns the OLED panel, nil when disabled
func (h *HardwareManager) OLED() OLEDInterface {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.oled
}

// Sensors returns the housekeeping sensors
func (h *HardwareManager) Sensors() Sensors {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.sensors
}

// Encoder returns the hardware encoder, nil in mock mode
func (h *HardwareManager) Encoder() *PeriphEncoder {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.encoder
}

// Keypad returns the analog key ladder, nil when the board has no ADC
func (h *HardwareManager) Keypad() *Keypad {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.keypad
}

// MockADC returns the simulated ADC, nil on real hardware
func (h *HardwareManager) MockADC() *MockADC {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.adc
}

type noADC struct{}

func (noADC) Read(channel int) (int, error) {
	return 0, fmt.Errorf("adc channel %d: no ADC on this board", channel)
}
