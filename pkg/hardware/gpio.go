package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/logging"
)

// GPIOInterface defines GPIO operations
type GPIOInterface interface {
	Initialize() error
	Close() error
	SetPin(pin int, value bool) error
	GetPin(pin int) (bool, error)
}

// LinuxGPIO implements GPIOInterface using Linux sysfs GPIO
type LinuxGPIO struct {
	root         string
	exportedPins map[int]string // pin -> direction
	mutex        sync.Mutex
}

// NewLinuxGPIO creates a new Linux GPIO interface
func NewLinuxGPIO() *LinuxGPIO {
	return NewSysfsGPIO("/sys/class/gpio")
}

// NewSysfsGPIO creates a GPIO interface rooted at a sysfs-style directory
func NewSysfsGPIO(root string) *LinuxGPIO {
	return &LinuxGPIO{
		root:         root,
		exportedPins: make(map[int]string),
	}
}

// Initialize checks that the GPIO class directory is present
func (g *LinuxGPIO) Initialize() error {
	if _, err := os.Stat(g.root); os.IsNotExist(err) {
		return fmt.Errorf("GPIO not available on this system (%s missing)", g.root)
	}

	logging.Infof("gpio", "sysfs GPIO at %s", g.root)
	return nil
}

// Close unexports all pins
func (g *LinuxGPIO) Close() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for pin := range g.exportedPins {
		if err := g.unexportPin(pin); err != nil {
			logging.Warnf("gpio", "%v", err)
		}
		delete(g.exportedPins, pin)
	}
	return nil
}

// SetPin sets a GPIO pin value
func (g *LinuxGPIO) SetPin(pin int, value bool) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if err := g.ensure(pin, "out"); err != nil {
		return err
	}

	valueStr := "0"
	if value {
		valueStr = "1"
	}
	if err := os.WriteFile(g.pinFile(pin, "value"), []byte(valueStr), 0644); err != nil {
		return fmt.Errorf("failed to set pin %d value: %w", pin, err)
	}
	return nil
}

// GetPin gets a GPIO pin value
func (g *LinuxGPIO) GetPin(pin int) (bool, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	// A pin already driven as output is read back, not turned around
	if _, ok := g.exportedPins[pin]; !ok {
		if err := g.ensure(pin, "in"); err != nil {
			return false, err
		}
	}

	data, err := os.ReadFile(g.pinFile(pin, "value"))
	if err != nil {
		return false, fmt.Errorf("failed to read pin %d value: %w", pin, err)
	}
	return strings.TrimSpace(string(data)) == "1", nil
}

func (g *LinuxGPIO) pinFile(pin int, name string) string {
	return filepath.Join(g.root, fmt.Sprintf("gpio%d", pin), name)
}

// ensure exports pin and sets its direction once
func (g *LinuxGPIO) ensure(pin int, direction string) error {
	if g.exportedPins[pin] == direction {
		return nil
	}
	if _, ok := g.exportedPins[pin]; !ok {
		if err := g.exportPin(pin); err != nil {
			return fmt.Errorf("failed to export pin %d: %w", pin, err)
		}
	}
	if err := os.WriteFile(g.pinFile(pin, "direction"), []byte(direction), 0644); err != nil {
		return fmt.Errorf("failed to set pin %d direction to %s: %w", pin, direction, err)
	}
	g.exportedPins[pin] = direction
	return nil
}

// exportPin exports a GPIO pin to userspace
func (g *LinuxGPIO) exportPin(pin int) error {
	pinPath := filepath.Join(g.root, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(pinPath); err == nil {
		return nil // Already exported
	}

	if err := os.WriteFile(filepath.Join(g.root, "export"), []byte(strconv.Itoa(pin)), 0644); err != nil {
		return fmt.Errorf("failed to export GPIO pin %d: %w", pin, err)
	}

	// The kernel creates the pin directory asynchronously
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(pinPath); err == nil {
			logging.Debugf("gpio", "exported pin %d", pin)
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	return fmt.Errorf("pin %d directory did not appear after export", pin)
}

// unexportPin unexports a GPIO pin from userspace
func (g *LinuxGPIO) unexportPin(pin int) error {
	if err := os.WriteFile(filepath.Join(g.root, "unexport"), []byte(strconv.Itoa(pin)), 0644); err != nil {
		return fmt.Errorf("failed to unexport GPIO pin %d: %w", pin, err)
	}
	return nil
}
