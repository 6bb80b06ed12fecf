package hardware

import (
	"fmt"
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/verbose"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphBus implements Bus on a Linux I2C adapter through periph.io.
// Every transfer is bounded by timeout and reports ErrBusTimeout when it expires.
type PeriphBus struct {
	mu      sync.Mutex
	bus     i2c.BusCloser
	timeout time.Duration
}

// OpenPeriphBus opens the named I2C bus ("" selects the first one)
func OpenPeriphBus(name string, timeout time.Duration) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host drivers: %w", err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", name, err)
	}

	return &PeriphBus{bus: bus, timeout: timeout}, nil
}

func (p *PeriphBus) tx(op string, addr uint16, w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	verbose.Frame("i2c", addr, "w", w)
	err := WithDeadline(p.timeout, func() error {
		return p.bus.Tx(addr, w, r)
	})
	if err != nil {
		return &BusError{Op: op, Addr: addr, Err: err}
	}
	if len(r) > 0 {
		verbose.Frame("i2c", addr, "r", r)
	}
	return nil
}

// WriteRegister writes one register
func (p *PeriphBus) WriteRegister(addr uint16, reg, value byte) error {
	return p.tx("write", addr, []byte{reg, value}, nil)
}

// WriteBytes writes data in one transfer
func (p *PeriphBus) WriteBytes(addr uint16, data []byte) error {
	return p.tx("write", addr, data, nil)
}

// ReadRegister writes the register address and reads one byte back
func (p *PeriphBus) ReadRegister(addr uint16, regAddr []byte) (byte, error) {
	r := make([]byte, 1)
	if err := p.tx("read", addr, regAddr, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

// Close releases the I2C adapter
func (p *PeriphBus) Close() error {
	return p.bus.Close()
}
