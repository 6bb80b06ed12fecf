package hardware

import (
	"fmt"
	"sync"

	"github.com/dougsko/trx8/pkg/verbose"
)

// BusWrite is one recorded write transfer on the MockBus
type BusWrite struct {
	Addr uint16
	Data []byte
}

type mockDevice struct {
	regs   [256]byte
	memory []byte // non-nil for 16-bit addressed EEPROMs
}

// MockBus implements Bus in memory: register devices (Si5351) and EEPROMs (24C65)
type MockBus struct {
	mu       sync.Mutex
	devices  map[uint16]*mockDevice
	stuck    map[uint16]bool
	maxPolls int
	writes   []BusWrite
}

// NewMockBus creates an empty mock bus
func NewMockBus() *MockBus {
	return &MockBus{
		devices:  make(map[uint16]*mockDevice),
		stuck:    make(map[uint16]bool),
		maxPolls: 1000,
	}
}

// AddRegisterDevice attaches a device with an 8-bit register file at addr
func (b *MockBus) AddRegisterDevice(addr uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[addr] = &mockDevice{}
}

// AddEEPROM attaches a 16-bit addressed EEPROM of size bytes, erased to 0xFF
func (b *MockBus) AddEEPROM(addr uint16, size int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mem := make([]byte, size)
	for i := range mem {
		mem[i] = 0xFF
	}
	b.devices[addr] = &mockDevice{memory: mem}
}

// SetStuck makes every transfer to addr wait for a status flag that never comes
func (b *MockBus) SetStuck(addr uint16, stuck bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stuck[addr] = stuck
}

func (b *MockBus) device(op string, addr uint16) (*mockDevice, error) {
	if b.stuck[addr] {
		if err := WaitFlag(func() bool { return false }, b.maxPolls); err != nil {
			return nil, &BusError{Op: op, Addr: addr, Err: err}
		}
	}
	dev, ok := b.devices[addr]
	if !ok {
		return nil, &BusError{Op: op, Addr: addr, Err: ErrNoDevice}
	}
	return dev, nil
}

// WriteRegister writes one register
func (b *MockBus) WriteRegister(addr uint16, reg, value byte) error {
	return b.WriteBytes(addr, []byte{reg, value})
}

// WriteBytes writes a register burst, or an address-prefixed EEPROM write
func (b *MockBus) WriteBytes(addr uint16, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dev, err := b.device("write", addr)
	if err != nil {
		return err
	}

	verbose.Frame("mock-i2c", addr, "w", data)
	b.writes = append(b.writes, BusWrite{Addr: addr, Data: append([]byte(nil), data...)})

	if dev.memory != nil {
		if len(data) < 2 {
			return &BusError{Op: "write", Addr: addr, Err: fmt.Errorf("eeprom write needs a 2-byte address")}
		}
		start := int(data[0])<<8 | int(data[1])
		for i, v := range data[2:] {
			dev.memory[(start+i)%len(dev.memory)] = v
		}
		return nil
	}

	if len(data) == 0 {
		return nil
	}
	reg := data[0]
	for _, v := range data[1:] {
		dev.regs[reg] = v
		reg++
	}
	return nil
}

// ReadRegister reads one byte from a register or EEPROM cell
func (b *MockBus) ReadRegister(addr uint16, regAddr []byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dev, err := b.device("read", addr)
	if err != nil {
		return 0, err
	}

	if dev.memory != nil {
		if len(regAddr) != 2 {
			return 0, &BusError{Op: "read", Addr: addr, Err: fmt.Errorf("eeprom read needs a 2-byte address")}
		}
		return dev.memory[(int(regAddr[0])<<8|int(regAddr[1]))%len(dev.memory)], nil
	}
	if len(regAddr) != 1 {
		return 0, &BusError{Op: "read", Addr: addr, Err: fmt.Errorf("register read needs a 1-byte address")}
	}
	return dev.regs[regAddr[0]], nil
}

// Registers returns n register values starting at reg
func (b *MockBus) Registers(addr uint16, reg byte, n int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, n)
	dev, ok := b.devices[addr]
	if !ok {
		return out
	}
	for i := range out {
		if int(reg)+i >= len(dev.regs) {
			break
		}
		out[i] = dev.regs[int(reg)+i]
	}
	return out
}

// Memory returns a copy of an EEPROM's contents
func (b *MockBus) Memory(addr uint16) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	dev, ok := b.devices[addr]
	if !ok || dev.memory == nil {
		return nil
	}
	return append([]byte(nil), dev.memory...)
}

// Writes returns every recorded write
func (b *MockBus) Writes() []BusWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BusWrite(nil), b.writes...)
}
