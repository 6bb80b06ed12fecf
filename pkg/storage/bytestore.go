// Package storage persists the frequency table in a byte-addressed
// non-volatile memory image.
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/hardware"
	"github.com/dougsko/trx8/pkg/verbose"
)

// Erased is the value of a never-written cell
const Erased = 0xFF

// ByteStore is a byte-addressed non-volatile memory
type ByteStore interface {
	Read(addr uint16) (byte, error)
	Write(addr uint16, value byte) error
	Close() error
}

// MemoryStore keeps the image in RAM
type MemoryStore struct {
	mu    sync.RWMutex
	cells []byte
}

// NewMemoryStore creates an erased image of size bytes
func NewMemoryStore(size int) *MemoryStore {
	cells := make([]byte, size)
	for i := range cells {
		cells[i] = Erased
	}
	return &MemoryStore{cells: cells}
}

func (m *MemoryStore) Read(addr uint16) (byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if int(addr) >= len(m.cells) {
		return 0, fmt.Errorf("address %d beyond %d-byte store", addr, len(m.cells))
	}
	return m.cells[addr], nil
}

func (m *MemoryStore) Write(addr uint16, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int(addr) >= len(m.cells) {
		return fmt.Errorf("address %d beyond %d-byte store", addr, len(m.cells))
	}
	m.cells[addr] = value
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// EEPROM is a 24C65 on the I2C bus: 16-bit cell addresses sent MSB first,
// followed by a write cycle the chip needs before the next access
type EEPROM struct {
	bus   hardware.Bus
	addr  uint16
	delay time.Duration
	sleep func(time.Duration)
}

// NewEEPROM creates an EEPROM accessor; delay is the write cycle time
func NewEEPROM(bus hardware.Bus, addr uint16, delay time.Duration) *EEPROM {
	return &EEPROM{bus: bus, addr: addr, delay: delay, sleep: time.Sleep}
}

func (e *EEPROM) Read(addr uint16) (byte, error) {
	value, err := e.bus.ReadRegister(e.addr, []byte{byte(addr >> 8), byte(addr)})
	if err != nil {
		return 0, fmt.Errorf("eeprom read %d: %w", addr, err)
	}
	return value, nil
}

func (e *EEPROM) Write(addr uint16, value byte) error {
	if err := e.bus.WriteBytes(e.addr, []byte{byte(addr >> 8), byte(addr), value}); err != nil {
		return fmt.Errorf("eeprom write %d: %w", addr, err)
	}
	verbose.Printf("eeprom[%d] = 0x%02x", addr, value)
	e.sleep(e.delay)
	return nil
}

func (e *EEPROM) Close() error {
	return nil
}

// Options selects and configures a ByteStore backend
type Options struct {
	Backend      string // "eeprom", "sqlite" or "memory"
	DatabasePath string
	Bus          hardware.Bus
	Address      uint16
	WriteDelay   time.Duration
}

// Open creates the configured backend
func Open(opts Options) (ByteStore, error) {
	switch opts.Backend {
	case "eeprom":
		if opts.Bus == nil {
			return nil, fmt.Errorf("eeprom backend needs a bus")
		}
		return NewEEPROM(opts.Bus, opts.Address, opts.WriteDelay), nil
	case "sqlite":
		store, err := NewSQLiteStore(opts.DatabasePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory", "":
		return NewMemoryStore(hardware.EEPROMSize), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}
