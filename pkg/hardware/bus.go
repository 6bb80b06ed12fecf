package hardware

import (
	"errors"
	"fmt"
	"time"
)

// Bus is the blocking byte-level transport shared by the Si5351 and the EEPROM.
// Addresses are 7-bit.
type Bus interface {
	// WriteRegister writes one value to one register of the device
	WriteRegister(addr uint16, reg, value byte) error
	// WriteBytes writes data in a single transfer; data[0..] starts with the register address
	WriteBytes(addr uint16, data []byte) error
	// ReadRegister sends the register address bytes and reads back one byte
	ReadRegister(addr uint16, regAddr []byte) (byte, error)
}

var (
	// ErrBusTimeout is returned when a bus wait never observed the expected status.
	// The device or the bus is hung; callers treat it as fatal.
	ErrBusTimeout = errors.New("bus wait timed out")

	// ErrNoDevice is returned when nothing acknowledges the address
	ErrNoDevice = errors.New("no device at address")
)

// BusError describes a failed bus transfer
type BusError struct {
	Op   string
	Addr uint16
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s 0x%02x: %v", e.Op, e.Addr, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err comes from a hung bus wait
func IsTimeout(err error) bool {
	return errors.Is(err, ErrBusTimeout)
}

// WaitFlag polls until ready returns true, giving up after maxPolls attempts
func WaitFlag(ready func() bool, maxPolls int) error {
	for i := 0; i < maxPolls; i++ {
		if ready() {
			return nil
		}
	}
	return ErrBusTimeout
}

// WithDeadline runs a blocking transfer and gives up after timeout.
// A transfer that times out keeps its goroutine; the bus is unusable afterwards.
func WithDeadline(timeout time.Duration, transfer func() error) error {
	if timeout <= 0 {
		return transfer()
	}

	done := make(chan error, 1)
	go func() {
		done <- transfer()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrBusTimeout
	}
}
