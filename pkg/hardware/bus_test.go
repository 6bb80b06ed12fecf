package hardware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFlag(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		polls := 0
		err := WaitFlag(func() bool {
			polls++
			return polls == 3
		}, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, polls)
	})

	t.Run("Never Ready", func(t *testing.T) {
		polls := 0
		err := WaitFlag(func() bool {
			polls++
			return false
		}, 10)
		assert.ErrorIs(t, err, ErrBusTimeout)
		assert.Equal(t, 10, polls)
	})
}

func TestWithDeadline(t *testing.T) {
	t.Run("Completes", func(t *testing.T) {
		err := WithDeadline(time.Second, func() error { return nil })
		assert.NoError(t, err)
	})

	t.Run("Transfer Error", func(t *testing.T) {
		boom := errors.New("nack")
		err := WithDeadline(time.Second, func() error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Hangs", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		err := WithDeadline(10*time.Millisecond, func() error {
			<-release
			return nil
		})
		assert.True(t, IsTimeout(err))
	})

	t.Run("No Timeout", func(t *testing.T) {
		called := false
		err := WithDeadline(0, func() error {
			called = true
			return nil
		})
		assert.NoError(t, err)
		assert.True(t, called)
	})
}

func TestMockBus(t *testing.T) {
	bus := NewMockBus()
	bus.AddRegisterDevice(0x60)
	bus.AddEEPROM(0x50, 8192)

	t.Run("Register Burst", func(t *testing.T) {
		require.NoError(t, bus.WriteBytes(0x60, []byte{42, 1, 2, 3}))
		assert.Equal(t, []byte{1, 2, 3}, bus.Registers(0x60, 42, 3))

		value, err := bus.ReadRegister(0x60, []byte{43})
		require.NoError(t, err)
		assert.Equal(t, byte(2), value)
	})

	t.Run("EEPROM", func(t *testing.T) {
		require.NoError(t, bus.WriteBytes(0x50, []byte{0x01, 0x00, 0xAB}))

		value, err := bus.ReadRegister(0x50, []byte{0x01, 0x00})
		require.NoError(t, err)
		assert.Equal(t, byte(0xAB), value)

		value, err = bus.ReadRegister(0x50, []byte{0x01, 0x01})
		require.NoError(t, err)
		assert.Equal(t, byte(0xFF), value)

		assert.Equal(t, byte(0xAB), bus.Memory(0x50)[256])
	})

	t.Run("Address Width", func(t *testing.T) {
		_, err := bus.ReadRegister(0x50, []byte{0x01})
		assert.Error(t, err)
		_, err = bus.ReadRegister(0x60, []byte{0x00, 0x01})
		assert.Error(t, err)
	})

	t.Run("No Device", func(t *testing.T) {
		err := bus.WriteRegister(0x70, 0, 0)
		assert.ErrorIs(t, err, ErrNoDevice)

		var busErr *BusError
		require.True(t, errors.As(err, &busErr))
		assert.Equal(t, uint16(0x70), busErr.Addr)
		assert.Equal(t, "write", busErr.Op)
	})

	t.Run("Stuck Device", func(t *testing.T) {
		bus.SetStuck(0x60, true)
		defer bus.SetStuck(0x60, false)

		err := bus.WriteRegister(0x60, 3, 0)
		assert.True(t, IsTimeout(err))
	})

	t.Run("Recorded Writes", func(t *testing.T) {
		writes := bus.Writes()
		require.NotEmpty(t, writes)
		assert.Equal(t, uint16(0x60), writes[0].Addr)
		assert.Equal(t, []byte{42, 1, 2, 3}, writes[0].Data)
	})
}
