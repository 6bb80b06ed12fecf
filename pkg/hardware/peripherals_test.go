package hardware

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBitBangSPIReset(t *testing.T) {
	gpio := NewMockGPIO()
	gpio.Record(true)
	spi := NewBitBangSPI(gpio, 14, 13, 12, 15)

	if err := spi.Reset(); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}

	history := gpio.History()
	expected := []PinChange{{15, true}, {15, false}, {15, true}}
	if len(history) != len(expected) {
		t.Fatalf("Expected %d pin changes, got %d", len(expected), len(history))
	}
	for i := range expected {
		if history[i] != expected[i] {
			t.Errorf("Change %d: expected %v, got %v", i, expected[i], history[i])
		}
	}
}

func TestMockDDSPort(t *testing.T) {
	port := NewMockDDSPort()

	t.Run("Transfer Outside Strobe", func(t *testing.T) {
		if err := port.Transfer([]byte{0x04}); err == nil {
			t.Error("Expected error for transfer without strobe")
		}
	})

	t.Run("Frame", func(t *testing.T) {
		port.SetStrobe(false)
		port.Transfer([]byte{0x04})
		port.Transfer([]byte{1, 2, 3, 4})
		port.SetStrobe(true)

		frames := port.Frames()
		if len(frames) != 1 {
			t.Fatalf("Expected 1 frame, got %d", len(frames))
		}
		if string(frames[0]) != string([]byte{0x04, 1, 2, 3, 4}) {
			t.Errorf("Unexpected frame: % x", frames[0])
		}
	})
}

func TestGPIORelay(t *testing.T) {
	gpio := NewMockGPIO()
	relay, err := NewGPIORelay(gpio, []int{22, 23, 24})
	if err != nil {
		t.Fatalf("Failed to create relay: %v", err)
	}

	cases := []struct {
		code     uint8
		expected [3]bool
	}{
		{0, [3]bool{false, false, false}},
		{2, [3]bool{false, true, false}},
		{5, [3]bool{true, false, true}},
		{7, [3]bool{true, true, true}},
	}

	for _, c := range cases {
		if err := relay.SetBandCode(c.code); err != nil {
			t.Fatalf("Failed to set code %d: %v", c.code, err)
		}
		for bit, pin := range []int{22, 23, 24} {
			value, _ := gpio.GetPin(pin)
			if value != c.expected[bit] {
				t.Errorf("Code %d bit %d: expected %t, got %t", c.code, bit, c.expected[bit], value)
			}
		}
	}
}

func TestSensorConversions(t *testing.T) {
	t.Run("Voltage", func(t *testing.T) {
		if v := VoltageFromADC(1557); v != 137 {
			t.Errorf("Expected 137 tenths of a volt, got %d", v)
		}
		if v := VoltageFromADC(0); v != 0 {
			t.Errorf("Expected 0, got %d", v)
		}
	})

	t.Run("Temperature", func(t *testing.T) {
		if temp := TemperatureFromADC(2731); temp != 21 {
			t.Errorf("Expected 21 C, got %d", temp)
		}
		if temp := TemperatureFromADC(0); temp != 0 {
			t.Errorf("Expected 0 for an open sensor, got %d", temp)
		}
	})

	t.Run("Meter", func(t *testing.T) {
		if m := MeterFromADC(4095); m != 255 {
			t.Errorf("Expected 255, got %d", m)
		}
	})
}

func TestADCSensors(t *testing.T) {
	adc := NewMockADC()
	gpio := NewMockGPIO()
	gpio.SetPin(26, true)
	sensors := NewADCSensors(adc, gpio, 26)

	volts, err := sensors.SupplyVoltage()
	if err != nil || volts != 137 {
		t.Errorf("Expected 137, got %d (%v)", volts, err)
	}

	adc.Set(ChannelMeter, 1600)
	meter, _ := sensors.MeterLevel()
	if meter != 100 {
		t.Errorf("Expected meter 100, got %d", meter)
	}

	tx, _ := sensors.Transmitting()
	if tx {
		t.Error("Expected receive with TX sense high")
	}
	gpio.SetPin(26, false)
	tx, _ = sensors.Transmitting()
	if !tx {
		t.Error("Expected transmit with TX sense low")
	}

	if _, err := NewADCSensors(noADC{}, nil, 0).PATemperature(); err == nil {
		t.Error("Expected error without an ADC")
	}
}

func TestSysfsGPIO(t *testing.T) {
	root, err := os.MkdirTemp("", "trx8-gpio-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(root)

	// Pretend the kernel already exported the pin
	if err := os.MkdirAll(filepath.Join(root, "gpio22"), 0755); err != nil {
		t.Fatalf("Failed to create pin dir: %v", err)
	}

	gpio := NewSysfsGPIO(root)
	if err := gpio.Initialize(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	t.Run("Set Pin", func(t *testing.T) {
		if err := gpio.SetPin(22, true); err != nil {
			t.Fatalf("Failed to set pin: %v", err)
		}

		direction, _ := os.ReadFile(filepath.Join(root, "gpio22", "direction"))
		if string(direction) != "out" {
			t.Errorf("Expected direction out, got %q", direction)
		}
		value, _ := os.ReadFile(filepath.Join(root, "gpio22", "value"))
		if string(value) != "1" {
			t.Errorf("Expected value 1, got %q", value)
		}
	})

	t.Run("Read Back", func(t *testing.T) {
		value, err := gpio.GetPin(22)
		if err != nil {
			t.Fatalf("Failed to read pin: %v", err)
		}
		if !value {
			t.Error("Expected pin to read high")
		}
	})

	t.Run("Export Timeout", func(t *testing.T) {
		err := gpio.SetPin(99, true)
		if err == nil || !strings.Contains(err.Error(), "export") {
			t.Errorf("Expected export error, got: %v", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		if err := gpio.Close(); err != nil {
			t.Errorf("Expected no error on close, got: %v", err)
		}
		unexport, _ := os.ReadFile(filepath.Join(root, "unexport"))
		if string(unexport) != "22" {
			t.Errorf("Expected pin 22 unexported, got %q", unexport)
		}
	})

	t.Run("Missing Root", func(t *testing.T) {
		missing := NewSysfsGPIO(filepath.Join(root, "missing"))
		if err := missing.Initialize(); err == nil {
			t.Error("Expected error for missing sysfs root")
		}
	})
}
