package synth

import (
	"math"
	"testing"

	"github.com/dougsko/trx8/pkg/hardware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testXtal  = 25e6
	testRatio = 32
	testAddr  = 0x60
)

func TestMultisynth(t *testing.T) {
	cases := []struct {
		name string
		freq float64
		p1   uint32
		p2   uint32
		regs [8]byte
	}{
		{"Integer Divider", 10000000, 9728, 0, [8]byte{0xff, 0xff, 0x00, 0x26, 0x00, 0xf0, 0x00, 0x00}},
		{"USB Fallback", 10001500, 9726, 486654, [8]byte{0xff, 0xff, 0x00, 0x25, 0xfe, 0xf7, 0x6c, 0xfe}},
		{"LSB Fallback", 9998500, 9729, 562177, [8]byte{0xff, 0xff, 0x00, 0x26, 0x01, 0xf8, 0x94, 0x01}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Multisynth(c.freq, testXtal, testRatio)
			if p.P1 != c.p1 {
				t.Errorf("Expected p1 %d, got %d", c.p1, p.P1)
			}
			if p.P2 != c.p2 {
				t.Errorf("Expected p2 %d, got %d", c.p2, p.P2)
			}
			if p.P3 != Denominator {
				t.Errorf("Expected p3 %d, got %d", Denominator, p.P3)
			}
			assert.Equal(t, c.regs, p.Registers())
		})
	}
}

func TestOutputFrequency(t *testing.T) {
	for f := 9990000.0; f <= 10010000; f += 250 {
		p := Multisynth(f, testXtal, testRatio)
		got := OutputFrequency(p, testXtal, testRatio)
		// One step of b is a few millihertz at this divider
		if math.Abs(got-f) > 1 {
			t.Fatalf("Expected %.0f Hz back, got %.4f", f, got)
		}
	}
}

func TestVCOParams(t *testing.T) {
	p := VCOParams(testRatio)
	assert.Equal(t, uint32(3584), p.P1)
	assert.Equal(t, uint32(0), p.P2)
	assert.Equal(t, [8]byte{0xff, 0xff, 0x00, 0x0e, 0x00, 0xf0, 0x00, 0x00}, p.Registers())
}

func TestSi5351(t *testing.T) {
	newChip := func() (*hardware.MockBus, *Si5351) {
		bus := hardware.NewMockBus()
		bus.AddRegisterDevice(testAddr)
		return bus, NewSi5351(bus, testAddr, testXtal, testRatio)
	}

	t.Run("Start", func(t *testing.T) {
		bus, chip := newChip()
		require.NoError(t, chip.Start())

		assert.Equal(t, []byte{0x00}, bus.Registers(testAddr, RegPLLSource, 1))
		assert.Equal(t, []byte{0xD2}, bus.Registers(testAddr, RegXtalLoadCap, 1))
		assert.Equal(t, []byte{0x0E, 0x0E, 0x0E}, bus.Registers(testAddr, RegClock0Control, 3))
		assert.Equal(t, []byte{0x20}, bus.Registers(testAddr, RegPLLReset, 1))
		assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x0e, 0x00, 0xf0, 0x00, 0x00}, bus.Registers(testAddr, RegSynthPLLA, 8))
	})

	t.Run("Set Frequency", func(t *testing.T) {
		bus, chip := newChip()
		require.NoError(t, chip.Start())
		require.NoError(t, chip.SetFrequency(10001500))

		assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x25, 0xfe, 0xf7, 0x6c, 0xfe}, bus.Registers(testAddr, RegSynthMS0, 8))
		assert.Equal(t, uint32(10001500), chip.Frequency())
	})

	t.Run("Other Outputs", func(t *testing.T) {
		bus, chip := newChip()
		require.NoError(t, chip.SetOutput(2, 10000000))
		assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x26, 0x00, 0xf0, 0x00, 0x00}, bus.Registers(testAddr, RegSynthMS2, 8))
		assert.Equal(t, uint32(0), chip.Frequency())

		assert.Error(t, chip.SetOutput(3, 10000000))
		assert.Error(t, chip.SetOutput(0, 0))
	})

	t.Run("Hung Bus", func(t *testing.T) {
		bus, chip := newChip()
		bus.SetStuck(testAddr, true)

		err := chip.Start()
		require.Error(t, err)
		if !hardware.IsTimeout(err) {
			t.Errorf("Expected a bus timeout, got: %v", err)
		}
	})
}

func TestMultisynthDivider(t *testing.T) {
	p := Multisynth(10001500, testXtal, testRatio)
	assert.Equal(t, uint32(79), p.A)
	assert.Equal(t, uint32(1035993), p.B)
	assert.Equal(t, uint32(Denominator), p.C)
	assert.InDelta(t, 79.988, p.Divider(), 1e-3)
}
