package synth

import (
	"errors"
	"testing"

	"github.com/dougsko/trx8/pkg/hardware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIF    = 10000000
	testClock = 400e6
)

func TestTuningWord(t *testing.T) {
	k := ScaleFactor(testClock)

	t.Run("Scale Factor", func(t *testing.T) {
		assert.InDelta(t, 10.73741824, k, 1e-9)
	})

	t.Run("Reference Values", func(t *testing.T) {
		cases := []struct {
			freq uint32
			word uint32
		}{
			{1888000, 127646428},
			{7120000, 183824600},
			{14200000, 259845521},
			{28500000, 413390602},
		}
		for _, c := range cases {
			if got := TuningWord(c.freq, testIF, k); got != c.word {
				t.Errorf("Expected word %d for %d Hz, got %d", c.word, c.freq, got)
			}
		}
	})

	t.Run("Monotonic", func(t *testing.T) {
		prev := TuningWord(1000000, testIF, k)
		for f := uint32(1000001); f < 30000000; f += 9973 {
			word := TuningWord(f, testIF, k)
			if word < prev {
				t.Fatalf("Tuning word decreased at %d Hz: %d < %d", f, word, prev)
			}
			prev = word
		}
	})

	t.Run("Truncates", func(t *testing.T) {
		// (7120000+10e6) * K = 183824600.2688
		assert.Equal(t, uint32(183824600), TuningWord(7120000, testIF, k))
	})

	t.Run("Sum Wraps", func(t *testing.T) {
		// 4284968296 + 10e6 = 2^32 + 1000, so the word is floor(1000 * K)
		assert.Equal(t, uint32(10737), TuningWord(4284968296, testIF, k))
	})

	t.Run("Word Wraps", func(t *testing.T) {
		// 400000100 * K = 4294968369.7, one full turn plus 1073
		assert.Equal(t, uint32(1073), TuningWord(390000100, testIF, k))
	})
}

func TestDDSFrame(t *testing.T) {
	frame := DDSFrame(183824600)
	assert.Equal(t, [5]byte{0x04, 0x0A, 0xF4, 0xF0, 0xD8}, frame)
}

func TestAD9951(t *testing.T) {
	t.Run("Frame Between Strobes", func(t *testing.T) {
		port := hardware.NewMockDDSPort()
		dds := NewAD9951(port, testIF, testClock)

		require.NoError(t, dds.SetFrequency(7120000))

		frames := port.Frames()
		require.Len(t, frames, 1)
		assert.Equal(t, []byte{0x04, 0x0A, 0xF4, 0xF0, 0xD8}, frames[0])

		freq, word := dds.Last()
		assert.Equal(t, uint32(7120000), freq)
		assert.Equal(t, uint32(183824600), word)
	})

	t.Run("Reset", func(t *testing.T) {
		port := hardware.NewMockDDSPort()
		dds := NewAD9951(port, testIF, testClock)

		require.NoError(t, dds.Reset())
		assert.Equal(t, 1, port.Resets())
	})

	t.Run("Bit Banged", func(t *testing.T) {
		gpio := hardware.NewMockGPIO()
		gpio.Record(true)
		port := hardware.NewBitBangSPI(gpio, 12, 13, 14, 15)
		dds := NewAD9951(port, testIF, testClock)

		require.NoError(t, dds.SetFrequency(7120000))

		// Sample the data line on each rising clock edge
		var bits []bool
		data := false
		strobeLow := false
		for _, change := range gpio.History() {
			switch change.Pin {
			case 13:
				data = change.Value
			case 12:
				if change.Value {
					bits = append(bits, data)
				}
			case 14:
				if !change.Value {
					strobeLow = true
				}
			}
		}

		assert.True(t, strobeLow, "Expected the update strobe to go low")
		require.Len(t, bits, 40)

		var got []byte
		for i := 0; i < len(bits); i += 8 {
			var b byte
			for _, bit := range bits[i : i+8] {
				b <<= 1
				if bit {
					b |= 1
				}
			}
			got = append(got, b)
		}
		assert.Equal(t, []byte{0x04, 0x0A, 0xF4, 0xF0, 0xD8}, got)
	})
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()

	if _, ok := rec.Last(); ok {
		t.Error("Expected empty recorder to have no last frequency")
	}

	require.NoError(t, rec.SetFrequency(100))
	require.NoError(t, rec.SetFrequency(200))
	assert.Equal(t, []uint32{100, 200}, rec.History())

	boom := errors.New("boom")
	rec.FailWith(boom)
	assert.ErrorIs(t, rec.SetFrequency(300), boom)

	last, _ := rec.Last()
	assert.Equal(t, uint32(200), last)
}
