package hardware

import (
	"testing"
	"time"
)

func TestKeyFromLevel(t *testing.T) {
	cases := map[int]int{
		370:  0,
		735:  1,
		1320: 2,
		2462: 3,
		1863: 4,
		3135: 5,
		1900: 4,
		1000: -1,
		4095: -1,
		270:  -1, // edge of the window is excluded
	}
	for counts, expected := range cases {
		if got := KeyFromLevel(counts); got != expected {
			t.Errorf("Level %d: expected key %d, got %d", counts, expected, got)
		}
	}
}

func TestKeypad(t *testing.T) {
	adc := NewMockADC()
	kp := NewKeypad(adc)

	clock := time.Unix(0, 0)
	kp.now = func() time.Time { return clock }

	t.Run("Idle", func(t *testing.T) {
		if key := kp.PollKey(); key != -1 {
			t.Errorf("Expected no key, got %d", key)
		}
	})

	t.Run("ShortPress", func(t *testing.T) {
		adc.Set(ChannelKeys, 1300)
		if key := kp.PollKey(); key != -1 {
			t.Errorf("Expected no key while held, got %d", key)
		}
		adc.Set(ChannelKeys, 1340)
		kp.PollKey()

		clock = clock.Add(500 * time.Millisecond)
		adc.Set(ChannelKeys, 4095)
		if key := kp.PollKey(); key != 2 {
			t.Errorf("Expected key 2 on release, got %d", key)
		}
		if key := kp.PollKey(); key != -1 {
			t.Errorf("Expected a key to be reported once, got %d", key)
		}
	})

	t.Run("LongPress", func(t *testing.T) {
		adc.Set(ChannelKeys, 370)
		kp.PollKey()
		clock = clock.Add(LongPress)
		adc.Set(ChannelKeys, 4095)
		if key := kp.PollKey(); key != 6 {
			t.Errorf("Expected long press code 6, got %d", key)
		}
	})

	t.Run("Unmatched", func(t *testing.T) {
		adc.Set(ChannelKeys, 1000)
		kp.PollKey()
		adc.Set(ChannelKeys, 4095)
		if key := kp.PollKey(); key != -1 {
			t.Errorf("Expected no key for an off-ladder level, got %d", key)
		}
	})
}
