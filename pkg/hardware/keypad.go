package hardware

import (
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/logging"
)

// Resistor ladder levels of keys 0..5 on the key channel
var keyLevels = [...]int{370, 735, 1320, 2462, 1863, 3135}

const (
	keyTolerance = 100
	keyReleased  = 4000

	// LongPress is the hold time after which a key reports code+6
	LongPress = 2 * time.Second
)

// KeyFromLevel matches an averaged ladder reading to a key, or -1
func KeyFromLevel(counts int) int {
	for key, level := range keyLevels {
		if counts > level-keyTolerance && counts < level+keyTolerance {
			return key
		}
	}
	return -1
}

// Keypad decodes the analog key ladder. It is polled from the main loop and
// reports a key once it is released: 0..5 for a short press, 6..11 for a
// press held at least LongPress.
type Keypad struct {
	mu      sync.Mutex
	adc     ADC
	channel int
	now     func() time.Time

	held  bool
	since time.Time
	sum   int
	count int
}

// NewKeypad creates a keypad on the key channel of adc
func NewKeypad(adc ADC) *Keypad {
	return &Keypad{adc: adc, channel: ChannelKeys, now: time.Now}
}

// PollKey samples the ladder once and returns a key code or -1
func (k *Keypad) PollKey() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	counts, err := k.adc.Read(k.channel)
	if err != nil {
		logging.Debugf("keypad", "read failed: %v", err)
		return -1
	}

	if counts <= keyReleased {
		if !k.held {
			k.held = true
			k.since = k.now()
			k.sum, k.count = 0, 0
		}
		k.sum += counts
		k.count++
		return -1
	}

	if !k.held {
		return -1
	}
	k.held = false

	key := KeyFromLevel(k.sum / k.count)
	if key < 0 {
		logging.Debugf("keypad", "unmatched level %d", k.sum/k.count)
		return -1
	}
	if k.now().Sub(k.since) >= LongPress {
		key += 6
	}
	return key
}
