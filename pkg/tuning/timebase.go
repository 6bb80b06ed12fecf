package tuning

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dougsko/trx8/pkg/logging"
)

// TimeBase closes the encoder rate window on every fire and derives an
// elapsed-seconds counter from the fire count
type TimeBase struct {
	monitor       *Monitor
	interval      time.Duration
	firesPerCount uint64

	fires   atomic.Uint64
	elapsed atomic.Uint64
}

// NewTimeBase creates a time base firing every interval; elapsed advances
// once per firesPerCount fires
func NewTimeBase(monitor *Monitor, interval time.Duration, firesPerCount int) *TimeBase {
	if firesPerCount < 1 {
		firesPerCount = 1
	}
	return &TimeBase{
		monitor:       monitor,
		interval:      interval,
		firesPerCount: uint64(firesPerCount),
	}
}

// Fire is one tick: reset the pulse window and count
func (t *TimeBase) Fire() {
	t.monitor.ResetPulses()
	if t.fires.Add(1)%t.firesPerCount == 0 {
		t.elapsed.Add(1)
	}
}

// Elapsed returns the elapsed-seconds counter
func (t *TimeBase) Elapsed() uint64 {
	return t.elapsed.Load()
}

// Fires returns the number of ticks so far
func (t *TimeBase) Fires() uint64 {
	return t.fires.Load()
}

// Run fires on a ticker until ctx is done
func (t *TimeBase) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	logging.Debugf("timebase", "running every %v, %d fires per count", t.interval, t.firesPerCount)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Fire()
		}
	}
}
