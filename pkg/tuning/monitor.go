// Package tuning turns quadrature encoder edges into accelerated frequency steps.
package tuning

import "sync/atomic"

// Monitor counts encoder pulses inside the current rate window and remembers
// the direction of the most recent edge.
//
// Edge runs on the producer side (the encoder goroutine), Consume on the main
// loop. The direction flag is handed over with an atomic swap so an edge
// landing between the read and the clear is never dropped.
type Monitor struct {
	pulses    atomic.Int64
	direction atomic.Int32
	edges     atomic.Uint64
	onEdge    func()
}

// NewMonitor creates a monitor; onEdge, if not nil, runs after every counted edge
func NewMonitor(onEdge func()) *Monitor {
	return &Monitor{onEdge: onEdge}
}

// Edge records one edge of phase A with both phases sampled at that moment.
// Only rising edges (a high) count; b selects the direction.
func (m *Monitor) Edge(a, b bool) {
	if !a {
		return
	}

	m.pulses.Add(1)
	if b {
		m.direction.Store(1)
	} else {
		m.direction.Store(-1)
	}
	m.edges.Add(1)

	if m.onEdge != nil {
		m.onEdge()
	}
}

// Consume takes the pending direction. ok is false when the knob has not moved
// since the last call. pulses is the count in the current window and is left
// for the time base to clear.
func (m *Monitor) Consume() (pulses int64, direction int, ok bool) {
	d := m.direction.Swap(0)
	if d == 0 {
		return 0, 0, false
	}
	return m.pulses.Load(), int(d), true
}

// Delta returns the accelerated step for a window: pulses squared, signed
func Delta(pulses int64, direction int) int64 {
	return pulses * pulses * int64(direction)
}

// ResetPulses clears the rate window
func (m *Monitor) ResetPulses() {
	m.pulses.Store(0)
}

// Pulses returns the count in the current window
func (m *Monitor) Pulses() int64 {
	return m.pulses.Load()
}

// Edges returns the total number of counted edges
func (m *Monitor) Edges() uint64 {
	return m.edges.Load()
}

// Inject simulates n edges in one direction, as if the knob turned that fast
// inside the current window
func (m *Monitor) Inject(n int64, direction int) {
	if n <= 0 || direction == 0 {
		return
	}
	m.pulses.Add(n)
	if direction > 0 {
		m.direction.Store(1)
	} else {
		m.direction.Store(-1)
	}
}
