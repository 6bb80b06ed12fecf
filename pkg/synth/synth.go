// Package synth encodes frequencies for the AD9951 DDS and the Si5351 PLL
// and transmits the resulting frames.
package synth

import "sync"

// FrequencySetter programs one oscillator output
type FrequencySetter interface {
	SetFrequency(hz uint32) error
}

// Recorder is a FrequencySetter that remembers what it was asked to program
type Recorder struct {
	mu      sync.Mutex
	history []uint32
	err     error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetFrequency records hz, or returns the injected error
func (r *Recorder) SetFrequency(hz uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.history = append(r.history, hz)
	return nil
}

// FailWith makes every following SetFrequency return err
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Last returns the last programmed frequency
func (r *Recorder) Last() (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.history) == 0 {
		return 0, false
	}
	return r.history[len(r.history)-1], true
}

// History returns every programmed frequency in order
func (r *Recorder) History() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint32(nil), r.history...)
}
