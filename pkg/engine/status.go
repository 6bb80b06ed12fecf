package engine

import (
	"sync"

	"github.com/dougsko/trx8/pkg/display"
)

// statusLine wraps the displays and remembers when a status message went up,
// so the main loop can put the banner back after the hold time
type statusLine struct {
	display.Display

	mu      sync.Mutex
	elapsed func() uint64
	shownAt uint64
	pending bool
}

func newStatusLine(d display.Display, elapsed func() uint64) *statusLine {
	return &statusLine{Display: d, elapsed: elapsed}
}

func (s *statusLine) ShowMessage(text string, color display.Color) {
	s.mu.Lock()
	if text == display.Banner {
		s.pending = false
	} else {
		s.pending = true
		s.shownAt = s.elapsed()
	}
	s.mu.Unlock()

	s.Display.ShowMessage(text, color)
}

// expire restores the banner once more than hold elapsed seconds have passed
func (s *statusLine) expire(hold uint64) bool {
	s.mu.Lock()
	due := s.pending && s.elapsed() > s.shownAt+hold
	s.mu.Unlock()

	if due {
		s.ShowMessage(display.Banner, display.ColorBlue)
	}
	return due
}
