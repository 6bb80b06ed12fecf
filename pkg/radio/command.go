package radio

import "sync/atomic"

// NoKey is what an input source returns when nothing is pressed
const NoKey = -1

// Command is a decoded front panel key
type Command int

const (
	CmdNone Command = iota
	CmdBandUp
	CmdBandDown
	CmdToggleSideband
	CmdToggleVFO
	CmdSaveAll
	CmdAdjustLOLSB
	CmdAdjustLOUSB
	CmdConfirmLO
	CmdAbortLO
)

var commandNames = map[Command]string{
	CmdNone:           "none",
	CmdBandUp:         "band_up",
	CmdBandDown:       "band_down",
	CmdToggleSideband: "toggle_sideband",
	CmdToggleVFO:      "toggle_vfo",
	CmdSaveAll:        "save_all",
	CmdAdjustLOLSB:    "adjust_lo_lsb",
	CmdAdjustLOUSB:    "adjust_lo_usb",
	CmdConfirmLO:      "confirm_lo",
	CmdAbortLO:        "abort_lo",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Mode is the key interpretation context
type Mode int

const (
	// ModeNormal is regular operation
	ModeNormal Mode = iota
	// ModeLOAdjust is active while an LO is being trimmed; only confirm and abort are accepted
	ModeLOAdjust
)

// DecodeKey maps a key code (NoKey or 0..11) to a command. Codes 6..11 are
// long presses of keys 0..5.
func DecodeKey(code int, mode Mode) Command {
	if mode == ModeLOAdjust {
		switch code {
		case 6:
			return CmdAbortLO
		case 7:
			return CmdConfirmLO
		}
		return CmdNone
	}

	switch code {
	case 0:
		return CmdBandUp
	case 1:
		return CmdToggleSideband
	case 2:
		return CmdToggleVFO
	case 3:
		return CmdBandDown
	case 4:
		return CmdSaveAll
	case 6:
		return CmdAdjustLOLSB
	case 7:
		return CmdAdjustLOUSB
	}
	return CmdNone
}

// KeySource is polled once per main loop iteration
type KeySource interface {
	PollKey() int
}

// KeyQueue is a KeySource fed by other goroutines (socket, web, keyboard)
type KeyQueue struct {
	keys    chan int
	dropped atomic.Uint64
}

// NewKeyQueue creates a queue holding up to size pending keys
func NewKeyQueue(size int) *KeyQueue {
	return &KeyQueue{keys: make(chan int, size)}
}

// Push queues code; it reports false and drops the key when the queue is full
func (q *KeyQueue) Push(code int) bool {
	select {
	case q.keys <- code:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// PollKey returns the next queued key or NoKey
func (q *KeyQueue) PollKey() int {
	select {
	case code := <-q.keys:
		return code
	default:
		return NoKey
	}
}

// Dropped returns the number of keys lost to a full queue
func (q *KeyQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// MultiSource polls several sources in order and returns the first key
type MultiSource []KeySource

func (m MultiSource) PollKey() int {
	for _, s := range m {
		if code := s.PollKey(); code != NoKey {
			return code
		}
	}
	return NoKey
}
