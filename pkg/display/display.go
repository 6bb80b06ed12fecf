// Package display renders the radio state: front panel lines, a console
// status line and a websocket feed all share the Display interface.
package display

import (
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/band"
)

// Banner is shown on the message line when no status message is pending
const Banner = "8-Band-TRX"

// Color of a status message
type Color int

const (
	ColorWhite Color = iota
	ColorBlue
	ColorGreen
	ColorRed
	ColorYellow
)

func (c Color) String() string {
	switch c {
	case ColorBlue:
		return "blue"
	case ColorGreen:
		return "green"
	case ColorRed:
		return "red"
	case ColorYellow:
		return "yellow"
	}
	return "white"
}

// Display receives every visible state change of the radio
type Display interface {
	ShowFrequency(hz uint32)
	ShowBand(index int, name string)
	ShowVFO(vfo int)
	// ShowSideband shows sb; highlight marks LO adjustment mode
	ShowSideband(sb band.Sideband, highlight bool)
	ShowMeter(level int)
	ShowMessage(text string, color Color)
	// ShowTelemetry shows the supply in tenths of a volt and the PA temperature
	ShowTelemetry(decivolts, celsius int)
	ShowTXRX(tx bool)
}

// Status is the full visible state
type Status struct {
	Frequency     uint32    `json:"frequency"`
	FrequencyText string    `json:"frequency_text"`
	Band          int       `json:"band"`
	BandName      string    `json:"band_name"`
	VFO           string    `json:"vfo"`
	Sideband      string    `json:"sideband"`
	LOAdjust      bool      `json:"lo_adjust"`
	Meter         int       `json:"meter"`
	Message       string    `json:"message"`
	MessageColor  string    `json:"message_color"`
	Voltage       float64   `json:"voltage"`
	Temperature   int       `json:"temperature"`
	TX            bool      `json:"tx"`
	Updated       time.Time `json:"updated"`
}

// VFOName returns "A" or "B"
func VFOName(vfo int) string {
	if vfo == 1 {
		return "B"
	}
	return "A"
}

// Model keeps the Status up to date from Display calls. It is the base of
// the renderers; onChange, if set, runs after every update with a copy.
type Model struct {
	mu       sync.RWMutex
	status   Status
	onChange func(Status)
}

// NewModel creates a model showing the banner
func NewModel(onChange func(Status)) *Model {
	return &Model{
		status: Status{
			VFO:          "A",
			Sideband:     band.LSB.String(),
			Message:      Banner,
			MessageColor: ColorBlue.String(),
		},
		onChange: onChange,
	}
}

func (m *Model) update(fn func(s *Status)) {
	m.mu.Lock()
	fn(&m.status)
	m.status.Updated = time.Now()
	snapshot := m.status
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(snapshot)
	}
}

// Snapshot returns a copy of the current status
func (m *Model) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Model) ShowFrequency(hz uint32) {
	m.update(func(s *Status) {
		s.Frequency = hz
		s.FrequencyText = FormatFrequency(hz)
	})
}

func (m *Model) ShowBand(index int, name string) {
	m.update(func(s *Status) {
		s.Band = index
		s.BandName = name
	})
}

func (m *Model) ShowVFO(vfo int) {
	m.update(func(s *Status) { s.VFO = VFOName(vfo) })
}

func (m *Model) ShowSideband(sb band.Sideband, highlight bool) {
	m.update(func(s *Status) {
		s.Sideband = sb.String()
		s.LOAdjust = highlight
	})
}

func (m *Model) ShowMeter(level int) {
	m.update(func(s *Status) { s.Meter = level })
}

func (m *Model) ShowMessage(text string, color Color) {
	m.update(func(s *Status) {
		s.Message = text
		s.MessageColor = color.String()
	})
}

func (m *Model) ShowTelemetry(decivolts, celsius int) {
	m.update(func(s *Status) {
		s.Voltage = float64(decivolts) / 10
		s.Temperature = celsius
	})
}

func (m *Model) ShowTXRX(tx bool) {
	m.update(func(s *Status) { s.TX = tx })
}

// Multi fans every call out to several displays
type Multi []Display

func (m Multi) ShowFrequency(hz uint32) {
	for _, d := range m {
		d.ShowFrequency(hz)
	}
}

func (m Multi) ShowBand(index int, name string) {
	for _, d := range m {
		d.ShowBand(index, name)
	}
}

func (m Multi) ShowVFO(vfo int) {
	for _, d := range m {
		d.ShowVFO(vfo)
	}
}

func (m Multi) ShowSideband(sb band.Sideband, highlight bool) {
	for _, d := range m {
		d.ShowSideband(sb, highlight)
	}
}

func (m Multi) ShowMeter(level int) {
	for _, d := range m {
		d.ShowMeter(level)
	}
}

func (m Multi) ShowMessage(text string, color Color) {
	for _, d := range m {
		d.ShowMessage(text, color)
	}
}

func (m Multi) ShowTelemetry(decivolts, celsius int) {
	for _, d := range m {
		d.ShowTelemetry(decivolts, celsius)
	}
}

func (m Multi) ShowTXRX(tx bool) {
	for _, d := range m {
		d.ShowTXRX(tx)
	}
}

// Message is one recorded status message
type Message struct {
	Text  string
	Color Color
}

// Recorder is a Display for tests: it tracks the status and keeps every
// frequency and message it was shown
type Recorder struct {
	*Model

	mu          sync.Mutex
	frequencies []uint32
	messages    []Message
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{Model: NewModel(nil)}
}

func (r *Recorder) ShowFrequency(hz uint32) {
	r.mu.Lock()
	r.frequencies = append(r.frequencies, hz)
	r.mu.Unlock()
	r.Model.ShowFrequency(hz)
}

func (r *Recorder) ShowMessage(text string, color Color) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Text: text, Color: color})
	r.mu.Unlock()
	r.Model.ShowMessage(text, color)
}

// Frequencies returns every frequency shown
func (r *Recorder) Frequencies() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint32(nil), r.frequencies...)
}

// Messages returns every status message shown
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
