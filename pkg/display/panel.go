package display

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dougsko/trx8/pkg/hardware"
	"github.com/dougsko/trx8/pkg/logging"
)

// Panel lays the status out on a line-oriented OLED
type Panel struct {
	*Model

	mu    sync.Mutex
	oled  hardware.OLEDInterface
	lines []string
}

// NewPanel creates a panel renderer on oled
func NewPanel(oled hardware.OLEDInterface) *Panel {
	p := &Panel{oled: oled}
	p.Model = NewModel(p.render)
	return p
}

// Lines lays s out as panel text lines
func (p *Panel) Lines(s Status) []string {
	width := p.oled.GetWidth() / 6 // 6 pixel wide glyphs

	mode := s.Sideband
	if s.LOAdjust {
		mode = "*" + mode + "*"
	}
	state := "RX"
	if s.TX {
		state = "TX"
	}

	lines := []string{
		s.Message,
		fmt.Sprintf("%s %s %s", s.BandName, s.VFO, mode),
		s.FrequencyText,
		fmt.Sprintf("%s %dC %s", FormatVoltage(int(s.Voltage*10+0.5)), s.Temperature, state),
		meterBar(s.Meter, width),
	}
	for i, line := range lines {
		if len(line) > width {
			lines[i] = line[:width]
		}
	}
	return lines
}

// meterBar scales a 0..255 level to a bar of at most width cells
func meterBar(level, width int) string {
	if level < 0 {
		level = 0
	}
	if level > 255 {
		level = 255
	}
	return strings.Repeat("|", level*width/256)
}

func (p *Panel) render(s Status) {
	lines := p.Lines(s)

	p.mu.Lock()
	defer p.mu.Unlock()

	changed := false
	for i, line := range lines {
		if i < len(p.lines) && p.lines[i] == line {
			continue
		}
		if err := p.oled.WriteLine(i, line); err != nil {
			logging.Debugf("panel", "line %d: %v", i, err)
			continue
		}
		changed = true
	}
	p.lines = lines

	if changed {
		if err := p.oled.Display(); err != nil {
			logging.Warnf("panel", "display update failed: %v", err)
		}
	}
}
