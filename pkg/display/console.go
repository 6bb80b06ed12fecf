package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console prints one status line per change. On a terminal the line is
// redrawn in place, otherwise lines are appended.
type Console struct {
	*Model

	mu       sync.Mutex
	out      io.Writer
	inPlace  bool
	last     string
	colors   map[string]*color.Color
	txColor  *color.Color
	rxColor  *color.Color
	loColor  *color.Color
	freqText *color.Color
}

// NewConsole creates a console renderer on stdout
func NewConsole(noColor bool) *Console {
	tty := isatty.IsTerminal(os.Stdout.Fd())
	return newConsole(os.Stdout, tty, noColor || !tty)
}

// NewConsoleWriter creates a console renderer on w that appends lines
func NewConsoleWriter(w io.Writer, noColor bool) *Console {
	return newConsole(w, false, noColor)
}

func newConsole(w io.Writer, inPlace, noColor bool) *Console {
	c := &Console{
		out:     w,
		inPlace: inPlace,
		colors: map[string]*color.Color{
			ColorWhite.String():  color.New(color.FgHiWhite),
			ColorBlue.String():   color.New(color.FgHiBlue),
			ColorGreen.String():  color.New(color.FgHiGreen),
			ColorRed.String():    color.New(color.FgHiRed),
			ColorYellow.String(): color.New(color.FgHiYellow),
		},
		txColor:  color.New(color.FgHiWhite, color.BgRed),
		rxColor:  color.New(color.FgHiWhite, color.BgGreen),
		loColor:  color.New(color.FgBlack, color.BgHiYellow),
		freqText: color.New(color.FgHiCyan, color.Bold),
	}

	all := []*color.Color{c.txColor, c.rxColor, c.loColor, c.freqText}
	for _, col := range c.colors {
		all = append(all, col)
	}
	for _, col := range all {
		if noColor {
			col.DisableColor()
		} else {
			col.EnableColor()
		}
	}

	c.Model = NewModel(c.render)
	return c
}

// Line formats a status the way the console shows it
func (c *Console) Line(s Status) string {
	state := c.rxColor.Sprint(" RX ")
	if s.TX {
		state = c.txColor.Sprint(" TX ")
	}

	sideband := s.Sideband
	if s.LOAdjust {
		sideband = c.loColor.Sprint(sideband)
	}

	msgColor, ok := c.colors[s.MessageColor]
	if !ok {
		msgColor = c.colors[ColorWhite.String()]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-4s %s %s %s", state, s.BandName, s.VFO, sideband, c.freqText.Sprintf("%11s", s.FrequencyText))
	fmt.Fprintf(&b, " S%-3d %s %dC | %s", s.Meter, FormatVoltage(int(s.Voltage*10+0.5)), s.Temperature, msgColor.Sprint(s.Message))
	return b.String()
}

func (c *Console) render(s Status) {
	line := c.Line(s)

	c.mu.Lock()
	defer c.mu.Unlock()

	if line == c.last {
		return
	}
	c.last = line

	if c.inPlace {
		fmt.Fprintf(c.out, "\r\x1b[2K%s", line)
		return
	}
	fmt.Fprintln(c.out, line)
}
