// Package band holds the 8-band frequency plan of the transceiver.
package band

import (
	"fmt"

	"github.com/dougsko/trx8/pkg/config"
)

// Count is the number of bands the radio covers
const Count = 8

// VFOCount is the number of tunable frequency registers per band
const VFOCount = 2

// Start-up fallbacks when the stored last-used band or VFO is unusable
const (
	DefaultBand = 2
	DefaultVFO  = 0
)

// Sideband selects the modulation sideband
type Sideband int

const (
	LSB Sideband = 0
	USB Sideband = 1
)

// String returns "LSB" or "USB"
func (s Sideband) String() string {
	if s == USB {
		return "USB"
	}
	return "LSB"
}

// Other returns the opposite sideband
func (s Sideband) Other() Sideband {
	if s == USB {
		return LSB
	}
	return USB
}

// ParseSideband parses "LSB" or "USB"
func ParseSideband(s string) (Sideband, error) {
	switch s {
	case "LSB", "lsb":
		return LSB, nil
	case "USB", "usb":
		return USB, nil
	}
	return LSB, fmt.Errorf("unknown sideband %q", s)
}

// Band is one row of the immutable band table
type Band struct {
	Name      string           `json:"name"`
	Lower     uint32           `json:"lower"`
	Upper     uint32           `json:"upper"`
	Center    uint32           `json:"center"`
	Preferred Sideband         `json:"preferred_sideband"`
	Defaults  [VFOCount]uint32 `json:"defaults"`
}

// Contains reports whether f lies within the band edges, inclusive
func (b Band) Contains(f uint32) bool {
	return f >= b.Lower && f <= b.Upper
}

// Plan is the band table indexed 0..7
type Plan [Count]Band

// Factory is the factory band table
var Factory = Plan{
	{Name: "160m", Lower: 1810000, Upper: 2000000, Center: 1840000, Preferred: LSB, Defaults: [VFOCount]uint32{1888000, 1961000}},
	{Name: "80m", Lower: 3500000, Upper: 3800000, Center: 3650000, Preferred: LSB, Defaults: [VFOCount]uint32{3650000, 3650000}},
	{Name: "40m", Lower: 7000000, Upper: 7200000, Center: 7120000, Preferred: LSB, Defaults: [VFOCount]uint32{7120000, 7120000}},
	{Name: "20m", Lower: 14000000, Upper: 14350000, Center: 14180000, Preferred: USB, Defaults: [VFOCount]uint32{14200000, 14280000}},
	{Name: "17m", Lower: 18065000, Upper: 18165000, Center: 18100000, Preferred: USB, Defaults: [VFOCount]uint32{18080000, 18150000}},
	{Name: "15m", Lower: 21000000, Upper: 21465000, Center: 21290000, Preferred: USB, Defaults: [VFOCount]uint32{21290000, 21390000}},
	{Name: "12m", Lower: 24890000, Upper: 24990000, Center: 24931000, Preferred: USB, Defaults: [VFOCount]uint32{24910000, 24912000}},
	{Name: "10m", Lower: 28000000, Upper: 29700000, Center: 28500000, Preferred: USB, Defaults: [VFOCount]uint32{28500000, 28590000}},
}

// FromConfig returns the configured band table, or the factory table when none is set
func FromConfig(cfg *config.Config) (Plan, error) {
	if len(cfg.Bands) == 0 {
		return Factory, nil
	}
	if len(cfg.Bands) != Count {
		return Plan{}, fmt.Errorf("band table needs %d bands, got %d", Count, len(cfg.Bands))
	}

	var plan Plan
	for i, bc := range cfg.Bands {
		sb, err := ParseSideband(bc.Sideband)
		if err != nil {
			return Plan{}, fmt.Errorf("band %d: %w", i, err)
		}
		b := Band{
			Name:      bc.Name,
			Lower:     bc.Lower,
			Upper:     bc.Upper,
			Center:    bc.Center,
			Preferred: sb,
			Defaults:  [VFOCount]uint32{bc.DefaultA, bc.DefaultB},
		}
		// Defaults repair invalid slots at load time, so they must lie in the band
		for vfo, f := range b.Defaults {
			if !b.Contains(f) {
				return Plan{}, fmt.Errorf("band %d: default %d of VFO %d outside %d..%d", i, f, vfo, b.Lower, b.Upper)
			}
		}
		if !b.Contains(b.Center) {
			return Plan{}, fmt.Errorf("band %d: centre %d outside %d..%d", i, b.Center, b.Lower, b.Upper)
		}
		plan[i] = b
	}
	return plan, nil
}

// Valid reports whether i is a band index
func Valid(i int) bool {
	return i >= 0 && i < Count
}

// Contains reports whether f is inside band i; out-of-range indices never contain anything
func (p *Plan) Contains(i int, f uint32) bool {
	if !Valid(i) {
		return false
	}
	return p[i].Contains(f)
}

// Default returns the factory-default frequency for (band, vfo)
func (p *Plan) Default(i, vfo int) uint32 {
	return p[i].Defaults[vfo]
}

// DefaultTable returns the factory-default frequency of every (band, vfo)
func (p *Plan) DefaultTable() [Count][VFOCount]uint32 {
	var t [Count][VFOCount]uint32
	for i := range p {
		t[i] = p[i].Defaults
	}
	return t
}

// RelayCode returns the 3-bit code that selects the band filter relays
func RelayCode(i int) uint8 {
	return uint8(i) & 0x07
}
