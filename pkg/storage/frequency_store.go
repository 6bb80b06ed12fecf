package storage

import (
	"fmt"

	"github.com/dougsko/trx8/pkg/band"
	"github.com/dougsko/trx8/pkg/logging"
)

// Image layout
const (
	// BaseAddress is the first frequency slot
	BaseAddress = 128
	// LOBand is the pseudo band index whose slots hold the LO per sideband
	LOBand = band.Count
	// AddrLastBand holds the last used band index
	AddrLastBand = 256
	// AddrLastVFO holds the last used VFO index
	AddrLastVFO = 257
)

// Address returns the first byte of the 4-byte slot for (bandIndex, vfo)
func Address(bandIndex, vfo int) uint16 {
	return uint16(BaseAddress + bandIndex*8 + vfo*4)
}

// LOLimits is the sanity window for stored LO frequencies
type LOLimits struct {
	Center   uint32 // nominal intermediate frequency
	Window   uint32 // accepted distance from Center
	Fallback uint32 // distance from Center used when a stored LO is rejected
}

// Contains reports whether lo lies within Center +/- Window
func (l LOLimits) Contains(lo uint32) bool {
	return lo >= l.Center-l.Window && lo <= l.Center+l.Window
}

// Default returns the fallback LO for a sideband: below the IF for LSB, above for USB
func (l LOLimits) Default(sb band.Sideband) uint32 {
	if sb == band.USB {
		return l.Center + l.Fallback
	}
	return l.Center - l.Fallback
}

// Substitution records a stored value that was rejected at load time
type Substitution struct {
	Field  string `json:"field"` // "vfo", "lo", "band" or "vfo_index"
	Band   int    `json:"band"`
	VFO    int    `json:"vfo"`
	Stored uint32 `json:"stored"`
	Used   uint32 `json:"used"`
}

func (s Substitution) String() string {
	switch s.Field {
	case "vfo":
		return fmt.Sprintf("band %d VFO %d: stored %d Hz outside band, using %d Hz", s.Band, s.VFO, s.Stored, s.Used)
	case "lo":
		return fmt.Sprintf("LO %s: stored %d Hz outside window, using %d Hz", band.Sideband(s.VFO), s.Stored, s.Used)
	}
	return fmt.Sprintf("%s: stored %d invalid, using %d", s.Field, s.Stored, s.Used)
}

// Snapshot is the validated content of the image after LoadAll
type Snapshot struct {
	Frequencies   [band.Count][band.VFOCount]uint32
	LO            [2]uint32
	Band          int
	VFO           int
	Substitutions []Substitution
}

// FrequencyStore maps the radio's frequency table onto a ByteStore
type FrequencyStore struct {
	bytes ByteStore
	plan  band.Plan
	lo    LOLimits
}

// NewFrequencyStore creates a store over bytes validating against plan and lo
func NewFrequencyStore(bytes ByteStore, plan band.Plan, lo LOLimits) *FrequencyStore {
	return &FrequencyStore{bytes: bytes, plan: plan, lo: lo}
}

// Load reads the big-endian frequency of (bandIndex, vfo). bandIndex LOBand addresses the LO slots.
func (s *FrequencyStore) Load(bandIndex, vfo int) (uint32, error) {
	start := Address(bandIndex, vfo)

	var f uint32
	for i := uint16(0); i < 4; i++ {
		b, err := s.bytes.Read(start + i)
		if err != nil {
			return 0, fmt.Errorf("load band %d vfo %d: %w", bandIndex, vfo, err)
		}
		f = f<<8 | uint32(b)
	}
	return f, nil
}

// Store writes f big-endian into the slot of (bandIndex, vfo)
func (s *FrequencyStore) Store(bandIndex, vfo int, f uint32) error {
	start := Address(bandIndex, vfo)
	data := []byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)}

	if bw, ok := s.bytes.(BlockWriter); ok {
		if err := bw.WriteBlock(start, data); err != nil {
			return fmt.Errorf("store band %d vfo %d: %w", bandIndex, vfo, err)
		}
		return nil
	}

	for i, b := range data {
		if err := s.bytes.Write(start+uint16(i), b); err != nil {
			return fmt.Errorf("store band %d vfo %d: %w", bandIndex, vfo, err)
		}
	}
	return nil
}

// LoadAll reads every slot, the LO pair and the last used band and VFO,
// replacing anything out of range
func (s *FrequencyStore) LoadAll() (Snapshot, error) {
	var snap Snapshot

	b, err := s.LoadBand()
	if err != nil {
		return snap, err
	}
	if !band.Valid(b) {
		snap.Substitutions = append(snap.Substitutions, Substitution{Field: "band", Stored: uint32(b), Used: band.DefaultBand})
		b = band.DefaultBand
	}
	snap.Band = b

	v, err := s.LoadVFO()
	if err != nil {
		return snap, err
	}
	if v < 0 || v >= band.VFOCount {
		snap.Substitutions = append(snap.Substitutions, Substitution{Field: "vfo_index", Stored: uint32(v), Used: band.DefaultVFO})
		v = band.DefaultVFO
	}
	snap.VFO = v

	for i := 0; i < band.Count; i++ {
		for vfo := 0; vfo < band.VFOCount; vfo++ {
			f, err := s.Load(i, vfo)
			if err != nil {
				return snap, err
			}
			if !s.plan.Contains(i, f) {
				used := s.plan.Default(i, vfo)
				snap.Substitutions = append(snap.Substitutions, Substitution{Field: "vfo", Band: i, VFO: vfo, Stored: f, Used: used})
				f = used
			}
			snap.Frequencies[i][vfo] = f
		}
	}

	for _, sb := range []band.Sideband{band.LSB, band.USB} {
		lo, err := s.LoadLO(sb)
		if err != nil {
			return snap, err
		}
		if !s.lo.Contains(lo) {
			used := s.lo.Default(sb)
			snap.Substitutions = append(snap.Substitutions, Substitution{Field: "lo", Band: LOBand, VFO: int(sb), Stored: lo, Used: used})
			lo = used
		}
		snap.LO[sb] = lo
	}

	for _, sub := range snap.Substitutions {
		logging.Warn("storage", sub.String())
	}
	return snap, nil
}

// SaveAll writes all 16 VFO slots and the last used VFO. The last used band is
// written on its own whenever it changes.
func (s *FrequencyStore) SaveAll(freqs [band.Count][band.VFOCount]uint32, vfo int) error {
	for i := 0; i < band.Count; i++ {
		for v := 0; v < band.VFOCount; v++ {
			if err := s.Store(i, v, freqs[i][v]); err != nil {
				return err
			}
		}
	}
	return s.SaveVFO(vfo)
}

// LoadBand returns the raw last used band byte
func (s *FrequencyStore) LoadBand() (int, error) {
	b, err := s.bytes.Read(AddrLastBand)
	if err != nil {
		return 0, fmt.Errorf("load last band: %w", err)
	}
	return int(b), nil
}

// SaveBand records the last used band
func (s *FrequencyStore) SaveBand(bandIndex int) error {
	if err := s.bytes.Write(AddrLastBand, byte(bandIndex)); err != nil {
		return fmt.Errorf("save last band: %w", err)
	}
	return nil
}

// LoadVFO returns the raw last used VFO byte
func (s *FrequencyStore) LoadVFO() (int, error) {
	v, err := s.bytes.Read(AddrLastVFO)
	if err != nil {
		return 0, fmt.Errorf("load last vfo: %w", err)
	}
	return int(v), nil
}

// SaveVFO records the last used VFO
func (s *FrequencyStore) SaveVFO(vfo int) error {
	if err := s.bytes.Write(AddrLastVFO, byte(vfo)); err != nil {
		return fmt.Errorf("save last vfo: %w", err)
	}
	return nil
}

// LoadLO reads the stored LO for a sideband without validation
func (s *FrequencyStore) LoadLO(sb band.Sideband) (uint32, error) {
	return s.Load(LOBand, int(sb))
}

// StoreLO writes the LO for a sideband
func (s *FrequencyStore) StoreLO(sb band.Sideband, f uint32) error {
	return s.Store(LOBand, int(sb), f)
}

// Stats returns the write history of the underlying image, or nil when the
// backend keeps none
func (s *FrequencyStore) Stats() (*Stats, error) {
	reporter, ok := s.bytes.(StatsReporter)
	if !ok {
		return nil, nil
	}
	stats, err := reporter.GetStats()
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close closes the underlying byte store
func (s *FrequencyStore) Close() error {
	return s.bytes.Close()
}
