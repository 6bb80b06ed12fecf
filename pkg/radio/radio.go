// Package radio is the band, VFO and sideband state machine of the transceiver.
package radio

import (
	"fmt"
	"sync"

	"github.com/dougsko/trx8/pkg/band"
	"github.com/dougsko/trx8/pkg/display"
	"github.com/dougsko/trx8/pkg/hardware"
	"github.com/dougsko/trx8/pkg/logging"
	"github.com/dougsko/trx8/pkg/storage"
	"github.com/dougsko/trx8/pkg/synth"
)

// Status messages
const (
	MsgSaved   = "Saved."
	MsgStored  = "Stored."
	MsgAborted = "Aborted."
)

// Store is the persistence the state machine writes through
type Store interface {
	SaveBand(bandIndex int) error
	SaveVFO(vfo int) error
	StoreLO(sb band.Sideband, f uint32) error
	SaveAll(freqs [band.Count][band.VFOCount]uint32, vfo int) error
}

// LOState is the LO trimming sub-machine state
type LOState int

const (
	LOIdle LOState = iota
	LOActive
	LOConfirmed
	LOAborted
)

func (s LOState) String() string {
	switch s {
	case LOActive:
		return "active"
	case LOConfirmed:
		return "confirmed"
	case LOAborted:
		return "aborted"
	}
	return "idle"
}

// State is a copy of the radio state
type State struct {
	Band        int                               `json:"band"`
	VFO         int                               `json:"vfo"`
	Sideband    band.Sideband                     `json:"sideband"`
	Frequencies [band.Count][band.VFOCount]uint32 `json:"frequencies"`
	LO          [2]uint32                         `json:"lo"`

	LOState    LOState       `json:"lo_state"`
	LOSideband band.Sideband `json:"lo_sideband"`
	LOScratch  uint32        `json:"lo_scratch"`
}

// Frequency returns the active VFO frequency
func (s State) Frequency() uint32 {
	return s.Frequencies[s.Band][s.VFO]
}

// Config wires the state machine to its collaborators
type Config struct {
	Plan    band.Plan
	VFO     synth.FrequencySetter // DDS
	LO      synth.FrequencySetter // Si5351 multisynth 0
	Relay   hardware.Relay
	Store   Store
	Display display.Display
}

// Radio owns the state. Every mutating method is called from the main loop
// only; Snapshot may be called from anywhere.
type Radio struct {
	mu    sync.RWMutex
	state State

	plan    band.Plan
	vfo     synth.FrequencySetter
	lo      synth.FrequencySetter
	relay   hardware.Relay
	store   Store
	display display.Display
	log     *logging.ComponentLogger
}

// New creates a radio on band 2, VFO A with factory frequencies
func New(cfg Config) *Radio {
	r := &Radio{
		plan:    cfg.Plan,
		vfo:     cfg.VFO,
		lo:      cfg.LO,
		relay:   cfg.Relay,
		store:   cfg.Store,
		display: cfg.Display,
		log:     logging.For("radio"),
	}
	r.state.Band = band.DefaultBand
	r.state.VFO = band.DefaultVFO
	r.state.Sideband = r.plan[band.DefaultBand].Preferred
	r.state.Frequencies = r.plan.DefaultTable()
	return r
}

// Load takes over a validated store snapshot; the sideband follows the band
func (r *Radio) Load(snap storage.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Band = snap.Band
	r.state.VFO = snap.VFO
	r.state.Frequencies = snap.Frequencies
	r.state.LO = snap.LO
	r.state.Sideband = r.plan[snap.Band].Preferred
}

// Apply programs the hardware and the display from the current state
func (r *Radio) Apply() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Both LOs are exercised once, then the band relay leaves the preferred one set
	for _, sb := range []band.Sideband{band.LSB, band.USB} {
		if err := r.lo.SetFrequency(r.state.LO[sb]); err != nil {
			return fmt.Errorf("program %s LO: %w", sb, err)
		}
	}
	if err := r.setBandRelay(r.state.Band); err != nil {
		return err
	}
	if err := r.vfo.SetFrequency(r.state.Frequency()); err != nil {
		return fmt.Errorf("program VFO: %w", err)
	}

	r.display.ShowBand(r.state.Band, r.plan[r.state.Band].Name)
	r.display.ShowVFO(r.state.VFO)
	r.display.ShowFrequency(r.state.Frequency())
	r.display.ShowSideband(r.state.Sideband, false)

	r.log.Infof("band %s VFO %s %s at %d Hz", r.plan[r.state.Band].Name,
		display.VFOName(r.state.VFO), r.state.Sideband, r.state.Frequency())
	return nil
}

// Snapshot returns a copy of the state
func (r *Radio) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Mode returns the key interpretation mode
func (r *Radio) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state.LOState == LOActive {
		return ModeLOAdjust
	}
	return ModeNormal
}

// Plan returns the band table
func (r *Radio) Plan() band.Plan {
	return r.plan
}

// SelectBand moves delta bands up or down, stopping at the first and last band
func (r *Radio) SelectBand(delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.state.Band + delta
	if target < 0 {
		target = 0
	}
	if target > band.Count-1 {
		target = band.Count - 1
	}
	if target == r.state.Band {
		return nil
	}

	// The band only changes once the VFO runs on the new frequency
	f := r.state.Frequencies[target][r.state.VFO]
	if err := r.vfo.SetFrequency(f); err != nil {
		return fmt.Errorf("program VFO: %w", err)
	}
	r.state.Band = target
	r.display.ShowFrequency(f)
	r.display.ShowBand(target, r.plan[target].Name)

	if err := r.setBandRelay(target); err != nil {
		return err
	}
	if err := r.store.SaveBand(target); err != nil {
		return fmt.Errorf("persist band: %w", err)
	}

	r.log.Debugf("band %s", r.plan[target].Name)
	return nil
}

// ToggleVFO switches between VFO A and B
func (r *Radio) ToggleVFO() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.VFO = 1 - r.state.VFO
	r.display.ShowVFO(r.state.VFO)

	f := r.state.Frequency()
	if err := r.vfo.SetFrequency(f); err != nil {
		return fmt.Errorf("program VFO: %w", err)
	}
	r.display.ShowFrequency(f)

	if err := r.store.SaveVFO(r.state.VFO); err != nil {
		return fmt.Errorf("persist vfo: %w", err)
	}
	return nil
}

// ToggleSideband flips the sideband; frequencies and synthesizers are untouched
func (r *Radio) ToggleSideband() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Sideband = r.state.Sideband.Other()
	r.display.ShowSideband(r.state.Sideband, false)
}

// ApplyTuningDelta moves the active frequency by pulses squared in direction.
// During LO adjustment the step goes to the LO under trial instead and is
// programmed immediately. No band edge check is made; the result wraps
// like the 32-bit register it ends up in.
func (r *Radio) ApplyTuningDelta(pulses int64, direction int) error {
	if direction == 0 {
		return nil
	}
	delta := pulses * pulses * int64(direction)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.LOState == LOActive {
		r.state.LOScratch = uint32(int64(r.state.LOScratch) + delta)
		if err := r.lo.SetFrequency(r.state.LOScratch); err != nil {
			return fmt.Errorf("program LO: %w", err)
		}
		r.display.ShowFrequency(r.state.LOScratch)
		return nil
	}

	f := uint32(int64(r.state.Frequency()) + delta)
	r.state.Frequencies[r.state.Band][r.state.VFO] = f
	if err := r.vfo.SetFrequency(f); err != nil {
		return fmt.Errorf("program VFO: %w", err)
	}
	r.display.ShowFrequency(f)
	return nil
}

// SetBandRelay selects the filters of band b and moves the LO to that band's
// preferred sideband
func (r *Radio) SetBandRelay(b int) error {
	if !band.Valid(b) {
		return fmt.Errorf("no band %d", b)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setBandRelay(b)
}

func (r *Radio) setBandRelay(b int) error {
	if err := r.relay.SetBandCode(band.RelayCode(b)); err != nil {
		return fmt.Errorf("band relay: %w", err)
	}

	sb := r.plan[b].Preferred
	if err := r.lo.SetFrequency(r.state.LO[sb]); err != nil {
		return fmt.Errorf("program %s LO: %w", sb, err)
	}
	r.state.Sideband = sb
	r.display.ShowSideband(sb, false)
	return nil
}

// EnterLOAdjust starts trimming the LO of sb
func (r *Radio) EnterLOAdjust(sb band.Sideband) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.LOState == LOActive {
		return fmt.Errorf("LO adjustment already active for %s", r.state.LOSideband)
	}

	r.state.LOState = LOActive
	r.state.LOSideband = sb
	r.state.LOScratch = r.state.LO[sb]

	r.display.ShowSideband(sb, true)
	r.display.ShowFrequency(r.state.LOScratch)

	r.log.Infof("adjusting %s LO from %d Hz", sb, r.state.LOScratch)
	return nil
}

// ConfirmLO commits the trimmed LO and stores it
func (r *Radio) ConfirmLO() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.LOState != LOActive {
		return fmt.Errorf("no LO adjustment active")
	}

	sb := r.state.LOSideband
	r.state.LO[sb] = r.state.LOScratch
	r.state.LOState = LOConfirmed

	err := r.store.StoreLO(sb, r.state.LO[sb])
	r.display.ShowMessage(MsgStored, display.ColorGreen)
	r.restoreDisplay()

	if err != nil {
		return fmt.Errorf("persist LO: %w", err)
	}
	r.log.Infof("%s LO stored at %d Hz", sb, r.state.LO[sb])
	return nil
}

// AbortLO drops the trimmed value and puts the synthesizer back on the
// LO it had before the adjustment started
func (r *Radio) AbortLO() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.LOState != LOActive {
		return fmt.Errorf("no LO adjustment active")
	}

	sb := r.state.LOSideband
	r.state.LOState = LOAborted
	r.state.LOScratch = r.state.LO[sb]

	err := r.lo.SetFrequency(r.state.LO[sb])
	r.display.ShowMessage(MsgAborted, display.ColorRed)
	r.restoreDisplay()

	if err != nil {
		return fmt.Errorf("restore LO: %w", err)
	}
	r.log.Infof("%s LO adjustment aborted", sb)
	return nil
}

func (r *Radio) restoreDisplay() {
	r.display.ShowFrequency(r.state.Frequency())
	r.display.ShowSideband(r.state.Sideband, false)
}

// SaveAll persists every VFO frequency and the active VFO
func (r *Radio) SaveAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SaveAll(r.state.Frequencies, r.state.VFO); err != nil {
		return fmt.Errorf("save all: %w", err)
	}
	r.display.ShowMessage(MsgSaved, display.ColorGreen)
	return nil
}

// Dispatch runs a decoded command
func (r *Radio) Dispatch(cmd Command) error {
	switch cmd {
	case CmdNone:
		return nil
	case CmdBandUp:
		return r.SelectBand(1)
	case CmdBandDown:
		return r.SelectBand(-1)
	case CmdToggleSideband:
		r.ToggleSideband()
		return nil
	case CmdToggleVFO:
		return r.ToggleVFO()
	case CmdSaveAll:
		return r.SaveAll()
	case CmdAdjustLOLSB:
		return r.EnterLOAdjust(band.LSB)
	case CmdAdjustLOUSB:
		return r.EnterLOAdjust(band.USB)
	case CmdConfirmLO:
		return r.ConfirmLO()
	case CmdAbortLO:
		return r.AbortLO()
	}
	return fmt.Errorf("unknown command %d", cmd)
}

// HandleKey decodes code in the current mode and dispatches it
func (r *Radio) HandleKey(code int) (Command, error) {
	cmd := DecodeKey(code, r.Mode())
	return cmd, r.Dispatch(cmd)
}
