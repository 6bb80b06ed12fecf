package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/band"
	"github.com/dougsko/trx8/pkg/config"
	"github.com/dougsko/trx8/pkg/display"
	"github.com/dougsko/trx8/pkg/hardware"
	"github.com/dougsko/trx8/pkg/logging"
	"github.com/dougsko/trx8/pkg/protocol"
	"github.com/dougsko/trx8/pkg/radio"
	"github.com/dougsko/trx8/pkg/storage"
	"github.com/dougsko/trx8/pkg/synth"
	"github.com/dougsko/trx8/pkg/tuning"
)

// Version is reported in the status
const Version = "0.1.0-dev"

// telemetryPeriod is the number of elapsed seconds between housekeeping reads
const telemetryPeriod = 3

// saveKey is the front panel key that saves all VFOs
const saveKey = 4

// MsgBusFault is left on the message line when the main loop halts
const MsgBusFault = "Bus fault!"

// MsgDefaults reports that stored values failed validation at start-up
const MsgDefaults = "Defaults loaded."

// CoreEngine runs the transceiver main loop and the unix socket command server
type CoreEngine struct {
	config      *config.Config
	socketPath  string
	listener    net.Listener
	running     bool
	initialized bool
	mutex       sync.RWMutex
	startTime   time.Time

	// Hardware and synthesizers
	hardwareManager *hardware.HardwareManager
	dds             *synth.AD9951
	pll             *synth.Si5351
	store           *storage.FrequencyStore

	// Radio state and its inputs
	plan     band.Plan
	radio    *radio.Radio
	monitor  *tuning.Monitor
	timeBase *tuning.TimeBase
	keys     *radio.KeyQueue
	input    radio.KeySource

	// Outputs
	outputs []display.Display
	model   *display.Model
	status  *statusLine

	// Main loop bookkeeping, touched by the loop goroutine only
	lastMeter   int
	lastTX      bool
	txKnown     bool
	telemetryAt uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
	fatal  chan error
	fault  error
}

// NewCoreEngine creates a core engine rendering to outputs
func NewCoreEngine(cfg *config.Config, socketPath string, outputs ...display.Display) *CoreEngine {
	hardwareConfig := hardware.HardwareConfig{
		Mock:          cfg.Hardware.Mock,
		I2CBus:        cfg.Hardware.I2CBus,
		Si5351Address: cfg.Hardware.Si5351Address,
		EEPROMAddress: cfg.Hardware.EEPROMAddress,
		BusTimeout:    cfg.Hardware.BusTimeout,
		DDSClockPin:   cfg.Hardware.DDSClockPin,
		DDSDataPin:    cfg.Hardware.DDSDataPin,
		DDSUpdatePin:  cfg.Hardware.DDSUpdatePin,
		DDSResetPin:   cfg.Hardware.DDSResetPin,
		RelayPins:     cfg.Hardware.RelayPins,
		StatusLEDPin:  cfg.Hardware.StatusLEDPin,
		TXSensePin:    cfg.Hardware.TXSensePin,
		EncoderPinA:   cfg.Hardware.EncoderPinA,
		EncoderPinB:   cfg.Hardware.EncoderPinB,
		EnableOLED:    cfg.Hardware.EnableOLED,
		OLEDWidth:     cfg.Hardware.OLEDWidth,
		OLEDHeight:    cfg.Hardware.OLEDHeight,
	}

	hw := hardware.NewHardwareManager(hardwareConfig)
	// The status LED blinks with every counted encoder edge
	monitor := tuning.NewMonitor(hw.ToggleStatusLED)
	return &CoreEngine{
		config:          cfg,
		socketPath:      socketPath,
		startTime:       time.Now(),
		hardwareManager: hw,
		monitor:         monitor,
		timeBase:        tuning.NewTimeBase(monitor, cfg.TimeBase.TickInterval, cfg.TimeBase.FiresPerCount),
		keys:            radio.NewKeyQueue(16),
		outputs:         outputs,
		lastMeter:       -1,
		fatal:           make(chan error, 1),
	}
}

// Initialize brings up the hardware, loads the stored frequencies and
// programs the synthesizers for the last used band
func (e *CoreEngine) Initialize() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.initialized {
		return nil
	}

	plan, err := band.FromConfig(e.config)
	if err != nil {
		return fmt.Errorf("invalid band table: %w", err)
	}
	e.plan = plan

	if err := e.hardwareManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize hardware manager: %w", err)
	}
	hw := e.hardwareManager

	// Anything brought up so far is released again if a later step fails
	ready := false
	defer func() {
		if ready {
			return
		}
		if e.store != nil {
			if err := e.store.Close(); err != nil {
				logging.Warnf("engine", "error closing frequency store: %v", err)
			}
			e.store = nil
		}
		hw.Close()
	}()

	e.dds = synth.NewAD9951(hw.DDSPort(), e.config.Radio.InterFrequency, e.config.Radio.DDSClock)
	if err := e.dds.Reset(); err != nil {
		return fmt.Errorf("failed to reset DDS: %w", err)
	}

	e.pll = synth.NewSi5351(hw.Bus(), e.config.Hardware.Si5351Address,
		float64(e.config.Radio.CrystalFreq), e.config.Radio.PLLRatio)
	if err := e.pll.Start(); err != nil {
		return fmt.Errorf("failed to start Si5351: %w", err)
	}

	bytes, err := storage.Open(storage.Options{
		Backend:      e.config.Storage.Backend,
		DatabasePath: e.config.Storage.DatabasePath,
		Bus:          hw.Bus(),
		Address:      e.config.Hardware.EEPROMAddress,
		WriteDelay:   e.config.Hardware.EEPROMWriteDelay,
	})
	if err != nil {
		return fmt.Errorf("failed to open frequency store: %w", err)
	}
	e.store = storage.NewFrequencyStore(bytes, plan, storage.LOLimits{
		Center:   e.config.Radio.InterFrequency,
		Window:   e.config.Radio.LOWindow,
		Fallback: e.config.Radio.LOFallbackOffset,
	})

	snap, err := e.store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load frequencies: %w", err)
	}
	if len(snap.Substitutions) > 0 {
		logging.Infof("engine", "%d stored values replaced by defaults", len(snap.Substitutions))
	}

	e.model = display.NewModel(nil)
	outputs := append(display.Multi{e.model}, e.outputs...)
	if oled := hw.OLED(); oled != nil {
		outputs = append(outputs, display.NewPanel(oled))
	}
	e.status = newStatusLine(outputs, e.timeBase.Elapsed)

	e.radio = radio.New(radio.Config{
		Plan:    plan,
		VFO:     e.dds,
		LO:      e.pll,
		Relay:   hw.Relay(),
		Store:   e.store,
		Display: e.status,
	})
	e.radio.Load(snap)

	e.status.ShowMessage(display.Banner, display.ColorBlue)
	if err := e.radio.Apply(); err != nil {
		return fmt.Errorf("failed to program radio: %w", err)
	}
	if len(snap.Substitutions) > 0 {
		e.status.ShowMessage(MsgDefaults, display.ColorYellow)
	}

	sources := radio.MultiSource{e.keys}
	if keypad := hw.Keypad(); keypad != nil {
		sources = append(sources, keypad)
	}
	e.input = sources

	e.refreshTelemetry()

	ready = true
	e.initialized = true
	logging.Info("engine", "radio initialized", logging.Fields{
		"band":      plan[snap.Band].Name,
		"frequency": e.radio.Snapshot().Frequency(),
		"backend":   e.config.Storage.Backend,
	})
	return nil
}

// Start initializes the engine and runs the main loop, the time base and the
// socket server until Stop
func (e *CoreEngine) Start() error {
	if err := e.Initialize(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	e.mutex.Lock()
	e.running = true
	e.cancel = cancel
	e.mutex.Unlock()

	// Remove existing socket file
	os.Remove(e.socketPath)

	listener, err := net.Listen("unix", e.socketPath)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create Unix socket: %w", err)
	}
	e.listener = listener

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(e.socketPath, 0660); err != nil {
		logging.Warnf("engine", "failed to set socket permissions: %v", err)
	}

	logging.Infof("engine", "core engine listening on %s", e.socketPath)

	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		e.timeBase.Run(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.mainLoop(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.acceptConnections()
	}()

	if encoder := e.hardwareManager.Encoder(); encoder != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			encoder.Run(ctx, e.monitor)
		}()
	}

	return nil
}

// Stop stops the core engine
func (e *CoreEngine) Stop() error {
	e.mutex.Lock()
	e.running = false
	cancel := e.cancel
	e.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
	if e.listener != nil {
		e.listener.Close()
	}

	e.wg.Wait()

	if e.store != nil {
		if err := e.store.Close(); err != nil {
			logging.Warnf("engine", "error closing frequency store: %v", err)
		}
	}
	if e.hardwareManager != nil {
		e.hardwareManager.Close()
	}

	os.Remove(e.socketPath)
	return nil
}

// Fatal delivers the error that stopped the main loop
func (e *CoreEngine) Fatal() <-chan error {
	return e.fatal
}

// Keys returns the queue that feeds key codes into the main loop
func (e *CoreEngine) Keys() *radio.KeyQueue {
	return e.keys
}

// Monitor returns the encoder monitor
func (e *CoreEngine) Monitor() *tuning.Monitor {
	return e.monitor
}

// TimeBase returns the time base
func (e *CoreEngine) TimeBase() *tuning.TimeBase {
	return e.timeBase
}

// Radio returns the radio state machine, nil before Initialize
func (e *CoreEngine) Radio() *radio.Radio {
	return e.radio
}

// Hardware returns the hardware manager
func (e *CoreEngine) Hardware() *hardware.HardwareManager {
	return e.hardwareManager
}

func (e *CoreEngine) mainLoop(ctx context.Context) {
	ticker := time.NewTicker(e.config.TimeBase.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Step(); err != nil {
				e.halt(err)
				return
			}
		}
	}
}

// halt records the error that stopped the main loop and hands it to Fatal
func (e *CoreEngine) halt(err error) {
	logging.Error("engine", "main loop stopped", logging.Fields{"error": err.Error()})

	e.mutex.Lock()
	e.fault = err
	e.mutex.Unlock()

	e.status.ShowMessage(MsgBusFault, display.ColorRed)

	select {
	case e.fatal <- err:
	default:
	}
}

// Fault returns the error that stopped the main loop, if any
func (e *CoreEngine) Fault() error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.fault
}

// Step is one main loop iteration. It returns an error only when the radio
// can no longer be driven.
func (e *CoreEngine) Step() error {
	if pulses, direction, ok := e.monitor.Consume(); ok {
		if err := e.check("tune", e.radio.ApplyTuningDelta(pulses, direction)); err != nil {
			return err
		}
	}

	if code := e.input.PollKey(); code != radio.NoKey {
		cmd, err := e.radio.HandleKey(code)
		logging.Debugf("engine", "key %d: %s", code, cmd)
		if err := e.check(cmd.String(), err); err != nil {
			return err
		}
	}

	e.updateMeter()

	elapsed := e.timeBase.Elapsed()
	e.status.expire(uint64(e.config.TimeBase.MessageHold))

	if elapsed > e.telemetryAt+telemetryPeriod {
		e.refreshTelemetry()
		e.telemetryAt = elapsed
	}

	e.updateTXRX()

	return nil
}

// check logs a failed operation; a bus timeout means the synthesizers can no
// longer be reached and is returned
func (e *CoreEngine) check(op string, err error) error {
	if err == nil {
		return nil
	}
	if hardware.IsTimeout(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	logging.Warn("engine", op+" failed", logging.Fields{"error": err.Error()})
	return nil
}

func (e *CoreEngine) updateMeter() {
	level, err := e.hardwareManager.Sensors().MeterLevel()
	if err != nil {
		return
	}
	if level != e.lastMeter {
		e.lastMeter = level
		e.status.ShowMeter(level)
	}
}

func (e *CoreEngine) refreshTelemetry() {
	sensors := e.hardwareManager.Sensors()

	volts, err := sensors.SupplyVoltage()
	if err != nil {
		logging.Debugf("engine", "supply voltage: %v", err)
		return
	}
	temp, err := sensors.PATemperature()
	if err != nil {
		logging.Debugf("engine", "PA temperature: %v", err)
		return
	}
	e.status.ShowTelemetry(volts, temp)
}

func (e *CoreEngine) updateTXRX() {
	tx, err := e.hardwareManager.Sensors().Transmitting()
	if err != nil {
		return
	}
	if !e.txKnown || tx != e.lastTX {
		e.txKnown = true
		e.lastTX = tx
		e.status.ShowTXRX(tx)
	}
}

// acceptConnections accepts and handles socket connections
func (e *CoreEngine) acceptConnections() {
	for e.isRunning() {
		conn, err := e.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if e.isRunning() {
				logging.Warnf("engine", "socket accept error: %v", err)
			}
			continue
		}

		go e.handleConnection(conn)
	}
}

// handleConnection handles a single socket connection
func (e *CoreEngine) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			response := protocol.NewErrorResponse(fmt.Sprintf("parse error: %v", err))
			conn.Write([]byte(response.String() + "\n"))
			continue
		}

		response := e.handleCommand(cmd)
		conn.Write([]byte(response.String() + "\n"))

		// Close connection after QUIT command
		if cmd.Type == protocol.CmdQuit {
			break
		}
	}
}

// handleCommand processes a single command
func (e *CoreEngine) handleCommand(cmd *protocol.Command) *protocol.Response {
	switch cmd.Type {
	case protocol.CmdStatus:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"status": e.Status(),
		})

	case protocol.CmdKey:
		return e.handleKey(cmd.Args["code"].(int))

	case protocol.CmdTune:
		pulses := cmd.Args["pulses"].(int64)
		direction := cmd.Args["direction"].(int)
		e.monitor.Inject(pulses, direction)
		return protocol.NewSuccessResponse(map[string]interface{}{
			"pulses":    pulses,
			"direction": direction,
			"step":      tuning.Delta(pulses, direction),
		})

	case protocol.CmdSave:
		if e.radio.Mode() == radio.ModeLOAdjust {
			return protocol.NewErrorResponse("LO adjustment in progress")
		}
		return e.handleKey(saveKey)

	case protocol.CmdBands:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"bands": e.Bands(),
		})

	case protocol.CmdPing:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"pong": time.Now().Unix(),
		})

	case protocol.CmdQuit:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"message": "goodbye",
		})

	default:
		return protocol.NewErrorResponse(fmt.Sprintf("unknown command: %s", cmd.Type))
	}
}

func (e *CoreEngine) handleKey(code int) *protocol.Response {
	expected := radio.DecodeKey(code, e.radio.Mode())
	if !e.keys.Push(code) {
		return protocol.NewErrorResponse("key queue full")
	}
	return protocol.NewSuccessResponse(map[string]interface{}{
		"code":    code,
		"command": expected.String(),
	})
}

// Status returns the radio state merged with what the displays show
func (e *CoreEngine) Status() protocol.Status {
	state := e.radio.Snapshot()
	shown := e.model.Snapshot()

	status := protocol.Status{
		Band:          state.Band,
		BandName:      e.plan[state.Band].Name,
		VFO:           display.VFOName(state.VFO),
		Sideband:      state.Sideband.String(),
		Frequency:     state.Frequency(),
		FrequencyText: display.FormatFrequency(state.Frequency()),
		LO:            state.LO,
		LOAdjust:      state.LOState == radio.LOActive,
		Message:       shown.Message,
		Meter:         shown.Meter,
		Voltage:       shown.Voltage,
		Temperature:   shown.Temperature,
		TX:            shown.TX,
		Elapsed:       e.timeBase.Elapsed(),
		Uptime:        time.Since(e.startTime).Truncate(time.Second).String(),
		StartTime:     e.startTime,
		Version:       Version,
	}
	if status.LOAdjust {
		status.LOScratch = state.LOScratch
	}
	if err := e.Fault(); err != nil {
		status.Fault = err.Error()
	}

	stats, err := e.store.Stats()
	if err != nil {
		logging.Debugf("engine", "storage stats: %v", err)
	} else if stats != nil {
		status.Storage = &protocol.StorageStats{
			Cells:     stats.Cells,
			Writes:    stats.Writes,
			LastWrite: stats.LastWrite,
		}
	}
	return status
}

// Bands returns the band table with the current VFO frequencies
func (e *CoreEngine) Bands() []protocol.Band {
	state := e.radio.Snapshot()

	bands := make([]protocol.Band, 0, band.Count)
	for i, b := range e.plan {
		bands = append(bands, protocol.Band{
			Index:    i,
			Name:     b.Name,
			Lower:    b.Lower,
			Upper:    b.Upper,
			Sideband: b.Preferred.String(),
			VFOA:     state.Frequencies[i][0],
			VFOB:     state.Frequencies[i][1],
		})
	}
	return bands
}

// isRunning checks if the engine is running
func (e *CoreEngine) isRunning() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.running
}
