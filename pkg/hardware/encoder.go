package hardware

import (
	"context"
	"fmt"
	"time"

	"github.com/dougsko/trx8/pkg/logging"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// EdgeSink receives one sample of both encoder phases per edge
type EdgeSink interface {
	Edge(a, b bool)
}

// PeriphEncoder watches the quadrature encoder's phase A for rising edges
type PeriphEncoder struct {
	pinA gpio.PinIO
	pinB gpio.PinIO
}

// OpenPeriphEncoder configures both phase pins as pulled-up inputs
func OpenPeriphEncoder(nameA, nameB string) (*PeriphEncoder, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host drivers: %w", err)
	}

	pinA := gpioreg.ByName(nameA)
	if pinA == nil {
		return nil, fmt.Errorf("encoder pin %q not found", nameA)
	}
	pinB := gpioreg.ByName(nameB)
	if pinB == nil {
		return nil, fmt.Errorf("encoder pin %q not found", nameB)
	}

	if err := pinA.In(gpio.PullUp, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("encoder pin %s: %w", nameA, err)
	}
	if err := pinB.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("encoder pin %s: %w", nameB, err)
	}

	return &PeriphEncoder{pinA: pinA, pinB: pinB}, nil
}

// Run delivers edges to sink until ctx is done
func (e *PeriphEncoder) Run(ctx context.Context, sink EdgeSink) {
	logging.Infof("encoder", "watching %s/%s", e.pinA.Name(), e.pinB.Name())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !e.pinA.WaitForEdge(100 * time.Millisecond) {
			continue
		}
		// Both phases are sampled right after the edge, no further debounce
		sink.Edge(e.pinA.Read() == gpio.High, e.pinB.Read() == gpio.High)
	}
}

// Halt releases the edge detection
func (e *PeriphEncoder) Halt() error {
	return e.pinA.Halt()
}
