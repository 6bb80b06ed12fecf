package verbose

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

// SetEnabled sets the global bus tracing flag
func SetEnabled(enable bool) {
	enabled.Store(enable)
}

// IsEnabled returns whether bus tracing is enabled
func IsEnabled() bool {
	return enabled.Load()
}

// Printf prints a verbose log message if verbose logging is enabled
func Printf(format string, args ...interface{}) {
	if IsEnabled() {
		log.Printf("[VERBOSE] "+format, args...)
	}
}

// Frame traces one bus transfer as a hex dump, e.g. "i2c 0x60 w: 2a ff ff"
func Frame(bus string, addr uint16, dir string, data []byte) {
	if !IsEnabled() {
		return
	}
	log.Printf("[VERBOSE] %s 0x%02x %s: %s", bus, addr, dir, Hex(data))
}

// Hex renders bytes as space separated lower-case hex
func Hex(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}
