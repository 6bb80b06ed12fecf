package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatFrequency groups the digits of hz with dots, e.g. 7.120.000
func FormatFrequency(hz uint32) string {
	return strings.ReplaceAll(humanize.Comma(int64(hz)), ",", ".")
}

// FormatFrequencySI renders hz with an SI prefix, e.g. 7.12 MHz
func FormatFrequencySI(hz uint32) string {
	value, prefix := humanize.ComputeSI(float64(hz))
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + prefix + "Hz"
}

// FormatVoltage renders tenths of a volt, e.g. 13.7V
func FormatVoltage(decivolts int) string {
	return fmt.Sprintf("%d.%dV", decivolts/10, decivolts%10)
}
