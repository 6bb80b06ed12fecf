package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Command represents a command sent to the core engine
type Command struct {
	Type string                 `json:"type"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// Response represents a response from the core engine
type Response struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Status represents the current radio status
type Status struct {
	Band          int       `json:"band"`
	BandName      string    `json:"band_name"`
	VFO           string    `json:"vfo"`
	Sideband      string    `json:"sideband"`
	Frequency     uint32    `json:"frequency"`
	FrequencyText string    `json:"frequency_text"`
	LO            [2]uint32 `json:"lo"`
	LOAdjust      bool      `json:"lo_adjust"`
	LOScratch     uint32    `json:"lo_scratch,omitempty"`
	Message       string    `json:"message"`
	Meter         int       `json:"meter"`
	Voltage       float64   `json:"voltage"`
	Temperature   int       `json:"temperature"`
	TX            bool      `json:"tx"`
	Elapsed       uint64    `json:"elapsed"`
	Uptime        string    `json:"uptime"`
	StartTime     time.Time `json:"start_time"`
	Version       string    `json:"version"`
	Fault         string    `json:"fault,omitempty"`

	Storage *StorageStats `json:"storage,omitempty"`
}

// StorageStats is the write history of a SQLite frequency image
type StorageStats struct {
	Cells     int        `json:"cells"`
	Writes    int64      `json:"writes"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// Band describes one row of the band table
type Band struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Lower    uint32 `json:"lower"`
	Upper    uint32 `json:"upper"`
	Sideband string `json:"sideband"`
	VFOA     uint32 `json:"vfo_a"`
	VFOB     uint32 `json:"vfo_b"`
}

// ParseCommand parses a text command into a Command struct
func ParseCommand(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	parts := strings.SplitN(text, ":", 2)

	cmd := &Command{
		Type: strings.ToUpper(parts[0]),
		Args: make(map[string]interface{}),
	}

	switch cmd.Type {
	case CmdKey:
		// KEY:2
		if len(parts) < 2 {
			return nil, fmt.Errorf("KEY needs a key code")
		}
		code, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid key code %q", parts[1])
		}
		if code < 0 || code > 11 {
			return nil, fmt.Errorf("key code %d out of range 0..11", code)
		}
		cmd.Args["code"] = code

	case CmdTune:
		// TUNE:5, TUNE:-5 or TUNE:5:-1
		if len(parts) < 2 {
			return nil, fmt.Errorf("TUNE needs a pulse count")
		}
		pulses, direction, err := parseTune(parts[1])
		if err != nil {
			return nil, err
		}
		cmd.Args["pulses"] = pulses
		cmd.Args["direction"] = direction
	}

	return cmd, nil
}

func parseTune(args string) (int64, int, error) {
	fields := strings.SplitN(args, ":", 2)

	pulses, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pulse count %q", fields[0])
	}

	direction := 1
	if pulses < 0 {
		pulses = -pulses
		direction = -1
	}

	if len(fields) > 1 {
		direction, err = strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || direction < -1 || direction > 1 {
			return 0, 0, fmt.Errorf("invalid direction %q, want -1, 0 or 1", fields[1])
		}
	}
	return pulses, direction, nil
}

// FormatResponse converts a Response to JSON string
func (r *Response) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// NewSuccessResponse creates a successful response
func NewSuccessResponse(data map[string]interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err string) *Response {
	return &Response{
		Success: false,
		Error:   err,
	}
}

// Decode re-marshals the value stored under key into out
func (r *Response) Decode(key string, out interface{}) error {
	value, ok := r.Data[key]
	if !ok {
		return fmt.Errorf("%s not found in response", key)
	}

	// Convert to JSON and back to parse properly
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Protocol commands
const (
	CmdStatus = "STATUS"
	CmdKey    = "KEY"
	CmdTune   = "TUNE"
	CmdSave   = "SAVE"
	CmdBands  = "BANDS"
	CmdQuit   = "QUIT"
	CmdPing   = "PING"
)
