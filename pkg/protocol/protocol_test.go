package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	t.Run("STATUS Command", func(t *testing.T) {
		cmd, err := ParseCommand("STATUS")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if cmd.Type != "STATUS" {
			t.Errorf("Expected type STATUS, got %s", cmd.Type)
		}
		if len(cmd.Args) != 0 {
			t.Errorf("Expected no args for STATUS, got %d", len(cmd.Args))
		}
	})

	t.Run("Lowercase Command", func(t *testing.T) {
		cmd, err := ParseCommand("  ping \n")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Type != CmdPing {
			t.Errorf("Expected type PING, got %s", cmd.Type)
		}
	})

	t.Run("KEY Command", func(t *testing.T) {
		cmd, err := ParseCommand("KEY:7")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Type != CmdKey {
			t.Errorf("Expected type KEY, got %s", cmd.Type)
		}
		if cmd.Args["code"] != 7 {
			t.Errorf("Expected code 7, got %v", cmd.Args["code"])
		}
	})

	t.Run("KEY Command Errors", func(t *testing.T) {
		for _, text := range []string{"KEY", "KEY:x", "KEY:12", "KEY:-1"} {
			if _, err := ParseCommand(text); err == nil {
				t.Errorf("Expected error for %q", text)
			}
		}
	})

	t.Run("TUNE Command", func(t *testing.T) {
		cases := []struct {
			text      string
			pulses    int64
			direction int
		}{
			{"TUNE:5", 5, 1},
			{"TUNE:-5", 5, -1},
			{"TUNE:3:-1", 3, -1},
			{"TUNE:3:0", 3, 0},
		}

		for _, tc := range cases {
			cmd, err := ParseCommand(tc.text)
			if err != nil {
				t.Fatalf("Expected no error for %q, got: %v", tc.text, err)
			}
			if cmd.Args["pulses"] != tc.pulses {
				t.Errorf("%s: expected pulses %d, got %v", tc.text, tc.pulses, cmd.Args["pulses"])
			}
			if cmd.Args["direction"] != tc.direction {
				t.Errorf("%s: expected direction %d, got %v", tc.text, tc.direction, cmd.Args["direction"])
			}
		}
	})

	t.Run("TUNE Command Errors", func(t *testing.T) {
		for _, text := range []string{"TUNE", "TUNE:fast", "TUNE:3:2", "TUNE:3:up"} {
			if _, err := ParseCommand(text); err == nil {
				t.Errorf("Expected error for %q", text)
			}
		}
	})

	t.Run("Unknown Command", func(t *testing.T) {
		cmd, err := ParseCommand("FOO:bar")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Type != "FOO" {
			t.Errorf("Expected type FOO, got %s", cmd.Type)
		}
	})
}

func TestResponse(t *testing.T) {
	t.Run("Success Response", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]interface{}{"pong": 1})
		if !resp.Success {
			t.Error("Expected success true")
		}

		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(resp.String()), &parsed); err != nil {
			t.Fatalf("Response is not valid JSON: %v", err)
		}
		if _, ok := parsed["error"]; ok {
			t.Error("Expected no error field in success response")
		}
	})

	t.Run("Error Response", func(t *testing.T) {
		resp := NewErrorResponse("unknown command: FOO")
		jsonStr := resp.String()

		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
			t.Fatalf("Error response is not valid JSON: %v", err)
		}
		if parsed["success"] != false {
			t.Error("Expected success false for error response")
		}
		if !strings.Contains(parsed["error"].(string), "unknown command") {
			t.Error("Expected error message in response")
		}
	})

	t.Run("Decode", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]interface{}{
			"status": Status{BandName: "40m", Frequency: 7120000, Sideband: "LSB"},
		})

		// Round trip through the wire form, as a client sees it
		var wire Response
		if err := json.Unmarshal([]byte(resp.String()), &wire); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		var status Status
		if err := wire.Decode("status", &status); err != nil {
			t.Fatalf("Failed to decode status: %v", err)
		}
		if status.Frequency != 7120000 {
			t.Errorf("Expected frequency 7120000, got %d", status.Frequency)
		}
		if status.BandName != "40m" {
			t.Errorf("Expected band 40m, got %s", status.BandName)
		}

		if err := wire.Decode("bands", &status); err == nil {
			t.Error("Expected error for a missing key")
		}
	})
}
