package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("Valid Config", func(t *testing.T) {
		configContent := `
radio:
  inter_frequency: 9000000
  dds_clock: 400000000
  lo_window: 2500

timebase:
  tick_interval: 200ms
  message_hold: 5

hardware:
  mock: false
  i2c_bus: "/dev/i2c-1"
  eeprom_write_delay: 10ms
  relay_pins: [5, 6, 7]
  encoder_pin_a: "GPIO5"

storage:
  backend: "sqlite"
  database_path: "/var/lib/trx8/nvram.db"

web:
  enabled: true
  port: 9090

logging:
  level: "debug"
  file: "/var/log/trxd.log"
  console: true
  verbose: true
`
		configPath := filepath.Join(tempDir, "valid.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Radio.InterFrequency != 9000000 {
			t.Errorf("Expected IF 9000000, got %d", config.Radio.InterFrequency)
		}
		if config.Radio.LOWindow != 2500 {
			t.Errorf("Expected LO window 2500, got %d", config.Radio.LOWindow)
		}
		if config.TimeBase.TickInterval != 200*time.Millisecond {
			t.Errorf("Expected tick interval 200ms, got %v", config.TimeBase.TickInterval)
		}
		if config.TimeBase.MessageHold != 5 {
			t.Errorf("Expected message hold 5, got %d", config.TimeBase.MessageHold)
		}
		if config.Hardware.I2CBus != "/dev/i2c-1" {
			t.Errorf("Expected i2c bus /dev/i2c-1, got %s", config.Hardware.I2CBus)
		}
		if config.Hardware.EEPROMWriteDelay != 10*time.Millisecond {
			t.Errorf("Expected write delay 10ms, got %v", config.Hardware.EEPROMWriteDelay)
		}
		if len(config.Hardware.RelayPins) != 3 || config.Hardware.RelayPins[0] != 5 {
			t.Errorf("Expected relay pins [5 6 7], got %v", config.Hardware.RelayPins)
		}
		if config.Hardware.EncoderPinA != "GPIO5" {
			t.Errorf("Expected encoder pin GPIO5, got %s", config.Hardware.EncoderPinA)
		}
		if config.Storage.Backend != "sqlite" {
			t.Errorf("Expected sqlite backend, got %s", config.Storage.Backend)
		}
		if config.Web.Port != 9090 {
			t.Errorf("Expected web port 9090, got %d", config.Web.Port)
		}
		if !config.Logging.Verbose {
			t.Error("Expected verbose logging")
		}

		// Defaults fill what the file leaves out
		if config.Radio.CrystalFreq != 25000000 {
			t.Errorf("Expected default crystal 25000000, got %d", config.Radio.CrystalFreq)
		}
		if config.Radio.PLLRatio != 32 {
			t.Errorf("Expected default PLL ratio 32, got %d", config.Radio.PLLRatio)
		}
		if config.Hardware.EncoderPinB != "GPIO27" {
			t.Errorf("Expected default encoder pin GPIO27, got %s", config.Hardware.EncoderPinB)
		}
		if config.TimeBase.FiresPerCount != 3 {
			t.Errorf("Expected default fires per count 3, got %d", config.TimeBase.FiresPerCount)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("Expected valid config, got: %v", err)
		}
	})

	t.Run("Band Table Override", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("bands:\n")
		for i := 0; i < 8; i++ {
			sb.WriteString("  - name: \"b\"\n    lower: 1000000\n    upper: 2000000\n    center: 1500000\n    sideband: \"USB\"\n    default_a: 1500000\n    default_b: 1600000\n")
		}

		configPath := filepath.Join(tempDir, "bands.yaml")
		if err := os.WriteFile(configPath, []byte(sb.String()), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(config.Bands) != 8 {
			t.Fatalf("Expected 8 bands, got %d", len(config.Bands))
		}
		if config.Bands[0].DefaultB != 1600000 {
			t.Errorf("Expected default B 1600000, got %d", config.Bands[0].DefaultB)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("Expected valid config, got: %v", err)
		}
	})

	t.Run("Nonexistent File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(tempDir, "nonexistent.yaml"))
		if err == nil {
			t.Error("Expected error for nonexistent file")
		}
		if !strings.Contains(err.Error(), "failed to read config file") {
			t.Errorf("Expected read error, got: %v", err)
		}
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("radio: [unclosed"), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		_, err := LoadConfig(configPath)
		if err == nil {
			t.Error("Expected error for invalid YAML")
		}
		if !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("Expected parse error, got: %v", err)
		}
	})
}

func TestDefault(t *testing.T) {
	config := Default()

	if !config.Hardware.Mock {
		t.Error("Expected mock hardware by default")
	}
	if config.Radio.InterFrequency != 10000000 {
		t.Errorf("Expected IF 10000000, got %d", config.Radio.InterFrequency)
	}
	if config.Radio.DDSClock != 400e6 {
		t.Errorf("Expected DDS clock 400e6, got %v", config.Radio.DDSClock)
	}
	if config.TimeBase.TickInterval != 350*time.Millisecond {
		t.Errorf("Expected tick interval 350ms, got %v", config.TimeBase.TickInterval)
	}
	if config.Hardware.DDSUpdatePin != 12 || config.Hardware.DDSResetPin != 15 {
		t.Errorf("Expected DDS pins 12..15, got update %d reset %d",
			config.Hardware.DDSUpdatePin, config.Hardware.DDSResetPin)
	}
	if config.Storage.Backend != "memory" {
		t.Errorf("Expected memory backend, got %s", config.Storage.Backend)
	}
	if config.API.UnixSocket != "/tmp/trxd.sock" {
		t.Errorf("Expected socket /tmp/trxd.sock, got %s", config.API.UnixSocket)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:    "Zero DDS Clock",
			modify:  func(c *Config) { c.Radio.DDSClock = -1 },
			wantErr: "dds clock",
		},
		{
			name:    "Fallback Outside Window",
			modify:  func(c *Config) { c.Radio.LOFallbackOffset = 4000 },
			wantErr: "exceeds lo window",
		},
		{
			name:    "Short Band Table",
			modify:  func(c *Config) { c.Bands = make([]BandConfig, 3) },
			wantErr: "exactly 8 bands",
		},
		{
			name: "Inverted Band Edges",
			modify: func(c *Config) {
				c.Bands = make([]BandConfig, 8)
				for i := range c.Bands {
					c.Bands[i] = BandConfig{Lower: 2, Upper: 1, Sideband: "LSB"}
				}
			},
			wantErr: "lower edge",
		},
		{
			name: "Bad Sideband",
			modify: func(c *Config) {
				c.Bands = make([]BandConfig, 8)
				for i := range c.Bands {
					c.Bands[i] = BandConfig{Lower: 1, Upper: 2, Sideband: "AM"}
				}
			},
			wantErr: "sideband must be",
		},
		{
			name: "Default Outside Band",
			modify: func(c *Config) {
				c.Bands = make([]BandConfig, 8)
				for i := range c.Bands {
					c.Bands[i] = BandConfig{Lower: 7000000, Upper: 7200000, Center: 7100000,
						Sideband: "LSB", DefaultA: 7100000, DefaultB: 7100000}
				}
				c.Bands[2].DefaultA = 9000000
			},
			wantErr: "default_a 9000000 outside band edges",
		},
		{
			name: "Center Outside Band",
			modify: func(c *Config) {
				c.Bands = make([]BandConfig, 8)
				for i := range c.Bands {
					c.Bands[i] = BandConfig{Lower: 7000000, Upper: 7200000, Center: 1,
						Sideband: "USB", DefaultA: 7100000, DefaultB: 7100000}
				}
			},
			wantErr: "center 1 outside band edges",
		},
		{
			name: "LO Window Wider Than IF",
			modify: func(c *Config) {
				c.Radio.InterFrequency = 2000
				c.Radio.LOWindow = 3000
			},
			wantErr: "exceeds inter frequency",
		},
		{
			name:    "Relay Pins",
			modify:  func(c *Config) { c.Hardware.RelayPins = []int{1, 2} },
			wantErr: "relay needs 3 pins",
		},
		{
			name:    "Fires Per Count",
			modify:  func(c *Config) { c.TimeBase.FiresPerCount = -1 },
			wantErr: "fires_per_count",
		},
		{
			name:    "Unknown Backend",
			modify:  func(c *Config) { c.Storage.Backend = "flash" },
			wantErr: "unknown storage backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)

			err := config.Validate()
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
