package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// BandConfig overrides one entry of the factory band table
type BandConfig struct {
	Name     string `yaml:"name"`
	Lower    uint32 `yaml:"lower"`
	Upper    uint32 `yaml:"upper"`
	Center   uint32 `yaml:"center"`
	Sideband string `yaml:"sideband"`
	DefaultA uint32 `yaml:"default_a"`
	DefaultB uint32 `yaml:"default_b"`
}

// Config represents the trxd configuration
type Config struct {
	Radio struct {
		// Frequency plan
		InterFrequency uint32  `yaml:"inter_frequency"`
		DDSClock       float64 `yaml:"dds_clock"`
		CrystalFreq    uint32  `yaml:"crystal_frequency"`
		PLLRatio       uint32  `yaml:"pll_ratio"`

		// LO sanity window and fallback offset around the IF
		LOWindow         uint32 `yaml:"lo_window"`
		LOFallbackOffset uint32 `yaml:"lo_fallback_offset"`
	} `yaml:"radio"`

	Bands []BandConfig `yaml:"bands"`

	TimeBase struct {
		TickInterval  time.Duration `yaml:"tick_interval"`
		FiresPerCount int           `yaml:"fires_per_count"`
		PollInterval  time.Duration `yaml:"poll_interval"`
		MessageHold   int           `yaml:"message_hold"`
	} `yaml:"timebase"`

	Hardware struct {
		Mock bool `yaml:"mock"`

		// I2C bus shared by the Si5351 and the 24C65 EEPROM
		I2CBus           string        `yaml:"i2c_bus"`
		Si5351Address    uint16        `yaml:"si5351_address"`
		EEPROMAddress    uint16        `yaml:"eeprom_address"`
		EEPROMWriteDelay time.Duration `yaml:"eeprom_write_delay"`
		BusTimeout       time.Duration `yaml:"bus_timeout"`

		// AD9951 bit-banged serial port (sysfs GPIO numbers)
		DDSClockPin  int `yaml:"dds_sclk_pin"`
		DDSDataPin   int `yaml:"dds_sdio_pin"`
		DDSUpdatePin int `yaml:"dds_ioud_pin"`
		DDSResetPin  int `yaml:"dds_reset_pin"`

		RelayPins    []int `yaml:"relay_pins"`
		StatusLEDPin int   `yaml:"status_led_pin"`
		TXSensePin   int   `yaml:"tx_sense_pin"`

		// Encoder pins are periph names (e.g. GPIO17)
		EncoderPinA string `yaml:"encoder_pin_a"`
		EncoderPinB string `yaml:"encoder_pin_b"`

		EnableOLED bool `yaml:"enable_oled"`
		OLEDWidth  int  `yaml:"oled_width"`
		OLEDHeight int  `yaml:"oled_height"`
	} `yaml:"hardware"`

	Storage struct {
		Backend      string `yaml:"backend"`
		DatabasePath string `yaml:"database_path"`
	} `yaml:"storage"`

	Web struct {
		Enabled     bool   `yaml:"enabled"`
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	API struct {
		UnixSocket string `yaml:"unix_socket"`
	} `yaml:"api"`

	Display struct {
		Console  bool `yaml:"console"`
		NoColor  bool `yaml:"no_color"`
		Keyboard bool `yaml:"keyboard"`
	} `yaml:"display"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
		MaxSize    int    `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"`
		Compress   bool   `yaml:"compress"`
		Verbose    bool   `yaml:"verbose"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.SetDefaults()
	return &config, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	config := &Config{}
	config.Hardware.Mock = true
	config.SetDefaults()
	return config
}

// SetDefaults fills in zero values
func (c *Config) SetDefaults() {
	if c.Radio.InterFrequency == 0 {
		c.Radio.InterFrequency = 10000000
	}
	if c.Radio.DDSClock == 0 {
		c.Radio.DDSClock = 400e6
	}
	if c.Radio.CrystalFreq == 0 {
		c.Radio.CrystalFreq = 25000000
	}
	if c.Radio.PLLRatio == 0 {
		c.Radio.PLLRatio = 32
	}
	if c.Radio.LOWindow == 0 {
		c.Radio.LOWindow = 3000
	}
	if c.Radio.LOFallbackOffset == 0 {
		c.Radio.LOFallbackOffset = 1500
	}
	if c.TimeBase.TickInterval == 0 {
		c.TimeBase.TickInterval = 350 * time.Millisecond
	}
	if c.TimeBase.FiresPerCount == 0 {
		c.TimeBase.FiresPerCount = 3
	}
	if c.TimeBase.PollInterval == 0 {
		c.TimeBase.PollInterval = 5 * time.Millisecond
	}
	if c.TimeBase.MessageHold == 0 {
		c.TimeBase.MessageHold = 3
	}
	if c.Hardware.I2CBus == "" {
		c.Hardware.I2CBus = "1"
	}
	if c.Hardware.Si5351Address == 0 {
		c.Hardware.Si5351Address = 0x60
	}
	if c.Hardware.EEPROMAddress == 0 {
		c.Hardware.EEPROMAddress = 0x50
	}
	if c.Hardware.EEPROMWriteDelay == 0 {
		c.Hardware.EEPROMWriteDelay = 5 * time.Millisecond
	}
	if c.Hardware.BusTimeout == 0 {
		c.Hardware.BusTimeout = 100 * time.Millisecond
	}
	if c.Hardware.DDSUpdatePin == 0 {
		c.Hardware.DDSUpdatePin = 12
	}
	if c.Hardware.DDSDataPin == 0 {
		c.Hardware.DDSDataPin = 13
	}
	if c.Hardware.DDSClockPin == 0 {
		c.Hardware.DDSClockPin = 14
	}
	if c.Hardware.DDSResetPin == 0 {
		c.Hardware.DDSResetPin = 15
	}
	if len(c.Hardware.RelayPins) == 0 {
		c.Hardware.RelayPins = []int{22, 23, 24}
	}
	if c.Hardware.StatusLEDPin == 0 {
		c.Hardware.StatusLEDPin = 25
	}
	if c.Hardware.TXSensePin == 0 {
		c.Hardware.TXSensePin = 26
	}
	if c.Hardware.EncoderPinA == "" {
		c.Hardware.EncoderPinA = "GPIO17"
	}
	if c.Hardware.EncoderPinB == "" {
		c.Hardware.EncoderPinB = "GPIO27"
	}
	if c.Hardware.OLEDWidth == 0 {
		c.Hardware.OLEDWidth = 128
	}
	if c.Hardware.OLEDHeight == 0 {
		c.Hardware.OLEDHeight = 64
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "./trx8-nvram.db"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "0.0.0.0"
	}
	if c.API.UnixSocket == "" {
		c.API.UnixSocket = "/tmp/trxd.sock"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 28
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Radio.DDSClock <= 0 {
		return fmt.Errorf("dds clock must be positive")
	}
	if c.Radio.LOWindow > c.Radio.InterFrequency {
		return fmt.Errorf("lo window %d exceeds inter frequency %d",
			c.Radio.LOWindow, c.Radio.InterFrequency)
	}
	if c.Radio.LOFallbackOffset > c.Radio.LOWindow {
		return fmt.Errorf("lo fallback offset %d exceeds lo window %d",
			c.Radio.LOFallbackOffset, c.Radio.LOWindow)
	}
	if len(c.Bands) != 0 && len(c.Bands) != 8 {
		return fmt.Errorf("band table override needs exactly 8 bands, got %d", len(c.Bands))
	}
	for i, b := range c.Bands {
		if b.Lower >= b.Upper {
			return fmt.Errorf("band %d: lower edge %d not below upper edge %d", i, b.Lower, b.Upper)
		}
		if b.Sideband != "LSB" && b.Sideband != "USB" {
			return fmt.Errorf("band %d: sideband must be LSB or USB, got %q", i, b.Sideband)
		}
		for name, f := range map[string]uint32{"center": b.Center, "default_a": b.DefaultA, "default_b": b.DefaultB} {
			if f < b.Lower || f > b.Upper {
				return fmt.Errorf("band %d: %s %d outside band edges %d..%d", i, name, f, b.Lower, b.Upper)
			}
		}
	}
	if len(c.Hardware.RelayPins) != 3 {
		return fmt.Errorf("relay needs 3 pins, got %d", len(c.Hardware.RelayPins))
	}
	if c.TimeBase.FiresPerCount < 1 {
		return fmt.Errorf("fires_per_count must be at least 1")
	}
	switch c.Storage.Backend {
	case "eeprom", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
