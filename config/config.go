// Package config loads the JSON configuration of the eve-host tool.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"goeve/eve"
)

// Transport kinds.
const (
	TransportSPIDev  = "spidev"
	TransportKlipper = "klipper"
)

// Duration is a time.Duration written as a string such as "250ms".
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration: %s", b)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config is the complete tool configuration.
type Config struct {
	Transport string        `json:"transport"`
	SPIDev    SPIDevConfig  `json:"spidev"`
	Klipper   KlipperConfig `json:"klipper"`

	// Panel names a preset. PanelSettings, when present, takes precedence.
	Panel         string             `json:"panel"`
	PanelSettings *eve.PanelSettings `json:"panel_settings,omitempty"`

	Session SessionConfig `json:"session"`
	Media   MediaConfig   `json:"media"`
	Log     LogConfig     `json:"log"`
}

// SPIDevConfig selects a Linux spidev port.
type SPIDevConfig struct {
	Port    string `json:"port"`
	SpeedHz int64  `json:"speed_hz"`
	PDPin   string `json:"pd_pin"`
}

// KlipperConfig selects the bridge MCU and the SPI device behind it.
type KlipperConfig struct {
	Device       string   `json:"device"`
	Baud         int      `json:"baud"`
	Timeout      Duration `json:"timeout"`
	OID          uint8    `json:"oid"`
	Bus          uint32   `json:"spi_bus"`
	CSPin        uint32   `json:"cs_pin"`
	CSActiveHigh bool     `json:"cs_active_high"`
	Mode         uint32   `json:"mode"`
	Rate         uint32   `json:"rate"`
}

// SessionConfig tunes the driver session.
type SessionConfig struct {
	WriteChunk  int      `json:"write_chunk"`
	PollTimeout Duration `json:"poll_timeout"`
	BootTimeout Duration `json:"boot_timeout"`
}

// MediaConfig places the media ring.
type MediaConfig struct {
	Base  uint32 `json:"base"`
	Size  uint32 `json:"size"`
	Chunk int    `json:"chunk"`
}

// LogConfig selects log level and handler.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

var panels = map[string]eve.PanelSettings{
	"800x480": eve.Panel800x480,
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse parses a JSON configuration and fills in defaults.
func Parse(jsonData []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(jsonData, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

// applyDefaults fills in missing configuration values
func applyDefaults(c *Config) {
	if c.Transport == "" {
		c.Transport = TransportSPIDev
	}
	if c.SPIDev.SpeedHz == 0 {
		c.SPIDev.SpeedHz = 10000000
	}

	if c.Klipper.Device == "" {
		c.Klipper.Device = "/dev/ttyACM0"
	}
	if c.Klipper.Baud == 0 {
		c.Klipper.Baud = 250000
	}
	if c.Klipper.Timeout == 0 {
		c.Klipper.Timeout = Duration(time.Second)
	}
	if c.Klipper.Rate == 0 {
		c.Klipper.Rate = 8000000
	}

	if c.Panel == "" && c.PanelSettings == nil {
		c.Panel = "800x480"
	}

	if c.Session.BootTimeout == 0 {
		c.Session.BootTimeout = Duration(time.Second)
	}

	if c.Media.Base == 0 {
		c.Media.Base = eve.DefaultMediaBase
	}
	if c.Media.Size == 0 {
		c.Media.Size = eve.DefaultMediaSize
	}
	if c.Media.Chunk == 0 {
		c.Media.Chunk = eve.DefaultMediaChunk
	}

	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportSPIDev, TransportKlipper:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.PanelSettings == nil {
		if _, ok := panels[strings.ToLower(c.Panel)]; !ok {
			return fmt.Errorf("unknown panel %q", c.Panel)
		}
	}
	if c.Klipper.Mode > 3 {
		return fmt.Errorf("spi mode %d out of range", c.Klipper.Mode)
	}
	if c.Media.Chunk <= 0 || uint32(c.Media.Chunk) >= c.Media.Size {
		return fmt.Errorf("media chunk %d must be below ring size %d", c.Media.Chunk, c.Media.Size)
	}
	if c.Session.WriteChunk < 0 {
		return fmt.Errorf("negative write chunk %d", c.Session.WriteChunk)
	}
	return nil
}

// PanelTable returns the panel to bring up.
func (c *Config) PanelTable() eve.PanelSettings {
	if c.PanelSettings != nil {
		return *c.PanelSettings
	}
	return panels[strings.ToLower(c.Panel)]
}

// SessionOptions converts the session section to driver options.
func (c *Config) SessionOptions() []eve.Option {
	opts := []eve.Option{eve.WithBootTimeout(time.Duration(c.Session.BootTimeout))}
	if c.Session.WriteChunk > 0 {
		opts = append(opts, eve.WithWriteChunk(c.Session.WriteChunk))
	}
	if c.Session.PollTimeout > 0 {
		opts = append(opts, eve.WithPoller(&eve.BoundedPoller{Timeout: time.Duration(c.Session.PollTimeout)}))
	}
	return opts
}

// MediaOptions converts the media section to stream options.
func (c *Config) MediaOptions() []eve.MediaOption {
	return []eve.MediaOption{
		eve.WithMediaRing(c.Media.Base, c.Media.Size),
		eve.WithMediaChunk(c.Media.Chunk),
	}
}
