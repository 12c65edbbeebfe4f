// Package config loads the daemon configuration from a YAML file,
// merging defaults for anything the file leaves out.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pglab/photogate-daq/internal/gate"
	"github.com/pglab/photogate-daq/internal/packet"
)

// Config represents the daemon configuration.
type Config struct {
	Broker           string          `yaml:"broker"`
	ChunkCapacity    int             `yaml:"chunk_capacity"`
	SampleIntervalUs int             `yaml:"sample_interval_us"`
	HeartbeatSeconds int             `yaml:"heartbeat_seconds"` // -1 disables, 0 means default
	Source           SourceConfig    `yaml:"source"`
	Channels         []ChannelConfig `yaml:"channels"`
}

// SourceConfig selects and configures the acquisition front-end.
type SourceConfig struct {
	Kind   string       `yaml:"kind"` // "serial" or "gpio"
	Serial SerialConfig `yaml:"serial"`
	GPIO   GPIOConfig   `yaml:"gpio"`
}

// SerialConfig contains serial ADC front-end configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// GPIOConfig contains comparator-mode front-end configuration.
type GPIOConfig struct {
	Chip string `yaml:"chip"`
	Pins []int  `yaml:"pins"`
}

// ChannelConfig contains per-channel detector configuration.
type ChannelConfig struct {
	ReferenceLevel uint16 `yaml:"reference_level"`
	RiseEnabled    bool   `yaml:"rise_enabled"`
	FallEnabled    bool   `yaml:"fall_enabled"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	cfg := &Config{
		Broker:           "tcp://localhost:1883",
		ChunkCapacity:    50,
		SampleIntervalUs: 1000,
		HeartbeatSeconds: 300,
		Source: SourceConfig{
			Kind: "serial",
			Serial: SerialConfig{
				Port:     "/dev/ttyACM0",
				BaudRate: 115200,
			},
			GPIO: GPIOConfig{
				Chip: "gpiochip0",
			},
		},
	}
	for i := 0; i < packet.NumChannels; i++ {
		cfg.Channels = append(cfg.Channels, defaultChannel())
	}
	return cfg
}

func defaultChannel() ChannelConfig {
	return ChannelConfig{
		ReferenceLevel: gate.DefaultReferenceLevel,
		RiseEnabled:    true,
		FallEnabled:    false,
	}
}

// SampleInterval returns the sampling cadence as a duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalUs) * time.Microsecond
}

// Heartbeat returns the heartbeat interval; zero or negative disables it.
func (c *Config) Heartbeat() time.Duration {
	if c.HeartbeatSeconds < 0 {
		return 0
	}
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills required fields the file left unset. A channel
// list shorter than the channel count is padded with default channels.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Broker == "" {
		c.Broker = def.Broker
	}
	if c.ChunkCapacity == 0 {
		c.ChunkCapacity = def.ChunkCapacity
	}
	if c.SampleIntervalUs == 0 {
		c.SampleIntervalUs = def.SampleIntervalUs
	}
	if c.HeartbeatSeconds == 0 {
		c.HeartbeatSeconds = def.HeartbeatSeconds
	}
	if c.Source.Kind == "" {
		c.Source.Kind = def.Source.Kind
	}
	if c.Source.Serial.Port == "" {
		c.Source.Serial.Port = def.Source.Serial.Port
	}
	if c.Source.Serial.BaudRate == 0 {
		c.Source.Serial.BaudRate = def.Source.Serial.BaudRate
	}
	if c.Source.GPIO.Chip == "" {
		c.Source.GPIO.Chip = def.Source.GPIO.Chip
	}
	for len(c.Channels) < packet.NumChannels {
		c.Channels = append(c.Channels, defaultChannel())
	}
}

// Validate applies the same range rules the runtime setters enforce.
func (c *Config) Validate() error {
	if c.ChunkCapacity <= 0 {
		return fmt.Errorf("chunk_capacity must be positive, got %d", c.ChunkCapacity)
	}
	if c.SampleIntervalUs <= 0 {
		return fmt.Errorf("sample_interval_us must be positive, got %d", c.SampleIntervalUs)
	}
	if len(c.Channels) != packet.NumChannels {
		return fmt.Errorf("expected %d channels, got %d", packet.NumChannels, len(c.Channels))
	}
	for i, ch := range c.Channels {
		if ch.ReferenceLevel > gate.FullScale {
			return fmt.Errorf("channel %d: reference_level %d out of range (0-%d)", i, ch.ReferenceLevel, gate.FullScale)
		}
	}

	switch c.Source.Kind {
	case "serial":
		if c.Source.Serial.Port == "" {
			return fmt.Errorf("serial source requires a port")
		}
	case "gpio":
		if len(c.Source.GPIO.Pins) == 0 || len(c.Source.GPIO.Pins) > packet.NumChannels {
			return fmt.Errorf("gpio source requires between 1 and %d pins, got %d", packet.NumChannels, len(c.Source.GPIO.Pins))
		}
	default:
		return fmt.Errorf("unknown source kind %q (want serial or gpio)", c.Source.Kind)
	}

	return nil
}
