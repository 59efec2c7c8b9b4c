// Package config holds the application configuration and a typed reader
// for module-level settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	defaultServerAddr    = ":8080"
	defaultQueueDepth    = 3
	defaultLogLevel      = "info"
	defaultTriggerPeriod = time.Second
)

// TriggerConfig controls the periodic trigger module.
type TriggerConfig struct {
	Period time.Duration `yaml:"period"`
}

func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{Period: defaultTriggerPeriod}
}

func (c *TriggerConfig) Merge(source *TriggerConfig) {
	if source.Period > 0 {
		c.Period = source.Period
	}
}

// DeviceConfig controls the device backend.
type DeviceConfig struct {
	Name      string `yaml:"name"`
	Registers int    `yaml:"registers"`
}

func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{Name: "sim", Registers: 4}
}

func (c *DeviceConfig) Merge(source *DeviceConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Registers > 0 {
		c.Registers = source.Registers
	}
}

// Config holds initialization parameters for the application and its
// subsystems.
type Config struct {
	ServerAddr string        `yaml:"server_addr"`
	QueueDepth int           `yaml:"queue_depth"`
	LogLevel   string        `yaml:"log_level"`
	Trigger    TriggerConfig `yaml:"trigger"`
	Device     DeviceConfig  `yaml:"device"`

	// Modules carries free-form per-module settings, read through Reader.
	Modules map[string]map[string]any `yaml:"modules,omitempty"`
}

// Default returns a Config with sensible defaults for all subsystems.
func Default() Config {
	return Config{
		ServerAddr: defaultServerAddr,
		QueueDepth: defaultQueueDepth,
		LogLevel:   defaultLogLevel,
		Trigger:    DefaultTriggerConfig(),
		Device:     DefaultDeviceConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Trigger.Merge(&source.Trigger)
	c.Device.Merge(&source.Device)

	if source.ServerAddr != "" {
		c.ServerAddr = source.ServerAddr
	}
	if source.QueueDepth > 0 {
		c.QueueDepth = source.QueueDepth
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
	if len(source.Modules) > 0 {
		c.Modules = source.Modules
	}
}

// Load reads a YAML config file, merges it with defaults, and returns the
// resulting Config.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// Reader returns a typed view over the per-module settings of c.
func (c *Config) Reader() *Reader {
	return &Reader{sections: c.Modules}
}
