package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// MaxDynamicConfigSize bounds the YAML file read by the watcher
const MaxDynamicConfigSize = 64 * 1024

// DynamicConfig is the runtime-changeable subset of the configuration
type DynamicConfig struct {
	LogLevel         string   `yaml:"log_level"`
	ConnectorTimeout Duration `yaml:"connector_timeout"`
	MockLatency      Duration `yaml:"mock_latency"`
}

// Duration decodes YAML strings such as "45s"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DynamicFrom seeds a DynamicConfig from the static configuration
func DynamicFrom(cfg *Config) *DynamicConfig {
	return &DynamicConfig{
		LogLevel:         cfg.LogLevel,
		ConnectorTimeout: Duration(cfg.ConnectorTimeout),
		MockLatency:      Duration(cfg.MockLatency),
	}
}

// Validate checks the dynamic values
func (d *DynamicConfig) Validate() error {
	if _, err := ParseLevel(d.LogLevel); err != nil {
		return err
	}
	if d.ConnectorTimeout.Std() <= 0 {
		return fmt.Errorf("connector_timeout must be positive")
	}
	if d.MockLatency.Std() < 0 {
		return fmt.Errorf("mock_latency must not be negative")
	}
	return nil
}

// ParseDynamicConfig decodes YAML over defaults; keys absent from data keep their default
func ParseDynamicConfig(data []byte, defaults *DynamicConfig) (*DynamicConfig, error) {
	if len(data) > MaxDynamicConfigSize {
		return nil, fmt.Errorf("config file exceeds %d bytes", MaxDynamicConfigSize)
	}
	cfg := *defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDynamicConfig reads and parses the file at path
func LoadDynamicConfig(path string, defaults *DynamicConfig) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseDynamicConfig(data, defaults)
}

// ParseLevel converts a level name into a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}
