// Package config loads the hosted daemon's configuration from YAML.
// Payload limits are compile-time constants in the jobs package and are
// deliberately not configurable here: both ends of a channel must agree
// on them, and the pool's required size is derived from them at build
// time.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSocketPath   = "sindri.sock"
	DefaultClients      = 4
	DefaultQueueDepth   = 8
	DefaultPollInterval = time.Millisecond
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config describes a hosted daemon instance.
type Config struct {
	// SocketPath is the Unix-domain socket the daemon listens on.
	SocketPath string `yaml:"socket_path"`
	// Clients is the number of connection slots, fixed at startup.
	Clients int `yaml:"clients"`
	// QueueDepth bounds each connection's request/response queues.
	QueueDepth int `yaml:"queue_depth"`
	// PollInterval is the driving loop's delay between idle dispatcher
	// invocations.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ReseedAfter makes the random-bit generator reseed once it has
	// produced this many bytes; 0 disables automatic reseeding.
	ReseedAfter uint64 `yaml:"reseed_after"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SocketPath:   DefaultSocketPath,
		Clients:      DefaultClients,
		QueueDepth:   DefaultQueueDepth,
		PollInterval: DefaultPollInterval,
	}
}

// Load reads a YAML configuration file, filling unset fields with
// defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for usability.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("%w: socket_path must not be empty", ErrInvalidConfig)
	}
	if c.Clients <= 0 {
		return fmt.Errorf("%w: clients must be positive", ErrInvalidConfig)
	}
	if c.QueueDepth <= 0 {
		return fmt.Errorf("%w: queue_depth must be positive", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	}
	return nil
}
