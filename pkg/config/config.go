// Package config loads server and client settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// Environment variables that override file settings
const (
	EnvAddress        = "GRAPHPATH_ADDR"
	EnvPort           = "PORT"
	EnvGraph          = "GRAPHPATH_GRAPH"
	EnvLogLevel       = "LOG_LEVEL"
	EnvMetricsAddress = "GRAPHPATH_METRICS_ADDR"
)

const (
	defaultAddress        = ":50051"
	defaultMetricsAddress = ":9090"
	defaultGraphPath      = "./graph.yaml"
	defaultMaxResults     = 10000
	defaultWorkers        = 4
)

// ErrInvalidConfig is returned when a configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Graph     GraphConfig     `yaml:"graph"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Enumerate EnumerateConfig `yaml:"enumerate"`
}

// ServerConfig configures the gRPC listener
type ServerConfig struct {
	Address string `yaml:"address"`
}

// GraphConfig locates the graph document served
type GraphConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig configures the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// EnumerateConfig bounds enumeration requests
type EnumerateConfig struct {
	MaxPathLength int `yaml:"max_path_length"` // Applied when a request sets none; 0 means unbounded
	MaxResults    int `yaml:"max_results"`     // Upper bound on paths streamed per request
	Workers       int `yaml:"workers"`         // Parallel iterators for collected enumerations
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Address: defaultAddress},
		Graph:   GraphConfig{Path: defaultGraphPath},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Address: defaultMetricsAddress},
		Enumerate: EnumerateConfig{
			MaxResults: defaultMaxResults,
			Workers:    defaultWorkers,
		},
	}
}

// Load reads the file at path, if any, over the defaults and then applies
// environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	return decoder.Decode(c)
}

// ApplyEnv overrides settings from the environment. PORT is honored for
// compatibility and loses to GRAPHPATH_ADDR.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if port, ok := lookup(EnvPort); ok && port != "" {
		c.Server.Address = ":" + port
	}
	if addr, ok := lookup(EnvAddress); ok && addr != "" {
		c.Server.Address = addr
	}
	if graph, ok := lookup(EnvGraph); ok && graph != "" {
		c.Graph.Path = graph
	}
	if level, ok := lookup(EnvLogLevel); ok && level != "" {
		c.Log.Level = level
	}
	if addr, ok := lookup(EnvMetricsAddress); ok {
		c.Metrics.Address = addr
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Graph.Path == "" {
		errs = append(errs, errors.New("graph path is required"))
	}
	if _, err := model.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Enumerate.MaxPathLength < 0 {
		errs = append(errs, fmt.Errorf("max path length must be non-negative: %d", c.Enumerate.MaxPathLength))
	}
	if c.Enumerate.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("max results must be positive: %d", c.Enumerate.MaxResults))
	}
	if c.Enumerate.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive: %d", c.Enumerate.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() model.LogLevel {
	level, _ := model.ParseLogLevel(c.Log.Level)
	return level
}

// Logger creates the logger described by the configuration
func (c *Config) Logger() *model.DefaultLogger {
	return model.NewDefaultLogger(c.LogLevel())
}

func (c *Config) String() string {
	return "server=" + c.Server.Address +
		" graph=" + c.Graph.Path +
		" log=" + c.Log.Level +
		" metrics=" + strconv.Quote(c.Metrics.Address)
}
