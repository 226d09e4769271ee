// Kunhua Huang 2026

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Registry  RegistryConfig  `yaml:"registry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Address      string   `yaml:"address"`
	Backlog      int      `yaml:"backlog"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	Interceptors struct {
		Recovery bool `yaml:"recovery"`
		Logging  bool `yaml:"logging"`
	} `yaml:"interceptors"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

type RegistryConfig struct {
	Type              string   `yaml:"type"` // none/etcd/memory
	Service           string   `yaml:"service"`
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
	Etcd              struct {
		Endpoints   []string `yaml:"endpoints"`
		DialTimeout Duration `yaml:"dial_timeout"`
		KeyPrefix   string   `yaml:"key_prefix"`
		LeaseTTL    int64    `yaml:"lease_ttl"`
	} `yaml:"etcd"`
}

type RateLimitConfig struct {
	Enabled bool     `yaml:"enabled"`
	Type    string   `yaml:"type"` // token_bucket/sliding_window
	Rate    int64    `yaml:"rate"`
	Burst   int64    `yaml:"burst"`
	Window  Duration `yaml:"window"`
}

type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default matches the historical behaviour: every interface, port 41415,
// backlog 5, no timeouts, nothing else enabled.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Address = "0.0.0.0:41415"
	cfg.Server.Backlog = 5
	cfg.Server.Interceptors.Recovery = true
	cfg.Server.Interceptors.Logging = true

	cfg.Metrics.Address = ":9415"
	cfg.Metrics.Path = "/metrics"

	cfg.Registry.Type = "none"
	cfg.Registry.Service = "tcpecho"
	cfg.Registry.HeartbeatInterval = Duration{5 * time.Second}
	cfg.Registry.Etcd.Endpoints = []string{"localhost:2379"}
	cfg.Registry.Etcd.DialTimeout = Duration{5 * time.Second}
	cfg.Registry.Etcd.KeyPrefix = "/tcpecho/services"
	cfg.Registry.Etcd.LeaseTTL = 10

	cfg.RateLimit.Type = "token_bucket"
	return cfg
}

// Load reads a YAML file over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is empty")
	}
	if c.Server.Backlog <= 0 {
		return fmt.Errorf("server.backlog must be positive, got %d", c.Server.Backlog)
	}
	switch c.Registry.Type {
	case "", "none", "memory", "etcd":
	default:
		return fmt.Errorf("unknown registry.type %q", c.Registry.Type)
	}
	if c.RateLimit.Enabled && c.RateLimit.Rate <= 0 {
		return fmt.Errorf("rate_limit.rate must be positive when enabled")
	}
	return nil
}
