package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LucaCeccarelli/projet-integrateur/discovery"
	"github.com/LucaCeccarelli/projet-integrateur/ifnet"
)

const (
	// EnvPath overrides the config file location when no explicit path is given.
	EnvPath = "NEIGHBORSHOW_CONFIG"
	// DefaultPath is read from the working directory when neither flag nor env is set.
	DefaultPath = "neighborshow.yaml"
)

// Config holds the settings shared by the discovery and interface query tools (YAML).
type Config struct {
	DiscoveryUDPPort          int      `yaml:"discovery_udp_port"`
	DiscoveryBroadcastAddress string   `yaml:"discovery_broadcast_address"`
	CacheCapacity             int      `yaml:"cache_capacity"`
	IfnetTCPPort              int      `yaml:"ifnet_tcp_port"`
	IfnetMaxConns             int      `yaml:"ifnet_max_conns"`
	HTTPPort                  int      `yaml:"http_port"` // 0 disables the agent HTTP API
	APIPrefix                 string   `yaml:"api_prefix"`
	CORSAllowOrigins          []string `yaml:"cors_allow_origins"`
	LogLevel                  string   `yaml:"log_level"` // debug, info, warn, error
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		DiscoveryUDPPort:          discovery.DefaultPort,
		DiscoveryBroadcastAddress: discovery.DefaultBroadcastAddress,
		CacheCapacity:             discovery.DefaultCacheCapacity,
		IfnetTCPPort:              ifnet.DefaultPort,
		IfnetMaxConns:             16,
		HTTPPort:                  0,
		APIPrefix:                 "/api/v1",
		CORSAllowOrigins:          []string{"*"},
		LogLevel:                  "info",
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if err := checkPort("discovery_udp_port", c.DiscoveryUDPPort, false); err != nil {
		return err
	}
	if err := checkPort("ifnet_tcp_port", c.IfnetTCPPort, false); err != nil {
		return err
	}
	if err := checkPort("http_port", c.HTTPPort, true); err != nil {
		return err
	}
	if c.DiscoveryBroadcastAddress == "" {
		return errors.New("discovery_broadcast_address must not be empty")
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.IfnetMaxConns < 1 {
		return fmt.Errorf("ifnet_max_conns must be positive, got %d", c.IfnetMaxConns)
	}
	return nil
}

func checkPort(name string, port int, zeroOK bool) error {
	if port == 0 && zeroOK {
		return nil
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s out of range: %d", name, port)
	}
	return nil
}

// Load reads config from path. If path is empty, env NEIGHBORSHOW_CONFIG is used; else
// "neighborshow.yaml". A missing file is only tolerated for the implicit default path.
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = DefaultPath
		explicit = false
	}
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &c, nil
}
