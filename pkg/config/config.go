package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// HardhatNetwork is the network name that runs an in-process devnet
const HardhatNetwork = "hardhat"

// DefaultMnemonic is the well-known development mnemonic
const DefaultMnemonic = "test test test test test test test test test test test junk"

// ErrUnknownNetwork is returned when a network name is not configured
var ErrUnknownNetwork = errors.New("unknown network")

// Config represents the application configuration
type Config struct {
	Server         ServerConfig             `yaml:"server"`
	Logging        LoggingConfig            `yaml:"logging"`
	Database       DatabaseConfig           `yaml:"database"`
	Monitoring     MonitoringConfig         `yaml:"monitoring"`
	Auth           AuthConfig               `yaml:"auth"`
	Devnet         DevnetConfig             `yaml:"devnet"`
	Networks       map[string]NetworkConfig `yaml:"networks" validate:"dive"`
	DefaultNetwork string                   `yaml:"default_network" default:"hardhat" validate:"required"`
	NamedAccounts  map[string]int           `yaml:"named_accounts" default:"{\"deployer\":0}" validate:"dive,min=0"`
	Deploy         DeployConfig             `yaml:"deploy"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8545" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// DatabaseConfig contains database connection settings. Deployments are kept
// in memory unless Enabled is set.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"counter_devnet"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// AuthConfig holds the optional JWT guard of the RPC endpoint
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

// DevnetConfig configures the in-process development chain
type DevnetConfig struct {
	ChainID          uint64 `yaml:"chain_id" default:"31337" validate:"required"`
	GasLimit         uint64 `yaml:"gas_limit" default:"30000000" validate:"min=21000"`
	BaseFeeWei       string `yaml:"base_fee_wei" default:"1000000000" validate:"numeric"`
	Coinbase         string `yaml:"coinbase" validate:"omitempty,eth_addr"`
	Automine         bool   `yaml:"automine" default:"true"`
	GenesisTimestamp uint64 `yaml:"genesis_timestamp"`
	Mnemonic         string `yaml:"mnemonic" default:"test test test test test test test test test test test junk"`
	AccountCount     int    `yaml:"account_count" default:"20" validate:"min=1,max=1000"`
	// InitialBalance is the genesis balance of each account in ether
	InitialBalance string `yaml:"initial_balance" default:"10000"`
}

// NetworkConfig describes a target network
type NetworkConfig struct {
	ChainID uint64 `yaml:"chain_id" validate:"required"`
	URL     string `yaml:"url" validate:"omitempty,url"`
}

// DeployConfig contains deployment settings
type DeployConfig struct {
	Tags []string `yaml:"tags" default:"[\"all\"]"`

	// RunOnStart runs the tagged deploy functions when the devnet starts
	RunOnStart bool                `yaml:"run_on_start" default:"true"`
	Counter    CounterDeployConfig `yaml:"counter"`
}

// CounterDeployConfig holds the constructor arguments of the Counter deployment
// in the order they are passed: initialValue, min, max.
type CounterDeployConfig struct {
	Args              []int64 `yaml:"args" default:"[5,1000000,10]" validate:"len=3"`
	WaitConfirmations uint64  `yaml:"wait_confirmations" default:"1"`
}

// DefaultNetworks returns the networks used when none are configured
func DefaultNetworks() map[string]NetworkConfig {
	return map[string]NetworkConfig{
		"local":        {ChainID: 31337, URL: "http://127.0.0.1:8545"},
		HardhatNetwork: {ChainID: 31337},
		"rinkeby":      {ChainID: 4},
		"mainnet":      {ChainID: 1},
	}
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	cfg.Networks = DefaultNetworks()
	return cfg
}

// Load loads configuration from a YAML file. Environment variables in the
// file are expanded before parsing.
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse parses and validates YAML configuration
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Networks) == 0 {
		cfg.Networks = DefaultNetworks()
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if _, ok := cfg.Networks[cfg.DefaultNetwork]; !ok {
		return fmt.Errorf("default_network %q is not configured", cfg.DefaultNetwork)
	}
	if _, ok := cfg.NamedAccounts["deployer"]; !ok {
		return fmt.Errorf("named_accounts.deployer is required")
	}
	for name, idx := range cfg.NamedAccounts {
		if idx >= cfg.Devnet.AccountCount {
			return fmt.Errorf("named account %s uses index %d but only %d accounts are derived", name, idx, cfg.Devnet.AccountCount)
		}
	}
	return nil
}

// Network resolves a network by name. An empty name selects the default.
func (c *Config) Network(name string) (string, NetworkConfig, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	network, ok := c.Networks[name]
	if !ok {
		return "", NetworkConfig{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	if name != HardhatNetwork && network.URL == "" {
		return "", NetworkConfig{}, fmt.Errorf("network %s has no url", name)
	}
	return name, network, nil
}

// NetworkNames returns the configured network names in sorted order
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Address returns the listen address of the HTTP server
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
