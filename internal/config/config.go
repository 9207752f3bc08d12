// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Agent    AgentConfig    `mapstructure:"agent"`
	Injector InjectorConfig `mapstructure:"injector"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AgentConfig contains the control channel settings
type AgentConfig struct {
	Transport     string `mapstructure:"transport"` // tcp, unix, ssh or websocket
	ListenAddress string `mapstructure:"listen_address"`
	Port          int    `mapstructure:"port"`
	SocketPath    string `mapstructure:"socket_path"`
	BufferSize    int    `mapstructure:"buffer_size"`
	MaxSessions   int    `mapstructure:"max_sessions"`

	// SSH transport
	SSHHostKeyPath   string   `mapstructure:"ssh_host_key_path"`
	SSHWhitelist     []string `mapstructure:"ssh_whitelist"`      // Allowed SSH key fingerprints
	SSHWhitelistOnly bool     `mapstructure:"ssh_whitelist_only"` // Reject keys not in the whitelist
}

// InjectorConfig selects where synthesized events go
type InjectorConfig struct {
	Backend    string `mapstructure:"backend"` // uinput, log or none
	DeviceName string `mapstructure:"device_name"`
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`
}

// MetricsConfig contains the HTTP metrics endpoint settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel    string `mapstructure:"log_level"`    // Override LOG_LEVEL env var
	FileLogging bool   `mapstructure:"file_logging"` // Enable/disable file logging
	File        string `mapstructure:"file"`
}

// Transports accepted in agent.transport
const (
	TransportTCP       = "tcp"
	TransportUnix      = "unix"
	TransportSSH       = "ssh"
	TransportWebSocket = "websocket"
)

// Injector backends accepted in injector.backend
var injectorBackends = []string{"uinput", "log", "none"}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Agent: AgentConfig{
			Transport:        TransportTCP,
			ListenAddress:    "127.0.0.1",
			Port:             27183,
			SocketPath:       "/run/screenctl/control.sock",
			BufferSize:       4096,
			MaxSessions:      1,
			SSHHostKeyPath:   "/etc/screenctl/host_key",
			SSHWhitelist:     []string{},
			SSHWhitelistOnly: true,
		},
		Injector: InjectorConfig{
			Backend:    "uinput",
			DeviceName: "screenctl touchpad",
			Width:      1080,
			Height:     2400,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
		Logging: LoggingConfig{
			LogLevel:    "", // Empty means use LOG_LEVEL env var
			FileLogging: false,
			File:        "/var/log/screenctl/screenctl.log",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("screenctl")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		// Add config paths in order of precedence
		viper.AddConfigPath("/etc/screenctl")
		if home := os.Getenv("HOME"); home != "" && home != "/root" {
			viper.AddConfigPath(filepath.Join(home, ".config", "screenctl"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("SCREENCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPathOverride != "" && os.IsNotExist(err)) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// setDefaults sets individual fields so file values merge over them
func setDefaults() {
	d := DefaultConfig
	for key, value := range d.settings() {
		viper.SetDefault(key, value)
	}
}

// Validate checks enumerated values and sizes
func (c *Config) Validate() error {
	switch c.Agent.Transport {
	case TransportTCP, TransportUnix, TransportSSH, TransportWebSocket:
	default:
		return fmt.Errorf("invalid agent.transport %q", c.Agent.Transport)
	}
	if c.Agent.Transport != TransportUnix && (c.Agent.Port < 0 || c.Agent.Port > 65535) {
		return fmt.Errorf("invalid agent.port %d", c.Agent.Port)
	}
	if c.Agent.Transport == TransportUnix && c.Agent.SocketPath == "" {
		return fmt.Errorf("agent.socket_path is required for the unix transport")
	}
	if c.Agent.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive, got %d", c.Agent.BufferSize)
	}
	if c.Agent.MaxSessions < 0 {
		return fmt.Errorf("agent.max_sessions must not be negative, got %d", c.Agent.MaxSessions)
	}

	valid := false
	for _, b := range injectorBackends {
		if strings.EqualFold(c.Injector.Backend, b) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid injector.backend %q", c.Injector.Backend)
	}
	if c.Injector.Width <= 0 || c.Injector.Height <= 0 {
		return fmt.Errorf("invalid injector display size %dx%d", c.Injector.Width, c.Injector.Height)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		d := DefaultConfig
		return &d
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Apply stores c in viper so the next Save writes it
func Apply(c *Config) {
	for key, value := range c.settings() {
		viper.Set(key, value)
	}
	cfg = c
}

// settings flattens c into viper keys
func (c *Config) settings() map[string]interface{} {
	return map[string]interface{}{
		"agent.transport":          c.Agent.Transport,
		"agent.listen_address":     c.Agent.ListenAddress,
		"agent.port":               c.Agent.Port,
		"agent.socket_path":        c.Agent.SocketPath,
		"agent.buffer_size":        c.Agent.BufferSize,
		"agent.max_sessions":       c.Agent.MaxSessions,
		"agent.ssh_host_key_path":  c.Agent.SSHHostKeyPath,
		"agent.ssh_whitelist":      c.Agent.SSHWhitelist,
		"agent.ssh_whitelist_only": c.Agent.SSHWhitelistOnly,
		"injector.backend":         c.Injector.Backend,
		"injector.device_name":     c.Injector.DeviceName,
		"injector.width":           c.Injector.Width,
		"injector.height":          c.Injector.Height,
		"metrics.enabled":          c.Metrics.Enabled,
		"metrics.address":          c.Metrics.Address,
		"logging.log_level":        c.Logging.LogLevel,
		"logging.file_logging":     c.Logging.FileLogging,
		"logging.file":             c.Logging.File,
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if os.Getuid() == 0 {
		return "/etc/screenctl/screenctl.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/screenctl/screenctl.toml"
	}

	return filepath.Join(home, ".config", "screenctl", "screenctl.toml")
}

// IsSSHKeyWhitelisted checks if an SSH key fingerprint is whitelisted
func IsSSHKeyWhitelisted(fingerprint string) bool {
	for _, fp := range Get().Agent.SSHWhitelist {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

// AddSSHKeyToWhitelist adds an SSH key fingerprint to the whitelist and saves
func AddSSHKeyToWhitelist(fingerprint string) error {
	c := Get()
	if IsSSHKeyWhitelisted(fingerprint) {
		return fmt.Errorf("key already whitelisted")
	}
	c.Agent.SSHWhitelist = append(c.Agent.SSHWhitelist, fingerprint)
	viper.Set("agent.ssh_whitelist", c.Agent.SSHWhitelist)
	cfg = c
	return Save()
}

// RemoveSSHKeyFromWhitelist removes an SSH key fingerprint from the whitelist and saves
func RemoveSSHKeyFromWhitelist(fingerprint string) error {
	c := Get()
	kept := make([]string, 0, len(c.Agent.SSHWhitelist))
	for _, fp := range c.Agent.SSHWhitelist {
		if fp != fingerprint {
			kept = append(kept, fp)
		}
	}
	if len(kept) == len(c.Agent.SSHWhitelist) {
		return fmt.Errorf("key not in whitelist: %s", fingerprint)
	}
	c.Agent.SSHWhitelist = kept
	viper.Set("agent.ssh_whitelist", kept)
	cfg = c
	return Save()
}
