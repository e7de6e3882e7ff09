package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rusq/osenv/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is used when neither the config file nor PORT set one.
	DefaultPort = 2593
	// DefaultGreeting is the word placed before "from <hostname>".
	DefaultGreeting = "Hello"
	// DefaultPath is the config file looked up when GREETER_CONFIG is unset.
	DefaultPath = "greeter.yaml"
)

// ErrInvalidPort is returned for port values outside 1-65535 or not numeric.
var ErrInvalidPort = errors.New("invalid port")

// Config represents the main configuration structure for Greeter
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Greeting GreetingConfig `yaml:"greeting"`
	Logging  LoggingConfig  `yaml:"logging"`
	Plugins  PluginsConfig  `yaml:"plugins"`
}

// ServerConfig holds the listener configuration
type ServerConfig struct {
	Port            int            `yaml:"port"`
	Timeouts        TimeoutsConfig `yaml:"timeouts"`
	ShutdownTimeout int            `yaml:"shutdown_timeout"`
}

// TimeoutsConfig holds server timeouts in seconds. Zero means "use the default".
type TimeoutsConfig struct {
	ReadHeader int `yaml:"read_header"`
	Read       int `yaml:"read"`
	Write      int `yaml:"write"`
	Idle       int `yaml:"idle"`
}

// GreetingConfig holds the text served on the root route
type GreetingConfig struct {
	Message string `yaml:"message"`
}

// LoggingConfig controls the process logger
type LoggingConfig struct {
	Level         string          `yaml:"level"`
	Format        string          `yaml:"format"`
	IncludeCaller bool            `yaml:"include_caller"`
	RequestID     RequestIDConfig `yaml:"request_id"`
}

// RequestIDConfig controls request identifier propagation
type RequestIDConfig struct {
	Enabled bool   `yaml:"enabled"`
	Header  string `yaml:"header"`
}

// PluginsConfig lists the middleware wrapped around the routes
type PluginsConfig struct {
	Enabled bool           `yaml:"enabled"`
	Chain   []PluginConfig `yaml:"chain"`
}

// PluginConfig names one middleware and its settings
type PluginConfig struct {
	Name   string                 `yaml:"name"`
	Config map[string]interface{} `yaml:"config"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: DefaultPort},
		Greeting: GreetingConfig{Message: DefaultGreeting},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			RequestID: RequestIDConfig{Enabled: true},
		},
	}
}

// LoadConfig loads configuration from the specified YAML file on top of the
// defaults. A missing file is not an error.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Load reads the file named by GREETER_CONFIG, overlays the environment and
// validates the result.
func Load() (*Config, error) {
	cfg, err := LoadConfig(osenv.Value("GREETER_CONFIG", DefaultPath))
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with PORT, GREETING, LOG_LEVEL and LOG_FORMAT.
// Empty variables are treated as unset.
func ApplyEnv(cfg *Config) error {
	if raw := osenv.Value("PORT", ""); raw != "" {
		port, err := ParsePort(raw)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := osenv.Value("GREETING", ""); v != "" {
		cfg.Greeting.Message = v
	}
	if v := osenv.Value("LOG_LEVEL", ""); v != "" {
		cfg.Logging.Level = v
	}
	if v := osenv.Value("LOG_FORMAT", ""); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// ParsePort converts a textual port into a number in the TCP range.
func ParsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPort, raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %d is outside 1-65535", ErrInvalidPort, port)
	}
	return port, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %w: %d is outside 1-65535", ErrInvalidPort, c.Server.Port)
	}
	if strings.TrimSpace(c.Greeting.Message) == "" {
		return errors.New("greeting.message must not be empty")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative, got %d", c.Server.ShutdownTimeout)
	}
	return nil
}
