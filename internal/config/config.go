// Package config loads buddy.yaml, applies BUDDY_* environment overrides and fills defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is read when no --config flag is given. Its absence is not an error.
	DefaultFile = "buddy.yaml"

	DefaultHost              = "127.0.0.1"
	DefaultPort              = 5000
	DefaultPath              = "/receive_text"
	DefaultMaxBodyBytes int64 = 8 << 20
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultPollInterval      = 100 * time.Millisecond
	DefaultRedisAddr         = "127.0.0.1:6379"
	DefaultExtensionDir      = "chrome_extension"
	DefaultStateFile         = "buddy-state.json"
	DefaultMetricsPath       = "/metrics"
)

// Relay backends.
const (
	RelayMemory = "memory"
	RelayRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Display   DisplayConfig   `yaml:"display" mapstructure:"display"`
	Relay     RelayConfig     `yaml:"relay" mapstructure:"relay"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Extension ExtensionConfig `yaml:"extension" mapstructure:"extension"`
}

// ServerConfig configures the ingress listener.
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Path         string        `yaml:"path" mapstructure:"path"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// DisplayConfig configures the consumer.
type DisplayConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Headless bool          `yaml:"headless" mapstructure:"headless"`
}

// RelayConfig selects the queue backend.
type RelayConfig struct {
	Backend string      `yaml:"backend" mapstructure:"backend"`
	Redis   RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Key      string `yaml:"key" mapstructure:"key"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// MetricsConfig toggles the Prometheus endpoint on the ingress listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ExtensionConfig configures the browser extension installer.
type ExtensionConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	StateFile string `yaml:"state_file" mapstructure:"state_file"`
	// Cleanup removes the generated extension files at shutdown.
	Cleanup bool `yaml:"cleanup" mapstructure:"cleanup"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			Path:         DefaultPath,
			MaxBodyBytes: DefaultMaxBodyBytes,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			CORSOrigins:  []string{"*"},
		},
		Display: DisplayConfig{Interval: DefaultPollInterval},
		Relay: RelayConfig{
			Backend: RelayMemory,
			Redis:   RedisConfig{Addr: DefaultRedisAddr},
		},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Path: DefaultMetricsPath},
		Extension: ExtensionConfig{
			Dir:       DefaultExtensionDir,
			StateFile: DefaultStateFile,
			Cleanup:   true,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path or a missing DefaultFile yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func (c *Config) applyEnvOverrides() {
	if host := env("BUDDY_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := env("BUDDY_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && isValidPort(parsed) {
			c.Server.Port = parsed
		}
	}
	if path := env("BUDDY_PATH"); path != "" {
		c.Server.Path = path
	}
	if interval := env("BUDDY_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			c.Display.Interval = d
		}
	}
	if headless := env("BUDDY_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			c.Display.Headless = b
		}
	}
	if backend := env("BUDDY_RELAY"); backend != "" {
		c.Relay.Backend = backend
	}
	if addr := env("BUDDY_REDIS_ADDR"); addr != "" {
		c.Relay.Redis.Addr = addr
	}
	if level := env("BUDDY_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if file := env("BUDDY_LOG_FILE"); file != "" {
		c.Log.File = file
	}
}

// Normalize trims values and replaces missing or out-of-range settings with defaults.
// Callers that change a loaded Config run it again before Validate.
func (c *Config) Normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if !isValidPort(c.Server.Port) {
		c.Server.Port = DefaultPort
	}
	c.Server.Path = strings.TrimSpace(c.Server.Path)
	if c.Server.Path == "" {
		c.Server.Path = DefaultPath
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		c.Server.Path = "/" + c.Server.Path
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = DefaultIdleTimeout
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Display.Interval <= 0 {
		c.Display.Interval = DefaultPollInterval
	}
	c.Relay.Backend = strings.ToLower(strings.TrimSpace(c.Relay.Backend))
	if c.Relay.Backend == "" {
		c.Relay.Backend = RelayMemory
	}
	if c.Relay.Redis.Addr == "" {
		c.Relay.Redis.Addr = DefaultRedisAddr
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Extension.Dir == "" {
		c.Extension.Dir = DefaultExtensionDir
	}
	if c.Extension.StateFile == "" {
		c.Extension.StateFile = DefaultStateFile
	}
}

// Validate rejects settings that defaults cannot repair.
func (c Config) Validate() error {
	switch c.Relay.Backend {
	case RelayMemory, RelayRedis:
	default:
		return fmt.Errorf("config: unknown relay backend %q (want %s or %s)", c.Relay.Backend, RelayMemory, RelayRedis)
	}
	if c.Metrics.Enabled && c.Metrics.Path == c.Server.Path {
		return fmt.Errorf("config: metrics path %q collides with the ingress path", c.Metrics.Path)
	}
	return nil
}

// Address returns the TCP bind address in host:port form.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IngressURL returns the full URL the extension posts to.
func (s ServerConfig) IngressURL() string {
	return "http://" + s.Address() + s.Path
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
