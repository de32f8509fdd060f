// ABOUTME: Configuration loading and parsing for kachaka-mcp
// ABOUTME: Supports YAML, TOML and JSON files with env var expansion and overrides

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/kachaka-mcp/internal/auth"
)

// Defaults applied before any file or environment value.
const (
	DefaultRobotTarget = "100.94.1.1:26400"
	DefaultKeepalive   = 30 * time.Second
	DefaultServerName  = "Kachaka Robot"
	DefaultHTTPAddr    = "127.0.0.1:8765"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Config represents the complete kachaka-mcp configuration
type Config struct {
	Robot     RobotConfig     `yaml:"robot" toml:"robot" json:"robot"`
	Server    ServerConfig    `yaml:"server" toml:"server" json:"server"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth" json:"auth"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging" json:"logging"`
	Audit     AuditConfig     `yaml:"audit" toml:"audit" json:"audit"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale" json:"tailscale"`
}

// RobotConfig holds the robot control service connection settings
type RobotConfig struct {
	// Target is the host:port of the robot's gRPC API.
	Target string `yaml:"target" toml:"target" json:"target"`

	Keepalive time.Duration `yaml:"-" toml:"-" json:"-"`

	// Raw string value for unmarshaling
	KeepaliveRaw string `yaml:"keepalive,omitempty" toml:"keepalive,omitempty" json:"keepalive,omitempty"`
}

// ServerConfig holds MCP server identity and listener configuration
type ServerConfig struct {
	Name     string `yaml:"name" toml:"name" json:"name"`
	HTTPAddr string `yaml:"http_addr" toml:"http_addr" json:"http_addr"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	// APIKeys are accepted verbatim or as bcrypt hashes.
	APIKeys   []string `yaml:"api_keys" toml:"api_keys" json:"api_keys"`
	JWTSecret string   `yaml:"jwt_secret,omitempty" toml:"jwt_secret,omitempty" json:"jwt_secret,omitempty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
	// File, when set, receives a copy of every log record.
	File string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
}

// AuditConfig holds the command audit log configuration
type AuditConfig struct {
	// Path of the SQLite database. Empty disables the audit log.
	Path string `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Hostname  string `yaml:"hostname,omitempty" toml:"hostname,omitempty" json:"hostname,omitempty"`
	AuthKey   string `yaml:"auth_key,omitempty" toml:"auth_key,omitempty" json:"auth_key,omitempty"`
	StateDir  string `yaml:"state_dir,omitempty" toml:"state_dir,omitempty" json:"state_dir,omitempty"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral" json:"ephemeral"`
}

// legacyJSON is the flat JSON layout written by older releases.
type legacyJSON struct {
	KachakaHost string   `json:"kachaka_host"`
	ServerName  string   `json:"server_name"`
	LogLevel    string   `json:"log_level"`
	AuthEnabled *bool    `json:"auth_enabled"`
	APIKeys     []string `json:"api_keys"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Robot: RobotConfig{
			Target:       DefaultRobotTarget,
			Keepalive:    DefaultKeepalive,
			KeepaliveRaw: DefaultKeepalive.String(),
		},
		Server: ServerConfig{
			Name:     DefaultServerName,
			HTTPAddr: DefaultHTTPAddr,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tailscale: TailscaleConfig{
			Hostname: "kachaka-mcp",
		},
	}
}

// DefaultPath resolves the configuration file location.
// Priority: $KACHAKA_MCP_CONFIG, $XDG_CONFIG_HOME/kachaka-mcp/config.yaml,
// ~/.config/kachaka-mcp/config.yaml. If none of those exist but the legacy
// ~/.kachaka-mcp/config.json does, that path is returned instead.
func DefaultPath() string {
	if p := os.Getenv("KACHAKA_MCP_CONFIG"); p != "" {
		return expandHome(p)
	}

	var primary string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		primary = filepath.Join(xdg, "kachaka-mcp", "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		primary = filepath.Join(home, ".config", "kachaka-mcp", "config.yaml")
	} else {
		return "config.yaml"
	}

	if _, err := os.Stat(primary); err == nil {
		return primary
	}
	if home, err := os.UserHomeDir(); err == nil {
		legacy := filepath.Join(home, ".kachaka-mcp", "config.json")
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}
	return primary
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A missing file is not an error: defaults apply. Environment variables in the
// format ${VAR_NAME} are expanded, then KACHAKA_* overrides are applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := decode(path, []byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// decode unmarshals data onto cfg using the format implied by the extension.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return err
		}
		var legacy legacyJSON
		if err := json.Unmarshal(data, &legacy); err != nil {
			return err
		}
		applyLegacy(cfg, legacy)
		return nil
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func applyLegacy(cfg *Config, l legacyJSON) {
	if l.KachakaHost != "" {
		cfg.Robot.Target = l.KachakaHost
	}
	if l.ServerName != "" {
		cfg.Server.Name = l.ServerName
	}
	if l.LogLevel != "" {
		cfg.Logging.Level = l.LogLevel
	}
	if l.AuthEnabled != nil {
		cfg.Auth.Enabled = *l.AuthEnabled
	}
	if len(l.APIKeys) > 0 {
		cfg.Auth.APIKeys = l.APIKeys
	}
}

// applyEnvOverrides applies KACHAKA_* environment variables on top of file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KACHAKA_HOST"); v != "" {
		cfg.Robot.Target = v
	}
	if v := os.Getenv("KACHAKA_MCP_SERVER_NAME"); v != "" {
		cfg.Server.Name = v
	}
	if v := os.Getenv("KACHAKA_MCP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("KACHAKA_MCP_AUTH_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.Auth.Enabled = true
		default:
			cfg.Auth.Enabled = false
		}
	}
	if v := os.Getenv("KACHAKA_MCP_API_KEYS"); v != "" {
		cfg.Auth.APIKeys = splitList(v)
	}
	if v := os.Getenv("KACHAKA_MCP_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("KACHAKA_MCP_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// ParseLogLevel normalizes a level name. WARNING and CRITICAL are accepted
// as aliases for warn and error.
func ParseLogLevel(level string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return "debug", true
	case "", "info":
		return "info", true
	case "warn", "warning":
		return "warn", true
	case "error", "critical":
		return "error", true
	default:
		return "", false
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Robot.Target == "" {
		return fmt.Errorf("robot.target is required")
	}
	if _, _, err := net.SplitHostPort(c.Robot.Target); err != nil {
		return fmt.Errorf("robot.target %q must be host:port: %w", c.Robot.Target, err)
	}
	if c.Robot.Keepalive < 0 {
		return fmt.Errorf("robot.keepalive must not be negative")
	}

	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", auth.MinSecretLength)
	}

	if _, ok := ParseLogLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Robot.KeepaliveRaw != "" {
		d, err := time.ParseDuration(cfg.Robot.KeepaliveRaw)
		if err != nil {
			return fmt.Errorf("parsing keepalive %q: %w", cfg.Robot.KeepaliveRaw, err)
		}
		cfg.Robot.Keepalive = d
	}
	return nil
}

// Save writes cfg to path, choosing the encoding from the extension.
// Parent directories are created as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
