// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML/TOML/JSON loading, env var expansion, overrides and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389/kachaka-mcp/internal/auth"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// clearEnv unsets every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KACHAKA_HOST",
		"KACHAKA_MCP_SERVER_NAME",
		"KACHAKA_MCP_LOG_LEVEL",
		"KACHAKA_MCP_AUTH_ENABLED",
		"KACHAKA_MCP_API_KEYS",
		"KACHAKA_MCP_HTTP_ADDR",
		"KACHAKA_MCP_JWT_SECRET",
		"KACHAKA_MCP_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", `
robot:
  target: "192.168.1.20:26400"
  keepalive: "45s"

server:
  name: "Lab Robot"
  http_addr: "0.0.0.0:9000"

auth:
  enabled: true
  api_keys:
    - "key-one"
    - "key-two"

logging:
  level: "debug"
  format: "json"

audit:
  path: "/tmp/audit.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Robot.Target != "192.168.1.20:26400" {
		t.Errorf("Robot.Target = %q, want %q", cfg.Robot.Target, "192.168.1.20:26400")
	}
	if cfg.Robot.Keepalive != 45*time.Second {
		t.Errorf("Robot.Keepalive = %v, want %v", cfg.Robot.Keepalive, 45*time.Second)
	}
	if cfg.Server.Name != "Lab Robot" {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, "Lab Robot")
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9000")
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false, want true")
	}
	if len(cfg.Auth.APIKeys) != 2 {
		t.Errorf("Auth.APIKeys len = %d, want 2", len(cfg.Auth.APIKeys))
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Audit.Path != "/tmp/audit.db" {
		t.Errorf("Audit.Path = %q, want %q", cfg.Audit.Path, "/tmp/audit.db")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Robot.Target != DefaultRobotTarget {
		t.Errorf("Robot.Target = %q, want %q", cfg.Robot.Target, DefaultRobotTarget)
	}
	if cfg.Robot.Keepalive != DefaultKeepalive {
		t.Errorf("Robot.Keepalive = %v, want %v", cfg.Robot.Keepalive, DefaultKeepalive)
	}
	if cfg.Server.Name != DefaultServerName {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, DefaultServerName)
	}
	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Auth.Enabled {
		t.Error("Auth.Enabled = true, want false")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", `
server:
  name: "Only Name"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Name != "Only Name" {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, "Only Name")
	}
	if cfg.Robot.Target != DefaultRobotTarget {
		t.Errorf("Robot.Target = %q, want default %q", cfg.Robot.Target, DefaultRobotTarget)
	}
	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want default %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.toml", `
[robot]
target = "10.0.0.5:26400"
keepalive = "1m"

[server]
name = "Toml Robot"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Robot.Target != "10.0.0.5:26400" {
		t.Errorf("Robot.Target = %q, want %q", cfg.Robot.Target, "10.0.0.5:26400")
	}
	if cfg.Robot.Keepalive != time.Minute {
		t.Errorf("Robot.Keepalive = %v, want %v", cfg.Robot.Keepalive, time.Minute)
	}
	if cfg.Server.Name != "Toml Robot" {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, "Toml Robot")
	}
}

func TestLoad_LegacyJSON(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.json", `{
  "kachaka_host": "172.16.0.9:26400",
  "server_name": "Legacy Robot",
  "log_level": "WARNING",
  "auth_enabled": true,
  "api_keys": ["legacy-key"]
}`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Robot.Target != "172.16.0.9:26400" {
		t.Errorf("Robot.Target = %q, want %q", cfg.Robot.Target, "172.16.0.9:26400")
	}
	if cfg.Server.Name != "Legacy Robot" {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, "Legacy Robot")
	}
	if cfg.Logging.Level != "WARNING" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "WARNING")
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false, want true")
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "legacy-key" {
		t.Errorf("Auth.APIKeys = %v, want [legacy-key]", cfg.Auth.APIKeys)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_JWT_SECRET", "secret-from-env-0123456789abcdefgh")
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configPath := writeConfig(t, "config.yaml", `
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
tailscale:
  auth_key: "${UNSET_VAR_FOR_TEST}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "secret-from-env-0123456789abcdefgh" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "secret-from-env-0123456789abcdefgh")
	}
	// Unset env vars should expand to empty string
	if cfg.Tailscale.AuthKey != "" {
		t.Errorf("Tailscale.AuthKey = %q, want empty string for unset env var", cfg.Tailscale.AuthKey)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KACHAKA_HOST", "10.1.1.1:26400")
	t.Setenv("KACHAKA_MCP_SERVER_NAME", "Env Robot")
	t.Setenv("KACHAKA_MCP_LOG_LEVEL", "error")
	t.Setenv("KACHAKA_MCP_AUTH_ENABLED", "YES")
	t.Setenv("KACHAKA_MCP_API_KEYS", "a, b,,c")
	t.Setenv("KACHAKA_MCP_HTTP_ADDR", "0.0.0.0:1234")

	configPath := writeConfig(t, "config.yaml", `
robot:
  target: "192.168.1.20:26400"
server:
  name: "File Robot"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Robot.Target != "10.1.1.1:26400" {
		t.Errorf("Robot.Target = %q, want env value", cfg.Robot.Target)
	}
	if cfg.Server.Name != "Env Robot" {
		t.Errorf("Server.Name = %q, want env value", cfg.Server.Name)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want env value", cfg.Logging.Level)
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false, want true from YES")
	}
	if strings.Join(cfg.Auth.APIKeys, "|") != "a|b|c" {
		t.Errorf("Auth.APIKeys = %v, want [a b c]", cfg.Auth.APIKeys)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:1234" {
		t.Errorf("Server.HTTPAddr = %q, want env value", cfg.Server.HTTPAddr)
	}
}

func TestLoad_AuthEnabledFalsyValues(t *testing.T) {
	for _, v := range []string{"false", "0", "no", "off"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("KACHAKA_MCP_AUTH_ENABLED", v)

			configPath := writeConfig(t, "config.yaml", "auth:\n  enabled: true\n")
			cfg, err := Load(configPath)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Auth.Enabled {
				t.Errorf("Auth.Enabled = true for %q, want false", v)
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", `
robot:
  keepalive: "soon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "keepalive") {
		t.Errorf("error = %v, want mention of keepalive", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", "robot: [unclosed\n")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty target",
			mutate:  func(c *Config) { c.Robot.Target = "" },
			wantErr: "robot.target is required",
		},
		{
			name:    "target without port",
			mutate:  func(c *Config) { c.Robot.Target = "100.94.1.1" },
			wantErr: "must be host:port",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:   "critical is accepted",
			mutate: func(c *Config) { c.Logging.Level = "CRITICAL" },
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "short" },
			wantErr: "auth.jwt_secret must be at least 32 bytes",
		},
		{
			name:    "jwt secret one byte under the token minimum",
			mutate:  func(c *Config) { c.Auth.JWTSecret = strings.Repeat("k", auth.MinSecretLength-1) },
			wantErr: "auth.jwt_secret must be at least",
		},
		{
			name:   "jwt secret at the token minimum",
			mutate: func(c *Config) { c.Auth.JWTSecret = strings.Repeat("k", auth.MinSecretLength) },
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name: "tailscale without hostname",
			mutate: func(c *Config) {
				c.Tailscale.Enabled = true
				c.Tailscale.Hostname = ""
			},
			wantErr: "tailscale.hostname is required",
		},
		{
			name: "tailscale replaces http addr",
			mutate: func(c *Config) {
				c.Tailscale.Enabled = true
				c.Server.HTTPAddr = ""
			},
		},
		{
			name:    "no listener",
			mutate:  func(c *Config) { c.Server.HTTPAddr = "" },
			wantErr: "server.http_addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"DEBUG":    "debug",
		"info":     "info",
		"":         "info",
		"WARNING":  "warn",
		"warn":     "warn",
		"Error":    "error",
		"CRITICAL": "error",
	}
	for in, want := range tests {
		got, ok := ParseLogLevel(in)
		if !ok || got != want {
			t.Errorf("ParseLogLevel(%q) = %q, %v; want %q, true", in, got, ok, want)
		}
	}
	if _, ok := ParseLogLevel("trace"); ok {
		t.Error("ParseLogLevel(trace) ok = true, want false")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)

	for _, name := range []string{"config.yaml", "config.toml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Robot.Target = "10.9.8.7:26400"
			cfg.Auth.APIKeys = []string{"k1"}
			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if loaded.Robot.Target != "10.9.8.7:26400" {
				t.Errorf("Robot.Target = %q, want %q", loaded.Robot.Target, "10.9.8.7:26400")
			}
			if loaded.Robot.Keepalive != DefaultKeepalive {
				t.Errorf("Robot.Keepalive = %v, want %v", loaded.Robot.Keepalive, DefaultKeepalive)
			}
			if len(loaded.Auth.APIKeys) != 1 {
				t.Errorf("Auth.APIKeys = %v, want [k1]", loaded.Auth.APIKeys)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Run("explicit env wins", func(t *testing.T) {
		t.Setenv("KACHAKA_MCP_CONFIG", "/etc/kachaka/custom.toml")
		if got := DefaultPath(); got != "/etc/kachaka/custom.toml" {
			t.Errorf("DefaultPath() = %q, want env path", got)
		}
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("KACHAKA_MCP_CONFIG", "")
		xdg := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdg)
		t.Setenv("HOME", t.TempDir())

		want := filepath.Join(xdg, "kachaka-mcp", "config.yaml")
		if got := DefaultPath(); got != want {
			t.Errorf("DefaultPath() = %q, want %q", got, want)
		}
	})

	t.Run("legacy json fallback", func(t *testing.T) {
		t.Setenv("KACHAKA_MCP_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "")
		home := t.TempDir()
		t.Setenv("HOME", home)

		legacy := filepath.Join(home, ".kachaka-mcp", "config.json")
		if err := os.MkdirAll(filepath.Dir(legacy), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(legacy, []byte(`{}`), 0o600); err != nil {
			t.Fatal(err)
		}

		if got := DefaultPath(); got != legacy {
			t.Errorf("DefaultPath() = %q, want %q", got, legacy)
		}
	})
}

func TestProvider_Reload(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", "robot:\n  target: \"10.0.0.1:26400\"\n")

	p, err := LoadProvider(configPath)
	if err != nil {
		t.Fatalf("LoadProvider() error = %v", err)
	}
	if got := p.RobotTarget(); got != "10.0.0.1:26400" {
		t.Fatalf("RobotTarget() = %q, want %q", got, "10.0.0.1:26400")
	}

	if err := os.WriteFile(configPath, []byte("robot:\n  target: \"10.0.0.2:26400\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := p.RobotTarget(); got != "10.0.0.2:26400" {
		t.Errorf("RobotTarget() after reload = %q, want %q", got, "10.0.0.2:26400")
	}

	// A broken file leaves the previous config active.
	if err := os.WriteFile(configPath, []byte("robot: [broken\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Reload(); err == nil {
		t.Fatal("Reload() expected error for broken file")
	}
	if got := p.RobotTarget(); got != "10.0.0.2:26400" {
		t.Errorf("RobotTarget() after failed reload = %q, want previous value", got)
	}
}
