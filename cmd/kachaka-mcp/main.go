// ABOUTME: Entry point for the kachaka-mcp server
// ABOUTME: Serves the robot over MCP (HTTP or stdio) and provides setup/diagnostic commands

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/kachaka-mcp/internal/auth"
	"github.com/2389/kachaka-mcp/internal/config"
	"github.com/2389/kachaka-mcp/internal/gateway"
	"github.com/2389/kachaka-mcp/internal/robot"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _            _           _
 | | ____ _ __| |__   __ _| | ____ _       _ __ ___   ___ _ __
 | |/ / _' / _| '_ \ / _' | |/ / _' |_____| '_ ' _ \ / __| '_ \
 |   < (_| \__ \ | | | (_| |   < (_| |_____| | | | | | (__| |_) |
 |_|\_\__,_|___/_| |_|\__,_|_|\_\__,_|     |_| |_| |_|\___| .__/
                                                          |_|
`

func usage() {
	fmt.Println("Usage: kachaka-mcp <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                   Start the MCP server over HTTP")
	fmt.Println("  stdio                   Serve MCP over stdin/stdout")
	fmt.Println("  init                    Write a default config file")
	fmt.Println("  health                  Check server health")
	fmt.Println("  check                   Connect to the robot and print its status")
	fmt.Println("  token --sub NAME        Issue a JWT for the MCP endpoint")
	fmt.Println("  hash-key KEY            Print a bcrypt hash for auth.api_keys")
	fmt.Println()
	fmt.Println("Config: $KACHAKA_MCP_CONFIG or ~/.config/kachaka-mcp/config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "stdio":
		err = runStdio(ctx)
	case "init":
		err = runInit(os.Args[2:])
	case "health":
		err = runHealth(ctx)
	case "check":
		err = runCheck(ctx)
	case "token":
		err = runToken(os.Args[2:])
	case "hash-key":
		err = runHashKey(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := config.DefaultPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	provider, err := config.LoadProvider(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := provider.Current()

	logger, closeLog, err := setupLogger(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	gw, err := gateway.New(provider, logger, gateway.WithVersion(version))
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Robot:     %s\n", cfg.Robot.Target)
	green.Print("    ▶ ")
	fmt.Printf("MCP:       %s\n", gw.MCPEndpoint())
	green.Print("    ▶ ")
	fmt.Printf("Tools:     %d\n", gw.ToolCount())
	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if cfg.Auth.Enabled {
		cyan.Printf("%d key(s)", len(cfg.Auth.APIKeys))
		if cfg.Auth.JWTSecret != "" {
			cyan.Print(" + jwt")
		}
	} else {
		yellow.Print("disabled")
	}
	fmt.Println()
	if gw.AuditEnabled() {
		green.Print("    ▶ ")
		fmt.Printf("Audit:     %s\n", cfg.Audit.Path)
	}

	// Tailscale status
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	logger.Info("starting kachaka-mcp",
		"config", configPath,
		"robot", cfg.Robot.Target,
		"http_addr", cfg.Server.HTTPAddr,
	)

	go watchReload(ctx, gw, logger)

	return gw.Run(ctx)
}

// runStdio serves MCP on stdin/stdout. Logs go to stderr so they never
// interleave with protocol messages.
func runStdio(ctx context.Context) error {
	configPath := config.DefaultPath()
	provider, err := config.LoadProvider(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := setupLogger(provider.Current().Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	gw, err := gateway.New(provider, logger, gateway.WithVersion(version))
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Warn("closing gateway", "error", err)
		}
	}()

	go watchReload(ctx, gw, logger)

	err = gw.MCP().ServeStdio(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("config", config.DefaultPath(), "Config file to write (.yaml, .toml or .json)")
	target := fs.String("robot", config.DefaultRobotTarget, "Robot gRPC address (host:port)")
	withAuth := fs.Bool("auth", false, "Enable auth with a generated API key and JWT secret")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
	}

	cfg := config.Default()
	cfg.Robot.Target = *target

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	var apiKey string
	if *withAuth {
		var err error
		if apiKey, err = randomSecret(24); err != nil {
			return fmt.Errorf("generating API key: %w", err)
		}
		secret, err := randomSecret(32)
		if err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		cfg.Auth.Enabled = true
		cfg.Auth.APIKeys = []string{apiKey}
		cfg.Auth.JWTSecret = secret
	}

	if dataDir := defaultDataPath(); dataDir != "" {
		cfg.Audit.Path = filepath.Join(dataDir, "audit.db")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(*path); err != nil {
		return err
	}

	green.Printf("  ✓ Created config: %s\n", *path)
	if apiKey != "" {
		green.Printf("  ✓ API key: %s\n", apiKey)
	}
	fmt.Println()
	yellow.Println("  Ready to go:")
	fmt.Println("    kachaka-mcp check    # verify the robot is reachable")
	fmt.Println("    kachaka-mcp serve    # start the server")
	fmt.Println()
	return nil
}

// defaultDataPath returns the kachaka-mcp data directory.
// Priority: XDG_DATA_HOME/kachaka-mcp > ~/.local/share/kachaka-mcp
func defaultDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "kachaka-mcp")
}

func randomSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Make HTTP request to health endpoint with context
	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runCheck dials the robot directly and prints identity and battery.
func runCheck(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	client, err := robot.Dial(cfg.Robot.Target, robot.DialOptions{Keepalive: cfg.Robot.Keepalive})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Robot.Target, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	fmt.Printf("  Robot %s\n", cfg.Robot.Target)

	serial, err := client.GetRobotSerialNumber(ctx)
	if err != nil {
		red.Printf("  ✗ unreachable: %v\n", err)
		return errors.New("robot check failed")
	}
	green.Print("  ✓ ")
	fmt.Print("Serial:   ")
	cyan.Println(serial)

	if v, err := client.GetRobotVersion(ctx); err == nil {
		green.Print("  ✓ ")
		fmt.Print("Version:  ")
		cyan.Println(v)
	} else {
		red.Printf("  ✗ version: %v\n", err)
	}

	if b, err := client.GetBatteryInfo(ctx); err == nil {
		green.Print("  ✓ ")
		fmt.Printf("Battery:  ")
		batteryColor(b.Percentage).Printf("%.0f%%", b.Percentage)
		fmt.Printf(" (%s)\n", b.Status)
	} else {
		red.Printf("  ✗ battery: %v\n", err)
	}
	return nil
}

func batteryColor(pct float64) *color.Color {
	switch {
	case pct < 20:
		return color.New(color.FgRed)
	case pct < 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "Client identity placed in the token's sub claim (required)")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sub == "" {
		return errors.New("--sub is required")
	}

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating JWT verifier: %w", err)
	}
	token, err := verifier.Generate(*sub, *ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	if !cfg.Auth.Enabled {
		color.New(color.FgYellow).Fprintln(os.Stderr, "warning: auth.enabled is false; the server will not check this token")
	}
	return nil
}

func runHashKey(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: kachaka-mcp hash-key KEY")
	}
	hash, err := auth.HashAPIKey(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

// watchReload re-reads the config file on SIGHUP until ctx is done.
func watchReload(ctx context.Context, gw *gateway.Gateway, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := gw.Reload(); err != nil {
				logger.Warn("config reload failed", "error", err)
			}
		}
	}
}
