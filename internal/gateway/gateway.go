// ABOUTME: Gateway orchestrator that wires the robot session to the MCP server
// ABOUTME: Owns the HTTP listener, audit store and robot handle lifecycle

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"

	"github.com/2389/kachaka-mcp/internal/auth"
	"github.com/2389/kachaka-mcp/internal/config"
	"github.com/2389/kachaka-mcp/internal/dispatch"
	"github.com/2389/kachaka-mcp/internal/mcp"
	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/session"
	"github.com/2389/kachaka-mcp/internal/store"
	"github.com/2389/kachaka-mcp/internal/telemetry"
)

// readyTimeout bounds the robot probe behind /health/ready.
const readyTimeout = 5 * time.Second

// Gateway orchestrates the kachaka-mcp server components.
type Gateway struct {
	provider    *config.Provider
	session     *session.Context
	store       *store.SQLiteStore // nil when the audit log is disabled
	registry    *packs.Registry
	telemetry   *telemetry.Accessor
	mcpServer   *mcp.Server
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	helpPage    []byte
	logger      *slog.Logger

	// mcpEndpoint is the URL clients should use, for the startup summary.
	mcpEndpoint string
}

// Option customizes a Gateway.
type Option func(*options)

type options struct {
	factory session.Factory
	version string
}

// WithFactory replaces the gRPC robot factory.
func WithFactory(f session.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithVersion sets the version reported in serverInfo and on the help page.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// initStore opens the audit log, or returns nil when it is disabled.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	if cfg.Audit.Path == "" {
		return nil, nil
	}
	s, err := store.NewSQLiteStore(cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing audit store: %w", err)
	}
	return s, nil
}

// New creates a Gateway from the provider's current config. Nothing is
// dialed or bound until Run.
func New(provider *config.Provider, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := provider.Current()

	o := options{
		factory: session.GRPCFactory(cfg.Robot.Keepalive),
		version: "dev",
	}
	for _, opt := range opts {
		opt(&o)
	}

	auditStore, err := initStore(cfg)
	if err != nil {
		return nil, err
	}
	closeStore := func() {
		if auditStore != nil {
			_ = auditStore.Close()
		}
	}

	sess := session.New(provider.RobotTarget, o.factory, logger.With("component", "session"))

	var dispatchOpts []dispatch.Option
	var telemetryOpts []telemetry.Option
	if auditStore != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithRecorder(auditStore))
		telemetryOpts = append(telemetryOpts, telemetry.WithCommandLog(auditStore))
	}
	dispatcher := dispatch.New(sess, logger.With("component", "dispatch"), dispatchOpts...)
	accessor := telemetry.New(sess, logger.With("component", "telemetry"), telemetryOpts...)

	registry := packs.NewRegistry(logger.With("component", "pack-registry"))
	for _, p := range dispatcher.Packs() {
		if err := registry.RegisterPack(p); err != nil {
			closeStore()
			return nil, fmt.Errorf("registering %s pack: %w", p.ID, err)
		}
	}

	gate, err := auth.NewGate(auth.GateConfig{
		Enabled:   cfg.Auth.Enabled,
		APIKeys:   cfg.Auth.APIKeys,
		JWTSecret: cfg.Auth.JWTSecret,
	}, logger.With("component", "auth"))
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("creating auth gate: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Name:      cfg.Server.Name,
		Version:   o.version,
		Registry:  registry,
		Telemetry: accessor,
		Gate:      gate,
		Logger:    logger.With("component", "mcp"),
	})
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	gw := &Gateway{
		provider:    provider,
		session:     sess,
		store:       auditStore,
		registry:    registry,
		telemetry:   accessor,
		mcpServer:   mcpServer,
		logger:      logger.With("component", "gateway"),
		mcpEndpoint: "http://" + cfg.Server.HTTPAddr + "/mcp",
	}

	gw.helpPage, err = renderHelpPage(helpData{
		Name:      cfg.Server.Name,
		Version:   o.version,
		Tools:     registry.ListTools(),
		Resources: accessor.Resources(),
		Templates: accessor.Templates(),
		AuthOn:    gate.Enabled(),
	})
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("rendering help page: %w", err)
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !gate.Enabled() {
		gw.logger.Warn("MCP auth disabled - every caller may drive the robot")
	}
	return gw, nil
}

// Handler returns the HTTP mux: MCP, health and the help page.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/health/ready", g.handleReady)
	mux.HandleFunc("/", g.handleIndex)

	g.mcpServer.RegisterRoutes(mux)
	return mux
}

// MCP returns the protocol server, for the stdio transport.
func (g *Gateway) MCP() *mcp.Server {
	return g.mcpServer
}

// MCPEndpoint returns the URL clients should connect to.
func (g *Gateway) MCPEndpoint() string {
	return g.mcpEndpoint
}

// ToolCount returns the number of registered tools.
func (g *Gateway) ToolCount() int {
	return len(g.registry.ListTools())
}

// AuditEnabled reports whether commands are being recorded.
func (g *Gateway) AuditEnabled() bool {
	return g.store != nil
}

// Reload re-reads the config file. When the robot target changed the session
// slot is emptied so the next call dials the new address. Listener, auth and
// audit settings take effect on restart.
func (g *Gateway) Reload() error {
	cfg, err := g.provider.Reload()
	if err != nil {
		return err
	}

	current := g.session.Target()
	if current != "" && current != cfg.Robot.Target {
		g.session.Reset()
		g.logger.Info("robot target changed", "old", current, "new", cfg.Robot.Target)
	}
	g.logger.Info("configuration reloaded", "path", g.provider.Path())
	return nil
}

// setupListener creates the HTTP listener (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	cfg := g.provider.Current()
	if cfg.Tailscale.Enabled {
		g.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", cfg.Server.HTTPAddr)
		return g.setupTailscaleListener(ctx, cfg.Tailscale)
	}

	g.logger.Info("starting gateway", "http_addr", cfg.Server.HTTPAddr)
	ln, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Run starts the HTTP server and blocks until ctx is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		_ = g.closeResources()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String(), "mcp_endpoint", g.mcpEndpoint)
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// closeResources releases the robot handle, audit store and tailnet node.
func (g *Gateway) closeResources() error {
	var errs []error
	errs = appendCloseError(errs, "robot session close", g.session.Close())
	if g.store != nil {
		errs = appendCloseError(errs, "store close", g.store.Close())
	}
	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	return errors.Join(errs...)
}

// Shutdown stops the HTTP server and releases every resource.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	if err := g.closeResources(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// Close releases resources without serving; used by the stdio transport.
func (g *Gateway) Close() error {
	return g.closeResources()
}
