// ABOUTME: Single-slot holder of the shared robot client handle
// ABOUTME: Lazily dials on first access; Reset empties the slot for re-creation

package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/kachaka-mcp/internal/robot"
)

// State reports whether a handle is currently held.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateActive        State = "active"
)

// Factory constructs a client bound to target.
type Factory func(ctx context.Context, target string) (robot.Client, error)

// TargetFunc reports the robot address to use for the next dial.
type TargetFunc func() string

// GRPCFactory returns a Factory that dials the robot's gRPC API.
func GRPCFactory(keepalive time.Duration) Factory {
	return func(_ context.Context, target string) (robot.Client, error) {
		client, err := robot.Dial(target, robot.DialOptions{Keepalive: keepalive})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Context owns at most one live robot.Client.
type Context struct {
	mu     sync.Mutex
	client robot.Client
	target string // target the held client was dialed with

	targetFn TargetFunc
	factory  Factory
	logger   *slog.Logger
}

// New creates an empty Context. Nothing is dialed until Client is called.
func New(target TargetFunc, factory Factory, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		targetFn: target,
		factory:  factory,
		logger:   logger,
	}
}

// Client returns the shared handle, creating it if the slot is empty.
func (c *Context) Client(ctx context.Context) (robot.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	target := c.targetFn()
	client, err := c.factory(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("connecting to robot at %s: %w", target, err)
	}

	c.client = client
	c.target = target
	c.logger.Info("robot session created", "target", target)
	return client, nil
}

// Reset empties the slot without closing the released handle. Calls already
// holding the handle keep using it.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.logger.Info("robot session reset", "target", c.target)
	}
	c.client = nil
	c.target = ""
}

// Close empties the slot and closes the released handle if it supports it.
func (c *Context) Close() error {
	c.mu.Lock()
	client := c.client
	target := c.target
	c.client = nil
	c.target = ""
	c.mu.Unlock()

	if client == nil {
		return nil
	}

	c.logger.Info("robot session closed", "target", target)
	if closer, ok := client.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("closing robot client: %w", err)
		}
	}
	return nil
}

// State reports whether a handle is held.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return StateUninitialized
	}
	return StateActive
}

// Target returns the address of the held handle, or "" when empty.
func (c *Context) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}
