// ABOUTME: Concurrency-safe holder of the active configuration
// ABOUTME: Reload re-reads the file so later readers observe new values

package config

import (
	"fmt"
	"sync"
)

// Provider holds the current Config and can re-load it from disk.
type Provider struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewProvider wraps an already loaded config. path is used by Reload.
func NewProvider(path string, cfg *Config) *Provider {
	if cfg == nil {
		cfg = Default()
	}
	return &Provider{path: path, cfg: cfg}
}

// LoadProvider loads path and returns a Provider holding the result.
func LoadProvider(path string) (*Provider, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewProvider(path, cfg), nil
}

// Path returns the file the provider reloads from.
func (p *Provider) Path() string {
	return p.path
}

// Current returns the active config. Callers must not mutate it.
func (p *Provider) Current() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// RobotTarget returns the robot address from the active config.
func (p *Provider) RobotTarget() string {
	return p.Current().Robot.Target
}

// Set replaces the active config.
func (p *Provider) Set(cfg *Config) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

// Reload re-reads the config file. On failure the previous config stays active.
func (p *Provider) Reload() (*Config, error) {
	cfg, err := Load(p.path)
	if err != nil {
		return nil, fmt.Errorf("reloading %s: %w", p.path, err)
	}
	p.Set(cfg)
	return cfg, nil
}
