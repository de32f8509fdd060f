// ABOUTME: Pass/fail credential check consulted before a call reaches the robot
// ABOUTME: Accepts configured API keys (plain or bcrypt) and HS256 JWTs

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Gate errors
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
)

// GateConfig configures a Gate.
type GateConfig struct {
	Enabled bool
	// APIKeys are compared verbatim unless they look like bcrypt hashes.
	APIKeys   []string
	JWTSecret string
}

// Gate decides whether a credential may use the server.
type Gate struct {
	enabled  bool
	plain    [][]byte
	hashed   [][]byte
	verifier *JWTVerifier
	logger   *slog.Logger
}

// NewGate builds a Gate. An enabled gate with neither keys nor a JWT secret
// admits every request.
func NewGate(cfg GateConfig, logger *slog.Logger) (*Gate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{enabled: cfg.Enabled, logger: logger}

	for _, key := range cfg.APIKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if isBcryptHash(key) {
			g.hashed = append(g.hashed, []byte(key))
		} else {
			g.plain = append(g.plain, []byte(key))
		}
	}

	if cfg.JWTSecret != "" {
		v, err := NewJWTVerifier([]byte(cfg.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("configuring jwt: %w", err)
		}
		g.verifier = v
	}

	if g.enabled && !g.hasCredentials() {
		logger.Warn("auth enabled but no api keys or jwt secret configured; all requests are admitted")
	}
	return g, nil
}

// Enabled reports whether the gate checks credentials at all.
func (g *Gate) Enabled() bool {
	return g.enabled && g.hasCredentials()
}

func (g *Gate) hasCredentials() bool {
	return len(g.plain) > 0 || len(g.hashed) > 0 || g.verifier != nil
}

// Authenticate checks credential and returns the resulting identity.
func (g *Gate) Authenticate(credential string) (*AuthContext, error) {
	if !g.Enabled() {
		return &AuthContext{ClientID: "anonymous", Method: MethodAnonymous}, nil
	}
	if credential == "" {
		return nil, ErrMissingCredential
	}

	if g.matchAPIKey([]byte(credential)) {
		return &AuthContext{ClientID: keyFingerprint(credential), Method: MethodAPIKey}, nil
	}

	if g.verifier != nil && strings.Count(credential, ".") == 2 {
		sub, err := g.verifier.Verify(credential)
		if err == nil {
			return &AuthContext{ClientID: sub, Method: MethodJWT}, nil
		}
		g.logger.Debug("jwt rejected", "error", err)
		if errors.Is(err, ErrExpiredToken) {
			return nil, err
		}
	}

	return nil, ErrInvalidCredential
}

// matchAPIKey compares against every plain key so timing does not reveal
// which one matched.
func (g *Gate) matchAPIKey(candidate []byte) bool {
	matched := 0
	for _, key := range g.plain {
		matched |= subtle.ConstantTimeCompare(key, candidate)
	}
	if matched == 1 {
		return true
	}
	for _, hash := range g.hashed {
		if bcrypt.CompareHashAndPassword(hash, candidate) == nil {
			return true
		}
	}
	return false
}

// HashAPIKey returns a bcrypt hash suitable for auth.api_keys.
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("api key must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing api key: %w", err)
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// keyFingerprint identifies an API key in logs without revealing it.
func keyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "key:" + hex.EncodeToString(sum[:4])
}
