// Package auth implements the access gate: a shared secret (or one per role)
// unlocks a session, and unlocked sessions are carried as signed tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/stockroom/internal/model"
)

// AuthError reports a rejected credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// Authenticate compares a supplied secret with the configured one.
func Authenticate(supplied, configured string) bool {
	return supplied == configured
}

// GateConfig lists the configured secrets. Without role gating only
// Password is consulted and it unlocks the admin role.
type GateConfig struct {
	Password        string
	ManagerPassword string
	ViewerPassword  string
	RoleGating      bool
}

type credential struct {
	role   string
	secret string
}

// Gate decides which role, if any, a supplied secret unlocks.
type Gate struct {
	creds []credential
}

// NewGate builds a gate from cfg. A secret may be given in plain text or
// as a bcrypt hash.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Password == "" {
		return nil, errors.New("a password must be configured")
	}

	g := &Gate{creds: []credential{{role: model.RoleAdmin, secret: cfg.Password}}}
	if cfg.RoleGating {
		if cfg.ManagerPassword != "" {
			g.creds = append(g.creds, credential{role: model.RoleManager, secret: cfg.ManagerPassword})
		}
		if cfg.ViewerPassword != "" {
			g.creds = append(g.creds, credential{role: model.RoleUser, secret: cfg.ViewerPassword})
		}
	}
	return g, nil
}

// Check returns the role unlocked by supplied.
func (g *Gate) Check(supplied string) (string, error) {
	if supplied == "" {
		return "", &AuthError{Reason: "password required"}
	}
	for _, c := range g.creds {
		if matches(supplied, c.secret) {
			return c.role, nil
		}
	}
	return "", &AuthError{Reason: "incorrect password"}
}

// HashSecret returns a bcrypt hash suitable for use as a configured secret.
func HashSecret(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty secret")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

func matches(supplied, configured string) bool {
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return Authenticate(supplied, configured)
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
