package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/stockroom/internal/model"
)

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		supplied, configured string
		want                 bool
	}{
		{"letmein", "letmein", true},
		{"LetMeIn", "letmein", false},
		{"letmein ", "letmein", false},
		{"", "letmein", false},
		{"", "", true},
	}

	for _, tt := range tests {
		if got := Authenticate(tt.supplied, tt.configured); got != tt.want {
			t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.supplied, tt.configured, got, tt.want)
		}
	}
}

func TestNewGateRequiresPassword(t *testing.T) {
	if _, err := NewGate(GateConfig{}); err == nil {
		t.Error("expected error without a password")
	}
}

func TestGateSinglePassword(t *testing.T) {
	g, err := NewGate(GateConfig{Password: "shop", ViewerPassword: "view"})
	if err != nil {
		t.Fatal(err)
	}

	role, err := g.Check("shop")
	if err != nil || role != model.RoleAdmin {
		t.Errorf("expected admin, got %q %v", role, err)
	}

	// Viewer password is ignored without role gating.
	_, err = g.Check("view")
	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Errorf("expected AuthError, got %v", err)
	}
}

func TestGateRoles(t *testing.T) {
	g, err := NewGate(GateConfig{
		Password:        "boss",
		ManagerPassword: "stock",
		ViewerPassword:  "look",
		RoleGating:      true,
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		supplied string
		role     string
		wantErr  bool
	}{
		{"boss", model.RoleAdmin, false},
		{"stock", model.RoleManager, false},
		{"look", model.RoleUser, false},
		{"nope", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		role, err := g.Check(tt.supplied)
		if (err != nil) != tt.wantErr || role != tt.role {
			t.Errorf("Check(%q) = %q, %v; want %q, wantErr %v", tt.supplied, role, err, tt.role, tt.wantErr)
		}
	}
}

func TestGateBcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	g, _ := NewGate(GateConfig{Password: string(hash)})
	if _, err := g.Check("hashed-pass"); err != nil {
		t.Errorf("expected hashed secret to match: %v", err)
	}
	if _, err := g.Check(string(hash)); err == nil {
		t.Error("expected the hash itself to be rejected")
	}
}

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("pw")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if !isBcryptHash(hash) {
		t.Errorf("expected bcrypt hash, got %q", hash)
	}
	if _, err := HashSecret(""); err == nil {
		t.Error("expected error for empty secret")
	}
}
