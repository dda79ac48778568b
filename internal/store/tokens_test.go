package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/stockroom/internal/db"
	"github.com/erazemk/stockroom/internal/model"
)

func TestRevokeAndCheckToken(t *testing.T) {
	s := NewSQLite(db.NewTestDB(t), model.FullSchema())
	ctx := context.Background()

	// Token should not be revoked initially.
	revoked, err := s.IsRevoked(ctx, "test-jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := s.Revoke(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err = s.IsRevoked(ctx, "test-jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	// Different JTI should not be revoked.
	revoked, err = s.IsRevoked(ctx, "test-jti-2")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	s := NewSQLite(db.NewTestDB(t), model.FullSchema())
	ctx := context.Background()

	// Revoking the same token twice should not error (INSERT OR IGNORE).
	if err := s.Revoke(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}
	if err := s.Revoke(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
}
