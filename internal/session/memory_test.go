package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forgeml/platform/internal/auth"
)

func TestMemoryStoreSessions(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	rec := auth.SessionRecord{
		TokenID:   "tok-1",
		UserID:    "user-1",
		Kind:      auth.TokenKindRefresh,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Get(ctx, "tok-1"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// The clock moving past ExpiresAt hides the record.
	now = now.Add(2 * time.Hour)
	if _, err := store.Get(ctx, "tok-1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemoryStoreRevokeUser(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	for _, tokenID := range []string{"tok-1", "tok-2"} {
		err := store.Put(ctx, auth.SessionRecord{
			TokenID:   tokenID,
			UserID:    "user-1",
			Kind:      auth.TokenKindRefresh,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Put %s: %v", tokenID, err)
		}
	}

	if err := store.RevokeUser(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}
	for _, tokenID := range []string{"tok-1", "tok-2"} {
		if _, err := store.Get(ctx, tokenID); !errors.Is(err, auth.ErrNotFound) {
			t.Fatalf("token %s should be revoked, got %v", tokenID, err)
		}
	}
}

func TestMemoryStoreOneTimeTokens(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Save(ctx, "verify-email", "tok-abc", "user-1", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	userID, err := store.Consume(ctx, "verify-email", "tok-abc")
	if err != nil || userID != "user-1" {
		t.Fatalf("Consume: %s, %v", userID, err)
	}
	if _, err := store.Consume(ctx, "verify-email", "tok-abc"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}

	if err := store.Save(ctx, "verify-email", "tok-ttl", "user-1", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := store.Consume(ctx, "verify-email", "tok-ttl"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}
