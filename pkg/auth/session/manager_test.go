package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type failingStore struct {
	*MemoryStore
}

func (f failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("connection reset")
}

func TestManagerStartAndRevoke(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(NewMemoryStore(nil), time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	accessID := NewAccessID()

	if err := manager.Start(ctx, accessID, uuid.New()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ok, err := manager.HasSession(ctx, accessID)
	if err != nil || !ok {
		t.Fatalf("expected live session, got %v %v", ok, err)
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, accessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, got %v %v", ok, err)
	}
}

func TestManagerSessionExpires(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	manager, err := NewManager(NewMemoryStore(clock), 30*time.Minute)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := manager.Start(ctx, "access-1", uuid.New()); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(29 * time.Minute)
	if ok, _ := manager.HasSession(ctx, "access-1"); !ok {
		t.Fatal("session should still be live")
	}
	clock.Advance(time.Minute)
	if ok, _ := manager.HasSession(ctx, "access-1"); ok {
		t.Fatal("session should have expired")
	}
}

func TestManagerValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := NewManager(NewMemoryStore(nil), 0); err == nil {
		t.Fatal("expected ttl error")
	}

	manager, _ := NewManager(NewMemoryStore(nil), time.Hour)
	if err := manager.Start(ctx, " ", uuid.New()); err == nil {
		t.Fatal("expected blank access id error")
	}
	if _, err := manager.HasSession(ctx, ""); err == nil {
		t.Fatal("expected blank access id error")
	}

	broken, _ := NewManager(failingStore{NewMemoryStore(nil)}, time.Hour)
	if _, err := broken.HasSession(ctx, "access-1"); err == nil {
		t.Fatal("expected store error to surface")
	}
}
