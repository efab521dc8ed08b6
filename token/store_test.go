package token

import (
	"context"
	"testing"

	"github.com/ispops/erpauth/storage"
)

func TestStoreRememberMe(t *testing.T) {
	ctx := context.Background()
	durable := storage.NewMemory(0)
	volatile := storage.NewMemory(0)
	s := NewStore(durable, volatile)

	if got := s.Get(); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}

	if err := s.Set(ctx, "t1", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok, _ := durable.Get(ctx, KeyAccessToken); !ok || v != "t1" {
		t.Fatalf("expected durable token t1, got %q ok=%v", v, ok)
	}
	if _, ok, _ := volatile.Get(ctx, KeyAccessToken); ok {
		t.Fatal("expected volatile backend to be empty")
	}
	if !s.Remembered() {
		t.Fatal("expected Remembered")
	}

	if err := s.Set(ctx, "t2", false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := durable.Get(ctx, KeyAccessToken); ok {
		t.Fatal("expected durable token to be removed")
	}
	if _, ok, _ := durable.Get(ctx, KeyRememberMe); ok {
		t.Fatal("expected remember_me to be removed")
	}
	if v, _, _ := volatile.Get(ctx, KeyAccessToken); v != "t2" {
		t.Fatalf("expected volatile token t2, got %q", v)
	}
	if s.Get() != "t2" {
		t.Fatalf("expected in-memory token t2, got %q", s.Get())
	}
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()
	durable := storage.NewMemory(0)

	first := NewStore(durable, storage.NewMemory(0))
	if err := first.Set(ctx, "persisted", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh process sees the durable token but not the old session backend.
	second := NewStore(durable, storage.NewMemory(0))
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if second.Get() != "persisted" || !second.Remembered() {
		t.Fatalf("expected persisted remembered token, got %q remembered=%v", second.Get(), second.Remembered())
	}

	third := NewStore(storage.NewMemory(0), storage.NewMemory(0))
	if err := third.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if third.Get() != "" {
		t.Fatalf("expected no token, got %q", third.Get())
	}
}

func TestStoreClearAndEmptySet(t *testing.T) {
	ctx := context.Background()
	durable := storage.NewMemory(0)
	volatile := storage.NewMemory(0)
	s := NewStore(durable, volatile)

	_ = s.Set(ctx, "a", true)
	if err := s.Set(ctx, "", false); err != nil {
		t.Fatalf("Set empty failed: %v", err)
	}
	if s.Get() != "" {
		t.Fatal("expected empty Set to clear the token")
	}
	for _, b := range []storage.Backend{durable, volatile} {
		if _, ok, _ := b.Get(ctx, KeyAccessToken); ok {
			t.Fatal("expected token removed from storage")
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestStoreSingleBackend(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory(0)
	s := NewStore(b, b)

	if err := s.Set(ctx, "only", false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok, _ := b.Get(ctx, KeyAccessToken); !ok || v != "only" {
		t.Fatalf("expected token to survive on shared backend, got %q ok=%v", v, ok)
	}
	if _, ok, _ := b.Get(ctx, KeyRememberMe); ok {
		t.Fatal("expected remember_me unset")
	}
}
