package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ispops/erpauth/storage"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLockout(t *testing.T, store storage.Backend) (*Lockout, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLockout(store, LockoutConfig{Key: "auth_rate_limit", MaxAttempts: 5, Duration: 15 * time.Minute})
	l.SetClock(clock.now)
	return l, clock
}

func TestLockoutCycle(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLockout(t, storage.NewMemory(0))

	for i := 1; i <= 4; i++ {
		locked, err := l.RecordFailedAttempt(ctx)
		if err != nil {
			t.Fatalf("RecordFailedAttempt failed: %v", err)
		}
		if locked {
			t.Fatalf("unexpected lockout after %d attempts", i)
		}
		remaining, _ := l.RemainingAttempts(ctx)
		if remaining != 5-i {
			t.Fatalf("expected %d remaining attempts, got %d", 5-i, remaining)
		}
	}

	locked, err := l.RecordFailedAttempt(ctx)
	if err != nil || !locked {
		t.Fatalf("expected fifth failure to lock, locked=%v err=%v", locked, err)
	}
	if isLocked, _ := l.IsLockedOut(ctx); !isLocked {
		t.Fatal("expected IsLockedOut to be true")
	}
	if remaining, _ := l.RemainingAttempts(ctx); remaining != 0 {
		t.Fatalf("expected 0 remaining attempts, got %d", remaining)
	}

	clock.advance(14*time.Minute + 59*time.Second)
	if isLocked, _ := l.IsLockedOut(ctx); !isLocked {
		t.Fatal("expected lockout to hold just before expiry")
	}
	left, _ := l.RemainingLockout(ctx)
	if left != time.Second {
		t.Fatalf("expected 1s remaining, got %s", left)
	}

	clock.advance(time.Second)
	if isLocked, _ := l.IsLockedOut(ctx); isLocked {
		t.Fatal("expected lockout to expire")
	}
	if attempts, _ := l.Attempts(ctx); attempts != 0 {
		t.Fatalf("expected counter reset after expiry, got %d", attempts)
	}
}

func TestRemainingLockoutRoundsUp(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLockout(t, storage.NewMemory(0))

	for i := 0; i < 5; i++ {
		_, _ = l.RecordFailedAttempt(ctx)
	}
	clock.advance(1500 * time.Millisecond)

	left, err := l.RemainingLockout(ctx)
	if err != nil {
		t.Fatalf("RemainingLockout failed: %v", err)
	}
	want := 15*time.Minute - time.Second
	if left != want {
		t.Fatalf("expected %s, got %s", want, left)
	}
}

func TestStaleFailuresStartNewWindow(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLockout(t, storage.NewMemory(0))

	for i := 0; i < 3; i++ {
		_, _ = l.RecordFailedAttempt(ctx)
	}
	clock.advance(16 * time.Minute)

	_, _ = l.RecordFailedAttempt(ctx)
	if attempts, _ := l.Attempts(ctx); attempts != 1 {
		t.Fatalf("expected new window with 1 attempt, got %d", attempts)
	}
}

func TestRecordSuccessResets(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLockout(t, storage.NewMemory(0))

	for i := 0; i < 5; i++ {
		_, _ = l.RecordFailedAttempt(ctx)
	}
	if err := l.RecordSuccess(ctx); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}
	if isLocked, _ := l.IsLockedOut(ctx); isLocked {
		t.Fatal("expected no lockout after success")
	}
	if remaining, _ := l.RemainingAttempts(ctx); remaining != 5 {
		t.Fatalf("expected full budget, got %d", remaining)
	}
}

func TestLockoutSurvivesRestartOnRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := storage.NewRedis(rdb, "test")

	first, clock := newTestLockout(t, store)
	for i := 0; i < 5; i++ {
		_, _ = first.RecordFailedAttempt(ctx)
	}

	second := NewLockout(store, LockoutConfig{Key: "auth_rate_limit", MaxAttempts: 5, Duration: 15 * time.Minute})
	second.SetClock(clock.now)
	if isLocked, _ := second.IsLockedOut(ctx); !isLocked {
		t.Fatal("expected lockout to persist across instances")
	}
}

func TestCorruptStateStartsOver(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(0)
	_ = store.Set(ctx, "auth_rate_limit", "{garbage")

	l, _ := newTestLockout(t, store)
	if isLocked, err := l.IsLockedOut(ctx); err != nil || isLocked {
		t.Fatalf("expected clean state, locked=%v err=%v", isLocked, err)
	}
}

func TestLockoutStorageFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l, _ := newTestLockout(t, storage.NewRedis(rdb, "test"))
	mr.Close()

	if _, err := l.RecordFailedAttempt(context.Background()); !errors.Is(err, ErrLockoutUnavailable) {
		t.Fatalf("expected ErrLockoutUnavailable, got %v", err)
	}
}

func TestNilLockoutIsInert(t *testing.T) {
	var l *Lockout
	if locked, err := l.IsLockedOut(context.Background()); locked || err != nil {
		t.Fatalf("expected inert nil limiter, locked=%v err=%v", locked, err)
	}
}
