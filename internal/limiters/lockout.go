package limiters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ispops/erpauth/storage"
)

// LockoutConfig holds configuration for a lockout limiter.
type LockoutConfig struct {
	Key         string
	MaxAttempts int
	Duration    time.Duration
}

var (
	// ErrLockoutUnavailable indicates the lockout state could not be read or written.
	ErrLockoutUnavailable = errors.New("lockout state unavailable")
)

type lockoutState struct {
	Attempts     int   `json:"attempts"`
	LockoutUntil int64 `json:"lockout_until,omitempty"`
	LastAttempt  int64 `json:"last_attempt"`
}

// Lockout counts failed attempts and locks further attempts out for
// Duration once MaxAttempts is reached.
type Lockout struct {
	store  storage.Backend
	config LockoutConfig
	now    func() time.Time
	mu     sync.Mutex
}

// NewLockout creates a lockout limiter persisting state under cfg.Key.
func NewLockout(store storage.Backend, cfg LockoutConfig) *Lockout {
	return &Lockout{store: store, config: cfg, now: time.Now}
}

// SetClock replaces the time source.
func (l *Lockout) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// MaxAttempts returns the configured attempt budget.
func (l *Lockout) MaxAttempts() int {
	return l.config.MaxAttempts
}

// IsLockedOut reports whether a lockout is in force. An expired lockout is
// reset as a side effect.
func (l *Lockout) IsLockedOut(ctx context.Context) (bool, error) {
	if l == nil {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	if st.LockoutUntil == 0 {
		return false, nil
	}
	if l.now().UnixMilli() < st.LockoutUntil {
		return true, nil
	}
	return false, l.reset(ctx)
}

// RemainingLockout returns the time left on the current lockout rounded up to
// a whole second, or zero when not locked out.
func (l *Lockout) RemainingLockout(ctx context.Context) (time.Duration, error) {
	if l == nil {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	if st.LockoutUntil == 0 {
		return 0, nil
	}
	ms := st.LockoutUntil - l.now().UnixMilli()
	if ms <= 0 {
		return 0, nil
	}
	secs := (ms + 999) / 1000
	return time.Duration(secs) * time.Second, nil
}

// RemainingAttempts returns max(0, MaxAttempts - attempts).
func (l *Lockout) RemainingAttempts(ctx context.Context) (int, error) {
	if l == nil {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	return max(0, l.config.MaxAttempts-st.Attempts), nil
}

// Attempts returns the number of failed attempts in the current window.
func (l *Lockout) Attempts(ctx context.Context) (int, error) {
	if l == nil {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	return st.Attempts, nil
}

// RecordFailedAttempt increments the counter. Returns true when this attempt
// triggered (or extended) a lockout.
//
// A failure arriving more than Duration after the previous one starts a new
// window.
func (l *Lockout) RecordFailedAttempt(ctx context.Context) (bool, error) {
	if l == nil {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return false, err
	}

	now := l.now().UnixMilli()
	if st.LastAttempt > 0 && now-st.LastAttempt > l.config.Duration.Milliseconds() {
		st = lockoutState{}
	}

	st.Attempts++
	st.LastAttempt = now

	locked := false
	if st.Attempts >= l.config.MaxAttempts {
		st.LockoutUntil = now + l.config.Duration.Milliseconds()
		locked = true
	}

	return locked, l.save(ctx, st)
}

// RecordSuccess clears all state.
func (l *Lockout) RecordSuccess(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.reset(ctx)
}

func (l *Lockout) load(ctx context.Context) (lockoutState, error) {
	raw, ok, err := l.store.Get(ctx, l.config.Key)
	if err != nil {
		return lockoutState{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if !ok || raw == "" {
		return lockoutState{}, nil
	}

	var st lockoutState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		// Unreadable state starts over.
		return lockoutState{}, nil
	}
	return st, nil
}

func (l *Lockout) save(ctx context.Context, st lockoutState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if err := l.store.Set(ctx, l.config.Key, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

func (l *Lockout) reset(ctx context.Context) error {
	if err := l.store.Delete(ctx, l.config.Key); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}
