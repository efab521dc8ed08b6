package erpauth

import (
	"context"
	"time"

	"github.com/ispops/erpauth/internal/limiters"
	"github.com/ispops/erpauth/storage"
	"go.uber.org/zap"
)

// LoginLimiter is the advisory lockout for one credential stage. It counts
// rejected credentials only; network failures never count. A nil
// LoginLimiter is disabled and never locks.
type LoginLimiter struct {
	stage   string
	lockout *limiters.Lockout
	logger  *zap.Logger
}

func newLoginLimiter(stage string, store storage.Backend, cfg RateLimitConfig, logger *zap.Logger) *LoginLimiter {
	if !cfg.Enabled {
		return nil
	}
	return &LoginLimiter{
		stage:  stage,
		logger: logger,
		lockout: limiters.NewLockout(store, limiters.LockoutConfig{
			Key:         cfg.Key,
			MaxAttempts: cfg.MaxAttempts,
			Duration:    cfg.LockoutDuration,
		}),
	}
}

// Stage names the protocol step this limiter guards.
func (l *LoginLimiter) Stage() string {
	if l == nil {
		return ""
	}
	return l.stage
}

// SetClock replaces the time source.
func (l *LoginLimiter) SetClock(now func() time.Time) {
	if l == nil {
		return
	}
	l.lockout.SetClock(now)
}

func (l *LoginLimiter) MaxAttempts() int {
	if l == nil {
		return 0
	}
	return l.lockout.MaxAttempts()
}

func (l *LoginLimiter) IsLockedOut(ctx context.Context) (bool, error) {
	if l == nil {
		return false, nil
	}
	return l.lockout.IsLockedOut(ctx)
}

// RemainingLockout is rounded up to whole seconds.
func (l *LoginLimiter) RemainingLockout(ctx context.Context) (time.Duration, error) {
	if l == nil {
		return 0, nil
	}
	return l.lockout.RemainingLockout(ctx)
}

func (l *LoginLimiter) RemainingAttempts(ctx context.Context) (int, error) {
	if l == nil {
		return 0, nil
	}
	return l.lockout.RemainingAttempts(ctx)
}

func (l *LoginLimiter) Attempts(ctx context.Context) (int, error) {
	if l == nil {
		return 0, nil
	}
	return l.lockout.Attempts(ctx)
}

// Reset clears attempts and any lockout.
func (l *LoginLimiter) Reset(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.lockout.RecordSuccess(ctx)
}

// check returns a *LockoutError while locked. Unreadable limiter state
// never blocks a login.
func (l *LoginLimiter) check(ctx context.Context) error {
	if l == nil {
		return nil
	}
	locked, err := l.lockout.IsLockedOut(ctx)
	if err != nil {
		l.warn("lockout check failed", err)
		return nil
	}
	if !locked {
		return nil
	}
	remaining, err := l.lockout.RemainingLockout(ctx)
	if err != nil {
		l.warn("lockout check failed", err)
	}
	return &LockoutError{Stage: l.stage, Remaining: remaining}
}

// fail records cause and decorates it with the attempts left, or with the
// lockout it triggered.
func (l *LoginLimiter) fail(ctx context.Context, cause error) error {
	if l == nil {
		return cause
	}
	locked, err := l.lockout.RecordFailedAttempt(ctx)
	if err != nil {
		l.warn("record failed attempt", err)
		return cause
	}
	if locked {
		remaining, err := l.lockout.RemainingLockout(ctx)
		if err != nil {
			l.warn("read lockout", err)
		}
		return &LockoutError{Stage: l.stage, Remaining: remaining, Cause: cause}
	}
	left, err := l.lockout.RemainingAttempts(ctx)
	if err != nil {
		l.warn("read remaining attempts", err)
		return cause
	}
	return &AttemptError{Remaining: left, Err: cause}
}

func (l *LoginLimiter) succeed(ctx context.Context) {
	if l == nil {
		return
	}
	if err := l.lockout.RecordSuccess(ctx); err != nil {
		l.warn("reset limiter", err)
	}
}

func (l *LoginLimiter) warn(msg string, err error) {
	if l.logger == nil {
		return
	}
	l.logger.Warn(msg, zap.String("stage", l.stage), zap.Error(err))
}
