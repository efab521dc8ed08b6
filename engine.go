package erpauth

import (
	"context"
	"sync/atomic"
	"time"

	internalaudit "github.com/ispops/erpauth/internal/audit"
	"github.com/ispops/erpauth/permission"
	"github.com/ispops/erpauth/session"
	"github.com/ispops/erpauth/token"
	"github.com/ispops/erpauth/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Engine owns the bearer token and the authenticated session, and drives
// every authentication protocol against the backend.
type Engine struct {
	config Config
	client *transport.Client
	tokens *token.Store

	state atomic.Pointer[sessionState]

	challenges      *challengeStore
	passwordLimiter *LoginLimiter
	otpLimiter      *LoginLimiter
	refreshGroup    singleflight.Group

	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// sessionState pairs a Session with its decision cache so both are
// swapped together.
type sessionState struct {
	session   *session.Session
	evaluator *permission.Evaluator
}

// Close flushes the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	_ = e.logger.Sync()
}

// AuditDropped counts audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the Engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// observe records backend latency since start.
func (e *Engine) observe(start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(MetricRequestLatency, e.now().Sub(start))
}

// Config returns a copy of the Engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// PasswordLimiter guards the password stage. Nil when disabled.
func (e *Engine) PasswordLimiter() *LoginLimiter {
	return e.passwordLimiter
}

// OTPLimiter guards the OTP stages. Nil when disabled.
func (e *Engine) OTPLimiter() *LoginLimiter {
	return e.otpLimiter
}

// Session returns the current session, or nil.
func (e *Engine) Session() *session.Session {
	if e == nil {
		return nil
	}
	if st := e.state.Load(); st != nil {
		return st.session
	}
	return nil
}

// IsAuthenticated reports whether a session is held.
func (e *Engine) IsAuthenticated() bool {
	return e.Session() != nil
}

// Token returns the bearer token, or "".
func (e *Engine) Token() string {
	if e == nil {
		return ""
	}
	return e.tokens.Get()
}

func (e *Engine) setSession(s *session.Session) {
	if s == nil {
		e.state.Store(nil)
		return
	}
	e.state.Store(&sessionState{
		session:   s,
		evaluator: permission.NewEvaluator(s.Subject(), e.config.Session.PermissionCacheSize),
	})
}

func (e *Engine) evaluator() *permission.Evaluator {
	if e == nil {
		return nil
	}
	if st := e.state.Load(); st != nil {
		return st.evaluator
	}
	return nil
}

// Restore loads a persisted token and rebuilds the session from it. It
// returns a nil session without error when no usable token is stored.
func (e *Engine) Restore(ctx context.Context) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if err := e.tokens.Load(ctx); err != nil {
		return nil, err
	}
	if e.tokens.Get() == "" {
		return nil, nil
	}

	if info := e.TokenInfo(); !info.ExpiresAt.IsZero() && !info.Valid {
		e.logger.Info("stored token expired")
		e.clearLocal(ctx)
		return nil, nil
	}

	s, err := e.RefreshUser(ctx)
	if err != nil {
		if transport.IsAuthExpiry(err) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// RefreshUser refetches the profile bundle and legacy permissions and
// replaces the session. Concurrent callers share one round trip. On failure
// the previous session stays in place unless the token was rejected.
func (e *Engine) RefreshUser(ctx context.Context) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ctx, reqID := withRequestID(ctx)

	tok := e.tokens.Get()
	if tok == "" {
		return nil, ErrNotAuthenticated
	}

	v, err, _ := e.refreshGroup.Do(tok, func() (any, error) {
		s, err := e.fetchSession(ctx, tok)
		if err != nil {
			e.metricInc(MetricSessionRefreshFailure)
			if transport.IsAuthExpiry(err) {
				e.expire(ctx, "refresh user", err)
			} else {
				e.logger.Warn("refresh user failed",
					zap.String("op", "refresh user"),
					zap.String("request_id", reqID),
					zap.Int("status", transport.StatusOf(err)),
					zap.Error(err),
				)
			}
			return nil, err
		}
		if e.tokens.Get() != tok {
			// Logged out or re-authenticated while the fetch was in flight.
			return nil, ErrNotAuthenticated
		}
		e.setSession(s)
		e.metricInc(MetricSessionRefreshed)
		e.emitAudit(ctx, auditEventSessionRefreshed, "", true, nil, nil)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session.Session), nil
}

func (e *Engine) fetchSession(ctx context.Context, tok string) (*session.Session, error) {
	start := e.now()
	defer e.observe(start)

	profile, legacy, err := e.fetchProfile(ctx, tok)
	if err != nil {
		return nil, err
	}
	return session.FromProfile(*profile, legacy, e.now()), nil
}

// Logout clears the token and session, then tells the backend. Backend
// failures are logged, never returned. Safe to call repeatedly.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, reqID := withRequestID(ctx)

	tok := e.tokens.Get()
	userID := e.currentUserID()
	err := e.clearLocal(ctx)

	if tok != "" {
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, "", true, nil, func() map[string]string {
			if userID == "" {
				return nil
			}
			return map[string]string{"user_id": userID}
		})
	}

	if tok != "" && e.config.Logout.NotifyBackend {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Logout.Timeout)
		defer cancel()
		if nerr := e.client.Logout(nctx, tok); nerr != nil {
			e.logger.Info("backend logout failed",
				zap.String("op", "logout"),
				zap.String("request_id", reqID),
				zap.Int("status", transport.StatusOf(nerr)),
				zap.Error(nerr),
			)
		}
	}
	return err
}

// clearLocal drops the token, the session and any protocol in progress.
func (e *Engine) clearLocal(ctx context.Context) error {
	err := e.tokens.Clear(ctx)
	if err != nil {
		e.logger.Warn("clear token storage", zap.Error(err))
	}
	e.setSession(nil)
	e.challenges.Reset()
	return err
}

// expire handles a rejected bearer token.
func (e *Engine) expire(ctx context.Context, op string, cause error) {
	reqID, _ := transport.RequestIDFromContext(ctx)
	e.logger.Info("session expired",
		zap.String("op", op),
		zap.String("request_id", reqID),
		zap.Int("status", transport.StatusOf(cause)),
	)
	e.emitAudit(ctx, auditEventSessionExpired, "", false, cause, func() map[string]string {
		return map[string]string{"op": op}
	})
	_ = e.clearLocal(ctx)
	e.metricInc(MetricForcedLogout)
}

// establish stores tok and builds the session from it. If the session
// cannot be built the token is discarded, so a half-authenticated state is
// never left behind.
func (e *Engine) establish(ctx context.Context, tok string, remember bool) (*session.Session, error) {
	if tok == "" {
		return nil, transport.ErrDecode
	}
	if err := e.tokens.Set(ctx, tok, remember); err != nil {
		e.logger.Warn("persist token", zap.Bool("remember", remember), zap.Error(err))
	}

	s, err := e.fetchSession(ctx, tok)
	if err != nil {
		e.metricInc(MetricSessionRefreshFailure)
		_ = e.clearLocal(ctx)
		return nil, err
	}
	e.setSession(s)
	e.metricInc(MetricSessionCreated)
	return s, nil
}

// authorized runs fn with the bearer token and handles a rejection.
func (e *Engine) authorized(ctx context.Context, op string, fn func(ctx context.Context, tok string) error) error {
	if e == nil {
		return ErrEngineNotReady
	}
	tok := e.tokens.Get()
	if tok == "" {
		return ErrNotAuthenticated
	}

	start := e.now()
	err := fn(ctx, tok)
	e.observe(start)

	if err != nil && transport.IsAuthExpiry(err) {
		e.expire(ctx, op, err)
	}
	return err
}
