package erpauth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Monitor watches the token expiry in a background goroutine until ctx is
// done. It warns once per token inside WarnBefore, refreshes inside
// RefreshBefore, and logs out when the token expired or a refresh failed.
// The returned channel closes when the goroutine exits.
//
// Tokens without a readable expiry are left alone.
func (e *Engine) Monitor(ctx context.Context, opts MonitorOptions) <-chan struct{} {
	opts = e.monitorDefaults(opts)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()

		var warned string
		for {
			e.checkExpiry(ctx, opts, &warned)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}

func (e *Engine) monitorDefaults(opts MonitorOptions) MonitorOptions {
	if opts.Interval <= 0 {
		opts.Interval = e.config.Monitor.Interval
	}
	if opts.WarnBefore <= 0 {
		opts.WarnBefore = e.config.Monitor.WarnBefore
	}
	if opts.RefreshBefore <= 0 {
		opts.RefreshBefore = e.config.Monitor.RefreshBefore
	}
	return opts
}

func (e *Engine) checkExpiry(ctx context.Context, opts MonitorOptions, warned *string) {
	if ctx.Err() != nil {
		return
	}
	tok := e.tokens.Get()
	if tok == "" {
		return
	}
	info := e.TokenInfo()
	if info.ExpiresAt.IsZero() {
		return
	}

	switch {
	case !info.Valid || info.ExpiresIn <= 0:
		e.logger.Info("token expired", zap.String("op", "monitor"))
		_ = e.Logout(ctx)
		if opts.OnExpired != nil {
			opts.OnExpired(ErrSessionExpired)
		}

	case info.ExpiresIn <= opts.RefreshBefore:
		if err := e.RefreshToken(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn("automatic token refresh failed", zap.String("op", "monitor"), zap.Error(err))
			_ = e.Logout(ctx)
			if opts.OnExpired != nil {
				opts.OnExpired(fmt.Errorf("%w: %v", ErrSessionExpired, err))
			}
			return
		}
		if opts.OnRefreshed != nil {
			opts.OnRefreshed(e.TokenInfo())
		}

	case info.ExpiresIn <= opts.WarnBefore:
		if *warned == tok {
			return
		}
		*warned = tok
		if opts.OnWarning != nil {
			opts.OnWarning(info)
		}
	}
}
