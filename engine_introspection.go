package erpauth

import (
	"context"

	"github.com/ispops/erpauth/jwt"
	"go.uber.org/zap"
)

// TokenInfo decodes the stored token's expiry. Signatures are not checked;
// the backend remains the authority.
func (e *Engine) TokenInfo() TokenInfo {
	if e == nil {
		return TokenInfo{}
	}
	tok := e.tokens.Get()
	if tok == "" {
		return TokenInfo{}
	}

	d := jwt.Describe(tok, e.now(), e.config.Session.ExpiringSoon)
	return TokenInfo{
		Present:      true,
		Remembered:   e.tokens.Remembered(),
		Valid:        d.Valid,
		Subject:      d.Subject,
		ExpiresAt:    d.ExpiresAt,
		ExpiresIn:    d.ExpiresIn,
		ExpiringSoon: d.ExpiringSoon,
	}
}

// RefreshToken exchanges the token for a fresh one, keeping the
// remember-me choice, and rebuilds the session.
func (e *Engine) RefreshToken(ctx context.Context) error {
	ctx, reqID := withRequestID(ctx)

	var fresh string
	err := e.authorized(ctx, "refresh token", func(ctx context.Context, tok string) error {
		t, err := e.client.Refresh(ctx, tok)
		if err != nil {
			return err
		}
		fresh = t.AccessToken
		return nil
	})
	if err != nil {
		e.metricInc(MetricTokenRefreshFailure)
		e.emitAudit(ctx, auditEventTokenRefreshed, "", false, err, nil)
		return err
	}
	if fresh == "" {
		e.metricInc(MetricTokenRefreshFailure)
		return ErrDecode
	}

	if err := e.tokens.Set(ctx, fresh, e.tokens.Remembered()); err != nil {
		e.logger.Warn("persist refreshed token", zap.String("request_id", reqID), zap.Error(err))
	}
	e.metricInc(MetricTokenRefreshSuccess)
	e.emitAudit(ctx, auditEventTokenRefreshed, "", true, nil, nil)

	_, err = e.RefreshUser(ctx)
	return err
}

// CheckRemote asks the backend whether perm is granted. Only a rejected
// token changes local state.
func (e *Engine) CheckRemote(ctx context.Context, perm string) (bool, error) {
	ctx, _ = withRequestID(ctx)
	e.metricInc(MetricRemoteCheck)

	var granted bool
	err := e.authorized(ctx, "check permission", func(ctx context.Context, tok string) error {
		ok, err := e.client.Check(ctx, tok, perm)
		granted = ok
		return err
	})
	return granted, err
}

// CheckRemoteBatch asks the backend about several permissions at once.
func (e *Engine) CheckRemoteBatch(ctx context.Context, perms []string) (map[string]bool, error) {
	ctx, _ = withRequestID(ctx)
	e.metricInc(MetricRemoteCheck)

	var out map[string]bool
	err := e.authorized(ctx, "check permission batch", func(ctx context.Context, tok string) error {
		m, err := e.client.CheckBatch(ctx, tok, perms)
		out = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
