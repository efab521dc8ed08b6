package erpauth

import (
	"context"

	"github.com/ispops/erpauth/session"
	"github.com/ispops/erpauth/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fetchProfile loads the profile bundle and the legacy permission list in
// parallel. Backends without the legacy endpoint answer 404, which counts
// as an empty list.
func (e *Engine) fetchProfile(ctx context.Context, tok string) (*session.Profile, []string, error) {
	var (
		profile *session.Profile
		legacy  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.client.Profile(gctx, tok)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		perms, err := e.client.LegacyPermissions(gctx, tok)
		if err != nil {
			if transport.IsNotFound(err) {
				return nil
			}
			return err
		}
		legacy = perms
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return profile, legacy, nil
}

// UpdateProfile applies upd to the current user and refreshes the session.
func (e *Engine) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*session.User, error) {
	ctx, reqID := withRequestID(ctx)

	var user *session.User
	err := e.authorized(ctx, "update profile", func(ctx context.Context, tok string) error {
		u, err := e.client.UpdateProfile(ctx, tok, upd)
		user = u
		return err
	})
	if err != nil {
		e.emitAudit(ctx, auditEventProfileUpdated, "", false, err, nil)
		return nil, err
	}

	e.metricInc(MetricProfileUpdated)
	e.emitAudit(ctx, auditEventProfileUpdated, "", true, nil, nil)

	if _, rerr := e.RefreshUser(ctx); rerr != nil {
		e.logger.Warn("refresh after profile update",
			zap.String("request_id", reqID),
			zap.Error(rerr),
		)
	}
	return user, nil
}

// ListRoles returns the roles a user may request during onboarding.
func (e *Engine) ListRoles(ctx context.Context) ([]session.Role, error) {
	ctx, _ = withRequestID(ctx)

	var roles []session.Role
	err := e.authorized(ctx, "list roles", func(ctx context.Context, tok string) error {
		r, err := e.client.Roles(ctx, tok)
		roles = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}
