package erpauth

import (
	"context"
	"fmt"

	"github.com/ispops/erpauth/password"
)

// SetPassword gives a passwordless account its first password.
func (e *Engine) SetPassword(ctx context.Context, newPassword, confirm string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if err := password.ValidateNew(newPassword, confirm); err != nil {
		return err
	}

	err := e.authorized(ctx, "set password", func(ctx context.Context, tok string) error {
		return e.client.SetPassword(ctx, tok, newPassword, confirm)
	})
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordSet, methodPassword, false, err, nil)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordSet, methodPassword, true, nil, nil)
	return nil
}

// ChangePassword replaces the password after the backend checks current.
// A wrong current password comes back as ErrValidation and keeps the session.
func (e *Engine) ChangePassword(ctx context.Context, current, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if current == "" {
		return fmt.Errorf("%w: current password is required", ErrValidation)
	}
	if err := password.Check(newPassword); err != nil {
		return err
	}
	if newPassword == current {
		return fmt.Errorf("%w: new password must differ from the current one", ErrPasswordPolicy)
	}

	err := e.authorized(ctx, "change password", func(ctx context.Context, tok string) error {
		return e.client.ChangePassword(ctx, tok, current, newPassword)
	})
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, methodPassword, false, err, nil)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, methodPassword, true, nil, nil)
	return nil
}
