package erpauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ispops/erpauth/password"
)

const methodPasswordReset = "password_reset"

// RequestPasswordReset sends a reset code to email.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	start := e.now()
	err := e.client.RequestPasswordReset(ctx, email)
	e.observe(start)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, methodPasswordReset, false, err, nil)
		return err
	}

	e.challenges.Save(email, challengeReset, phaseCodeSent)
	e.metricInc(MetricPasswordResetRequested)
	e.emitAudit(ctx, auditEventPasswordResetRequest, methodPasswordReset, true, nil, nil)
	return nil
}

// ResetPassword sets a new password with the emailed code. It does not sign
// the user in; the current session, if any, is left alone.
func (e *Engine) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if _, err := e.challenges.Require(email, challengeReset, phaseCodeSent); err != nil {
		return invalidState("reset password", err)
	}
	if strings.TrimSpace(otp) == "" {
		return fmt.Errorf("%w: code is required", ErrValidation)
	}
	if err := password.Check(newPassword); err != nil {
		return err
	}
	if err := e.otpLimiter.check(ctx); err != nil {
		e.lockedOut(ctx, methodPasswordReset, err)
		return err
	}

	start := e.now()
	err := e.client.ConfirmPasswordReset(ctx, email, otp, newPassword)
	e.observe(start)
	if err != nil {
		err = e.otpRejected(ctx, err)
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, methodPasswordReset, false, err, nil)
		return err
	}

	e.otpLimiter.succeed(ctx)
	e.challenges.Delete(email)
	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, methodPasswordReset, true, nil, nil)
	return nil
}
