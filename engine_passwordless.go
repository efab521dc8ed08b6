package erpauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ispops/erpauth/session"
)

// RequestPasswordlessLogin sends a one-time code and a magic link to email.
// Calling it again resends and restarts the protocol for that email.
func (e *Engine) RequestPasswordlessLogin(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	start := e.now()
	err := e.client.RequestPasswordless(ctx, email)
	e.observe(start)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordlessRequested, methodPasswordless, false, err, nil)
		return err
	}

	e.challenges.Save(email, challengePasswordless, phaseOTPRequested)
	e.metricInc(MetricPasswordlessRequested)
	e.emitAudit(ctx, auditEventPasswordlessRequested, methodPasswordless, true, nil, nil)
	return nil
}

// VerifyPasswordlessOTP completes a passwordless login with the emailed code.
func (e *Engine) VerifyPasswordlessOTP(ctx context.Context, email, otp string) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if _, err := e.challenges.Require(email, challengePasswordless, phaseOTPRequested); err != nil {
		return nil, invalidState("verify passwordless otp", err)
	}
	if strings.TrimSpace(otp) == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}
	if err := e.otpLimiter.check(ctx); err != nil {
		e.lockedOut(ctx, methodPasswordless, err)
		return nil, err
	}

	start := e.now()
	tok, err := e.client.VerifyPasswordlessOTP(ctx, email, otp)
	e.observe(start)
	if err != nil {
		return nil, e.otpFailure(ctx, methodPasswordless, err)
	}

	s, err := e.establish(ctx, tok.AccessToken, e.config.Login.RememberByDefault)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, methodPasswordless, false, err, nil)
		return nil, err
	}

	e.otpLimiter.succeed(ctx)
	e.passwordLimiter.succeed(ctx)
	e.challenges.Delete(email)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, methodPasswordless, true, nil, nil)
	return s, nil
}

// VerifyMagicLink completes a login from the token carried by a magic link.
// No prior request is needed on this device: the link may have been opened
// anywhere.
func (e *Engine) VerifyMagicLink(ctx context.Context, linkToken string) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	linkToken = strings.TrimSpace(linkToken)
	if linkToken == "" {
		return nil, fmt.Errorf("%w: magic link token is required", ErrInvalidLink)
	}

	start := e.now()
	tok, err := e.client.VerifyMagicLink(ctx, linkToken)
	e.observe(start)
	if err == nil {
		var s *session.Session
		s, err = e.establish(ctx, tok.AccessToken, e.config.Login.RememberByDefault)
		if err == nil {
			e.metricInc(MetricMagicLinkSuccess)
			e.metricInc(MetricLoginSuccess)
			e.emitAudit(ctx, auditEventLoginSuccess, methodMagicLink, true, nil, nil)
			return s, nil
		}
	}

	e.metricInc(MetricMagicLinkFailure)
	e.emitAudit(ctx, auditEventMagicLinkFailure, methodMagicLink, false, err, nil)
	return nil, err
}
