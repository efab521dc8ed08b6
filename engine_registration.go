package erpauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ispops/erpauth/session"
	"github.com/ispops/erpauth/transport"
)

// RequestRegistrationOTP starts self-registration for a new account. The
// backend rejects an email that is already registered with ErrConflict.
// Repeating the request resends the code.
func (e *Engine) RequestRegistrationOTP(ctx context.Context, email, fullName, phone string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if email == "" || fullName == "" {
		return fmt.Errorf("%w: email and full name are required", ErrValidation)
	}

	start := e.now()
	err := e.client.RequestRegistrationOTP(ctx, transport.Registration{
		Email:       email,
		FullName:    fullName,
		PhoneNumber: strings.TrimSpace(phone),
	})
	e.observe(start)
	if err != nil {
		e.metricInc(MetricRegistrationFailure)
		e.emitAudit(ctx, auditEventRegistrationRequested, methodRegistration, false, err, nil)
		return err
	}

	e.challenges.Save(email, challengeRegistration, phaseCodeSent)
	e.metricInc(MetricRegistrationRequested)
	e.emitAudit(ctx, auditEventRegistrationRequested, methodRegistration, true, nil, nil)
	return nil
}

// VerifyRegistrationOTP activates the account and signs the new user in.
// The returned session usually has no permissions until an administrator
// assigns a role.
func (e *Engine) VerifyRegistrationOTP(ctx context.Context, email, otp string) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if _, err := e.challenges.Require(email, challengeRegistration, phaseCodeSent); err != nil {
		return nil, invalidState("verify registration otp", err)
	}
	if strings.TrimSpace(otp) == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}
	if err := e.otpLimiter.check(ctx); err != nil {
		e.lockedOut(ctx, methodRegistration, err)
		return nil, err
	}

	start := e.now()
	tok, err := e.client.VerifyRegistrationOTP(ctx, email, otp)
	e.observe(start)
	if err != nil {
		err = e.otpRejected(ctx, err)
		e.metricInc(MetricRegistrationFailure)
		e.emitAudit(ctx, auditEventRegistrationFailure, methodRegistration, false, err, nil)
		return nil, err
	}

	s, err := e.establish(ctx, tok.AccessToken, e.config.Login.RememberByDefault)
	if err != nil {
		e.metricInc(MetricRegistrationFailure)
		e.emitAudit(ctx, auditEventRegistrationFailure, methodRegistration, false, err, nil)
		return nil, err
	}

	e.otpLimiter.succeed(ctx)
	e.challenges.Delete(email)
	e.metricInc(MetricRegistrationSuccess)
	e.emitAudit(ctx, auditEventRegistrationSuccess, methodRegistration, true, nil, nil)
	return s, nil
}
