package erpauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ispops/erpauth/session"
	"github.com/ispops/erpauth/transport"
	"go.uber.org/zap"
)

const (
	methodPassword     = "password"
	methodOTP          = "otp"
	methodPasswordless = "passwordless"
	methodMagicLink    = "magic_link"
	methodRegistration = "registration"
)

// Login submits the password stage. Success never authenticates on its own:
// it records that the password was accepted and returns StageOTPRequired.
// A token issued at this stage is ignored unless
// Config.Login.AllowSingleFactor is set.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if err := e.passwordLimiter.check(ctx); err != nil {
		e.lockedOut(ctx, methodPassword, err)
		return nil, err
	}

	start := e.now()
	resp, err := e.client.Login(ctx, email, password)
	e.observe(start)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			err = e.passwordLimiter.fail(ctx, err)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, methodPassword, false, err, nil)
		return nil, err
	}

	if resp.AccessToken != "" && e.config.Login.AllowSingleFactor {
		s, err := e.establish(ctx, resp.AccessToken, false)
		if err != nil {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, methodPassword, false, err, nil)
			return nil, err
		}
		e.passwordLimiter.succeed(ctx)
		e.otpLimiter.succeed(ctx)
		e.challenges.Delete(email)
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, methodPassword, true, nil, nil)
		return &LoginResult{Stage: StageAuthenticated, Message: resp.Message, Session: s}, nil
	}
	if resp.AccessToken != "" {
		e.logger.Debug("ignoring token issued by the password stage")
	}

	e.challenges.Save(email, challengeStandard, phasePasswordVerified)
	e.metricInc(MetricPasswordVerified)
	e.emitAudit(ctx, auditEventPasswordVerified, methodPassword, true, nil, nil)
	return &LoginResult{Stage: StageOTPRequired, Message: resp.Message}, nil
}

// RequestOTP asks the backend to send the second-factor code. It requires
// an accepted password for email and may be repeated to resend.
func (e *Engine) RequestOTP(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if _, err := e.challenges.Require(email, challengeStandard, phasePasswordVerified, phaseOTPRequested); err != nil {
		return invalidState("request otp", err)
	}

	start := e.now()
	err := e.client.RequestOTP(ctx, email)
	e.observe(start)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPRequested, methodOTP, false, err, nil)
		return err
	}

	e.challenges.Advance(email, phaseOTPRequested)
	e.metricInc(MetricOTPRequested)
	e.emitAudit(ctx, auditEventOTPRequested, methodOTP, true, nil, nil)
	return nil
}

// VerifyOTP completes the standard login. On success the token is stored
// (durably when rememberMe is set) and the session is built. A rejected code
// leaves the protocol at the OTP step.
func (e *Engine) VerifyOTP(ctx context.Context, email, otp string, rememberMe bool) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ctx, _ = withRequestID(ctx)

	if _, err := e.challenges.Require(email, challengeStandard, phaseOTPRequested); err != nil {
		return nil, invalidState("verify otp", err)
	}
	if strings.TrimSpace(otp) == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}
	if err := e.otpLimiter.check(ctx); err != nil {
		e.lockedOut(ctx, methodOTP, err)
		return nil, err
	}

	start := e.now()
	tok, err := e.client.VerifyOTP(ctx, email, otp, rememberMe)
	e.observe(start)
	if err != nil {
		return nil, e.otpFailure(ctx, methodOTP, err)
	}

	s, err := e.establish(ctx, tok.AccessToken, rememberMe)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, methodOTP, false, err, nil)
		return nil, err
	}

	e.passwordLimiter.succeed(ctx)
	e.otpLimiter.succeed(ctx)
	e.challenges.Delete(email)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, methodOTP, true, nil, func() map[string]string {
		return map[string]string{"remember_me": fmt.Sprint(rememberMe)}
	})
	return s, nil
}

func (e *Engine) otpFailure(ctx context.Context, method string, err error) error {
	err = e.otpRejected(ctx, err)
	e.metricInc(MetricOTPFailure)
	e.emitAudit(ctx, auditEventOTPFailure, method, false, err, nil)
	return err
}

// otpRejected counts a rejected code against the OTP limiter. Other errors
// pass through untouched.
func (e *Engine) otpRejected(ctx context.Context, err error) error {
	if errors.Is(err, ErrInvalidOTP) {
		return e.otpLimiter.fail(ctx, err)
	}
	return err
}

func (e *Engine) lockedOut(ctx context.Context, method string, err error) {
	e.metricInc(MetricLoginLockedOut)
	e.emitAudit(ctx, auditEventLockedOut, method, false, err, nil)
	reqID, _ := transport.RequestIDFromContext(ctx)
	e.logger.Info("attempt refused by local limiter",
		zap.String("op", method),
		zap.String("request_id", reqID),
	)
}

func invalidState(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidState, op, cause)
}
