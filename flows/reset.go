package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/password"
)

// PasswordResetEngine is the part of erpauth.Engine password reset needs.
type PasswordResetEngine interface {
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// PasswordResetStep is a screen of the password reset.
type PasswordResetStep uint8

const (
	ResetIdentity PasswordResetStep = iota
	ResetRequest
	ResetCode
	ResetNewPassword
	ResetDone
)

func (s PasswordResetStep) String() string {
	switch s {
	case ResetIdentity:
		return "identity"
	case ResetRequest:
		return "request"
	case ResetCode:
		return "code"
	case ResetNewPassword:
		return "new password"
	case ResetDone:
		return "done"
	default:
		return "unknown"
	}
}

var (
	resetForward = map[PasswordResetStep][]PasswordResetStep{
		ResetIdentity:    {ResetRequest},
		ResetRequest:     {ResetCode},
		ResetCode:        {ResetNewPassword},
		ResetNewPassword: {ResetDone, ResetCode},
	}
	resetBack = map[PasswordResetStep]PasswordResetStep{
		ResetRequest:     ResetIdentity,
		ResetCode:        ResetRequest,
		ResetNewPassword: ResetCode,
	}
)

// PasswordResetFlow confirms the account email, sends a reset code, collects
// the code and the new password, then submits both together. It never signs
// the user in.
type PasswordResetFlow struct {
	machine[PasswordResetStep]
	engine PasswordResetEngine

	fmu   sync.Mutex
	email string
	code  string
}

func NewPasswordResetFlow(engine PasswordResetEngine) *PasswordResetFlow {
	f := &PasswordResetFlow{engine: engine}
	f.init(ResetIdentity, ResetDone, resetForward, resetBack)
	return f
}

// SubmitIdentity records the account email.
func (f *PasswordResetFlow) SubmitIdentity(email string) error {
	return f.run(ResetIdentity, func() (PasswordResetStep, error) {
		email = strings.TrimSpace(email)
		if email == "" {
			return ResetIdentity, fmt.Errorf("%w: email is required", erpauth.ErrValidation)
		}
		f.fmu.Lock()
		f.email = email
		f.fmu.Unlock()
		return ResetRequest, nil
	})
}

// RequestCode sends the reset code.
func (f *PasswordResetFlow) RequestCode(ctx context.Context) error {
	return f.run(ResetRequest, func() (PasswordResetStep, error) {
		if err := f.engine.RequestPasswordReset(ctx, f.Email()); err != nil {
			return ResetRequest, err
		}
		return ResetCode, nil
	})
}

// SubmitCode records the emailed code. The backend checks it together with
// the new password.
func (f *PasswordResetFlow) SubmitCode(code string) error {
	return f.run(ResetCode, func() (PasswordResetStep, error) {
		code = strings.TrimSpace(code)
		if code == "" {
			return ResetCode, fmt.Errorf("%w: code is required", erpauth.ErrValidation)
		}
		f.fmu.Lock()
		f.code = code
		f.fmu.Unlock()
		return ResetNewPassword, nil
	})
}

// SubmitNewPassword sets the password. A rejected code sends the flow back
// to the code step.
func (f *PasswordResetFlow) SubmitNewPassword(ctx context.Context, newPassword, confirm string) error {
	return f.run(ResetNewPassword, func() (PasswordResetStep, error) {
		if err := password.ValidateNew(newPassword, confirm); err != nil {
			return ResetNewPassword, err
		}
		f.fmu.Lock()
		email, code := f.email, f.code
		f.fmu.Unlock()

		err := f.engine.ResetPassword(ctx, email, code, newPassword)
		if errors.Is(err, erpauth.ErrInvalidOTP) {
			return ResetCode, err
		}
		if err != nil {
			return ResetNewPassword, err
		}
		return ResetDone, nil
	})
}

func (f *PasswordResetFlow) Email() string {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.email
}

func (f *PasswordResetFlow) Reset() {
	f.reset()
	f.fmu.Lock()
	f.email, f.code = "", ""
	f.fmu.Unlock()
}
