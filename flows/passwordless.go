package flows

import (
	"context"
	"sync"

	"github.com/ispops/erpauth/session"
)

// PasswordlessEngine is the part of erpauth.Engine passwordless sign-in needs.
type PasswordlessEngine interface {
	RequestPasswordlessLogin(ctx context.Context, email string) error
	VerifyPasswordlessOTP(ctx context.Context, email, otp string) (*session.Session, error)
}

// PasswordlessStep is a screen of the passwordless sign-in.
type PasswordlessStep uint8

const (
	PasswordlessEmail PasswordlessStep = iota
	PasswordlessCode
	PasswordlessDone
)

func (s PasswordlessStep) String() string {
	switch s {
	case PasswordlessEmail:
		return "email"
	case PasswordlessCode:
		return "code"
	case PasswordlessDone:
		return "done"
	default:
		return "unknown"
	}
}

var (
	passwordlessForward = map[PasswordlessStep][]PasswordlessStep{
		PasswordlessEmail: {PasswordlessCode},
		PasswordlessCode:  {PasswordlessDone},
	}
	passwordlessBack = map[PasswordlessStep]PasswordlessStep{
		PasswordlessCode: PasswordlessEmail,
	}
)

// PasswordlessFlow requests a code (and magic link) by email, then verifies
// the code.
type PasswordlessFlow struct {
	machine[PasswordlessStep]
	engine PasswordlessEngine

	fmu     sync.Mutex
	email   string
	session *session.Session
}

func NewPasswordlessFlow(engine PasswordlessEngine) *PasswordlessFlow {
	f := &PasswordlessFlow{engine: engine}
	f.init(PasswordlessEmail, PasswordlessDone, passwordlessForward, passwordlessBack)
	return f
}

// Request sends the code to email.
func (f *PasswordlessFlow) Request(ctx context.Context, email string) error {
	return f.run(PasswordlessEmail, func() (PasswordlessStep, error) {
		if err := f.engine.RequestPasswordlessLogin(ctx, email); err != nil {
			return PasswordlessEmail, err
		}
		f.fmu.Lock()
		f.email = email
		f.fmu.Unlock()
		return PasswordlessCode, nil
	})
}

// Resend sends a fresh code to the same address.
func (f *PasswordlessFlow) Resend(ctx context.Context) error {
	return f.run(PasswordlessCode, func() (PasswordlessStep, error) {
		return PasswordlessCode, f.engine.RequestPasswordlessLogin(ctx, f.Email())
	})
}

// Verify signs in with the emailed code.
func (f *PasswordlessFlow) Verify(ctx context.Context, otp string) error {
	return f.run(PasswordlessCode, func() (PasswordlessStep, error) {
		s, err := f.engine.VerifyPasswordlessOTP(ctx, f.Email(), otp)
		if err != nil {
			return PasswordlessCode, err
		}
		f.fmu.Lock()
		f.session = s
		f.fmu.Unlock()
		return PasswordlessDone, nil
	})
}

func (f *PasswordlessFlow) Email() string {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.email
}

func (f *PasswordlessFlow) Session() *session.Session {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.session
}

// Reset clears the form and returns to the email step.
func (f *PasswordlessFlow) Reset() {
	f.reset()
	f.fmu.Lock()
	f.email, f.session = "", nil
	f.fmu.Unlock()
}
