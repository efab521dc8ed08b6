package flows

import (
	"context"
	"sync"

	"github.com/ispops/erpauth/session"
)

// RegistrationEngine is the part of erpauth.Engine self-registration needs.
type RegistrationEngine interface {
	RequestRegistrationOTP(ctx context.Context, email, fullName, phone string) error
	VerifyRegistrationOTP(ctx context.Context, email, otp string) (*session.Session, error)
}

// RegistrationStep is a screen of self-registration.
type RegistrationStep uint8

const (
	RegistrationDetails RegistrationStep = iota
	RegistrationOTP
	RegistrationDone
)

func (s RegistrationStep) String() string {
	switch s {
	case RegistrationDetails:
		return "details"
	case RegistrationOTP:
		return "otp"
	case RegistrationDone:
		return "done"
	default:
		return "unknown"
	}
}

var (
	registrationForward = map[RegistrationStep][]RegistrationStep{
		RegistrationDetails: {RegistrationOTP},
		RegistrationOTP:     {RegistrationDone},
	}
	registrationBack = map[RegistrationStep]RegistrationStep{
		RegistrationOTP: RegistrationDetails,
	}
)

// RegistrationDetailsForm is the data entered on the first screen.
type RegistrationDetailsForm struct {
	Email    string
	FullName string
	Phone    string
}

// RegistrationFlow collects account details, then activates the account with
// the emailed code. The new user is signed in but usually holds no
// permissions until an administrator approves them.
type RegistrationFlow struct {
	machine[RegistrationStep]
	engine RegistrationEngine

	fmu     sync.Mutex
	form    RegistrationDetailsForm
	session *session.Session
}

func NewRegistrationFlow(engine RegistrationEngine) *RegistrationFlow {
	f := &RegistrationFlow{engine: engine}
	f.init(RegistrationDetails, RegistrationDone, registrationForward, registrationBack)
	return f
}

// SubmitDetails requests the activation code.
func (f *RegistrationFlow) SubmitDetails(ctx context.Context, form RegistrationDetailsForm) error {
	return f.run(RegistrationDetails, func() (RegistrationStep, error) {
		if err := f.engine.RequestRegistrationOTP(ctx, form.Email, form.FullName, form.Phone); err != nil {
			return RegistrationDetails, err
		}
		f.fmu.Lock()
		f.form = form
		f.fmu.Unlock()
		return RegistrationOTP, nil
	})
}

// Resend requests another activation code for the same details.
func (f *RegistrationFlow) Resend(ctx context.Context) error {
	return f.run(RegistrationOTP, func() (RegistrationStep, error) {
		form := f.Form()
		return RegistrationOTP, f.engine.RequestRegistrationOTP(ctx, form.Email, form.FullName, form.Phone)
	})
}

// SubmitOTP activates the account.
func (f *RegistrationFlow) SubmitOTP(ctx context.Context, otp string) error {
	return f.run(RegistrationOTP, func() (RegistrationStep, error) {
		s, err := f.engine.VerifyRegistrationOTP(ctx, f.Form().Email, otp)
		if err != nil {
			return RegistrationOTP, err
		}
		f.fmu.Lock()
		f.session = s
		f.fmu.Unlock()
		return RegistrationDone, nil
	})
}

// Form returns the details submitted so far.
func (f *RegistrationFlow) Form() RegistrationDetailsForm {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.form
}

func (f *RegistrationFlow) Session() *session.Session {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.session
}

func (f *RegistrationFlow) Reset() {
	f.reset()
	f.fmu.Lock()
	f.form, f.session = RegistrationDetailsForm{}, nil
	f.fmu.Unlock()
}
