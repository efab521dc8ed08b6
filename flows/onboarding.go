package flows

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/password"
	"github.com/ispops/erpauth/session"
)

// OnboardingEngine is the part of erpauth.Engine new-user onboarding needs.
type OnboardingEngine interface {
	RegistrationEngine
	SetPassword(ctx context.Context, newPassword, confirm string) error
	ListRoles(ctx context.Context) ([]session.Role, error)
	UpdateProfile(ctx context.Context, upd erpauth.ProfileUpdate) (*session.User, error)
}

// OnboardingStep is a screen of new-user onboarding.
type OnboardingStep uint8

const (
	OnboardingDetails OnboardingStep = iota
	OnboardingOTP
	OnboardingPassword
	OnboardingProfile
	OnboardingPending
)

func (s OnboardingStep) String() string {
	switch s {
	case OnboardingDetails:
		return "details"
	case OnboardingOTP:
		return "otp"
	case OnboardingPassword:
		return "password"
	case OnboardingProfile:
		return "profile"
	case OnboardingPending:
		return "pending approval"
	default:
		return "unknown"
	}
}

var (
	onboardingForward = map[OnboardingStep][]OnboardingStep{
		OnboardingDetails:  {OnboardingOTP},
		OnboardingOTP:      {OnboardingPassword},
		OnboardingPassword: {OnboardingProfile},
		OnboardingProfile:  {OnboardingPending},
	}
	onboardingBack = map[OnboardingStep]OnboardingStep{
		OnboardingOTP:     OnboardingDetails,
		OnboardingProfile: OnboardingPassword,
	}
	onboardingProgress = map[OnboardingStep]int{
		OnboardingDetails:  0,
		OnboardingOTP:      25,
		OnboardingPassword: 50,
		OnboardingProfile:  75,
		OnboardingPending:  100,
	}
)

// OnboardingForm is the organisational data a new user submits for approval.
type OnboardingForm struct {
	DepartmentID  *int64
	Department    string
	RequestedRole string
	Phone         string
}

// OnboardingFlow registers a user with an emailed code, lets them choose a
// password, collects the department and requested role, and ends waiting for
// an administrator's approval.
type OnboardingFlow struct {
	machine[OnboardingStep]
	engine OnboardingEngine

	fmu     sync.Mutex
	details RegistrationDetailsForm
	profile OnboardingForm
	user    *session.User
}

func NewOnboardingFlow(engine OnboardingEngine) *OnboardingFlow {
	f := &OnboardingFlow{engine: engine}
	f.init(OnboardingDetails, OnboardingPending, onboardingForward, onboardingBack)
	return f
}

// SubmitDetails requests the registration code.
func (f *OnboardingFlow) SubmitDetails(ctx context.Context, form RegistrationDetailsForm) error {
	return f.run(OnboardingDetails, func() (OnboardingStep, error) {
		if err := f.engine.RequestRegistrationOTP(ctx, form.Email, form.FullName, form.Phone); err != nil {
			return OnboardingDetails, err
		}
		f.fmu.Lock()
		f.details = form
		f.fmu.Unlock()
		return OnboardingOTP, nil
	})
}

// SubmitOTP activates the account and signs the user in.
func (f *OnboardingFlow) SubmitOTP(ctx context.Context, otp string) error {
	return f.run(OnboardingOTP, func() (OnboardingStep, error) {
		s, err := f.engine.VerifyRegistrationOTP(ctx, f.Details().Email, otp)
		if err != nil {
			return OnboardingOTP, err
		}
		f.setUser(&s.User)
		return OnboardingPassword, nil
	})
}

// SetPassword enables password sign-in for the new account.
func (f *OnboardingFlow) SetPassword(ctx context.Context, newPassword, confirm string) error {
	return f.run(OnboardingPassword, func() (OnboardingStep, error) {
		if err := password.ValidateNew(newPassword, confirm); err != nil {
			return OnboardingPassword, err
		}
		if err := f.engine.SetPassword(ctx, newPassword, confirm); err != nil {
			return OnboardingPassword, err
		}
		return OnboardingProfile, nil
	})
}

// SkipPassword keeps the account passwordless.
func (f *OnboardingFlow) SkipPassword() error {
	return f.run(OnboardingPassword, func() (OnboardingStep, error) {
		return OnboardingProfile, nil
	})
}

// Roles lists the roles the user may request. It does not change the step.
func (f *OnboardingFlow) Roles(ctx context.Context) ([]session.Role, error) {
	return f.engine.ListRoles(ctx)
}

// SubmitProfile sends the onboarding form and leaves the flow pending
// approval.
func (f *OnboardingFlow) SubmitProfile(ctx context.Context, form OnboardingForm) error {
	return f.run(OnboardingProfile, func() (OnboardingStep, error) {
		if form.DepartmentID == nil && strings.TrimSpace(form.Department) == "" {
			return OnboardingProfile, fmt.Errorf("%w: department is required", erpauth.ErrValidation)
		}
		if strings.TrimSpace(form.RequestedRole) == "" {
			return OnboardingProfile, fmt.Errorf("%w: requested role is required", erpauth.ErrValidation)
		}

		upd := erpauth.ProfileUpdate{
			DepartmentID:  form.DepartmentID,
			Department:    form.Department,
			RequestedRole: form.RequestedRole,
		}
		if form.Phone != "" {
			phone := form.Phone
			upd.PhoneNumber = &phone
		}
		user, err := f.engine.UpdateProfile(ctx, upd)
		if err != nil {
			return OnboardingProfile, err
		}
		f.fmu.Lock()
		f.profile = form
		f.fmu.Unlock()
		f.setUser(user)
		return OnboardingPending, nil
	})
}

// Progress is the share of onboarding completed, in percent.
func (f *OnboardingFlow) Progress() int {
	return onboardingProgress[f.Step()]
}

func (f *OnboardingFlow) Details() RegistrationDetailsForm {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.details
}

// User is the account as last reported by the backend.
func (f *OnboardingFlow) User() *session.User {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.user
}

func (f *OnboardingFlow) Reset() {
	f.reset()
	f.fmu.Lock()
	f.details, f.profile, f.user = RegistrationDetailsForm{}, OnboardingForm{}, nil
	f.fmu.Unlock()
}

func (f *OnboardingFlow) setUser(u *session.User) {
	if u == nil {
		return
	}
	cp := *u
	f.fmu.Lock()
	f.user = &cp
	f.fmu.Unlock()
}
