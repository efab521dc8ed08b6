package flows

import (
	"context"
	"sync"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/session"
)

// LoginEngine is the part of erpauth.Engine the standard login needs.
type LoginEngine interface {
	Login(ctx context.Context, email, password string) (*erpauth.LoginResult, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string, rememberMe bool) (*session.Session, error)
}

// LoginStep is a screen of the standard login.
type LoginStep uint8

const (
	LoginPassword LoginStep = iota
	LoginOTP
	LoginDone
)

func (s LoginStep) String() string {
	switch s {
	case LoginPassword:
		return "password"
	case LoginOTP:
		return "otp"
	case LoginDone:
		return "done"
	default:
		return "unknown"
	}
}

var (
	loginForward = map[LoginStep][]LoginStep{
		LoginPassword: {LoginOTP, LoginDone},
		LoginOTP:      {LoginDone},
	}
	loginBack = map[LoginStep]LoginStep{
		LoginOTP: LoginPassword,
	}
)

// LoginFlow is password, then emailed code, then done. A backend that skips
// the second factor (and an Engine configured to allow it) goes straight to
// done.
type LoginFlow struct {
	machine[LoginStep]
	engine LoginEngine

	fmu     sync.Mutex
	email   string
	message string
	session *session.Session
}

// NewLoginFlow starts a login at the password step.
func NewLoginFlow(engine LoginEngine) *LoginFlow {
	f := &LoginFlow{engine: engine}
	f.init(LoginPassword, LoginDone, loginForward, loginBack)
	return f
}

// SubmitPassword checks the password and, when a second factor is required,
// asks the backend to send the code.
func (f *LoginFlow) SubmitPassword(ctx context.Context, email, password string) error {
	return f.run(LoginPassword, func() (LoginStep, error) {
		res, err := f.engine.Login(ctx, email, password)
		if err != nil {
			return LoginPassword, err
		}
		f.setEmail(email)
		if res.Stage == erpauth.StageAuthenticated {
			f.finish(res.Session, res.Message)
			return LoginDone, nil
		}
		if err := f.engine.RequestOTP(ctx, email); err != nil {
			return LoginPassword, err
		}
		f.setMessage(res.Message)
		return LoginOTP, nil
	})
}

// ResendOTP sends another code.
func (f *LoginFlow) ResendOTP(ctx context.Context) error {
	return f.run(LoginOTP, func() (LoginStep, error) {
		return LoginOTP, f.engine.RequestOTP(ctx, f.Email())
	})
}

// SubmitOTP completes the login.
func (f *LoginFlow) SubmitOTP(ctx context.Context, otp string, rememberMe bool) error {
	return f.run(LoginOTP, func() (LoginStep, error) {
		s, err := f.engine.VerifyOTP(ctx, f.Email(), otp, rememberMe)
		if err != nil {
			return LoginOTP, err
		}
		f.finish(s, "")
		return LoginDone, nil
	})
}

// Email is the address submitted with the password.
func (f *LoginFlow) Email() string {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.email
}

// Message is the backend's last informational message.
func (f *LoginFlow) Message() string {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.message
}

// Session is set once the flow is done.
func (f *LoginFlow) Session() *session.Session {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.session
}

// Reset clears the form and returns to the password step.
func (f *LoginFlow) Reset() {
	f.reset()
	f.fmu.Lock()
	f.email, f.message, f.session = "", "", nil
	f.fmu.Unlock()
}

func (f *LoginFlow) setEmail(email string) {
	f.fmu.Lock()
	f.email = email
	f.fmu.Unlock()
}

func (f *LoginFlow) setMessage(msg string) {
	f.fmu.Lock()
	f.message = msg
	f.fmu.Unlock()
}

func (f *LoginFlow) finish(s *session.Session, msg string) {
	f.fmu.Lock()
	f.session = s
	if msg != "" {
		f.message = msg
	}
	f.fmu.Unlock()
}
