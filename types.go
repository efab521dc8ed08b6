package erpauth

import (
	"time"

	"github.com/ispops/erpauth/session"
	"github.com/ispops/erpauth/transport"
)

// LoginStage is where the standard login stands after the password step.
type LoginStage uint8

const (
	// StageOTPRequired means the password was accepted and the second
	// factor must follow.
	StageOTPRequired LoginStage = iota + 1
	// StageAuthenticated means a session was established.
	StageAuthenticated
)

func (s LoginStage) String() string {
	switch s {
	case StageOTPRequired:
		return "otp_required"
	case StageAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// LoginResult is returned by Engine.Login.
type LoginResult struct {
	Stage LoginStage
	// Message is the backend's acknowledgement text, if any.
	Message string
	// Session is set when Stage is StageAuthenticated.
	Session *session.Session
}

// TokenInfo describes the stored bearer token.
type TokenInfo struct {
	Present      bool
	Remembered   bool
	Valid        bool
	Subject      string
	ExpiresAt    time.Time
	ExpiresIn    time.Duration
	ExpiringSoon bool
}

// ProfileUpdate is a partial update of the current user.
type ProfileUpdate = transport.ProfileUpdate

// MonitorOptions configures Engine.Monitor. Zero durations fall back to
// Config.Monitor.
type MonitorOptions struct {
	Interval      time.Duration
	WarnBefore    time.Duration
	RefreshBefore time.Duration

	// OnWarning fires once per token when it enters the warning window.
	OnWarning func(TokenInfo)
	// OnRefreshed fires after a successful automatic refresh.
	OnRefreshed func(TokenInfo)
	// OnExpired fires when the token expired or could not be refreshed,
	// after the Engine logged out.
	OnExpired func(error)
}
