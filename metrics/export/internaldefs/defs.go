package internaldefs

import (
	"github.com/ispops/erpauth"
)

// CounterDef names one Engine counter for exporters.
type CounterDef struct {
	ID   erpauth.MetricID
	Name string
	Help string
}

// HistogramDef names one Engine histogram for exporters.
type HistogramDef struct {
	ID   erpauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: erpauth.MetricLoginSuccess, Name: "erpauth_login_success_total", Help: "Sign-ins that established a session."},
	{ID: erpauth.MetricLoginFailure, Name: "erpauth_login_failure_total", Help: "Rejected password-stage sign-ins."},
	{ID: erpauth.MetricLoginLockedOut, Name: "erpauth_login_locked_out_total", Help: "Attempts refused by the local lockout."},
	{ID: erpauth.MetricPasswordVerified, Name: "erpauth_password_verified_total", Help: "Password stages accepted by the backend."},
	{ID: erpauth.MetricOTPRequested, Name: "erpauth_otp_requested_total", Help: "Second-factor codes requested."},
	{ID: erpauth.MetricOTPFailure, Name: "erpauth_otp_failure_total", Help: "Rejected one-time codes."},
	{ID: erpauth.MetricPasswordlessRequested, Name: "erpauth_passwordless_requested_total", Help: "Passwordless codes requested."},
	{ID: erpauth.MetricMagicLinkSuccess, Name: "erpauth_magic_link_success_total", Help: "Magic links redeemed."},
	{ID: erpauth.MetricMagicLinkFailure, Name: "erpauth_magic_link_failure_total", Help: "Magic links rejected."},
	{ID: erpauth.MetricRegistrationRequested, Name: "erpauth_registration_requested_total", Help: "Registration codes requested."},
	{ID: erpauth.MetricRegistrationSuccess, Name: "erpauth_registration_success_total", Help: "Accounts activated by registration."},
	{ID: erpauth.MetricRegistrationFailure, Name: "erpauth_registration_failure_total", Help: "Failed registration steps."},
	{ID: erpauth.MetricPasswordResetRequested, Name: "erpauth_password_reset_requested_total", Help: "Password reset codes requested."},
	{ID: erpauth.MetricPasswordResetSuccess, Name: "erpauth_password_reset_success_total", Help: "Passwords reset with a code."},
	{ID: erpauth.MetricPasswordResetFailure, Name: "erpauth_password_reset_failure_total", Help: "Failed password resets."},
	{ID: erpauth.MetricPasswordChangeSuccess, Name: "erpauth_password_change_success_total", Help: "Passwords set or changed while signed in."},
	{ID: erpauth.MetricPasswordChangeFailure, Name: "erpauth_password_change_failure_total", Help: "Failed password set or change calls."},
	{ID: erpauth.MetricProfileUpdated, Name: "erpauth_profile_updated_total", Help: "Profile updates."},
	{ID: erpauth.MetricSessionCreated, Name: "erpauth_session_created_total", Help: "Sessions installed after a token was issued or restored."},
	{ID: erpauth.MetricSessionRefreshed, Name: "erpauth_session_refreshed_total", Help: "User and permission refetches."},
	{ID: erpauth.MetricSessionRefreshFailure, Name: "erpauth_session_refresh_failure_total", Help: "Failed user and permission refetches."},
	{ID: erpauth.MetricForcedLogout, Name: "erpauth_forced_logout_total", Help: "Sessions cleared because the backend rejected the token."},
	{ID: erpauth.MetricLogout, Name: "erpauth_logout_total", Help: "Explicit logouts."},
	{ID: erpauth.MetricTokenRefreshSuccess, Name: "erpauth_token_refresh_success_total", Help: "Bearer tokens exchanged for fresh ones."},
	{ID: erpauth.MetricTokenRefreshFailure, Name: "erpauth_token_refresh_failure_total", Help: "Failed bearer token refreshes."},
	{ID: erpauth.MetricPermissionGranted, Name: "erpauth_permission_granted_total", Help: "Local permission checks that passed."},
	{ID: erpauth.MetricPermissionDenied, Name: "erpauth_permission_denied_total", Help: "Local permission checks that failed."},
	{ID: erpauth.MetricRemoteCheck, Name: "erpauth_remote_check_total", Help: "Permission checks delegated to the backend."},
}

var HistogramDefs = []HistogramDef{
	{ID: erpauth.MetricRequestLatency, Name: "erpauth_request_latency_seconds", Help: "Backend round-trip latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// Engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
