package transport

// Endpoints holds the request paths, relative to the base URL.
type Endpoints struct {
	Login               string `yaml:"login"`
	OTPRequest          string `yaml:"otp_request"`
	OTPVerify           string `yaml:"otp_verify"`
	PasswordlessRequest string `yaml:"passwordless_request"`
	PasswordlessVerify  string `yaml:"passwordless_verify"`
	MagicLink           string `yaml:"magic_link"`
	RegisterOTP         string `yaml:"register_otp"`
	RegisterVerify      string `yaml:"register_verify"`
	ResetRequest        string `yaml:"reset_request"`
	ResetConfirm        string `yaml:"reset_confirm"`
	SetPassword         string `yaml:"set_password"`
	ChangePassword      string `yaml:"change_password"`
	Refresh             string `yaml:"refresh"`
	Logout              string `yaml:"logout"`
	Profile             string `yaml:"profile"`
	Me                  string `yaml:"me"`
	UpdateProfile       string `yaml:"update_profile"`
	LegacyPermissions   string `yaml:"legacy_permissions"`
	Roles               string `yaml:"roles"`
	Check               string `yaml:"check"`
	CheckBatch          string `yaml:"check_batch"`
}

// DefaultEndpoints returns the ERP backend's v1 paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:               "/api/v1/auth/login",
		OTPRequest:          "/api/v1/auth/otp/request",
		OTPVerify:           "/api/v1/auth/otp/login",
		PasswordlessRequest: "/api/v1/auth/passwordless/request",
		PasswordlessVerify:  "/api/v1/auth/passwordless/verify-otp",
		MagicLink:           "/api/v1/auth/passwordless/verify",
		RegisterOTP:         "/api/v1/auth/register/otp",
		RegisterVerify:      "/api/v1/auth/register/verify",
		ResetRequest:        "/api/v1/auth/password-reset/request",
		ResetConfirm:        "/api/v1/auth/password-reset/confirm",
		SetPassword:         "/api/v1/auth/set-password",
		ChangePassword:      "/api/v1/auth/change-password",
		Refresh:             "/api/v1/auth/refresh/",
		Logout:              "/api/v1/auth/logout",
		Profile:             "/api/v1/auth/profile",
		Me:                  "/api/v1/users/me/",
		UpdateProfile:       "/api/v1/users/me",
		LegacyPermissions:   "/api/v1/permissions/my-permissions",
		Roles:               "/api/v1/permissions/roles",
		Check:               "/api/v1/rbac/check",
		CheckBatch:          "/api/v1/rbac/check-batch",
	}
}

// withDefaults fills empty paths from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&e.Login, d.Login)
	fill(&e.OTPRequest, d.OTPRequest)
	fill(&e.OTPVerify, d.OTPVerify)
	fill(&e.PasswordlessRequest, d.PasswordlessRequest)
	fill(&e.PasswordlessVerify, d.PasswordlessVerify)
	fill(&e.MagicLink, d.MagicLink)
	fill(&e.RegisterOTP, d.RegisterOTP)
	fill(&e.RegisterVerify, d.RegisterVerify)
	fill(&e.ResetRequest, d.ResetRequest)
	fill(&e.ResetConfirm, d.ResetConfirm)
	fill(&e.SetPassword, d.SetPassword)
	fill(&e.ChangePassword, d.ChangePassword)
	fill(&e.Refresh, d.Refresh)
	fill(&e.Logout, d.Logout)
	fill(&e.Profile, d.Profile)
	fill(&e.Me, d.Me)
	fill(&e.UpdateProfile, d.UpdateProfile)
	fill(&e.LegacyPermissions, d.LegacyPermissions)
	fill(&e.Roles, d.Roles)
	fill(&e.Check, d.Check)
	fill(&e.CheckBatch, d.CheckBatch)
	return e
}
