package transport

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Token is the backend's bearer token response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginResponse is the password stage result. Backends with the second
// factor enabled answer with Status only; others may issue a token directly.
type LoginResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Token
}

// Registration is the payload that starts OTP registration.
type Registration struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Login submits the password stage.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out LoginResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   c.endpoints.Login,
		form:   form,
		kind:   credPassword,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestOTP asks the backend to send the second-factor code.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	form := url.Values{}
	form.Set("email", email)

	return c.do(ctx, call{
		op:     "request otp",
		method: http.MethodPost,
		path:   c.endpoints.OTPRequest,
		form:   form,
		kind:   credPassword,
	})
}

// VerifyOTP exchanges the second-factor code for a token. rememberMe is
// forwarded so the backend can issue a longer-lived token.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string, rememberMe bool) (*Token, error) {
	q := emailOTP(email, otp)
	q.Set("remember_me", strconv.FormatBool(rememberMe))
	return c.tokenCall(ctx, "verify otp", c.endpoints.OTPVerify, q, credOTP)
}

// RequestPasswordless sends a passwordless code and magic link.
func (c *Client) RequestPasswordless(ctx context.Context, email string) error {
	return c.do(ctx, call{
		op:     "request passwordless",
		method: http.MethodPost,
		path:   c.endpoints.PasswordlessRequest,
		query:  url.Values{"email": {email}},
	})
}

// VerifyPasswordlessOTP exchanges a passwordless code for a token.
func (c *Client) VerifyPasswordlessOTP(ctx context.Context, email, otp string) (*Token, error) {
	return c.tokenCall(ctx, "verify passwordless otp", c.endpoints.PasswordlessVerify, emailOTP(email, otp), credOTP)
}

// VerifyMagicLink exchanges a magic-link token for a bearer token.
func (c *Client) VerifyMagicLink(ctx context.Context, linkToken string) (*Token, error) {
	var out Token
	err := c.do(ctx, call{
		op:     "verify magic link",
		method: http.MethodGet,
		path:   c.endpoints.MagicLink,
		query:  url.Values{"token": {linkToken}},
		kind:   credLink,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestRegistrationOTP starts registration. The backend treats repeats for
// the same email as a resend.
func (c *Client) RequestRegistrationOTP(ctx context.Context, reg Registration) error {
	return c.do(ctx, call{
		op:     "request registration otp",
		method: http.MethodPost,
		path:   c.endpoints.RegisterOTP,
		body:   reg,
	})
}

// VerifyRegistrationOTP activates the account and returns a token.
func (c *Client) VerifyRegistrationOTP(ctx context.Context, email, otp string) (*Token, error) {
	return c.tokenCall(ctx, "verify registration otp", c.endpoints.RegisterVerify, emailOTP(email, otp), credOTP)
}

// RequestPasswordReset sends a reset code.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, call{
		op:     "request password reset",
		method: http.MethodPost,
		path:   c.endpoints.ResetRequest,
		query:  url.Values{"email": {email}},
	})
}

// ConfirmPasswordReset sets a new password using a reset code.
func (c *Client) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword string) error {
	return c.do(ctx, call{
		op:     "confirm password reset",
		method: http.MethodPost,
		path:   c.endpoints.ResetConfirm,
		body: map[string]string{
			"email":        email,
			"otp":          otp,
			"new_password": newPassword,
		},
		kind: credOTP,
	})
}

// SetPassword sets a first password for a passwordless account.
func (c *Client) SetPassword(ctx context.Context, bearer, newPassword, confirm string) error {
	return c.do(ctx, call{
		op:     "set password",
		method: http.MethodPost,
		path:   c.endpoints.SetPassword,
		body: map[string]string{
			"new_password":     newPassword,
			"confirm_password": confirm,
		},
		bearer: bearer,
	})
}

// ChangePassword replaces the password after checking the current one.
func (c *Client) ChangePassword(ctx context.Context, bearer, current, newPassword string) error {
	return c.do(ctx, call{
		op:     "change password",
		method: http.MethodPost,
		path:   c.endpoints.ChangePassword,
		body: map[string]string{
			"current_password": current,
			"new_password":     newPassword,
		},
		bearer: bearer,
	})
}

// Refresh exchanges a live bearer token for a fresh one.
func (c *Client) Refresh(ctx context.Context, bearer string) (*Token, error) {
	var out Token
	err := c.do(ctx, call{
		op:     "refresh",
		method: http.MethodPost,
		path:   c.endpoints.Refresh,
		bearer: bearer,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes bearer on the backend.
func (c *Client) Logout(ctx context.Context, bearer string) error {
	return c.do(ctx, call{
		op:     "logout",
		method: http.MethodPost,
		path:   c.endpoints.Logout,
		bearer: bearer,
	})
}

func (c *Client) tokenCall(ctx context.Context, op, path string, q url.Values, kind credKind) (*Token, error) {
	var out Token
	err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   path,
		query:  q,
		kind:   kind,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func emailOTP(email, otp string) url.Values {
	return url.Values{"email": {email}, "otp": {otp}}
}
