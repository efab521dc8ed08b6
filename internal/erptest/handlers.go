package erptest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ispops/erpauth/session"
)

func contextWithEmail(r *http.Request, email string) context.Context {
	return context.WithValue(r.Context(), emailContextKey{}, email)
}

func emailFrom(r *http.Request) string {
	email, _ := r.Context().Value(emailContextKey{}).(string)
	return email
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form")
		return
	}
	email := strings.ToLower(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[email]
	if !ok || acc.Password == "" || acc.Password != password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if !acc.User.IsActive {
		writeDetail(w, http.StatusBadRequest, "Inactive user")
		return
	}
	if acc.SingleFactor {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":       "authenticated",
			"access_token": b.issueLocked(email),
			"token_type":   "bearer",
		})
		return
	}
	b.passwordVerified[email] = true
	writeJSON(w, http.StatusOK, map[string]string{"status": "otp_required", "message": "Password verified"})
}

func (b *Backend) requestOTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form")
		return
	}
	email := strings.ToLower(r.PostForm.Get("email"))

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.passwordVerified[email] {
		writeDetail(w, http.StatusUnauthorized, "Password verification required")
		return
	}
	b.otpRequested[email] = true
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (b *Backend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	otp := r.URL.Query().Get("otp")

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.otpRequested[email] || otp != b.OTP {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired OTP")
		return
	}
	delete(b.otpRequested, email)
	delete(b.passwordVerified, email)
	writeJSON(w, http.StatusOK, map[string]string{"access_token": b.issueLocked(email), "token_type": "bearer"})
}

func (b *Backend) requestPasswordless(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))

	b.mu.Lock()
	defer b.mu.Unlock()

	if acc, ok := b.accounts[email]; ok && !acc.User.IsActive {
		writeDetail(w, http.StatusForbidden, "Account is pending approval")
		return
	}
	b.passwordless[email] = true
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the account exists, a code was sent"})
}

func (b *Backend) verifyPasswordless(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	otp := r.URL.Query().Get("otp")

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[email]; !ok || !b.passwordless[email] || otp != b.OTP {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	delete(b.passwordless, email)
	writeJSON(w, http.StatusOK, map[string]string{"access_token": b.issueLocked(email), "token_type": "bearer"})
}

func (b *Backend) verifyMagicLink(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("token")

	b.mu.Lock()
	defer b.mu.Unlock()

	email, ok := b.magicLinks[link]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired magic link")
		return
	}
	delete(b.magicLinks, link)
	writeJSON(w, http.StatusOK, map[string]string{"access_token": b.issueLocked(email), "token_type": "bearer"})
}

func (b *Backend) requestRegistration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		FullName    string `json:"full_name"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeValidation(w, "email is required")
		return
	}
	email := strings.ToLower(body.Email)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[email]; ok {
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	b.pendingReg[email] = session.User{Email: email, FullName: body.FullName, Phone: body.PhoneNumber}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (b *Backend) verifyRegistration(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	otp := r.URL.Query().Get("otp")

	b.mu.Lock()
	defer b.mu.Unlock()

	user, ok := b.pendingReg[email]
	if !ok || otp != b.OTP {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	delete(b.pendingReg, email)
	b.nextID++
	user.ID = b.nextID
	user.IsActive = true
	b.accounts[email] = &Account{User: user}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": b.issueLocked(email), "token_type": "bearer"})
}

func (b *Backend) requestReset(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))

	b.mu.Lock()
	if _, ok := b.accounts[email]; ok {
		b.resets[email] = true
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "If the account exists, a code was sent"})
}

func (b *Backend) confirmReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "malformed body")
		return
	}
	email := strings.ToLower(body.Email)

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[email]
	if !ok || !b.resets[email] || body.OTP != b.OTP {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired reset code")
		return
	}
	delete(b.resets, email)
	acc.Password = body.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (b *Backend) setPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "malformed body")
		return
	}
	if body.NewPassword != body.ConfirmPassword {
		writeValidation(w, "Passwords do not match")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[emailFrom(r)].Password = body.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password set"})
}

func (b *Backend) changePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "malformed body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.accounts[emailFrom(r)]
	if acc.Password != body.CurrentPassword {
		writeDetail(w, http.StatusBadRequest, "Incorrect current password")
		return
	}
	acc.Password = body.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"access_token": b.issueLocked(emailFrom(r)), "token_type": "bearer"})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	b.Revoke(tok)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.accounts[emailFrom(r)]
	perms := make([]map[string]string, 0, len(acc.ProfilePermissions))
	for _, p := range acc.ProfilePermissions {
		perms = append(perms, map[string]string{"name": p})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        acc.User,
		"permissions": perms,
		"roles":       acc.ProfileRoles,
	})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.accounts[emailFrom(r)].User)
}

func (b *Backend) updateMe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName      *string `json:"full_name"`
		PhoneNumber   *string `json:"phone_number"`
		DepartmentID  *int64  `json:"department_id"`
		Department    string  `json:"department"`
		RequestedRole string  `json:"requested_role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "malformed body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.accounts[emailFrom(r)]
	if body.FullName != nil {
		acc.User.FullName = *body.FullName
	}
	if body.PhoneNumber != nil {
		acc.User.Phone = *body.PhoneNumber
	}
	if body.DepartmentID != nil {
		acc.User.DepartmentID = body.DepartmentID
	}
	if body.Department != "" {
		acc.Department = body.Department
	}
	if body.RequestedRole != "" {
		acc.RequestedRole = body.RequestedRole
	}
	writeJSON(w, http.StatusOK, acc.User)
}

func (b *Backend) legacyPermissions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.accounts[emailFrom(r)]
	perms := make([]map[string]string, 0, len(acc.Legacy))
	for _, p := range acc.Legacy {
		perms = append(perms, map[string]string{"codename": p})
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": perms, "count": len(perms)})
}

func (b *Backend) listRoles(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	roles := b.roles
	if roles == nil {
		roles = []session.Role{}
	}
	writeJSON(w, http.StatusOK, roles)
}

func (b *Backend) grants(email, perm string) bool {
	acc := b.accounts[email]
	if acc.User.IsSuperuser {
		return true
	}
	for _, p := range acc.Legacy {
		if p == perm || p == "*" {
			return true
		}
	}
	return false
}

func (b *Backend) check(w http.ResponseWriter, r *http.Request) {
	perm := r.URL.Query().Get("permission")

	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"permission": perm, "granted": b.grants(emailFrom(r), perm)})
}

func (b *Backend) checkBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "malformed body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]bool, len(body.Permissions))
	for _, p := range body.Permissions {
		out[p] = b.grants(emailFrom(r), p)
	}
	writeJSON(w, http.StatusOK, out)
}
