// Package erptest runs an in-process fake of the ERP authentication backend
// for tests. It speaks the same paths and error shapes as the real service.
package erptest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ispops/erpauth/session"
)

// DefaultOTP is the code every OTP endpoint accepts.
const DefaultOTP = "123456"

var signingKey = []byte("erptest-signing-key")

// Account is a user known to the fake backend.
type Account struct {
	Password string
	User     session.User
	// Legacy is served by the my-permissions endpoint.
	Legacy []string
	// ProfilePermissions and ProfileRoles are served in the profile bundle.
	ProfilePermissions []string
	ProfileRoles       []session.Role
	// SingleFactor makes the password endpoint issue a token directly.
	SingleFactor bool

	Department    string
	RequestedRole string
}

type failure struct {
	status int
	detail string
}

// Backend is a fake ERP server.
type Backend struct {
	Server *httptest.Server
	OTP    string
	TTL    time.Duration

	mu               sync.Mutex
	accounts         map[string]*Account
	tokens           map[string]string
	passwordVerified map[string]bool
	otpRequested     map[string]bool
	passwordless     map[string]bool
	resets           map[string]bool
	pendingReg       map[string]session.User
	magicLinks       map[string]string
	roles            []session.Role
	failures         map[string][]failure
	holds            map[string]chan struct{}
	calls            map[string]int
	queries          map[string]url.Values
	nextID           int64
}

// New starts a Backend and registers its shutdown with t.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		OTP:              DefaultOTP,
		TTL:              time.Hour,
		accounts:         map[string]*Account{},
		tokens:           map[string]string{},
		passwordVerified: map[string]bool{},
		otpRequested:     map[string]bool{},
		passwordless:     map[string]bool{},
		resets:           map[string]bool{},
		pendingReg:       map[string]session.User{},
		magicLinks:       map[string]string{},
		failures:         map[string][]failure{},
		holds:            map[string]chan struct{}{},
		calls:            map[string]int{},
		queries:          map[string]url.Values{},
		nextID:           100,
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the server base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// AddAccount registers a user keyed by a.User.Email.
func (b *Backend) AddAccount(a Account) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a.User.ID == 0 {
		b.nextID++
		a.User.ID = b.nextID
	}
	acc := a
	b.accounts[strings.ToLower(a.User.Email)] = &acc
}

// Account returns a copy of the stored account.
func (b *Backend) Account(email string) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[strings.ToLower(email)]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// SetRoles sets the roles served by the roles endpoint.
func (b *Backend) SetRoles(roles []session.Role) {
	b.mu.Lock()
	b.roles = roles
	b.mu.Unlock()
}

// FailNext makes the next request to path fail with status and detail.
func (b *Backend) FailNext(path string, status int, detail string) {
	b.mu.Lock()
	b.failures[path] = append(b.failures[path], failure{status: status, detail: detail})
	b.mu.Unlock()
}

// Hold blocks requests to path until the returned release func is called.
func (b *Backend) Hold(path string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[path] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.holds, path)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// LastQuery returns the query string of the latest request to path.
func (b *Backend) LastQuery(path string) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[path]
}

// MagicLink issues a magic-link token for email.
func (b *Backend) MagicLink(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	link := uuid.NewString()
	b.magicLinks[link] = strings.ToLower(email)
	return link
}

// Revoke invalidates a bearer token.
func (b *Backend) Revoke(tok string) {
	b.mu.Lock()
	delete(b.tokens, tok)
	b.mu.Unlock()
}

// IssueToken mints a bearer token for email, bypassing login.
func (b *Backend) IssueToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(strings.ToLower(email))
}

// Token signs a JWT with the given subject and expiry. The backend does not
// recognise it unless it was issued through IssueToken or a login.
func Token(subject string, expiresAt time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.NewString(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("erptest: sign token: %v", err))
	}
	return tok
}

func (b *Backend) issueLocked(email string) string {
	tok := Token(email, time.Now().Add(b.TTL))
	b.tokens[tok] = email
	return tok
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.intercept)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", b.login)
		r.Post("/otp/request", b.requestOTP)
		r.Post("/otp/login", b.verifyOTP)
		r.Post("/passwordless/request", b.requestPasswordless)
		r.Post("/passwordless/verify-otp", b.verifyPasswordless)
		r.Get("/passwordless/verify", b.verifyMagicLink)
		r.Post("/register/otp", b.requestRegistration)
		r.Post("/register/verify", b.verifyRegistration)
		r.Post("/password-reset/request", b.requestReset)
		r.Post("/password-reset/confirm", b.confirmReset)

		r.Group(func(r chi.Router) {
			r.Use(b.bearer)
			r.Post("/set-password", b.setPassword)
			r.Post("/change-password", b.changePassword)
			r.Post("/refresh/", b.refresh)
			r.Post("/logout", b.logout)
			r.Get("/profile", b.profile)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(b.bearer)
		r.Get("/api/v1/users/me/", b.me)
		r.Put("/api/v1/users/me", b.updateMe)
		r.Get("/api/v1/permissions/my-permissions", b.legacyPermissions)
		r.Get("/api/v1/permissions/roles", b.listRoles)
		r.Get("/api/v1/rbac/check", b.check)
		r.Post("/api/v1/rbac/check-batch", b.checkBatch)
	})

	return r
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		b.mu.Lock()
		b.calls[path]++
		b.queries[path] = r.URL.Query()
		hold := b.holds[path]
		var f *failure
		if queue := b.failures[path]; len(queue) > 0 {
			f = &queue[0]
			b.failures[path] = queue[1:]
		}
		b.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if f != nil {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type emailContextKey struct{}

func (b *Backend) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		email, ok := b.tokens[tok]
		b.mu.Unlock()
		if tok == "" || !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithEmail(r, email)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body"}, "msg": msg, "type": "value_error"}},
	})
}
