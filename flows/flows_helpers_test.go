package flows

import (
	"testing"
	"time"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/internal/erptest"
	"github.com/ispops/erpauth/session"
)

const (
	testEmail    = "noc@isp.example"
	testPassword = "fibre-2024"
)

func newEngine(t *testing.T, mutate ...func(*erpauth.Config)) (*erpauth.Engine, *erptest.Backend) {
	t.Helper()

	backend := erptest.New(t)
	cfg := erpauth.DefaultConfig()
	cfg.HTTP.BaseURL = backend.URL()
	cfg.HTTP.Timeout = 5 * time.Second
	for _, m := range mutate {
		m(&cfg)
	}

	engine, err := erpauth.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	backend.AddAccount(erptest.Account{
		Password: testPassword,
		User:     session.User{Email: testEmail, FullName: "NOC Operator", IsActive: true},
		Legacy:   []string{"tickets:read"},
	})
	return engine, backend
}
