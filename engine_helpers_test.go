package erpauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ispops/erpauth/internal/erptest"
	"github.com/ispops/erpauth/session"
	"github.com/ispops/erpauth/storage"
)

const (
	opsEmail    = "ops@isp.example"
	opsPassword = "s3cret-pass"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEngine struct {
	*Engine
	backend  *erptest.Backend
	durable  *storage.Memory
	clock    *fakeClock
	auditLog *ChannelSink
}

func engineTestConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.HTTP.BaseURL = baseURL
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Metrics.Enabled = true
	cfg.Audit.DropIfFull = false
	return cfg
}

func newTestEngine(t *testing.T, mutate ...func(*Config)) *testEngine {
	t.Helper()

	backend := erptest.New(t)
	cfg := engineTestConfig(backend.URL())
	for _, m := range mutate {
		m(&cfg)
	}

	clock := newFakeClock()
	durable := storage.NewMemory(0)
	sink := NewChannelSink(256)

	engine, err := New().
		WithConfig(cfg).
		WithStorage(durable, nil).
		WithAuditSink(sink).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{
		Engine:   engine,
		backend:  backend,
		durable:  durable,
		clock:    clock,
		auditLog: sink,
	}
}

func (te *testEngine) addOperator(legacy ...string) {
	te.backend.AddAccount(erptest.Account{
		Password: opsPassword,
		User: session.User{
			Email:    opsEmail,
			FullName: "Ops Desk",
			IsActive: true,
		},
		Legacy: legacy,
	})
}

// signIn runs the full two-factor login.
func (te *testEngine) signIn(t *testing.T, remember bool) *session.Session {
	t.Helper()
	ctx := context.Background()

	res, err := te.Login(ctx, opsEmail, opsPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Stage != StageOTPRequired {
		t.Fatalf("expected otp stage, got %v", res.Stage)
	}
	if err := te.RequestOTP(ctx, opsEmail); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	s, err := te.VerifyOTP(ctx, opsEmail, erptest.DefaultOTP, remember)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	return s
}

// auditEvents drains the events delivered so far. The dispatcher is closed
// first so every emitted event has reached the sink.
func (te *testEngine) auditEvents() []AuditEvent {
	te.Close()
	var out []AuditEvent
	for {
		select {
		case ev := <-te.auditLog.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}
