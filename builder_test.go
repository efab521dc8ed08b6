package erpauth

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ispops/erpauth/internal/erptest"
	"github.com/ispops/erpauth/session"
	"github.com/ispops/erpauth/storage"
	"github.com/ispops/erpauth/token"
	"github.com/redis/go-redis/v9"
)

func TestBuildRequiresValidConfig(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected missing base url to fail")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithBaseURL("https://erp.isp.example")
	if _, err := b.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := b.Build(); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestBuilderDisabledLimiters(t *testing.T) {
	cfg := validTestConfig()
	cfg.RateLimit.Enabled = false
	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if engine.PasswordLimiter() != nil {
		t.Fatal("expected nil password limiter")
	}
	if engine.OTPLimiter() == nil {
		t.Fatal("expected otp limiter")
	}
	if locked, _ := engine.PasswordLimiter().IsLockedOut(context.Background()); locked {
		t.Fatal("disabled limiter must never lock")
	}
}

func TestBuilderWithRedisPersistsTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backend := erptest.New(t)
	backend.AddAccount(erptest.Account{
		Password: opsPassword,
		User:     session.User{Email: opsEmail, IsActive: true},
	})
	cfg := engineTestConfig(backend.URL())
	cfg.Storage.RedisPrefix = "noc"

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	tok := backend.IssueToken(opsEmail)
	if _, err := engine.establish(context.Background(), tok, true); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if got, err := mr.Get("noc:" + token.KeyAccessToken); err != nil || got != tok {
		t.Fatalf("expected token in redis, got %q, %v", got, err)
	}
}

func TestBuilderFileStorage(t *testing.T) {
	backend := erptest.New(t)
	cfg := engineTestConfig(backend.URL())
	cfg.Storage.Backend = StorageFile
	cfg.Storage.Path = filepath.Join(t.TempDir(), "state.json")

	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if err := engine.tokens.Set(context.Background(), "abc", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	f, err := storage.NewFile(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got, ok, _ := f.Get(context.Background(), token.KeyAccessToken); !ok || got != "abc" {
		t.Fatalf("expected token on disk, got %q", got)
	}
}

func TestBuilderHTTPClientAndLatency(t *testing.T) {
	backend := erptest.New(t)
	backend.AddAccount(erptest.Account{
		Password: opsPassword,
		User:     session.User{Email: opsEmail, IsActive: true},
	})

	engine, err := New().
		WithBaseURL(backend.URL()).
		WithHTTPClient(&http.Client{Timeout: time.Second}).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Login(context.Background(), opsEmail, opsPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	var total uint64
	for _, n := range engine.MetricsSnapshot().Histograms[MetricRequestLatency] {
		total += n
	}
	if total == 0 {
		t.Fatal("expected latency samples")
	}
}
