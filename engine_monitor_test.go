package erpauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestMonitorWarnsOncePerToken(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	te.backend.TTL = 3 * time.Minute
	te.signIn(t, false)

	warnings := make(chan TokenInfo, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := te.Monitor(ctx, MonitorOptions{
		Interval:      5 * time.Millisecond,
		WarnBefore:    5 * time.Minute,
		RefreshBefore: time.Second,
		OnWarning:     func(info TokenInfo) { warnings <- info },
	})

	info := waitFor(t, warnings, "warning")
	if !info.ExpiringSoon {
		t.Fatalf("unexpected info %+v", info)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if n := len(warnings); n != 0 {
		t.Fatalf("expected a single warning, got %d more", n)
	}
	if !te.IsAuthenticated() {
		t.Fatal("warning must not end the session")
	}
}

func TestMonitorLogsOutExpiredToken(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	te.signIn(t, false)
	te.clock.Advance(2 * time.Hour)

	expired := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := te.Monitor(ctx, MonitorOptions{
		Interval:  5 * time.Millisecond,
		OnExpired: func(err error) { expired <- err },
	})

	err := waitFor(t, expired, "expiry")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if te.IsAuthenticated() || te.Token() != "" {
		t.Fatal("expired token must be cleared")
	}
	cancel()
	<-done
}

func TestMonitorRefreshesNearExpiry(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	te.backend.TTL = 3 * time.Minute
	te.signIn(t, true)
	old := te.Token()

	refreshed := make(chan TokenInfo, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := te.Monitor(ctx, MonitorOptions{
		Interval:      5 * time.Millisecond,
		WarnBefore:    5 * time.Minute,
		RefreshBefore: 4 * time.Minute,
		OnRefreshed: func(info TokenInfo) {
			select {
			case refreshed <- info:
			default:
			}
		},
	})

	info := waitFor(t, refreshed, "refresh")
	cancel()
	<-done

	if !info.Present || !info.Remembered {
		t.Fatalf("unexpected info after refresh %+v", info)
	}
	if te.Token() == old {
		t.Fatal("token not rotated")
	}
}

func TestMonitorLogsOutWhenRefreshFails(t *testing.T) {
	te := newTestEngine(t)
	te.addOperator()
	te.backend.TTL = 3 * time.Minute
	te.signIn(t, false)
	te.backend.Revoke(te.Token())

	expired := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := te.Monitor(ctx, MonitorOptions{
		Interval:      5 * time.Millisecond,
		WarnBefore:    5 * time.Minute,
		RefreshBefore: 4 * time.Minute,
		OnExpired:     func(err error) { expired <- err },
	})

	err := waitFor(t, expired, "expiry")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if te.IsAuthenticated() {
		t.Fatal("failed refresh must end the session")
	}
	cancel()
	<-done
}

func TestMonitorStopsWithContext(t *testing.T) {
	te := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := te.Monitor(ctx, MonitorOptions{Interval: time.Millisecond})
	cancel()
	waitFor(t, done, "monitor exit")
}
