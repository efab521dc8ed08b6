package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ispops/erpauth"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot erpauth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() erpauth.MetricsSnapshot {
	return f.snapshot
}

func (f *fakeSource) AuditDropped() uint64 {
	return f.dropped
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(&fakeSource{
		snapshot: erpauth.MetricsSnapshot{
			Counters:   map[erpauth.MetricID]uint64{},
			Histograms: map[erpauth.MetricID][]uint64{},
		},
	})
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("expected no metrics, got %d", n)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(&fakeSource{
		snapshot: erpauth.MetricsSnapshot{
			Counters: map[erpauth.MetricID]uint64{
				erpauth.MetricLoginSuccess: 3,
				erpauth.MetricForcedLogout: 1,
			},
			Histograms: map[erpauth.MetricID][]uint64{
				erpauth.MetricRequestLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
		},
		dropped: 4,
	})

	expected := `
# HELP erpauth_login_success_total Sign-ins that established a session.
# TYPE erpauth_login_success_total counter
erpauth_login_success_total 3
# HELP erpauth_forced_logout_total Sessions cleared because the backend rejected the token.
# TYPE erpauth_forced_logout_total counter
erpauth_forced_logout_total 1
# HELP erpauth_audit_dropped_total Audit events dropped because the dispatcher buffer was full.
# TYPE erpauth_audit_dropped_total counter
erpauth_audit_dropped_total 4
# HELP erpauth_request_latency_seconds Backend round-trip latency.
# TYPE erpauth_request_latency_seconds histogram
erpauth_request_latency_seconds_bucket{le="0.05"} 2
erpauth_request_latency_seconds_bucket{le="0.1"} 3
erpauth_request_latency_seconds_bucket{le="0.25"} 3
erpauth_request_latency_seconds_bucket{le="0.5"} 3
erpauth_request_latency_seconds_bucket{le="1"} 3
erpauth_request_latency_seconds_bucket{le="2.5"} 3
erpauth_request_latency_seconds_bucket{le="5"} 3
erpauth_request_latency_seconds_bucket{le="+Inf"} 4
erpauth_request_latency_seconds_sum 0
erpauth_request_latency_seconds_count 4
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"erpauth_login_success_total",
		"erpauth_forced_logout_total",
		"erpauth_audit_dropped_total",
		"erpauth_request_latency_seconds",
	)
	if err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	engine, err := erpauth.New().
		WithBaseURL("http://erp.invalid").
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	engine.HasPermission("tickets:read")

	srv := httptest.NewServer(NewCollector(engine).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "erpauth_permission_denied_total 1") {
		t.Fatalf("expected denied counter in scrape:\n%s", body)
	}
	if strings.Contains(string(body), "erpauth_request_latency_seconds") {
		t.Fatalf("latency histogram must be absent when disabled")
	}
}
