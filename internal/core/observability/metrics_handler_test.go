package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("GET", "/api/segments", 200, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "app_build_info") || !strings.Contains(body, "http_requests_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
}

func TestProviderAndCacheMetrics(t *testing.T) {
	before := testutil.ToFloat64(providerRequestsTotal.WithLabelValues("ors", "error"))
	ObserveProviderCall("ors", "error", 0.2)
	if got := testutil.ToFloat64(providerRequestsTotal.WithLabelValues("ors", "error")); got != before+1 {
		t.Fatalf("provider error counter=%g want %g", got, before+1)
	}

	beforeErr := testutil.ToFloat64(cacheFlushTotal.WithLabelValues("file", "error"))
	ObserveCacheFlush("file", errors.New("disk full"), 0.001)
	if got := testutil.ToFloat64(cacheFlushTotal.WithLabelValues("file", "error")); got != beforeErr+1 {
		t.Fatalf("flush error counter=%g want %g", got, beforeErr+1)
	}

	SetCacheEntries(7)
	if got := testutil.ToFloat64(cacheEntries); got != 7 {
		t.Fatalf("cache entries gauge=%g want 7", got)
	}

	beforeEv := testutil.ToFloat64(cacheEvictionsTotal)
	AddCacheEvictions(0)
	AddCacheEvictions(2)
	if got := testutil.ToFloat64(cacheEvictionsTotal); got != beforeEv+2 {
		t.Fatalf("evictions=%g want %g", got, beforeEv+2)
	}
}

func TestInit_DedicatedRegistryTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	Init(reg, true)
	Init(nil, true)
	Init(reg, false)

	IncResolution("hit")
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "route_resolutions_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("route_resolutions_total not registered on dedicated registry")
	}
}
