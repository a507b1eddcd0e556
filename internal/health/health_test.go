package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/dataplanectl/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func healthy(name string) Provider {
	return func() Status { return Status{Component: name, Healthy: true} }
}

func unhealthy(name string) Provider {
	return func() Status { return Status{Component: name, Healthy: false, Detail: "down"} }
}

func TestEmptyProbeIsHealthy(t *testing.T) {
	testlog.Start(t)
	s := NewService()
	if !s.Startup().Healthy || !s.Liveness().Healthy || !s.Readiness().Healthy {
		t.Fatalf("expected empty probes to be healthy")
	}
}

func TestAnyUnhealthyProviderFailsProbe(t *testing.T) {
	testlog.Start(t)
	s := NewService()
	s.AddReadinessProvider(healthy("a"))
	s.AddReadinessProvider(unhealthy("b"))
	s.AddLivenessProvider(healthy("a"))

	report := s.Readiness()
	if report.Healthy {
		t.Fatalf("expected readiness unhealthy")
	}
	if len(report.Checks) != 2 || report.Checks[1].Component != "b" {
		t.Fatalf("unexpected checks: %+v", report.Checks)
	}
	if !s.Liveness().Healthy {
		t.Fatalf("liveness must not see readiness providers")
	}
}

func TestRoutesReportStatusCodes(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	s := NewService()
	s.AddStartupStatusProvider(healthy("registration"))
	s.AddReadinessProvider(unhealthy("registration"))

	r := gin.New()
	RegisterRoutes(r, s)

	cases := map[string]int{
		"/health/startup":   http.StatusOK,
		"/health/liveness":  http.StatusOK,
		"/health/readiness": http.StatusServiceUnavailable,
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("%s: expected %d, got %d body=%s", path, want, rr.Code, rr.Body.String())
		}
		var report Report
		if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
			t.Fatalf("%s: decode body: %v", path, err)
		}
		if report.Healthy != (want == http.StatusOK) {
			t.Fatalf("%s: body disagrees with status: %+v", path, report)
		}
	}
}
