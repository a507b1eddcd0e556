// Package health aggregates startup, liveness and readiness signals and serves
// them over HTTP.
package health

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// Status is one provider's verdict.
type Status struct {
	Component string `json:"component"`
	Healthy   bool   `json:"healthy"`
	Detail    string `json:"detail,omitempty"`
}

// Provider is polled on every probe.
type Provider func() Status

// Report aggregates all providers of one probe kind.
type Report struct {
	Healthy bool     `json:"healthy"`
	Checks  []Status `json:"checks"`
}

// Service holds the registered providers per probe kind.
type Service struct {
	mu        sync.RWMutex
	startup   []Provider
	liveness  []Provider
	readiness []Provider
}

func NewService() *Service {
	return &Service{}
}

func (s *Service) AddStartupStatusProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startup = append(s.startup, p)
}

func (s *Service) AddLivenessProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, p)
}

func (s *Service) AddReadinessProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, p)
}

func (s *Service) Startup() Report {
	return s.evaluate(func() []Provider { return s.startup })
}

func (s *Service) Liveness() Report {
	return s.evaluate(func() []Provider { return s.liveness })
}

func (s *Service) Readiness() Report {
	return s.evaluate(func() []Provider { return s.readiness })
}

// evaluate polls providers outside the lock. A probe with no providers is healthy.
func (s *Service) evaluate(pick func() []Provider) Report {
	s.mu.RLock()
	providers := append([]Provider(nil), pick()...)
	s.mu.RUnlock()

	report := Report{Healthy: true, Checks: make([]Status, 0, len(providers))}
	for _, p := range providers {
		st := p()
		if !st.Healthy {
			report.Healthy = false
		}
		report.Checks = append(report.Checks, st)
	}
	return report
}

// RegisterRoutes mounts the three probe endpoints under /health.
func RegisterRoutes(routes gin.IRoutes, s *Service) {
	routes.GET("/health/startup", probeHandler(s.Startup))
	routes.GET("/health/liveness", probeHandler(s.Liveness))
	routes.GET("/health/readiness", probeHandler(s.Readiness))
}

func probeHandler(probe func() Report) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := probe()
		status := http.StatusOK
		if !report.Healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}
