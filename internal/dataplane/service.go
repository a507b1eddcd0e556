// Package dataplane hosts a data-plane node: it registers with the selector,
// serves health and metrics, and withdraws on shutdown when configured to.
//
// Startup order:
// - http surface up (probes report "registering")
//
// - registration submitted; a fatal error stops the node before it is ready
//
// - heartbeat loop until SIGINT/SIGTERM, then optional self-unregistration
package dataplane

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/dataplanectl/internal/capability"
	"github.com/danmuck/dataplanectl/internal/health"
	"github.com/danmuck/dataplanectl/internal/registration"
	"github.com/danmuck/dataplanectl/internal/selector"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidHeartbeatInterval = errors.New("dataplane: invalid heartbeat interval")
	ErrUnknownSelectorBackend   = errors.New("dataplane: unknown selector backend")
)

// SelectorBackend names the selector registry implementation.
type SelectorBackend string

const (
	BackendMemory SelectorBackend = "memory"
	BackendConsul SelectorBackend = "consul"
)

const (
	httpShutdownTimeout  = 5 * time.Second
	selectorProbeTimeout = 2 * time.Second
)

// SelectorConfig picks and configures the selector registry.
type SelectorConfig struct {
	Backend SelectorBackend
	Consul  selector.ConsulConfig
}

// ServiceConfig configures the data-plane node runtime.
type ServiceConfig struct {
	RuntimeID          string
	ControlAPIURL      string
	SelfUnregistration bool
	DeregisterTimeout  time.Duration
	ListenAddr         string
	HeartbeatInterval  time.Duration
	CORSOrigins        []string
	Capabilities       capability.Static
	Selector           SelectorConfig
}

// Data-plane defaults; self-unregistration is off so the selector entry outlives restarts.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SelfUnregistration: false,
		DeregisterTimeout:  registration.DefaultDeregisterTimeout,
		ListenAddr:         ":8181",
		HeartbeatInterval:  30 * time.Second,
		Selector: SelectorConfig{
			Backend: BackendMemory,
			Consul:  selector.ConsulConfig{Service: selector.DefaultConsulService},
		},
	}
}

// Service runs one data-plane node process.
type Service struct {
	cfg       ServiceConfig
	registry  selector.Registry
	health    *health.Service
	registrar *registration.Registrar
	router    *gin.Engine
	appeared  time.Time
}

// NewServiceWithConfig builds the selector registry named by cfg.Selector.
func NewServiceWithConfig(cfg ServiceConfig) (*Service, error) {
	registry, err := newSelectorRegistry(cfg.Selector)
	if err != nil {
		return nil, err
	}
	return NewServiceWithRegistry(cfg, registry)
}

// NewServiceWithRegistry builds a service around an existing selector registry.
func NewServiceWithRegistry(cfg ServiceConfig, registry selector.Registry) (*Service, error) {
	if strings.TrimSpace(cfg.RuntimeID) == "" {
		cfg.RuntimeID = uuid.NewString()
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultServiceConfig().ListenAddr
	}
	if cfg.HeartbeatInterval <= 0 {
		return nil, ErrInvalidHeartbeatInterval
	}

	healthSvc := health.NewService()
	registrar, err := registration.NewRegistrar(
		registration.Config{
			RuntimeID:          cfg.RuntimeID,
			ControlAPIURL:      cfg.ControlAPIURL,
			SelfUnregistration: cfg.SelfUnregistration,
			DeregisterTimeout:  cfg.DeregisterTimeout,
		},
		cfg.Capabilities,
		registry,
		healthSvc,
	)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		registry:  registry,
		health:    healthSvc,
		registrar: registrar,
		appeared:  time.Now(),
	}
	if checker, ok := registry.(selector.HealthChecker); ok {
		healthSvc.AddReadinessProvider(selectorStatus(checker))
	}
	s.router = s.newRouter()
	return s, nil
}

// selectorStatus reports whether the remote selector store is reachable.
func selectorStatus(checker selector.HealthChecker) health.Provider {
	return func() health.Status {
		ctx, cancel := context.WithTimeout(context.Background(), selectorProbeTimeout)
		defer cancel()
		st := health.Status{Component: "dataplane-selector", Healthy: true, Detail: "reachable"}
		if err := checker.Healthy(ctx); err != nil {
			st.Healthy = false
			st.Detail = err.Error()
		}
		return st
	}
}

func newSelectorRegistry(cfg SelectorConfig) (selector.Registry, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return selector.NewMemoryRegistry(), nil
	case BackendConsul:
		return selector.NewConsulRegistry(cfg.Consul)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelectorBackend, cfg.Backend)
	}
}

// Run blocks until SIGINT/SIGTERM or a fatal startup error.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext serves until ctx is done. Registration errors are returned as-is
// and satisfy registration.IsFatal.
func (s *Service) RunContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()
	defer s.stopHTTP(srv)

	if err := s.bootstrap(ctx); err != nil {
		return err
	}
	defer s.registrar.Shutdown(context.Background())
	return s.serve(ctx, httpErr)
}

// bootstrap registers the node; the node is not ready until it returns nil.
func (s *Service) bootstrap(ctx context.Context) error {
	if err := s.registrar.Start(ctx); err != nil {
		return err
	}
	inst, _ := s.registrar.Instance()
	log.Info().
		Str("node", inst.ID).
		Str("control_url", inst.ControlURL).
		Int("transfer_types", inst.AllowedTransferTypes.Len()).
		Str("listen", s.cfg.ListenAddr).
		Msg("dataplane ready")
	return nil
}

func (s *Service) serve(ctx context.Context, httpErr <-chan error) error {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("node", s.cfg.RuntimeID).Msg("dataplane shutdown")
			return nil
		case err := <-httpErr:
			return fmt.Errorf("dataplane: http listener: %w", err)
		case <-ticker.C:
			inst, _ := s.registrar.Instance()
			log.Info().
				Str("node", s.cfg.RuntimeID).
				Str("state", string(s.registrar.State())).
				Strs("transfer_types", inst.AllowedTransferTypes.Slice()).
				Dur("uptime", time.Since(s.appeared).Truncate(time.Second)).
				Msg("dataplane heartbeat")
		}
	}
}

func (s *Service) stopHTTP(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Str("node", s.cfg.RuntimeID).Msg("dataplane http shutdown")
	}
}

func (s *Service) Registrar() *registration.Registrar {
	return s.registrar
}

func (s *Service) Health() *health.Service {
	return s.health
}
