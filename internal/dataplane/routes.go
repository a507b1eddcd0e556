package dataplane

import (
	"net/http"
	"time"

	"github.com/danmuck/dataplanectl/internal/health"
	"github.com/danmuck/dataplanectl/internal/node"
	"github.com/danmuck/dataplanectl/internal/observability"
	"github.com/danmuck/dataplanectl/internal/registration"
	"github.com/danmuck/dataplanectl/internal/selector"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var _ node.Node = (*Service)(nil)

// InstanceView is the JSON shape of a selector instance.
type InstanceView struct {
	ID                   string   `json:"id"`
	ControlURL           string   `json:"control_url"`
	AllowedSourceTypes   []string `json:"allowed_source_types"`
	AllowedDestTypes     []string `json:"allowed_dest_types"`
	AllowedTransferTypes []string `json:"allowed_transfer_types"`
}

// RegistrationView reports the local registration state.
type RegistrationView struct {
	ID       string        `json:"id"`
	State    string        `json:"state"`
	Error    string        `json:"error,omitempty"`
	Instance *InstanceView `json:"instance,omitempty"`
	Uptime   string        `json:"uptime"`
}

func (s *Service) NodeID() string {
	return s.cfg.RuntimeID
}

func (s *Service) Kind() string {
	return "dataplane"
}

func (s *Service) Ready() bool {
	return s.registrar.State() == registration.StateRegistered
}

func (s *Service) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Service) newRouter() *gin.Engine {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, s.cfg.RuntimeID))
	r.Use(observability.RequestMetricsMiddleware(s.cfg.RuntimeID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(s.cfg.CORSOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	health.RegisterRoutes(r, s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/registration", s.handleRegistration)
	r.GET("/instances", s.handleInstances)
	return r
}

func (s *Service) handleRegistration(c *gin.Context) {
	snap := s.registrar.Snapshot()
	view := RegistrationView{
		ID:     s.cfg.RuntimeID,
		State:  string(snap.State),
		Uptime: time.Since(s.appeared).Truncate(time.Second).String(),
	}
	if snap.Err != nil {
		view.Error = snap.Err.Error()
	}
	if snap.Instance != nil {
		inst := instanceView(*snap.Instance)
		view.Instance = &inst
	}
	c.JSON(http.StatusOK, view)
}

func (s *Service) handleInstances(c *gin.Context) {
	filter := selector.Filter{
		TransferType: c.Query("transfer_type"),
		SourceType:   c.Query("source_type"),
		DestType:     c.Query("dest_type"),
	}
	list, err := s.registry.ListInstances(c.Request.Context(), filter)
	observability.RecordSelectorCall(s.cfg.RuntimeID, "list_instances", err)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	views := make([]InstanceView, 0, len(list))
	for _, inst := range list {
		views = append(views, instanceView(inst))
	}
	c.JSON(http.StatusOK, gin.H{"instances": views})
}

func instanceView(inst selector.NodeInstance) InstanceView {
	return InstanceView{
		ID:                   inst.ID,
		ControlURL:           inst.ControlURL,
		AllowedSourceTypes:   inst.AllowedSourceTypes.Slice(),
		AllowedDestTypes:     inst.AllowedDestTypes.Slice(),
		AllowedTransferTypes: inst.AllowedTransferTypes.Slice(),
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
