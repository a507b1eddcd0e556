package selector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danmuck/dataplanectl/internal/transfer"
	consulapi "github.com/hashicorp/consul/api"
)

const DefaultConsulService = "dataplane"

var ErrNoLeader = errors.New("selector: consul cluster has no leader")

const (
	metaControlURL    = "control_url"
	metaSourceTypes   = "source_types"
	metaDestTypes     = "dest_types"
	metaTransferTypes = "transfer_types"
)

// ConsulConfig locates the Consul agent and the service name nodes register under.
type ConsulConfig struct {
	Address string
	Service string
	Token   string
}

// ConsulRegistry maps node instances onto Consul agent services. Transfer
// types are stored as service tags so the catalog can be queried by them.
type ConsulRegistry struct {
	api     *consulapi.Client
	service string
}

func NewConsulRegistry(cfg ConsulConfig) (*ConsulRegistry, error) {
	apiCfg := consulapi.DefaultConfig()
	if addr := strings.TrimSpace(cfg.Address); addr != "" {
		apiCfg.Address = addr
	}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		apiCfg.Token = token
	}
	client, err := consulapi.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	service := strings.TrimSpace(cfg.Service)
	if service == "" {
		service = DefaultConsulService
	}
	return &ConsulRegistry{api: client, service: service}, nil
}

// Healthy checks connectivity to Consul and that the cluster has a leader.
func (c *ConsulRegistry) Healthy(ctx context.Context) error {
	leader, err := c.api.Status().LeaderWithQueryOptions(c.query(ctx))
	if err != nil {
		return fmt.Errorf("selector: consul status: %w", err)
	}
	if strings.TrimSpace(leader) == "" {
		return ErrNoLeader
	}
	return nil
}

func (c *ConsulRegistry) AddInstance(ctx context.Context, inst NodeInstance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	existing, _, err := c.api.Catalog().Service(c.service, "", c.query(ctx))
	if err != nil {
		return fmt.Errorf("selector: consul catalog lookup: %w", err)
	}
	for _, svc := range existing {
		if svc.ServiceID == inst.ID {
			return ErrConflict
		}
	}

	host, port, err := splitControlURL(inst.ControlURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}
	reg := &consulapi.AgentServiceRegistration{
		ID:      inst.ID,
		Name:    c.service,
		Tags:    inst.AllowedTransferTypes.Slice(),
		Address: host,
		Port:    port,
		Meta: map[string]string{
			metaControlURL:    inst.ControlURL,
			metaSourceTypes:   joinSet(inst.AllowedSourceTypes),
			metaDestTypes:     joinSet(inst.AllowedDestTypes),
			metaTransferTypes: joinSet(inst.AllowedTransferTypes),
		},
	}
	if err := c.api.Agent().ServiceRegisterOpts(reg, consulapi.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return fmt.Errorf("selector: consul register %q: %w", inst.ID, err)
	}
	return nil
}

func (c *ConsulRegistry) Unregister(ctx context.Context, id string) error {
	err := c.api.Agent().ServiceDeregisterOpts(id, c.query(ctx))
	if err == nil {
		return nil
	}
	var statusErr consulapi.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("selector: consul deregister %q: %w", id, err)
}

// ListInstances narrows by transfer type in the catalog query and applies the
// remaining filter fields locally.
func (c *ConsulRegistry) ListInstances(ctx context.Context, filter Filter) ([]NodeInstance, error) {
	services, _, err := c.api.Catalog().Service(c.service, filter.TransferType, c.query(ctx))
	if err != nil {
		return nil, fmt.Errorf("selector: consul catalog list: %w", err)
	}
	out := make([]NodeInstance, 0, len(services))
	for _, svc := range services {
		inst := instanceFromCatalog(svc)
		if filter.Matches(inst) {
			out = append(out, inst)
		}
	}
	sortByID(out)
	return out, nil
}

func (c *ConsulRegistry) query(ctx context.Context) *consulapi.QueryOptions {
	return (&consulapi.QueryOptions{}).WithContext(ctx)
}

func instanceFromCatalog(svc *consulapi.CatalogService) NodeInstance {
	meta := svc.ServiceMeta
	transferTypes := splitSet(meta[metaTransferTypes])
	if transferTypes.Len() == 0 {
		transferTypes = transfer.NewSet(svc.ServiceTags...)
	}
	return NodeInstance{
		ID:                   svc.ServiceID,
		ControlURL:           meta[metaControlURL],
		AllowedSourceTypes:   splitSet(meta[metaSourceTypes]),
		AllowedDestTypes:     splitSet(meta[metaDestTypes]),
		AllowedTransferTypes: transferTypes,
	}
}

func splitControlURL(raw string) (string, int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, err
	}
	host := u.Hostname()
	portStr := u.Port()
	if portStr == "" {
		switch u.Scheme {
		case "https":
			return host, 443, nil
		default:
			return host, 80, nil
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("control url port %q: %w", net.JoinHostPort(host, portStr), err)
	}
	return host, port, nil
}

func joinSet(s transfer.Set) string {
	return strings.Join(s.Slice(), ",")
}

func splitSet(raw string) transfer.Set {
	if strings.TrimSpace(raw) == "" {
		return transfer.Set{}
	}
	return transfer.NewSet(strings.Split(raw, ",")...)
}
