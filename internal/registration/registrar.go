// Package registration announces this data-plane node to the selector at
// startup and optionally withdraws it at shutdown.
//
// Lifecycle:
// - unregistered -> registering -> registered | registration_failed
//
// - registered -> deregistering -> deregistered (only with self-unregistration)
//
// A failed registration aborts node startup. There is no retry: a rejected
// submission means the selector disagrees about this node's identity.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/dataplanectl/internal/capability"
	"github.com/danmuck/dataplanectl/internal/health"
	"github.com/danmuck/dataplanectl/internal/observability"
	"github.com/danmuck/dataplanectl/internal/selector"
	"github.com/danmuck/dataplanectl/internal/transfer"
	"github.com/rs/zerolog/log"
)

const DefaultDeregisterTimeout = 5 * time.Second

var (
	ErrLifecycleOrder       = errors.New("registration: invalid lifecycle transition")
	ErrInvalidControlURL    = errors.New("registration: invalid control api url")
	ErrRegistrationRejected = errors.New("registration: rejected by selector")
	ErrStartupAborted       = errors.New("registration: startup aborted")
	ErrRuntimeIDRequired    = errors.New("registration: runtime id required")
	ErrMissingCollaborator  = errors.New("registration: missing collaborator")
)

// IsFatal reports whether err must abort node startup without retry.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStartupAborted)
}

func abort(err error) error {
	return fmt.Errorf("%w: %w", ErrStartupAborted, err)
}

// HealthRegistry receives the probes published at registration time.
type HealthRegistry interface {
	AddStartupStatusProvider(p health.Provider)
	AddLivenessProvider(p health.Provider)
	AddReadinessProvider(p health.Provider)
}

// Config carries the registrar's identity and shutdown behavior.
type Config struct {
	RuntimeID          string
	ControlAPIURL      string
	SelfUnregistration bool
	DeregisterTimeout  time.Duration
}

// Snapshot is an immutable view of the registrar published on every transition.
type Snapshot struct {
	State    State
	Instance *selector.NodeInstance
	Err      error
}

// Registrar owns the registration state machine. Transitions are serialized by
// mu; readers load the latest Snapshot without locking.
type Registrar struct {
	cfg          Config
	capabilities capability.Provider
	registry     selector.Registry
	health       HealthRegistry

	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]
	started  time.Time
}

func NewRegistrar(cfg Config, capabilities capability.Provider, registry selector.Registry, healthRegistry HealthRegistry) (*Registrar, error) {
	cfg.RuntimeID = strings.TrimSpace(cfg.RuntimeID)
	if cfg.RuntimeID == "" {
		return nil, ErrRuntimeIDRequired
	}
	if capabilities == nil || registry == nil || healthRegistry == nil {
		return nil, fmt.Errorf("%w: capabilities, registry and health are required", ErrMissingCollaborator)
	}
	if cfg.DeregisterTimeout <= 0 {
		cfg.DeregisterTimeout = DefaultDeregisterTimeout
	}
	r := &Registrar{
		cfg:          cfg,
		capabilities: capabilities,
		registry:     registry,
		health:       healthRegistry,
		started:      time.Now(),
	}
	r.snapshot.Store(&Snapshot{State: StateUnregistered})
	observability.RecordRegistrationState(cfg.RuntimeID, "", string(StateUnregistered))
	return r, nil
}

func (r *Registrar) ID() string {
	return r.cfg.RuntimeID
}

func (r *Registrar) Snapshot() Snapshot {
	return *r.snapshot.Load()
}

func (r *Registrar) State() State {
	return r.snapshot.Load().State
}

// Instance returns a copy of the advertised record once one was built.
func (r *Registrar) Instance() (selector.NodeInstance, bool) {
	inst := r.snapshot.Load().Instance
	if inst == nil {
		return selector.NodeInstance{}, false
	}
	return inst.Clone(), true
}

// Start builds this node's instance and submits it to the selector. It blocks
// until the selector answers; cancelling ctx does not interrupt an in-flight
// submission. Any error returned satisfies IsFatal.
func (r *Registrar) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.transition(StateRegistering, nil, nil); err != nil {
		return abort(err)
	}
	r.publishHealth()

	caps := capability.Read(r.capabilities)
	transferTypes := transfer.Resolve(caps.SinkTypes, caps.PullDestinationTypes)

	controlURL, err := ControlURL(r.cfg.ControlAPIURL)
	if err != nil {
		return r.fail(err)
	}

	inst := selector.NodeInstance{
		ID:                   r.cfg.RuntimeID,
		ControlURL:           controlURL,
		AllowedSourceTypes:   caps.SourceTypes,
		AllowedDestTypes:     caps.SinkTypes,
		AllowedTransferTypes: transferTypes,
	}
	log.Info().
		Str("node", inst.ID).
		Str("control_url", inst.ControlURL).
		Strs("transfer_types", transferTypes.Slice()).
		Msg("registration submitting instance")

	err = r.registry.AddInstance(context.WithoutCancel(ctx), inst.Clone())
	observability.RecordSelectorCall(inst.ID, "add_instance", err)
	if err != nil {
		return r.fail(fmt.Errorf("%w: %w", ErrRegistrationRejected, err))
	}

	held := inst.Clone()
	if err := r.transition(StateRegistered, &held, nil); err != nil {
		return abort(err)
	}
	return nil
}

// Shutdown withdraws the instance when self-unregistration is enabled. It
// never fails: removal is best-effort and bounded by DeregisterTimeout.
func (r *Registrar) Shutdown(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cfg.SelfUnregistration {
		log.Debug().Str("node", r.cfg.RuntimeID).Msg("registration self-unregistration disabled")
		return
	}
	current := r.snapshot.Load()
	if current.State != StateRegistered {
		log.Info().
			Str("node", r.cfg.RuntimeID).
			Str("state", string(current.State)).
			Msg("registration shutdown skipped, node not registered")
		return
	}
	if err := r.transition(StateDeregistering, current.Instance, nil); err != nil {
		log.Warn().Err(err).Str("node", r.cfg.RuntimeID).Msg("registration shutdown")
		return
	}

	unregisterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.DeregisterTimeout)
	defer cancel()
	err := r.registry.Unregister(unregisterCtx, r.cfg.RuntimeID)
	observability.RecordSelectorCall(r.cfg.RuntimeID, "unregister", err)
	if err != nil {
		log.Warn().Err(err).Str("node", r.cfg.RuntimeID).Msg("registration self-unregistration failed")
	}
	_ = r.transition(StateDeregistered, current.Instance, err)
}

func (r *Registrar) fail(err error) error {
	_ = r.transition(StateRegistrationFailed, nil, err)
	log.Error().Err(err).Str("node", r.cfg.RuntimeID).Msg("registration failed, aborting startup")
	return abort(err)
}

// transition must be called with mu held.
func (r *Registrar) transition(to State, inst *selector.NodeInstance, err error) error {
	from := r.snapshot.Load().State
	if !from.CanTransition(to) {
		return transitionError(from, to)
	}
	r.snapshot.Store(&Snapshot{State: to, Instance: inst, Err: err})
	observability.RecordRegistrationState(r.cfg.RuntimeID, string(from), string(to))
	log.Info().
		Str("node", r.cfg.RuntimeID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("registration transition")
	return nil
}
