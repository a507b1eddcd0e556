package registration

import (
	"time"

	"github.com/danmuck/dataplanectl/internal/health"
)

const healthComponent = "dataplane-registration"

// publishHealth wires the three probes once, before the selector is contacted,
// so a failed registration is observable through them.
func (r *Registrar) publishHealth() {
	r.health.AddStartupStatusProvider(r.startupStatus)
	r.health.AddLivenessProvider(r.livenessStatus)
	r.health.AddReadinessProvider(r.readinessStatus)
}

func (r *Registrar) startupStatus() health.Status {
	snap := r.Snapshot()
	st := health.Status{
		Component: healthComponent,
		Healthy:   snap.State.ReachedRegistered(),
		Detail:    string(snap.State),
	}
	if snap.State == StateRegistrationFailed && snap.Err != nil {
		st.Detail = snap.Err.Error()
	}
	return st
}

func (r *Registrar) livenessStatus() health.Status {
	return health.Status{
		Component: healthComponent,
		Healthy:   true,
		Detail:    "uptime " + time.Since(r.started).Truncate(time.Second).String(),
	}
}

func (r *Registrar) readinessStatus() health.Status {
	state := r.State()
	return health.Status{
		Component: healthComponent,
		Healthy:   state == StateRegistered,
		Detail:    string(state),
	}
}
