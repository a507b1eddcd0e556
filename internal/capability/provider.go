// Package capability reports which transfer kinds this data-plane node can serve.
package capability

import "github.com/danmuck/dataplanectl/internal/transfer"

// PipelineProvider reports the source and sink types the transfer pipeline supports.
type PipelineProvider interface {
	SupportedSourceTypes() transfer.Set
	SupportedSinkTypes() transfer.Set
}

// EndpointProvider reports destination types this node can expose as pull endpoints.
type EndpointProvider interface {
	SupportedPullDestinationTypes() transfer.Set
}

// Provider is the single logical capability source consumed at registration.
type Provider interface {
	PipelineProvider
	EndpointProvider
}

// Snapshot is one read of all three capability sets.
type Snapshot struct {
	SourceTypes          transfer.Set
	SinkTypes            transfer.Set
	PullDestinationTypes transfer.Set
}

// Read queries p once per set and copies the results, so later changes on the
// provider side do not reach the snapshot. Nil sets become empty.
func Read(p Provider) Snapshot {
	return Snapshot{
		SourceTypes:          orEmpty(p.SupportedSourceTypes()),
		SinkTypes:            orEmpty(p.SupportedSinkTypes()),
		PullDestinationTypes: orEmpty(p.SupportedPullDestinationTypes()),
	}
}

type combined struct {
	PipelineProvider
	EndpointProvider
}

// Combine joins the pipeline and endpoint providers into one Provider.
func Combine(pipeline PipelineProvider, endpoints EndpointProvider) Provider {
	return combined{PipelineProvider: pipeline, EndpointProvider: endpoints}
}

// Static serves fixed capability sets, typically loaded from config.
type Static struct {
	Sources []string
	Sinks   []string
	Pulls   []string
}

func (s Static) SupportedSourceTypes() transfer.Set {
	return transfer.NewSet(s.Sources...)
}

func (s Static) SupportedSinkTypes() transfer.Set {
	return transfer.NewSet(s.Sinks...)
}

func (s Static) SupportedPullDestinationTypes() transfer.Set {
	return transfer.NewSet(s.Pulls...)
}

func orEmpty(s transfer.Set) transfer.Set {
	if s == nil {
		return transfer.Set{}
	}
	return s.Clone()
}
