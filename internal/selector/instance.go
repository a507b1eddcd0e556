package selector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/danmuck/dataplanectl/internal/transfer"
)

// NodeInstance is the record a data-plane node advertises to the selector.
type NodeInstance struct {
	ID                   string
	ControlURL           string
	AllowedSourceTypes   transfer.Set
	AllowedDestTypes     transfer.Set
	AllowedTransferTypes transfer.Set
}

// Validate checks the fields the selector needs to route to this instance.
func (n NodeInstance) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidInstance)
	}
	u, err := url.Parse(n.ControlURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: control url %q is not absolute", ErrInvalidInstance, n.ControlURL)
	}
	return nil
}

// Clone returns a deep copy so callers never share set storage.
func (n NodeInstance) Clone() NodeInstance {
	return NodeInstance{
		ID:                   n.ID,
		ControlURL:           n.ControlURL,
		AllowedSourceTypes:   cloneSet(n.AllowedSourceTypes),
		AllowedDestTypes:     cloneSet(n.AllowedDestTypes),
		AllowedTransferTypes: cloneSet(n.AllowedTransferTypes),
	}
}

// Filter narrows ListInstances. Empty fields match everything.
type Filter struct {
	TransferType string
	SourceType   string
	DestType     string
}

func (f Filter) Matches(n NodeInstance) bool {
	if f.TransferType != "" && !n.AllowedTransferTypes.Has(f.TransferType) {
		return false
	}
	if f.SourceType != "" && !n.AllowedSourceTypes.Has(f.SourceType) {
		return false
	}
	if f.DestType != "" && !n.AllowedDestTypes.Has(f.DestType) {
		return false
	}
	return true
}

func cloneSet(s transfer.Set) transfer.Set {
	if s == nil {
		return transfer.Set{}
	}
	return s.Clone()
}
