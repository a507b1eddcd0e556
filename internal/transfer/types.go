// Package transfer derives the routing vocabulary a selector matches data-plane
// nodes against.
//
// A node advertises pull destinations as "<type>-PULL" and push sinks as
// "<type>-PUSH". The same logical type may appear on both axes and then yields
// two distinct transfer types.
package transfer

import (
	"sort"
	"strings"
)

const (
	SuffixPull = "-PULL"
	SuffixPush = "-PUSH"
)

// Set is an unordered collection of type names.
type Set map[string]struct{}

// NewSet builds a set from values, skipping blanks.
func NewSet(values ...string) Set {
	out := make(Set, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out[v] = struct{}{}
	}
	return out
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Slice returns the members in sorted order.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// Resolve returns {d-PULL : d in pullDestinationTypes} ∪ {s-PUSH : s in sinkTypes}.
// Inputs are not modified and the result is freshly allocated.
func Resolve(sinkTypes, pullDestinationTypes Set) Set {
	out := make(Set, len(sinkTypes)+len(pullDestinationTypes))
	for d := range pullDestinationTypes {
		out[Pull(d)] = struct{}{}
	}
	for s := range sinkTypes {
		out[Push(s)] = struct{}{}
	}
	return out
}

func Pull(destType string) string {
	return destType + SuffixPull
}

func Push(sinkType string) string {
	return sinkType + SuffixPush
}
