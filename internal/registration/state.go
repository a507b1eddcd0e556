package registration

import "fmt"

// State is the process-local registration lifecycle phase.
type State string

const (
	StateUnregistered       State = "unregistered"
	StateRegistering        State = "registering"
	StateRegistered         State = "registered"
	StateRegistrationFailed State = "registration_failed"
	StateDeregistering      State = "deregistering"
	StateDeregistered       State = "deregistered"
)

var transitions = map[State][]State{
	StateUnregistered:  {StateRegistering},
	StateRegistering:   {StateRegistered, StateRegistrationFailed},
	StateRegistered:    {StateDeregistering},
	StateDeregistering: {StateDeregistered},
}

// CanTransition reports whether s -> to is an allowed edge.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// ReachedRegistered is true once the selector accepted this node, including
// during and after deregistration.
func (s State) ReachedRegistered() bool {
	switch s {
	case StateRegistered, StateDeregistering, StateDeregistered:
		return true
	default:
		return false
	}
}

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrLifecycleOrder, from, to)
}
