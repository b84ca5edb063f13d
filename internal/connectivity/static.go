package connectivity

import "sync/atomic"

// Static is a Monitor whose state is set by the caller. Tests use it to
// simulate connectivity loss; embedding applications can use it when the
// platform already tells them about reachability.
type Static struct {
	online atomic.Bool
	broadcaster
}

// NewStatic returns a Static monitor with the given initial state.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Online() bool { return s.online.Load() }

func (s *Static) Subscribe() <-chan bool { return s.subscribe() }

// SetOnline updates the state and notifies subscribers on transitions.
func (s *Static) SetOnline(online bool) {
	if s.online.Swap(online) != online {
		s.notify(online)
	}
}
