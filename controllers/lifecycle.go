package controllers

import "sync/atomic"

// State is the lifecycle stage of a controller.
type State int32

const (
	// StateUnresolved is a controller that has no record bound yet.
	StateUnresolved State = iota
	// StateBound has its record fields copied in.
	StateBound
	// StateMetaAttached also owns an attribute accessor.
	StateMetaAttached
	// StateEvicted was removed from the cache by an invalidation. Its
	// snapshot stays readable but no resolver hands it out again.
	StateEvicted
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateBound:
		return "bound"
	case StateMetaAttached:
		return "meta_attached"
	case StateEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

type lifecycle struct {
	state atomic.Int32
}

// State returns the current lifecycle stage.
func (l *lifecycle) State() State {
	return State(l.state.Load())
}

// advance moves forward to s. Evicted is terminal.
func (l *lifecycle) advance(s State) {
	for {
		cur := l.state.Load()
		if State(cur) == StateEvicted || State(cur) >= s {
			return
		}
		if l.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

// MarkEvicted is called by the cache when the controller is invalidated.
func (l *lifecycle) MarkEvicted() {
	l.state.Store(int32(StateEvicted))
}

// Evicted reports whether the controller was invalidated.
func (l *lifecycle) Evicted() bool {
	return l.State() == StateEvicted
}
