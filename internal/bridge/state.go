package bridge

// State is the session lifecycle state.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	// StateBusy covers both blocking and streaming generation.
	StateBusy State = "busy"
)

// stateValue maps states to the bridge_state gauge.
func (s State) stateValue() float64 {
	switch s {
	case StateLoading:
		return 1
	case StateReady:
		return 2
	case StateBusy:
		return 3
	}
	return 0
}

// settling reports whether the state will change without caller action.
func (s State) settling() bool { return s == StateLoading || s == StateBusy }

// admitGenerate checks whether a generation may start in state s.
func admitGenerate(s State) error {
	switch s {
	case StateReady:
		return nil
	case StateUnloaded:
		return ErrNotLoaded
	default:
		return busyError{state: s}
	}
}

// admitLoad checks whether a load may start in state s. Ready is admitted and
// replaces the loaded model.
func admitLoad(s State) error {
	if s.settling() {
		return busyError{state: s}
	}
	return nil
}
