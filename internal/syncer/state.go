package syncer

// State tracks where a run is in its lifecycle. Transitions are linear:
// INIT, SCHEMA_READY, then FETCHING/STORING until DONE. FAILED is reachable
// from any state on a fatal error.
type State int

const (
	// StateInit is the initial state: configuration validation.
	StateInit State = iota
	// StateSchemaReady means the schema pre-flight succeeded.
	StateSchemaReady
	// StateFetching means the run is pulling records from the source.
	StateFetching
	// StateStoring means the run is submitting records to the store.
	StateStoring
	// StateDone is the successful terminal state.
	StateDone
	// StateFailed is the fatal terminal state.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateSchemaReady:
		return "SCHEMA_READY"
	case StateFetching:
		return "FETCHING"
	case StateStoring:
		return "STORING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
