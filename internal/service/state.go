package service

// State is a step of the alias generation pipeline.
type State string

const (
	StateIdle                  State = "idle"
	StateCheckingPreconditions State = "checking_preconditions"
	StatePrompting             State = "prompting"
	StateAwaitingCompletion    State = "awaiting_completion"
	StateParsing               State = "parsing"
	StateMerging               State = "merging"
	StateWriting               State = "writing"
	StateDone                  State = "done"
	StateAborted               State = "aborted"
)

// inFlight tracks documents with a running invocation.
type inFlight struct {
	handles map[string]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{handles: make(map[string]struct{})}
}

// acquire marks handle as running. It returns false when it already is.
// Callers hold the service mutex.
func (f *inFlight) acquire(handle string) bool {
	if _, ok := f.handles[handle]; ok {
		return false
	}
	f.handles[handle] = struct{}{}
	return true
}

func (f *inFlight) release(handle string) {
	delete(f.handles, handle)
}
