package client

// State is where a single call is in the request/refresh/retry cycle.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRefreshPending
	StateRetrying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRefreshPending:
		return "refresh_pending"
	case StateRetrying:
		return "retrying"
	}
	return "unknown"
}

// StateHook observes state transitions of every call.
type StateHook func(method, path string, s State)
