package billing

// State is a pipeline run's position in its lifecycle
type State int

const (
	StateInit State = iota
	StateConnectingDB
	StateStreaming
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateConnectingDB:
		return "CONNECTING_DB"
	case StateStreaming:
		return "STREAMING"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions can follow
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
