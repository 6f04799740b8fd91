package channel

// State is the lifecycle state of a Client. Exactly one value holds at any
// instant and transitions are the only mutation path.
type State int

const (
	// StateConnecting means a connection attempt is in progress.
	StateConnecting State = iota
	// StateOpen means the transport is established and Send may succeed.
	StateOpen
	// StateRetryScheduled means the connection was lost and exactly one
	// reconnection timer is pending.
	StateRetryScheduled
	// StateTerminal means the retry budget is exhausted. The client makes
	// no further attempts without external re-invocation.
	StateTerminal
	// StateClosed means the caller closed the channel. No further attempts
	// ever.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateRetryScheduled:
		return "retry_scheduled"
	case StateTerminal:
		return "terminal"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the client will make no further attempts on its
// own from this state.
func (s State) Terminal() bool {
	return s == StateTerminal || s == StateClosed
}

// event is a state machine input.
type event int

const (
	// eventEstablished: the transport reported a successful open.
	eventEstablished event = iota
	// eventConnLost: the transport failed to open, errored, or closed
	// unexpectedly. The two are treated identically.
	eventConnLost
	// eventTimerFired: the pending retry timer elapsed.
	eventTimerFired
	// eventCloseRequested: the caller invoked Close.
	eventCloseRequested
)

func (e event) String() string {
	switch e {
	case eventEstablished:
		return "established"
	case eventConnLost:
		return "conn_lost"
	case eventTimerFired:
		return "timer_fired"
	case eventCloseRequested:
		return "close_requested"
	default:
		return "unknown"
	}
}

// transition computes the successor state for one event. retryBudgetLeft
// decides between scheduling a retry and giving up when the connection is
// lost. Combinations that have no defined transition keep the current
// state; both terminal states absorb every event except nothing.
func transition(s State, ev event, retryBudgetLeft bool) State {
	if ev == eventCloseRequested {
		if s == StateTerminal {
			return StateTerminal
		}
		return StateClosed
	}

	switch s {
	case StateConnecting:
		switch ev {
		case eventEstablished:
			return StateOpen
		case eventConnLost:
			if retryBudgetLeft {
				return StateRetryScheduled
			}
			return StateTerminal
		default:
			return s
		}
	case StateOpen:
		if ev == eventConnLost {
			if retryBudgetLeft {
				return StateRetryScheduled
			}
			return StateTerminal
		}
		return s
	case StateRetryScheduled:
		if ev == eventTimerFired {
			return StateConnecting
		}
		return s
	case StateTerminal, StateClosed:
		return s
	default:
		return s
	}
}
