package load

import "fmt"

// State is the current mode of a Generator.
type State int

const (
	// StateInit is the state before Start.
	StateInit State = iota
	// StateSending emits bursts on a timer.
	StateSending
	// StateGated waits for a reply before each further send.
	StateGated
	// StateDraining schedules nothing new and waits for outstanding replies.
	StateDraining
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSending:
		return "sending"
	case StateGated:
		return "gated"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reply is the outcome of HaveReply.
type Reply int

const (
	// Continue means the run is still in progress.
	Continue Reply = iota
	// Done means the generator has drained: every sent request was answered.
	Done
)

// String returns the outcome name.
func (r Reply) String() string {
	switch r {
	case Continue:
		return "continue"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("Reply(%d)", int(r))
	}
}

// event is an input to the state transition function.
type event int

const (
	// evAdmit: the smoothed backlog is inside the window.
	evAdmit event = iota
	// evGate: the smoothed backlog exceeds the window.
	evGate
	// evCap: the ramp passed MaxPPS.
	evCap
	// evScheduleFailed: the event loop refused to arm a wake-up.
	evScheduleFailed
)

func (e event) String() string {
	switch e {
	case evAdmit:
		return "admit"
	case evGate:
		return "gate"
	case evCap:
		return "cap"
	case evScheduleFailed:
		return "schedule-failed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// transition returns the state that follows s on ev. Draining is absorbing.
func (s State) transition(ev event) State {
	switch s {
	case StateInit, StateSending, StateGated:
		switch ev {
		case evAdmit:
			return StateSending
		case evGate:
			return StateGated
		case evCap, evScheduleFailed:
			return StateDraining
		}
	case StateDraining:
		return StateDraining
	}
	panic(fmt.Sprintf("load: no transition from %s on %s", s, ev))
}
