package orchestrator

import "fmt"

// transitions lists the states reachable from each state. Failed is
// reachable from every non-terminal state and is handled separately.
var transitions = map[State][]State{
	StateIdle:         {StateDecomposing},
	StateDecomposing:  {StateDispatching},
	StateDispatching:  {StateSynthesizing},
	StateSynthesizing: {StateDone},
}

// Terminal reports whether s ends an invocation.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether the state machine may move from one state to
// another.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine tracks one invocation's state and reports transitions.
type machine struct {
	state State
	emit  func(ProgressEvent)
}

func newMachine(emit func(ProgressEvent)) *machine {
	return &machine{state: StateIdle, emit: emit}
}

// advance moves to the next stage and reports the previous stage complete.
func (m *machine) advance(to State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("orchestrator: invalid transition %s -> %s", m.state, to)
	}
	if m.state != StateIdle {
		m.report(m.state, ProgressComplete, "")
	}
	m.state = to
	if !to.Terminal() {
		m.report(to, ProgressWorking, "")
	}
	return nil
}

// fail moves to StateFailed, reporting the current stage as failed.
func (m *machine) fail(reason error) {
	if m.state.Terminal() {
		return
	}
	m.report(m.state, ProgressFailed, reason.Error())
	m.state = StateFailed
}

func (m *machine) report(s State, status ProgressStatus, msg string) {
	if m.emit != nil {
		m.emit(ProgressEvent{State: s, Index: -1, Status: status, Message: msg})
	}
}
