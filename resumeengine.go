package gdbstub

// ResumeEngine drives a target's Resume operation and implements the
// server-side conditional-breakpoint loop (spec.md §4.5): after a stop at a
// software/hardware breakpoint, any attached condition bytecodes are
// evaluated and OR'd; a false verdict re-resumes silently instead of
// reporting the stop to GDB.
type ResumeEngine struct {
	target         Target
	checkInterrupt func() bool
}

// NewResumeEngine builds a ResumeEngine for target. checkInterrupt is
// forwarded to every Resume call so the target can poll for GDB's 0x03.
func NewResumeEngine(target Target, checkInterrupt func() bool) *ResumeEngine {
	return &ResumeEngine{target: target, checkInterrupt: checkInterrupt}
}

// Run resumes the target with actions until it reports a stop GDB should
// see. For a single-thread target only actions[0].Action is used (its
// thread selector is ignored, since there is only ever one thread).
func (e *ResumeEngine) Run(actions []ThreadResumeAction) (ThreadStopReason, error) {
	for _, a := range actions {
		if a.Action.Signal != nil {
			return ThreadStopReason{}, ErrResumeWithSignalUnimplemented
		}
	}

	for {
		stop, err := e.resumeOnce(actions)
		if err != nil {
			return ThreadStopReason{}, err
		}

		if !stop.IsBreakOrWatch() {
			return stop, nil
		}

		again, err := e.runBreakpointBytecodes(stop)
		if err != nil {
			return ThreadStopReason{}, err
		}

		if !again {
			return stop, nil
		}
		// Condition evaluated false: loop and resume silently (step 5).
	}
}

func (e *ResumeEngine) resumeOnce(actions []ThreadResumeAction) (ThreadStopReason, error) {
	switch t := e.target.(type) {
	case SingleThreadTarget:
		action := Continue()
		if len(actions) > 0 {
			action = actions[0].Action
		}

		stop, err := t.Resume(action, e.checkInterrupt)
		if err != nil {
			return ThreadStopReason{}, err
		}

		return stop.Lift(), nil

	case MultiThreadTarget:
		return t.Resume(actions, e.checkInterrupt)

	default:
		return ThreadStopReason{}, ErrPacketUnexpected
	}
}

// runBreakpointBytecodes evaluates any conditions attached to the address
// stop occurred at and returns again=true when the stop should be silently
// re-resumed (spec.md §4.5 steps 1-5). If the target has no BreakpointAgent,
// or the stop's address cannot be resolved, every stop is reported.
func (e *ResumeEngine) runBreakpointBytecodes(stop ThreadStopReason) (again bool, err error) {
	agent, ok := e.target.(BreakpointAgent)
	if !ok {
		return false, nil
	}

	addr, ok := e.resolveStopAddr(stop)
	if !ok {
		return false, nil
	}

	conditions := agent.ConditionsFor(addr)

	truth := len(conditions) == 0

	for _, id := range conditions {
		v, err := agent.Evaluate(id)
		if err != nil {
			if isFatal(err) {
				return false, err
			}
			// Non-fatal evaluation failure: treat as unresolved, per
			// BreakpointAgent.Evaluate's documented conservative default.
			v = true
		}

		truth = truth || v
	}

	if !truth {
		return true, nil
	}

	for _, id := range agent.CommandsFor(addr) {
		if _, err := agent.Evaluate(id); err != nil && isFatal(err) {
			return false, err
		}
	}

	return false, nil
}

// resolveStopAddr finds the program counter of the thread that stopped, for
// a watchpoint this is carried on the stop reason directly; for a
// breakpoint it must be read back from the target's registers.
func (e *ResumeEngine) resolveStopAddr(stop ThreadStopReason) (uint64, bool) {
	if addr, _, ok := stop.WatchAddr(); ok {
		return addr, true
	}

	pcReg, ok := e.target.Arch().ProgramCounterRegister()
	if !ok {
		return 0, false
	}

	width, ok := e.target.Arch().DecodeRegisterID(pcReg)
	if !ok {
		return 0, false
	}

	buf := make([]byte, width)

	switch t := e.target.(type) {
	case SingleThreadTarget:
		found, err := t.ReadRegister(pcReg, buf)
		if err != nil || !found {
			return 0, false
		}
	case MultiThreadTarget:
		tid, ok := stop.Thread()
		if !ok {
			return 0, false
		}

		found, err := t.ReadRegister(tid, pcReg, buf)
		if err != nil || !found {
			return 0, false
		}
	default:
		return 0, false
	}

	var addr uint64
	for i := len(buf) - 1; i >= 0; i-- {
		addr = addr<<8 | uint64(buf[i])
	}

	return addr, true
}
