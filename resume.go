package gdbstub

// ResumeActionKind distinguishes the two currently-implemented resume
// actions. StepWithSignal/ContinueWithSignal are reserved for future use;
// attempting them reports ErrResumeWithSignalUnimplemented.
type ResumeActionKind int

const (
	ActionContinue ResumeActionKind = iota
	ActionStep
)

// ResumeAction is what a single thread should do when resumed. Signal is
// non-nil only for the reserved signal-delivering variants.
type ResumeAction struct {
	Kind   ResumeActionKind
	Signal *uint8
}

// Continue builds a plain "keep running" resume action.
func Continue() ResumeAction { return ResumeAction{Kind: ActionContinue} }

// Step builds a plain single-step resume action.
func Step() ResumeAction { return ResumeAction{Kind: ActionStep} }

// ThreadResumeAction pairs a thread selector with the action it should take;
// this is the per-thread action list vCont carries.
type ThreadResumeAction struct {
	Thread TidSelector
	Action ResumeAction
}

// WatchKind distinguishes the three hardware watchpoint flavors.
type WatchKind int

const (
	WatchWrite WatchKind = iota
	WatchRead
	WatchReadWrite
)

func (k WatchKind) rspName() string {
	switch k {
	case WatchWrite:
		return "watch"
	case WatchRead:
		return "rwatch"
	case WatchReadWrite:
		return "awatch"
	default:
		return "watch"
	}
}

type stopKind int

const (
	stopDoneStep stopKind = iota
	stopGdbInterrupt
	stopHalted
	stopSwBreak
	stopHwBreak
	stopWatch
	stopSignal
)

// StopReason is the single-thread stop-reason tagged union from spec.md §3.
type StopReason struct {
	kind      stopKind
	signal    uint8
	watchKind WatchKind
	watchAddr uint64
}

func DoneStepReason() StopReason     { return StopReason{kind: stopDoneStep} }
func GdbInterruptReason() StopReason { return StopReason{kind: stopGdbInterrupt} }
func HaltedReason() StopReason       { return StopReason{kind: stopHalted} }
func SwBreakReason() StopReason      { return StopReason{kind: stopSwBreak} }
func HwBreakReason() StopReason      { return StopReason{kind: stopHwBreak} }
func SignalReason(code uint8) StopReason {
	return StopReason{kind: stopSignal, signal: code}
}
func WatchReason(kind WatchKind, addr uint64) StopReason {
	return StopReason{kind: stopWatch, watchKind: kind, watchAddr: addr}
}

// Lift attaches SingleThreadTid to a single-thread stop reason, producing
// its multi-thread equivalent.
func (s StopReason) Lift() ThreadStopReason {
	t := SingleThread()

	switch s.kind {
	case stopSwBreak, stopHwBreak, stopWatch:
		return ThreadStopReason{kind: s.kind, signal: s.signal, watchKind: s.watchKind, watchAddr: s.watchAddr, tid: &t}
	default:
		return ThreadStopReason{kind: s.kind, signal: s.signal}
	}
}

// ThreadStopReason is the multi-thread stop-reason tagged union. Only
// SwBreak/HwBreak/Watch carry a thread id; the others are session-wide.
type ThreadStopReason struct {
	kind      stopKind
	signal    uint8
	watchKind WatchKind
	watchAddr uint64
	tid       *ThreadId
}

func DoneStepThread() ThreadStopReason     { return ThreadStopReason{kind: stopDoneStep} }
func GdbInterruptThread() ThreadStopReason { return ThreadStopReason{kind: stopGdbInterrupt} }
func HaltedThread() ThreadStopReason       { return ThreadStopReason{kind: stopHalted} }

func SignalThread(code uint8) ThreadStopReason {
	return ThreadStopReason{kind: stopSignal, signal: code}
}

func SwBreakThread(tid ThreadId) ThreadStopReason {
	return ThreadStopReason{kind: stopSwBreak, tid: &tid}
}

func HwBreakThread(tid ThreadId) ThreadStopReason {
	return ThreadStopReason{kind: stopHwBreak, tid: &tid}
}

func WatchThread(tid ThreadId, kind WatchKind, addr uint64) ThreadStopReason {
	return ThreadStopReason{kind: stopWatch, tid: &tid, watchKind: kind, watchAddr: addr}
}

// Thread returns the thread id attached to this stop, if any.
func (r ThreadStopReason) Thread() (ThreadId, bool) {
	if r.tid == nil {
		return ThreadId{}, false
	}

	return *r.tid, true
}

// IsBreakOrWatch reports whether this stop is one that drives the
// conditional-breakpoint re-resume loop (spec.md §4.5).
func (r ThreadStopReason) IsBreakOrWatch() bool {
	switch r.kind {
	case stopSwBreak, stopHwBreak, stopWatch:
		return true
	default:
		return false
	}
}

// WatchAddr returns the address and kind carried by a watchpoint stop; ok
// is false for every other stop. For SwBreak/HwBreak it is the caller's
// responsibility to resolve the PC via the target's registers (spec.md
// §4.5 step 1), so this only covers the watchpoint case where the address
// is carried on the stop reason itself.
func (r ThreadStopReason) WatchAddr() (uint64, WatchKind, bool) {
	if r.kind != stopWatch {
		return 0, 0, false
	}

	return r.watchAddr, r.watchKind, true
}

// IsHalted reports whether the target has halted entirely (W19, schedule disconnect).
func (r ThreadStopReason) IsHalted() bool { return r.kind == stopHalted }
