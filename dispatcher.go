package gdbstub

import (
	"fmt"
	"strings"
)

// HandlerStatus tells the session loop what to do after a command has been
// handled.
type HandlerStatus int

const (
	StatusHandled HandlerStatus = iota
	StatusNeedsOK
	StatusDisconnect
)

// DisconnectReason explains a StatusDisconnect outcome.
type DisconnectReason int

const (
	DisconnectKill DisconnectReason = iota
	DisconnectDetach
	DisconnectTargetHalted
)

// capabilityGate names one line of a qSupported reply: a feature string and
// the predicate deciding whether this session's target earns it. Mirrors
// the teacher's handleQSupported, generalised from a hard-coded string into
// a table so new capabilities are one entry, not a rewritten function.
type capabilityGate struct {
	feature   string
	supported func(d *Dispatcher) bool
}

var capabilityGates = []capabilityGate{
	{"qXfer:features:read", func(d *Dispatcher) bool {
		_, ok := d.target.Arch().TargetDescriptionXML()
		return ok
	}},
	{"multiprocess", func(d *Dispatcher) bool { return true }},
	{"QStartNoAckMode", func(d *Dispatcher) bool { return true }},
	{"swbreak", func(d *Dispatcher) bool {
		_, ok := d.target.(SoftwareBreakpoints)
		return ok
	}},
	{"hwbreak", func(d *Dispatcher) bool {
		_, hb := d.target.(HardwareBreakpoints)
		_, hw := d.target.(HardwareWatchpoints)
		return hb || hw
	}},
	{"vContSupported", func(d *Dispatcher) bool { return true }},
	{"QAgent", func(d *Dispatcher) bool {
		_, ok := d.target.(Agent)
		return ok
	}},
	{"ConditionalBreakpoints", func(d *Dispatcher) bool {
		_, ok := d.target.(BreakpointAgent)
		return ok
	}},
	{"BreakpointCommands", func(d *Dispatcher) bool {
		_, ok := d.target.(BreakpointAgent)
		return ok
	}},
	{"QEnvironmentHexEncoded", func(d *Dispatcher) bool {
		_, ok := d.target.(ExtendedMode)
		return ok
	}},
	{"QEnvironmentUnset", func(d *Dispatcher) bool {
		_, ok := d.target.(ExtendedMode)
		return ok
	}},
	{"QEnvironmentReset", func(d *Dispatcher) bool {
		_, ok := d.target.(ExtendedMode)
		return ok
	}},
	{"QStartupWithShell", func(d *Dispatcher) bool {
		_, ok := d.target.(ExtendedMode)
		return ok
	}},
	{"QSetWorkingDir", func(d *Dispatcher) bool {
		_, ok := d.target.(ExtendedMode)
		return ok
	}},
	{"QDisableRandomization", func(d *Dispatcher) bool {
		_, ok := d.target.(ExtendedMode)
		return ok
	}},
}

// Dispatcher routes a parsed Command to the matching target capability and
// writes the RSP reply. It holds the per-session negotiated state that
// shapes replies (multiprocess; the no-ack flag lives in the Framer), but
// not the packet I/O itself —
// that stays in Framer/ResponseWriter so this type is a pure router.
type Dispatcher struct {
	target       Target
	framer       *Framer
	packetSize   int
	multiprocess bool

	// currentResumeTid / currentMemTid implement Hc/Hg (spec.md §4.3): the
	// thread c/s/memory-and-register packets without an explicit thread id
	// apply to.
	currentResumeTid ThreadId
	currentMemTid    ThreadId

	attachedPids map[Pid]bool
	extended     bool

	lastStop ThreadStopReason
	haveStop bool

	resumeEngine *ResumeEngine
}

// NewDispatcher builds a Dispatcher for target, writing replies through
// framer. packetSize is the session's fixed packet buffer capacity,
// advertised to the debugger as qSupported's leading PacketSize= field.
func NewDispatcher(target Target, framer *Framer, packetSize int) *Dispatcher {
	return &Dispatcher{
		target:       target,
		framer:       framer,
		packetSize:   packetSize,
		attachedPids: make(map[Pid]bool),
		resumeEngine: NewResumeEngine(target, framer.CheckInterruptFunc()),
	}
}

// Dispatch handles one parsed command, writing exactly one reply (unless
// status is StatusDisconnect following a 'D'/'k' that by convention gets no
// reply other than what the handler itself wrote).
func (d *Dispatcher) Dispatch(cmd Command) (HandlerStatus, DisconnectReason, error) {
	w := NewResponseWriter(d.framer, d.multiprocess)

	status, reason, err := d.dispatchInto(cmd, w)
	if err != nil && !isFatal(err) {
		var nf *NonFatalError
		if asNonFatal(err, &nf) {
			w.WriteByte('E')
			w.WriteHex([]byte{nf.Code})
		} else {
			w.WriteString("E01")
		}

		if ferr := w.Flush(); ferr != nil {
			return StatusDisconnect, DisconnectTargetHalted, ferr
		}

		return StatusHandled, 0, nil
	}

	return status, reason, err
}

func asNonFatal(err error, target **NonFatalError) bool {
	nf, ok := err.(*NonFatalError)
	if !ok {
		return false
	}

	*target = nf

	return true
}

func (d *Dispatcher) dispatchInto(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	switch cmd.Kind {
	case CmdUnknown:
		return d.flushEmpty(w)

	case CmdQSupported:
		return d.handleQSupported(cmd, w)

	case CmdQStartNoAckMode:
		d.framer.SetNoAckMode(true)

		return d.flushOK(w)

	case CmdQXferFeaturesRead:
		return d.handleQXferFeatures(cmd, w)

	case CmdStopReasonQuery:
		return d.handleStopReasonQuery(w)

	case CmdQAttached:
		return d.handleQAttached(cmd, w)

	case CmdReadAllRegisters:
		return d.handleReadAllRegisters(w)

	case CmdWriteAllRegisters:
		return d.handleWriteAllRegisters(cmd, w)

	case CmdReadRegister:
		return d.handleReadRegister(cmd, w)

	case CmdWriteRegister:
		return d.handleWriteRegister(cmd, w)

	case CmdReadMemory:
		return d.handleReadMemory(cmd, w)

	case CmdWriteMemory:
		return d.handleWriteMemory(cmd, w)

	case CmdVContQuery:
		w.WriteString("vCont;c;C;s;S")

		return d.flush(w)

	case CmdVCont:
		return d.handleResume(cmd.Actions, w)

	case CmdContinue:
		sel := d.currentResumeTid.Sel
		return d.handleResume([]ThreadResumeAction{{Thread: sel, Action: Continue()}}, w)

	case CmdStep:
		sel := d.currentResumeTid.Sel
		return d.handleResume([]ThreadResumeAction{{Thread: sel, Action: Step()}}, w)

	case CmdKill:
		return d.handleKill(cmd, w)

	case CmdVKill:
		return d.handleKill(cmd, w)

	case CmdDetach:
		return d.handleDetach(cmd, w)

	case CmdSetThread:
		return d.handleSetThread(cmd, w)

	case CmdQfThreadInfo:
		return d.handleQfThreadInfo(w)

	case CmdQsThreadInfo:
		w.WriteString("l")

		return d.flush(w)

	case CmdThreadAlive:
		return d.handleThreadAlive(cmd, w)

	case CmdInsertBreakpoint, CmdRemoveBreakpoint:
		return d.handleBreakpoint(cmd, w)

	case CmdExtendedModeEnable:
		d.extended = true

		return d.flushOK(w)

	case CmdRestart:
		return d.flushEmpty(w)

	case CmdVAttach:
		return d.handleVAttach(cmd, w)

	case CmdVRun:
		return d.handleVRun(cmd, w)

	case CmdQEnvironmentHexEncoded:
		return d.handleConfigureEnv(EnvSet, cmd.EnvKey, cmd.EnvVal, w)

	case CmdQEnvironmentUnset:
		return d.handleConfigureEnv(EnvUnset, cmd.EnvKey, "", w)

	case CmdQEnvironmentReset:
		return d.handleConfigureEnv(EnvReset, "", "", w)

	case CmdQStartupWithShell:
		return d.handleExtendedBool(w, func(em ExtendedMode) error {
			return em.ConfigureStartupShell(cmd.BoolArg)
		})

	case CmdQSetWorkingDir:
		return d.handleExtendedBool(w, func(em ExtendedMode) error {
			return em.ConfigureWorkingDir(cmd.WorkingDir)
		})

	case CmdQDisableRandomization:
		return d.handleExtendedBool(w, func(em ExtendedMode) error {
			return em.ConfigureASLR(cmd.BoolArg)
		})

	default:
		return d.flushEmpty(w)
	}
}

func (d *Dispatcher) flush(w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	if err := w.Flush(); err != nil {
		return StatusDisconnect, DisconnectTargetHalted, err
	}

	return StatusHandled, 0, nil
}

func (d *Dispatcher) flushEmpty(w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	return d.flush(w)
}

func (d *Dispatcher) flushOK(w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	w.WriteString("OK")

	return d.flush(w)
}

func (d *Dispatcher) handleQSupported(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	if _, ok := d.target.(MultiThreadTarget); ok {
		d.multiprocess = strings.Contains(string(cmd.Raw), "multiprocess+")
	}

	feats := []string{fmt.Sprintf("PacketSize=%x", d.packetSize)}

	for _, gate := range capabilityGates {
		if gate.supported(d) {
			feats = append(feats, gate.feature+"+")
		}
	}

	w.WriteString(strings.Join(feats, ";"))

	return d.flush(w)
}

func (d *Dispatcher) handleQXferFeatures(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	xml, ok := d.target.Arch().TargetDescriptionXML()
	if !ok {
		return d.flushEmpty(w)
	}

	if cmd.Offset >= uint64(len(xml)) {
		w.WriteByte('l')

		return d.flush(w)
	}

	end := cmd.Offset + cmd.Length
	if end > uint64(len(xml)) {
		end = uint64(len(xml))
	}

	chunk := xml[cmd.Offset:end]

	if end >= uint64(len(xml)) {
		w.WriteByte('l')
	} else {
		w.WriteByte('m')
	}

	w.WriteBinary(chunk)

	return d.flush(w)
}

func (d *Dispatcher) handleStopReasonQuery(w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	if !d.haveStop {
		w.WriteByte('S')
		w.WriteHex([]byte{5})

		return d.flush(w)
	}

	writeStopReply(w, d.lastStop, d.multiprocess)

	return d.flush(w)
}

func (d *Dispatcher) handleQAttached(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	pid := cmd.Pid
	if !cmd.HasPid {
		pid = FakePid
	}

	attached := true

	if aps, ok := d.target.(AttachedPidSet); ok {
		if a, known := aps.IsAttached(pid); known {
			attached = a
		}
	} else if a, ok := d.attachedPids[pid]; ok {
		attached = a
	}

	if attached {
		w.WriteByte('1')
	} else {
		w.WriteByte('0')
	}

	return d.flush(w)
}

func writeStopReply(w *ResponseWriter, r ThreadStopReason, multiprocess bool) {
	if r.IsHalted() {
		w.WriteString("W19")

		return
	}

	switch {
	case r.kind == stopDoneStep || r.kind == stopGdbInterrupt:
		w.WriteByte('S')
		w.WriteHex([]byte{5})

		return
	case r.kind == stopSignal:
		w.WriteByte('S')
		w.WriteHex([]byte{r.signal})

		return
	}

	w.WriteByte('T')
	w.WriteHex([]byte{5})

	if tid, ok := r.Thread(); ok {
		w.WriteString("thread:")
		w.WriteThreadID(tid)
		w.WriteByte(';')
	}

	if addr, kind, ok := r.WatchAddr(); ok {
		w.WriteString(kind.rspName())
		w.WriteByte(':')
		w.WriteHexUint(addr)
		w.WriteByte(';')
	} else if r.kind == stopSwBreak {
		w.WriteString("swbreak:;")
	} else if r.kind == stopHwBreak {
		w.WriteString("hwbreak:;")
	}
}
