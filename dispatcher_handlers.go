package gdbstub

// handleReadAllRegisters implements 'g': read every register as one blob.
func (d *Dispatcher) handleReadAllRegisters(w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	buf := make([]byte, d.target.Arch().RegisterBytes())

	var err error

	switch t := d.target.(type) {
	case SingleThreadTarget:
		err = t.ReadRegisters(buf)
	case MultiThreadTarget:
		err = t.ReadRegisters(d.currentMemTid, buf)
	default:
		return d.flushEmpty(w)
	}

	if err != nil {
		return 0, 0, err
	}

	w.WriteHex(buf)

	return d.flush(w)
}

// handleWriteAllRegisters implements 'G'.
func (d *Dispatcher) handleWriteAllRegisters(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	var err error

	switch t := d.target.(type) {
	case SingleThreadTarget:
		err = t.WriteRegisters(cmd.Data)
	case MultiThreadTarget:
		err = t.WriteRegisters(d.currentMemTid, cmd.Data)
	default:
		return d.flushEmpty(w)
	}

	if err != nil {
		return 0, 0, err
	}

	return d.flushOK(w)
}

// handleReadRegister implements 'p'.
func (d *Dispatcher) handleReadRegister(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	width, ok := d.target.Arch().DecodeRegisterID(cmd.RegisterID)
	if !ok {
		return d.flushEmpty(w)
	}

	buf := make([]byte, width)

	var found bool

	var err error

	switch t := d.target.(type) {
	case SingleThreadTarget:
		found, err = t.ReadRegister(cmd.RegisterID, buf)
	case MultiThreadTarget:
		found, err = t.ReadRegister(d.currentMemTid, cmd.RegisterID, buf)
	default:
		return d.flushEmpty(w)
	}

	if err != nil {
		return 0, 0, err
	}

	if !found {
		return d.flushEmpty(w)
	}

	w.WriteHex(buf)

	return d.flush(w)
}

// handleWriteRegister implements 'P'.
func (d *Dispatcher) handleWriteRegister(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	var found bool

	var err error

	switch t := d.target.(type) {
	case SingleThreadTarget:
		found, err = t.WriteRegister(cmd.RegisterID, cmd.Data)
	case MultiThreadTarget:
		found, err = t.WriteRegister(d.currentMemTid, cmd.RegisterID, cmd.Data)
	default:
		return d.flushEmpty(w)
	}

	if err != nil {
		return 0, 0, err
	}

	if !found {
		return d.flushEmpty(w)
	}

	return d.flushOK(w)
}

// handleReadMemory implements 'm'.
func (d *Dispatcher) handleReadMemory(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	buf := make([]byte, cmd.Size)

	var found bool

	var err error

	switch t := d.target.(type) {
	case SingleThreadTarget:
		found, err = t.ReadAddrs(cmd.Addr, buf)
	case MultiThreadTarget:
		found, err = t.ReadAddrs(d.currentMemTid, cmd.Addr, buf)
	default:
		return d.flushEmpty(w)
	}

	if err != nil {
		return 0, 0, err
	}

	if !found {
		return 0, 0, &NonFatalError{Code: 0x01}
	}

	w.WriteHex(buf)

	return d.flush(w)
}

// handleWriteMemory implements 'M'.
func (d *Dispatcher) handleWriteMemory(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	var found bool

	var err error

	switch t := d.target.(type) {
	case SingleThreadTarget:
		found, err = t.WriteAddrs(cmd.Addr, cmd.Data)
	case MultiThreadTarget:
		found, err = t.WriteAddrs(d.currentMemTid, cmd.Addr, cmd.Data)
	default:
		return d.flushEmpty(w)
	}

	if err != nil {
		return 0, 0, err
	}

	if !found {
		return 0, 0, &NonFatalError{Code: 0x01}
	}

	return d.flushOK(w)
}

// handleResume drives c/s/vCont through the resume engine, then writes the
// resulting stop reply (or a kill/halt disconnect).
func (d *Dispatcher) handleResume(actions []ThreadResumeAction, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	stop, err := d.resumeEngine.Run(actions)
	if err != nil {
		return 0, 0, err
	}

	d.lastStop = stop
	d.haveStop = true

	// spec.md §4.5: the stopped thread becomes the implicit tid for any
	// m/g/c that follows without its own Hg/Hc.
	if tid, ok := stop.Thread(); ok {
		d.currentMemTid = tid
		d.currentResumeTid = tid
	}

	writeStopReply(w, stop, d.multiprocess)

	status, reason, err := d.flush(w)
	if err != nil {
		return status, reason, err
	}

	if stop.IsHalted() {
		return StatusDisconnect, DisconnectTargetHalted, nil
	}

	return StatusHandled, 0, nil
}

// handleKill implements 'k' and vKill.
func (d *Dispatcher) handleKill(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	em, ok := d.target.(ExtendedMode)
	if !ok {
		// Plain-mode 'k' has no reply at all; the session simply ends.
		return StatusDisconnect, DisconnectKill, nil
	}

	var pid *Pid
	if cmd.HasPid {
		p := cmd.Pid
		pid = &p
	}

	endSession, err := em.Kill(pid)
	if err != nil {
		return 0, 0, err
	}

	if cmd.Kind == CmdVKill {
		if _, _, err := d.flushOK(w); err != nil {
			return StatusDisconnect, DisconnectKill, err
		}
	}

	if endSession {
		return StatusDisconnect, DisconnectKill, nil
	}

	return StatusHandled, 0, nil
}

// handleDetach implements 'D'.
func (d *Dispatcher) handleDetach(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	if cmd.HasPid {
		delete(d.attachedPids, cmd.Pid)
	}

	if _, _, err := d.flushOK(w); err != nil {
		return StatusDisconnect, DisconnectDetach, err
	}

	return StatusDisconnect, DisconnectDetach, nil
}

// handleSetThread implements 'Hg'/'Hc'.
func (d *Dispatcher) handleSetThread(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	switch cmd.HKind {
	case 'g':
		if cmd.Thread.Sel.IsAll() {
			return 0, 0, ErrPacketUnexpected
		}

		d.currentMemTid = cmd.Thread
	case 'c':
		d.currentResumeTid = cmd.Thread
	default:
		return 0, 0, ErrPacketUnexpected
	}

	return d.flushOK(w)
}

// handleQfThreadInfo implements the qfThreadInfo/qsThreadInfo pair's first
// half: a single reply listing every thread (our targets are small enough
// that pagination is never required, so qsThreadInfo always answers "l").
func (d *Dispatcher) handleQfThreadInfo(w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	mt, ok := d.target.(MultiThreadTarget)
	if !ok {
		w.WriteByte('m')
		w.WriteThreadID(SingleThread())

		return d.flush(w)
	}

	w.WriteByte('m')

	first := true

	var iterErr error

	err := mt.ListActiveThreads(func(tid ThreadId) bool {
		if !first {
			w.WriteByte(',')
		}

		first = false

		w.WriteThreadID(tid)

		return true
	})
	if err != nil {
		iterErr = err
	}

	if iterErr != nil {
		return 0, 0, iterErr
	}

	return d.flush(w)
}

// handleThreadAlive implements 'T'.
func (d *Dispatcher) handleThreadAlive(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	mt, ok := d.target.(MultiThreadTarget)
	if !ok {
		return d.flushOK(w)
	}

	if mt.IsThreadAlive(cmd.Thread) {
		return d.flushOK(w)
	}

	return 0, 0, &NonFatalError{Code: 0x01}
}

// handleBreakpoint implements Z/z for all five kinds.
func (d *Dispatcher) handleBreakpoint(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	insert := cmd.Kind == CmdInsertBreakpoint

	ok, err := d.applyBreakpoint(cmd, insert)
	if err != nil {
		return 0, 0, err
	}

	if !ok {
		return d.flushEmpty(w)
	}

	if insert {
		d.attachBreakpointBytecodes(cmd)
	}

	return d.flushOK(w)
}

func (d *Dispatcher) applyBreakpoint(cmd Command, insert bool) (bool, error) {
	switch cmd.BPKind {
	case BreakpointSoftware:
		sb, ok := d.target.(SoftwareBreakpoints)
		if !ok {
			return false, nil
		}

		if insert {
			return sb.AddSoftwareBreakpoint(cmd.BPAddr, cmd.BPLenHint)
		}

		return sb.RemoveSoftwareBreakpoint(cmd.BPAddr, cmd.BPLenHint)

	case BreakpointHardware:
		hb, ok := d.target.(HardwareBreakpoints)
		if !ok {
			return false, nil
		}

		if insert {
			return hb.AddHardwareBreakpoint(cmd.BPAddr, cmd.BPLenHint)
		}

		return hb.RemoveHardwareBreakpoint(cmd.BPAddr, cmd.BPLenHint)

	case WatchpointWriteKind, WatchpointReadKind, WatchpointAccessKind:
		hw, ok := d.target.(HardwareWatchpoints)
		if !ok {
			return false, nil
		}

		kind := WatchWrite

		switch cmd.BPKind {
		case WatchpointReadKind:
			kind = WatchRead
		case WatchpointAccessKind:
			kind = WatchReadWrite
		}

		if insert {
			return hw.AddHardwareWatchpoint(cmd.BPAddr, cmd.BPLenHint, kind)
		}

		return hw.RemoveHardwareWatchpoint(cmd.BPAddr, cmd.BPLenHint, kind)

	default:
		return false, nil
	}
}

func (d *Dispatcher) attachBreakpointBytecodes(cmd Command) {
	agent, ok := d.target.(BreakpointAgent)
	if !ok || len(cmd.Bytecodes) == 0 {
		return
	}

	for _, bc := range cmd.Bytecodes {
		_, _ = agent.AttachBytecode(cmd.BPAddr, bc.Kind, bc.Code)
	}
}

// handleVAttach implements "vAttach;pid".
func (d *Dispatcher) handleVAttach(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	em, ok := d.target.(ExtendedMode)
	if !ok {
		return d.flushEmpty(w)
	}

	if err := em.Attach(cmd.Pid); err != nil {
		return 0, 0, err
	}

	d.attachedPids[cmd.Pid] = true

	if !d.haveStop {
		// A freshly attached process hasn't run yet; report the conventional
		// SIGTRAP stop rather than inventing a breakpoint/watchpoint site.
		d.lastStop = SignalThread(5)
		d.haveStop = true
	}

	writeStopReply(w, d.lastStop, d.multiprocess)

	return d.flush(w)
}

// handleVRun implements "vRun;filename;arg1;arg2...".
func (d *Dispatcher) handleVRun(cmd Command, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	em, ok := d.target.(ExtendedMode)
	if !ok {
		return d.flushEmpty(w)
	}

	pid, err := em.Run(cmd.RunFilename, cmd.RunArgs)
	if err != nil {
		return 0, 0, err
	}

	d.attachedPids[pid] = false

	// The new inferior stops at its entry point before executing anything;
	// report that the same way a real stub reports the initial SIGTRAP.
	stop := SignalThread(5)
	d.lastStop = stop
	d.haveStop = true

	writeStopReply(w, stop, d.multiprocess)

	return d.flush(w)
}

func (d *Dispatcher) handleConfigureEnv(op EnvOp, key, val string, w *ResponseWriter) (HandlerStatus, DisconnectReason, error) {
	return d.handleExtendedBool(w, func(em ExtendedMode) error {
		return em.ConfigureEnv(op, key, val)
	})
}

func (d *Dispatcher) handleExtendedBool(w *ResponseWriter, fn func(ExtendedMode) error) (HandlerStatus, DisconnectReason, error) {
	em, ok := d.target.(ExtendedMode)
	if !ok {
		return d.flushEmpty(w)
	}

	if err := fn(em); err != nil {
		return 0, 0, err
	}

	return d.flushOK(w)
}
