package gdbstub

// stubArch is a minimal Arch for tests: one 4-byte register (id 0, also
// the program counter) and no target description.
type stubArch struct{}

func (stubArch) RegisterBytes() int                      { return 4 }
func (stubArch) PointerBytes() int                        { return 4 }
func (stubArch) DecodeRegisterID(id uint32) (int, bool)   { return 4, id == 0 }
func (stubArch) ProgramCounterRegister() (uint32, bool)   { return 0, true }
func (stubArch) TargetDescriptionXML() ([]byte, bool)     { return nil, false }

// stubTarget is a single-thread target whose Resume behavior is scripted
// by the test via the stops queue; it also implements SoftwareBreakpoints.
// stubAgentTarget below wraps it with BreakpointAgent so the
// conditional-breakpoint loop can be exercised.
type stubTarget struct {
	pc uint32

	stops []StopReason

	breakpoints map[uint64]bool

	// conditions maps a breakpoint address to a scripted truth value.
	conditions map[uint64]bool
}

func newStubTarget(stops ...StopReason) *stubTarget {
	return &stubTarget{
		stops:       stops,
		breakpoints: make(map[uint64]bool),
		conditions:  make(map[uint64]bool),
	}
}

func (t *stubTarget) Arch() Arch { return stubArch{} }

func (t *stubTarget) ReadRegisters(regs []byte) error { return nil }
func (t *stubTarget) WriteRegisters(regs []byte) error { return nil }

func (t *stubTarget) ReadRegister(id uint32, buf []byte) (bool, error) {
	if id != 0 {
		return false, nil
	}

	buf[0] = byte(t.pc)
	buf[1] = byte(t.pc >> 8)
	buf[2] = byte(t.pc >> 16)
	buf[3] = byte(t.pc >> 24)

	return true, nil
}

func (t *stubTarget) WriteRegister(id uint32, data []byte) (bool, error) { return id == 0, nil }
func (t *stubTarget) ReadAddrs(addr uint64, buf []byte) (bool, error)    { return true, nil }
func (t *stubTarget) WriteAddrs(addr uint64, data []byte) (bool, error)  { return true, nil }

func (t *stubTarget) Resume(action ResumeAction, checkInterrupt func() bool) (StopReason, error) {
	if len(t.stops) == 0 {
		return HaltedReason(), nil
	}

	s := t.stops[0]
	t.stops = t.stops[1:]

	return s, nil
}

func (t *stubTarget) AddSoftwareBreakpoint(addr, kind uint64) (bool, error) {
	t.breakpoints[addr] = true

	return true, nil
}

func (t *stubTarget) RemoveSoftwareBreakpoint(addr, kind uint64) (bool, error) {
	if !t.breakpoints[addr] {
		return false, nil
	}

	delete(t.breakpoints, addr)

	return true, nil
}

// BreakpointAgent: one scripted condition per address, attached via
// AttachBytecode; Evaluate reads back the scripted value from conditions.
type attachedBytecode struct {
	addr uint64
	kind BreakpointBytecodeKind
}

type stubAgentTarget struct {
	*stubTarget

	nextID    uint32
	attached  map[uint32]attachedBytecode
	evalCount int
}

func newStubAgentTarget(stops ...StopReason) *stubAgentTarget {
	return &stubAgentTarget{stubTarget: newStubTarget(stops...), attached: make(map[uint32]attachedBytecode)}
}

func (t *stubAgentTarget) AttachBytecode(addr uint64, kind BreakpointBytecodeKind, code []byte) (uint32, error) {
	t.nextID++
	t.attached[t.nextID] = attachedBytecode{addr: addr, kind: kind}

	return t.nextID, nil
}

func (t *stubAgentTarget) DetachBytecode(addr uint64, id uint32) error {
	delete(t.attached, id)

	return nil
}

func (t *stubAgentTarget) ConditionsFor(addr uint64) []uint32 {
	var ids []uint32

	for id, bc := range t.attached {
		if bc.addr == addr && bc.kind == BytecodeCondition {
			ids = append(ids, id)
		}
	}

	return ids
}

func (t *stubAgentTarget) CommandsFor(addr uint64) []uint32 {
	var ids []uint32

	for id, bc := range t.attached {
		if bc.addr == addr && bc.kind == BytecodeCommand {
			ids = append(ids, id)
		}
	}

	return ids
}

func (t *stubAgentTarget) Evaluate(id uint32) (bool, error) {
	t.evalCount++

	bc := t.attached[id]

	return t.conditions[bc.addr], nil
}
