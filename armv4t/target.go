package armv4t

import (
	"encoding/binary"
	"fmt"

	"github.com/haldane-systems/gdbstub"
)

// Target adapts a CPU to gdbstub.SingleThreadTarget plus the software
// breakpoint, hardware watchpoint and extended-mode capabilities,
// generalising the single Emu of original_source/examples/armv4t/gdb.rs.
type Target struct {
	cpu *CPU
}

// New wraps cpu for use as a gdbstub.Target.
func New(cpu *CPU) *Target { return &Target{cpu: cpu} }

func (t *Target) Arch() gdbstub.Arch { return Arch{} }

// APIVersion satisfies gdbstub.VersionedTarget, gating construction against
// EngineAPIConstraint (SPEC_FULL.md §4.7).
func (t *Target) APIVersion() string { return gdbstub.EngineAPIVersion }

func (t *Target) ReadRegisters(buf []byte) error {
	for i := 0; i < 15; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], t.cpu.Regs[i])
	}

	binary.LittleEndian.PutUint32(buf[15*4:], t.cpu.PC())
	binary.LittleEndian.PutUint32(buf[16*4:], t.cpu.Cpsr)

	return nil
}

func (t *Target) WriteRegisters(data []byte) error {
	if len(data) < 17*4 {
		return fmt.Errorf("armv4t: short register write (%d bytes)", len(data))
	}

	for i := 0; i < 15; i++ {
		t.cpu.Regs[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	t.cpu.Regs[15] = binary.LittleEndian.Uint32(data[15*4:])
	t.cpu.Cpsr = binary.LittleEndian.Uint32(data[16*4:])

	return nil
}

func (t *Target) ReadRegister(id uint32, buf []byte) (bool, error) {
	if id > regCPSR {
		return false, nil
	}

	var v uint32
	if id == regCPSR {
		v = t.cpu.Cpsr
	} else {
		v = t.cpu.Regs[id]
	}

	binary.LittleEndian.PutUint32(buf, v)

	return true, nil
}

func (t *Target) WriteRegister(id uint32, data []byte) (bool, error) {
	if id > regCPSR || len(data) < 4 {
		return false, nil
	}

	v := binary.LittleEndian.Uint32(data)

	if id == regCPSR {
		t.cpu.Cpsr = v
	} else {
		t.cpu.Regs[id] = v
	}

	return true, nil
}

func (t *Target) ReadAddrs(addr uint64, buf []byte) (bool, error) {
	for i := range buf {
		buf[i] = t.cpu.R8(uint32(addr) + uint32(i))
	}

	return true, nil
}

func (t *Target) WriteAddrs(addr uint64, data []byte) (bool, error) {
	for i, b := range data {
		t.cpu.W8(uint32(addr)+uint32(i), b)
	}

	return true, nil
}

// Resume runs the CPU until it stops, checking checkInterrupt every 1024
// instructions under a continue action (mirroring gdb.rs's cadence).
func (t *Target) Resume(action gdbstub.ResumeAction, checkInterrupt func() bool) (gdbstub.StopReason, error) {
	switch action.Kind {
	case gdbstub.ActionStep:
		ev := t.cpu.Step()

		return t.translate(ev), nil

	case gdbstub.ActionContinue:
		cycles := 0

		for {
			ev := t.cpu.Step()
			if ev != EventNone {
				return t.translate(ev), nil
			}

			cycles++
			if cycles%1024 == 0 && checkInterrupt() {
				return gdbstub.GdbInterruptReason(), nil
			}
		}

	default:
		return gdbstub.StopReason{}, gdbstub.ErrResumeWithSignalUnimplemented
	}
}

func (t *Target) translate(ev Event) gdbstub.StopReason {
	switch ev {
	case EventHalted:
		return gdbstub.HaltedReason()
	case EventBreak:
		return gdbstub.SwBreakReason()
	case EventWatchWrite:
		return gdbstub.WatchReason(gdbstub.WatchWrite, uint64(t.cpu.PC()))
	case EventWatchRead:
		return gdbstub.WatchReason(gdbstub.WatchRead, uint64(t.cpu.PC()))
	default:
		return gdbstub.DoneStepReason()
	}
}

// AddSoftwareBreakpoint/RemoveSoftwareBreakpoint implement gdbstub.SoftwareBreakpoints.
func (t *Target) AddSoftwareBreakpoint(addr, _ uint64) (bool, error) {
	t.cpu.AddBreakpoint(uint32(addr))

	return true, nil
}

func (t *Target) RemoveSoftwareBreakpoint(addr, _ uint64) (bool, error) {
	return t.cpu.RemoveBreakpoint(uint32(addr)), nil
}

// AddHardwareWatchpoint/RemoveHardwareWatchpoint implement gdbstub.HardwareWatchpoints.
func (t *Target) AddHardwareWatchpoint(addr, length uint64, kind gdbstub.WatchKind) (bool, error) {
	t.cpu.AddWatchpoint(uint32(addr), uint32(length), int(kind))

	return true, nil
}

func (t *Target) RemoveHardwareWatchpoint(addr, length uint64, kind gdbstub.WatchKind) (bool, error) {
	return t.cpu.RemoveWatchpoint(uint32(addr), uint32(length), int(kind)), nil
}

// Kill implements gdbstub.ExtendedMode: halting the CPU and reporting that
// the session should end, mirroring "k" on a single-process target.
func (t *Target) Kill(_ *gdbstub.Pid) (bool, error) {
	t.cpu.halted = true

	return true, nil
}

func (t *Target) Attach(_ gdbstub.Pid) error { return nil }

func (t *Target) Run(_ string, _ []string) (gdbstub.Pid, error) {
	*t.cpu = *NewCPU()

	return gdbstub.FakePid, nil
}

func (t *Target) ConfigureASLR(bool) error          { return nil }
func (t *Target) ConfigureEnv(gdbstub.EnvOp, string, string) error { return nil }
func (t *Target) ConfigureStartupShell(bool) error  { return nil }
func (t *Target) ConfigureWorkingDir(string) error  { return nil }
