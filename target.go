package gdbstub

// Target is the root capability every debug target must implement. The
// engine queries it, and the optional interfaces below, purely by type
// assertion at session-construction and dispatch time — composition, not
// inheritance, per spec.md §9.
type Target interface {
	Arch() Arch
}

// SingleThreadTarget is implemented by targets with exactly one thread of
// execution. The engine lifts its stop reasons and thread ids to the
// multi-thread shape internally (SingleThreadTid).
type SingleThreadTarget interface {
	Target

	ReadRegisters(regs []byte) error
	WriteRegisters(regs []byte) error
	ReadRegister(id uint32, buf []byte) (bool, error)
	WriteRegister(id uint32, data []byte) (bool, error)
	ReadAddrs(addr uint64, buf []byte) (bool, error)
	WriteAddrs(addr uint64, data []byte) (bool, error)

	// Resume runs the target until it stops. checkInterrupt must be
	// polled periodically; a true return means GDB sent 0x03 and the
	// target should stop as soon as practical.
	Resume(action ResumeAction, checkInterrupt func() bool) (StopReason, error)
}

// MultiThreadTarget is implemented by targets exposing more than one
// thread. Every accessor takes an explicit thread id.
type MultiThreadTarget interface {
	Target

	ReadRegisters(tid ThreadId, regs []byte) error
	WriteRegisters(tid ThreadId, regs []byte) error
	ReadRegister(tid ThreadId, id uint32, buf []byte) (bool, error)
	WriteRegister(tid ThreadId, id uint32, data []byte) (bool, error)
	ReadAddrs(tid ThreadId, addr uint64, buf []byte) (bool, error)
	WriteAddrs(tid ThreadId, addr uint64, data []byte) (bool, error)

	Resume(actions []ThreadResumeAction, checkInterrupt func() bool) (ThreadStopReason, error)

	// ListActiveThreads calls yield once per live thread, in any order;
	// it stops early if yield returns false.
	ListActiveThreads(yield func(ThreadId) bool) error
	IsThreadAlive(tid ThreadId) bool
}

// SoftwareBreakpoints is an optional capability (Z0/z0).
type SoftwareBreakpoints interface {
	AddSoftwareBreakpoint(addr uint64, kind uint64) (bool, error)
	RemoveSoftwareBreakpoint(addr uint64, kind uint64) (bool, error)
}

// HardwareBreakpoints is an optional capability (Z1/z1).
type HardwareBreakpoints interface {
	AddHardwareBreakpoint(addr uint64, kind uint64) (bool, error)
	RemoveHardwareBreakpoint(addr uint64, kind uint64) (bool, error)
}

// HardwareWatchpoints is an optional capability (Z2/Z3/Z4, z2/z3/z4).
// Per spec.md §9's first open question, tracking read vs. write vs. access
// watchpoints separately (or not) is left entirely to the implementation;
// the engine only ever passes the WatchKind through.
type HardwareWatchpoints interface {
	AddHardwareWatchpoint(addr, length uint64, kind WatchKind) (bool, error)
	RemoveHardwareWatchpoint(addr, length uint64, kind WatchKind) (bool, error)
}

// BreakpointBytecodeKind distinguishes a condition bytecode (its truth
// value gates whether the stop is reported) from a command bytecode (run
// for side effects only, its value discarded).
type BreakpointBytecodeKind int

const (
	BytecodeCondition BreakpointBytecodeKind = iota
	BytecodeCommand
)

// BreakpointAgent is the optional server-side breakpoint-bytecode glue
// (spec.md §4.5's conditional-breakpoint loop, §9's "deliberately
// external" VM note). The engine only enumerates bytecode ids attached to
// a stopped address and ORs their truth values; the VM itself is the
// target's problem.
type BreakpointAgent interface {
	AttachBytecode(addr uint64, kind BreakpointBytecodeKind, code []byte) (id uint32, err error)
	DetachBytecode(addr uint64, id uint32) error

	// ConditionsFor and CommandsFor return the bytecode ids attached to
	// addr, in attachment order.
	ConditionsFor(addr uint64) []uint32
	CommandsFor(addr uint64) []uint32

	// Evaluate runs one bytecode and returns its truth value. On a
	// non-fatal error the engine treats the condition as unresolved (true,
	// conservatively) and sends no diagnostic to the debugger; a fatal
	// error aborts the session.
	Evaluate(id uint32) (bool, error)
}

// EnvOp distinguishes the three environment-mutation flavors extended mode exposes.
type EnvOp int

const (
	EnvSet EnvOp = iota
	EnvUnset
	EnvReset
)

// ExtendedMode is the optional capability backing k/vKill, vAttach, vRun
// and the Q-prefixed environment/working-directory/ASLR/shell settings.
// '!' is answered OK for every target, and 'R' always gets the empty
// not-supported reply; neither consults this interface.
type ExtendedMode interface {
	// Kill terminates pid (nil means "the current inferior, unspecified
	// pid" per spec.md §9's third open question). true means the session
	// should end; false keeps it alive so GDB can vRun again.
	Kill(pid *Pid) (bool, error)

	Attach(pid Pid) error
	Run(filename string, args []string) (Pid, error)

	ConfigureASLR(disable bool) error
	ConfigureEnv(op EnvOp, key, val string) error
	ConfigureStartupShell(enable bool) error
	ConfigureWorkingDir(dir string) error
}

// Agent is the optional QAgent+ capability: enabling/disabling the
// in-process tracing agent GDB's "agent" commands talk to.
type Agent interface {
	SetAgentEnabled(enabled bool) error
}

// AttachedPidSet lets a target answer qAttached with dynamic, per-pid
// knowledge instead of the engine's session-local set (spec.md §3's "only
// when dynamic allocation is available" carve-out).
type AttachedPidSet interface {
	// IsAttached reports whether pid was attached (vs. spawned) and
	// whether the target has an opinion at all (known=false defers to
	// the engine's default-to-attached policy).
	IsAttached(pid Pid) (attached bool, known bool)
}

// VersionedTarget lets a target declare the engine-API version it was
// built against, gated at Session construction via NewSessionWithVersion
// (SPEC_FULL.md §4.7).
type VersionedTarget interface {
	APIVersion() string
}
