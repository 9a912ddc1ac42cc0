package gdbstub

// Arch abstracts a CPU architecture's register set for the purposes of the
// 'g'/'G'/'p'/'P' register packets and the optional qXfer:features:read
// target description. Serialise/deserialise order must match whatever
// target-description XML is returned (or GDB's built-in assumption for
// that architecture, if none is).
type Arch interface {
	// RegisterBytes is the total byte width of the blob 'g' returns and 'G' expects.
	RegisterBytes() int

	// PointerBytes is the architecture's pointer width, in bytes.
	PointerBytes() int

	// DecodeRegisterID maps a raw 'p'/'P' register index to that
	// register's byte width. ok=false means the index names no register.
	DecodeRegisterID(id uint32) (width int, ok bool)

	// ProgramCounterRegister names the register id holding the program
	// counter, so the resume engine can resolve a breakpoint's address
	// after a stop (spec.md §4.5 step 1). ok=false means the engine
	// cannot run the conditional-breakpoint loop for this architecture.
	ProgramCounterRegister() (id uint32, ok bool)

	// TargetDescriptionXML optionally returns target.xml bytes for
	// qXfer:features:read. ok=false means the architecture has none, and
	// the feature is not advertised in qSupported.
	TargetDescriptionXML() (xml []byte, ok bool)
}
