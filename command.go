package gdbstub

import (
	"strconv"
	"strings"
)

// CommandKind discriminates the parsed shape of a Command. See spec.md §4.2
// for the full recognised set.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdQSupported
	CmdQStartNoAckMode
	CmdQXferFeaturesRead
	CmdStopReasonQuery // '?'
	CmdQAttached
	CmdReadAllRegisters  // g
	CmdWriteAllRegisters // G
	CmdReadRegister      // p
	CmdWriteRegister     // P
	CmdReadMemory        // m
	CmdWriteMemory       // M
	CmdVContQuery        // vCont?
	CmdVCont
	CmdContinue // c
	CmdStep     // s
	CmdKill     // k
	CmdVKill
	CmdDetach // D
	CmdSetThread
	CmdQfThreadInfo
	CmdQsThreadInfo
	CmdThreadAlive // T
	CmdInsertBreakpoint
	CmdRemoveBreakpoint
	CmdExtendedModeEnable // !
	CmdRestart            // R
	CmdVAttach
	CmdVRun
	CmdQEnvironmentHexEncoded
	CmdQEnvironmentUnset
	CmdQEnvironmentReset
	CmdQStartupWithShell
	CmdQSetWorkingDir
	CmdQDisableRandomization
)

// BreakpointKind enumerates the Z/z numeric kinds 0..4.
type BreakpointKind int

const (
	BreakpointSoftware BreakpointKind = iota
	BreakpointHardware
	WatchpointWriteKind
	WatchpointReadKind
	WatchpointAccessKind
)

// BreakpointBytecode is one condition or command bytecode blob attached to
// a Z0/Z1/Z2/Z3/Z4 packet.
type BreakpointBytecode struct {
	Kind BreakpointBytecodeKind
	Code []byte
}

// Command is the decoded shape of one packet body. Only the fields
// relevant to Kind are populated; the rest are zero. This flat layout
// mirrors how the engine's other tagged unions (StopReason, ThreadId) are
// represented, and keeps CommandParser a single pure function instead of a
// family of per-command types.
type Command struct {
	Kind CommandKind

	// qXfer:<Object>:read:<Annex>:<Offset>,<Length>
	Object string
	Annex  string
	Offset uint64
	Length uint64

	// qAttached[:Pid]
	Pid    Pid
	HasPid bool

	// g/G/p/P/m/M
	RegisterID uint32
	Addr       uint64
	HasAddr    bool
	Size       uint64
	Data       []byte

	// H{g,c}<Thread>
	HKind  byte
	Thread ThreadId

	// vCont actions
	Actions []ThreadResumeAction

	// Z/z
	BPKind     BreakpointKind
	BPAddr     uint64
	BPLenHint  uint64
	Bytecodes  []BreakpointBytecode

	// vRun
	RunFilename string
	RunArgs     []string

	// Q environment / working dir / aslr / shell
	EnvKey           string
	EnvVal           string
	WorkingDir       string
	BoolArg          bool

	Raw []byte
}

// ParseCommand decodes a framed packet body into a typed Command. It is a
// pure function: no I/O, no target calls. Unrecognised bodies return
// CmdUnknown with Raw set, never an error — per spec.md §4.2, unknown
// packets are a normal (empty-reply) outcome, not a parse failure.
func ParseCommand(body []byte) (Command, error) {
	s := string(body)

	switch {
	case s == "?":
		return Command{Kind: CmdStopReasonQuery}, nil

	case strings.HasPrefix(s, "qSupported"):
		return Command{Kind: CmdQSupported, Raw: body}, nil

	case s == "QStartNoAckMode":
		return Command{Kind: CmdQStartNoAckMode}, nil

	case strings.HasPrefix(s, "qXfer:"):
		return parseQXfer(s)

	case strings.HasPrefix(s, "qAttached"):
		rest := strings.TrimPrefix(s, "qAttached")
		if rest == "" {
			return Command{Kind: CmdQAttached}, nil
		}

		rest = strings.TrimPrefix(rest, ":")

		pid, err := strconv.ParseUint(rest, 16, 32)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdQAttached, Pid: Pid(pid), HasPid: true}, nil

	case s == "g":
		return Command{Kind: CmdReadAllRegisters}, nil

	case strings.HasPrefix(s, "G"):
		data, err := hexDecode(s[1:])
		if err != nil {
			return Command{}, err
		}

		return Command{Kind: CmdWriteAllRegisters, Data: data}, nil

	case strings.HasPrefix(s, "p"):
		id, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdReadRegister, RegisterID: uint32(id)}, nil

	case strings.HasPrefix(s, "P"):
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		id, err := strconv.ParseUint(s[1:eq], 16, 32)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		data, err := hexDecode(s[eq+1:])
		if err != nil {
			return Command{}, err
		}

		return Command{Kind: CmdWriteRegister, RegisterID: uint32(id), Data: data}, nil

	case strings.HasPrefix(s, "m"):
		addr, size, err := parseAddrLen(s[1:])
		if err != nil {
			return Command{}, err
		}

		return Command{Kind: CmdReadMemory, Addr: addr, Size: size}, nil

	case strings.HasPrefix(s, "M"):
		colon := strings.IndexByte(s, ':')
		if colon < 0 {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		addr, size, err := parseAddrLen(s[1:colon])
		if err != nil {
			return Command{}, err
		}

		data, err := hexDecode(s[colon+1:])
		if err != nil {
			return Command{}, err
		}

		if uint64(len(data)) != size {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdWriteMemory, Addr: addr, Size: size, Data: data}, nil

	case s == "vCont?":
		return Command{Kind: CmdVContQuery}, nil

	case strings.HasPrefix(s, "vCont;") || strings.HasPrefix(s, "vCont"):
		return parseVCont(s)

	case s == "c":
		return Command{Kind: CmdContinue}, nil

	case strings.HasPrefix(s, "c"):
		addr, err := strconv.ParseUint(s[1:], 16, 64)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdContinue, Addr: addr, HasAddr: true}, nil

	case s == "s":
		return Command{Kind: CmdStep}, nil

	case strings.HasPrefix(s, "s"):
		addr, err := strconv.ParseUint(s[1:], 16, 64)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdStep, Addr: addr, HasAddr: true}, nil

	case s == "k":
		return Command{Kind: CmdKill}, nil

	case strings.HasPrefix(s, "vKill"):
		rest := strings.TrimPrefix(s, "vKill")
		rest = strings.TrimPrefix(rest, ";")

		if rest == "" {
			return Command{Kind: CmdVKill}, nil
		}

		pid, err := strconv.ParseUint(rest, 16, 32)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdVKill, Pid: Pid(pid), HasPid: true}, nil

	case s == "D" || strings.HasPrefix(s, "D;"):
		if s == "D" {
			return Command{Kind: CmdDetach}, nil
		}

		pid, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdDetach, Pid: Pid(pid), HasPid: true}, nil

	case strings.HasPrefix(s, "Hg") || strings.HasPrefix(s, "Hc"):
		kind := s[1]

		tid, err := ParseThreadId(s[2:])
		if err != nil {
			return Command{}, err
		}

		return Command{Kind: CmdSetThread, HKind: kind, Thread: tid}, nil

	case s == "qfThreadInfo":
		return Command{Kind: CmdQfThreadInfo}, nil

	case s == "qsThreadInfo":
		return Command{Kind: CmdQsThreadInfo}, nil

	case strings.HasPrefix(s, "T"):
		tid, err := ParseThreadId(s[1:])
		if err != nil {
			return Command{}, err
		}

		return Command{Kind: CmdThreadAlive, Thread: tid}, nil

	case len(s) > 0 && s[0] == 'Z':
		return parseBreakpoint(s, CmdInsertBreakpoint)

	case len(s) > 0 && s[0] == 'z':
		return parseBreakpoint(s, CmdRemoveBreakpoint)

	case s == "!":
		return Command{Kind: CmdExtendedModeEnable}, nil

	case strings.HasPrefix(s, "R"):
		return Command{Kind: CmdRestart}, nil

	case strings.HasPrefix(s, "vAttach;"):
		pid, err := strconv.ParseUint(strings.TrimPrefix(s, "vAttach;"), 16, 32)
		if err != nil {
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return Command{Kind: CmdVAttach, Pid: Pid(pid), HasPid: true}, nil

	case strings.HasPrefix(s, "vRun"):
		return parseVRun(s)

	case strings.HasPrefix(s, "QEnvironmentHexEncoded:"):
		data, err := hexDecode(strings.TrimPrefix(s, "QEnvironmentHexEncoded:"))
		if err != nil {
			return Command{}, err
		}

		key, val, _ := strings.Cut(string(data), "=")

		return Command{Kind: CmdQEnvironmentHexEncoded, EnvKey: key, EnvVal: val}, nil

	case strings.HasPrefix(s, "QEnvironmentUnset:"):
		key, err := hexDecode(strings.TrimPrefix(s, "QEnvironmentUnset:"))
		if err != nil {
			return Command{}, err
		}

		return Command{Kind: CmdQEnvironmentUnset, EnvKey: string(key)}, nil

	case s == "QEnvironmentReset":
		return Command{Kind: CmdQEnvironmentReset}, nil

	case strings.HasPrefix(s, "QStartupWithShell:"):
		return Command{Kind: CmdQStartupWithShell, BoolArg: strings.TrimPrefix(s, "QStartupWithShell:") == "1"}, nil

	case strings.HasPrefix(s, "QSetWorkingDir:"):
		dir, err := hexDecode(strings.TrimPrefix(s, "QSetWorkingDir:"))
		if err != nil {
			return Command{}, err
		}

		return Command{Kind: CmdQSetWorkingDir, WorkingDir: string(dir)}, nil

	case strings.HasPrefix(s, "QDisableRandomization:"):
		return Command{Kind: CmdQDisableRandomization, BoolArg: strings.TrimPrefix(s, "QDisableRandomization:") == "1"}, nil

	default:
		return Command{Kind: CmdUnknown, Raw: body}, nil
	}
}

func parseAddrLen(s string) (addr, length uint64, err error) {
	a, l, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, &PacketParseError{Kind: ParseErrorMalformed}
	}

	addr, err = strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, 0, &PacketParseError{Kind: ParseErrorMalformed}
	}

	length, err = strconv.ParseUint(l, 16, 64)
	if err != nil {
		return 0, 0, &PacketParseError{Kind: ParseErrorMalformed}
	}

	return addr, length, nil
}

func parseQXfer(s string) (Command, error) {
	// qXfer:<object>:read:<annex>:<offset>,<length>
	rest := strings.TrimPrefix(s, "qXfer:")

	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 || parts[1] != "read" {
		return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
	}

	object := parts[0]
	annexAndRange := parts[2]

	lastColon := strings.LastIndex(annexAndRange, ":")

	var annex, offLen string
	if lastColon < 0 {
		offLen = annexAndRange
	} else {
		annex = annexAndRange[:lastColon]
		offLen = annexAndRange[lastColon+1:]
	}

	offset, length, err := parseAddrLen(offLen)
	if err != nil {
		return Command{}, err
	}

	kind := CmdUnknown
	if object == "features" {
		kind = CmdQXferFeaturesRead
	}

	return Command{Kind: kind, Object: object, Annex: annex, Offset: offset, Length: length}, nil
}

// ParseThreadId decodes a wire thread id: "p<hex>.<hex>" (multiprocess) or
// bare "<hex>"; "0" is Any, "-1" is All.
func ParseThreadId(s string) (ThreadId, error) {
	if s == "" {
		return ThreadId{}, &PacketParseError{Kind: ParseErrorMalformed}
	}

	if s[0] == 'p' {
		rest := s[1:]

		pidHex, tidHex, found := strings.Cut(rest, ".")
		if !found {
			return ThreadId{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		pid, err := strconv.ParseUint(pidHex, 16, 32)
		if err != nil {
			return ThreadId{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		sel, err := parseSelector(tidHex)
		if err != nil {
			return ThreadId{}, err
		}

		return NewThreadId(Pid(pid), sel), nil
	}

	sel, err := parseSelector(s)
	if err != nil {
		return ThreadId{}, err
	}

	return NewThreadIdNoPid(sel), nil
}

func parseSelector(s string) (TidSelector, error) {
	switch s {
	case "0":
		return AnyTid(), nil
	case "-1":
		return AllTids(), nil
	default:
		v, err := strconv.ParseInt(s, 16, 32)
		if err != nil || v < 1 {
			return TidSelector{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		return WithID(int32(v))
	}
}

// parseVCont decodes "vCont;action[:tid][;action[:tid]]*". An action
// without a trailing :tid is the default applied to threads not named by
// any other entry; we represent that default with AllTids(). The resume
// engine hands the list to the target unchanged, so applying the default
// to threads no other entry names is up to MultiThreadTarget.Resume.
func parseVCont(s string) (Command, error) {
	rest := strings.TrimPrefix(s, "vCont")
	rest = strings.TrimPrefix(rest, ";")

	if rest == "" {
		return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
	}

	var actions []ThreadResumeAction

	for _, entry := range strings.Split(rest, ";") {
		if entry == "" {
			continue
		}

		actionPart, tidPart, hasTid := strings.Cut(entry, ":")

		var ra ResumeAction

		switch {
		case actionPart == "c":
			ra = Continue()
		case actionPart == "s":
			ra = Step()
		case len(actionPart) > 0 && (actionPart[0] == 'C' || actionPart[0] == 'S'):
			sig, err := strconv.ParseUint(actionPart[1:], 16, 8)
			if err != nil {
				return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
			}

			b := uint8(sig)
			kind := ActionContinue

			if actionPart[0] == 'S' {
				kind = ActionStep
			}

			ra = ResumeAction{Kind: kind, Signal: &b}
		default:
			return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
		}

		sel := AllTids()
		if hasTid {
			s, err := parseSelector(tidPart)
			if err != nil {
				return Command{}, err
			}

			sel = s
		}

		actions = append(actions, ThreadResumeAction{Thread: sel, Action: ra})
	}

	return Command{Kind: CmdVCont, Actions: actions}, nil
}

// parseBreakpoint decodes "Z{0..4},addr,kind[;cond:<hex>]*[;cmds:<hex>]*".
// The condition/command bytecode sub-field names are this engine's choice
// among several seen in the wild (spec.md §4.2 leaves the exact grammar of
// "cond_list…"/"cmds…" unspecified); documented in DESIGN.md.
func parseBreakpoint(s string, kind CommandKind) (Command, error) {
	fields := strings.Split(s[1:], ";")

	head := strings.Split(fields[0], ",")
	if len(head) != 3 {
		return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
	}

	bpKindNum, err := strconv.ParseUint(head[0], 10, 8)
	if err != nil || bpKindNum > 4 {
		return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
	}

	addr, err := strconv.ParseUint(head[1], 16, 64)
	if err != nil {
		return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
	}

	lenHint, err := strconv.ParseUint(head[2], 16, 64)
	if err != nil {
		return Command{}, &PacketParseError{Kind: ParseErrorMalformed}
	}

	cmd := Command{
		Kind:      kind,
		BPKind:    BreakpointKind(bpKindNum),
		BPAddr:    addr,
		BPLenHint: lenHint,
	}

	for _, f := range fields[1:] {
		switch {
		case strings.HasPrefix(f, "cond:"):
			code, err := hexDecode(strings.TrimPrefix(f, "cond:"))
			if err != nil {
				return Command{}, err
			}

			cmd.Bytecodes = append(cmd.Bytecodes, BreakpointBytecode{Kind: BytecodeCondition, Code: code})
		case strings.HasPrefix(f, "cmds:"):
			code, err := hexDecode(strings.TrimPrefix(f, "cmds:"))
			if err != nil {
				return Command{}, err
			}

			cmd.Bytecodes = append(cmd.Bytecodes, BreakpointBytecode{Kind: BytecodeCommand, Code: code})
		}
	}

	return cmd, nil
}

func parseVRun(s string) (Command, error) {
	rest := strings.TrimPrefix(s, "vRun")
	rest = strings.TrimPrefix(rest, ";")

	if rest == "" {
		return Command{Kind: CmdVRun}, nil
	}

	parts := strings.Split(rest, ";")

	filenameBytes, err := hexDecode(parts[0])
	if err != nil {
		return Command{}, err
	}

	args := make([]string, 0, len(parts)-1)

	for _, p := range parts[1:] {
		argBytes, err := hexDecode(p)
		if err != nil {
			return Command{}, err
		}

		args = append(args, string(argBytes))
	}

	return Command{Kind: CmdVRun, RunFilename: string(filenameBytes), RunArgs: args}, nil
}
