// Package gdbstub implements the core of a GDB Remote Serial Protocol (RSP)
// server: packet framing and escaping, command dispatch, a dynamic
// capability-gated feature set, and the resume/stop-reason state machine.
//
// The package does not debug anything itself. Byte transport is supplied
// through ByteConn, target inspection/mutation through the Target
// capability interfaces, and CPU register layout through Arch. See
// transport/ for reference ByteConn implementations, archxml/ for a
// file-backed target description an Arch can serve, and armv4t/ for a demo
// target exercising the whole stack end to end.
package gdbstub
