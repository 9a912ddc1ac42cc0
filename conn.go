package gdbstub

import "time"

// ByteConn is the minimal byte-oriented duplex transport the engine
// consumes. Implementations live outside the core (see transport/ for
// reference TCP, serial and QUIC adapters); the engine never dials,
// listens, or owns a socket itself.
//
// Peek must not consume the byte it reports: it exists so the resume loop
// can detect a pending 0x03 interrupt byte without stealing it from the
// next packet read. Implementations that wrap a transport lacking native
// peek support (most of them) should maintain a one-byte lookahead buffer.
type ByteConn interface {
	// ReadByte blocks for exactly one byte.
	ReadByte() (byte, error)

	// Peek reports the next unread byte without consuming it. ok is false
	// when no byte is currently buffered (the caller should not block
	// waiting for one). err is non-nil only when a transport failure has
	// already been observed.
	Peek() (b byte, ok bool, err error)

	// Write writes raw bytes; it may buffer rather than flush immediately.
	Write(p []byte) (int, error)

	// Flush forces any buffered writes out.
	Flush() error

	// OnSessionStart is invoked once when a Session begins using this
	// connection, before the first packet is read.
	OnSessionStart() error

	// PollReadable reports whether a byte is available to read within
	// timeout, without blocking past it. A zero timeout polls instantaneously.
	PollReadable(timeout time.Duration) bool
}
