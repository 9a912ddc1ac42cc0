// Package transport holds reference ByteConn adapters over concrete
// channels: a TCP socket, a POSIX serial line, and a QUIC stream. None of
// these are required to use the engine — ByteConn is the only contract —
// but a real debug server needs at least one, and the engine package
// itself stays transport-agnostic.
package transport

import (
	"bufio"
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// TCPConn adapts a *net.TCPConn to gdbstub.ByteConn. PollReadable and Peek
// are backed by a raw poll(2) on the socket's file descriptor, since
// net.Conn alone offers no way to check for pending data without a
// blocking Read.
type TCPConn struct {
	conn   *net.TCPConn
	reader *bufio.Reader
	writer *bufio.Writer
	fd     int

	hasPeek bool
	peeked  byte
	failed  bool
}

// NewTCPConn wraps conn, disabling Nagle's algorithm (RSP is a
// request/response protocol; batching small packets only adds latency).
func NewTCPConn(conn *net.TCPConn) (*TCPConn, error) {
	_ = conn.SetNoDelay(true)

	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var fd int

	if ctrlErr := raw.Control(func(f uintptr) { fd = int(f) }); ctrlErr != nil {
		return nil, ctrlErr
	}

	return &TCPConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		fd:     fd,
	}, nil
}

// OnSessionStart is a no-op; the TCP connection is already established by
// the time a Session is handed this ByteConn.
func (c *TCPConn) OnSessionStart() error { return nil }

// ReadByte blocks for the next byte, consuming any byte already peeked.
func (c *TCPConn) ReadByte() (byte, error) {
	if c.hasPeek {
		c.hasPeek = false

		return c.peeked, nil
	}

	b, err := c.reader.ReadByte()
	if err != nil {
		c.failed = true
	}

	return b, err
}

// Peek reports the next unread byte without consuming it.
func (c *TCPConn) Peek() (byte, bool, error) {
	if c.failed {
		return 0, false, io.ErrClosedPipe
	}

	if c.hasPeek {
		return c.peeked, true, nil
	}

	if !c.PollReadable(0) {
		return 0, false, nil
	}

	b, err := c.reader.ReadByte()
	if err != nil {
		c.failed = true

		return 0, false, err
	}

	c.peeked = b
	c.hasPeek = true

	return b, true, nil
}

func (c *TCPConn) Write(p []byte) (int, error) { return c.writer.Write(p) }
func (c *TCPConn) Flush() error                { return c.writer.Flush() }

// PollReadable polls the underlying file descriptor for readability.
func (c *TCPConn) PollReadable(timeout time.Duration) bool {
	if c.hasPeek || c.reader.Buffered() > 0 {
		return true
	}

	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}

	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}

	n, err := unix.Poll(fds, ms)

	return err == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
}
