package transport

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// SerialConn adapts a POSIX tty device to gdbstub.ByteConn. It puts the
// line into raw mode for the lifetime of the connection so no line
// discipline (echo, canonical editing, signal characters) interferes with
// RSP's binary, non-line-oriented framing, and restores the original
// termios settings on Close.
type SerialConn struct {
	f    *os.File
	fd   int
	orig unix.Termios

	hasPeek bool
	peeked  byte
	failed  bool
}

var baudRates = map[uint32]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// OpenSerial opens path (e.g. "/dev/ttyUSB0") and configures it for raw,
// 8N1 communication at the given baud rate.
func OpenSerial(path string, baud uint32) (*SerialConn, error) {
	rate, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("gdbstub/transport: unsupported baud rate %d", baud)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}

	fd := int(f.Fd())

	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()

		return nil, err
	}

	raw := *orig
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	raw.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | rate
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		f.Close()

		return nil, err
	}

	return &SerialConn{f: f, fd: fd, orig: *orig}, nil
}

// Close restores the tty's original settings and closes the file.
func (c *SerialConn) Close() error {
	_ = unix.IoctlSetTermios(c.fd, unix.TCSETS, &c.orig)

	return c.f.Close()
}

func (c *SerialConn) OnSessionStart() error { return nil }

func (c *SerialConn) ReadByte() (byte, error) {
	if c.hasPeek {
		c.hasPeek = false

		return c.peeked, nil
	}

	var b [1]byte

	for {
		n, err := c.f.Read(b[:])
		if err != nil {
			c.failed = true

			return 0, err
		}

		if n == 1 {
			return b[0], nil
		}
	}
}

func (c *SerialConn) Peek() (byte, bool, error) {
	if c.failed {
		return 0, false, fmt.Errorf("gdbstub/transport: serial connection failed")
	}

	if c.hasPeek {
		return c.peeked, true, nil
	}

	if !c.PollReadable(0) {
		return 0, false, nil
	}

	b, err := c.ReadByte()
	if err != nil {
		return 0, false, err
	}

	c.peeked = b
	c.hasPeek = true

	return b, true, nil
}

func (c *SerialConn) Write(p []byte) (int, error) { return c.f.Write(p) }
func (c *SerialConn) Flush() error                { return nil }

func (c *SerialConn) PollReadable(timeout time.Duration) bool {
	if c.hasPeek {
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
