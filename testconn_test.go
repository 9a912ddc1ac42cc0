package gdbstub

import (
	"errors"
	"time"
)

// fakeConn is an in-memory ByteConn for unit tests: inbound is consumed by
// ReadByte/Peek, outbound is appended to Written. It never blocks.
type fakeConn struct {
	inbound []byte
	pos     int

	Written []byte

	sessionStarted bool
	readErr        error
}

func newFakeConn(inbound string) *fakeConn {
	return &fakeConn{inbound: []byte(inbound)}
}

func (c *fakeConn) OnSessionStart() error {
	c.sessionStarted = true

	return nil
}

var errFakeConnEOF = errors.New("fakeConn: no more input")

func (c *fakeConn) ReadByte() (byte, error) {
	if c.readErr != nil {
		return 0, c.readErr
	}

	if c.pos >= len(c.inbound) {
		return 0, errFakeConnEOF
	}

	b := c.inbound[c.pos]
	c.pos++

	return b, nil
}

func (c *fakeConn) Peek() (byte, bool, error) {
	if c.readErr != nil {
		return 0, false, c.readErr
	}

	if c.pos >= len(c.inbound) {
		return 0, false, nil
	}

	return c.inbound[c.pos], true, nil
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.Written = append(c.Written, p...)

	return len(p), nil
}

func (c *fakeConn) Flush() error { return nil }

func (c *fakeConn) PollReadable(_ time.Duration) bool {
	return c.pos < len(c.inbound)
}
