package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/quic-go/quic-go"
)

// QUICConn adapts a quic.Stream to gdbstub.ByteConn. One debug session maps
// to one bidirectional stream; RSP's own ack/nak and checksum handshake is
// left in place even over QUIC's reliable delivery, since a Session has no
// way to know which ByteConn it was given.
type QUICConn struct {
	stream quic.Stream
	reader *bufio.Reader

	hasPeek bool
	peeked  byte
	failed  bool
}

// NewQUICConn wraps an already-accepted or already-opened stream.
func NewQUICConn(stream quic.Stream) *QUICConn {
	return &QUICConn{stream: stream, reader: bufio.NewReader(stream)}
}

// ListenQUIC starts a QUIC listener on addr. Each accepted connection's
// first bidirectional stream is handed to handle as a gdbstub.ByteConn; the
// listener runs until ctx is cancelled.
func ListenQUIC(ctx context.Context, addr string, tlsConf *tls.Config, handle func(*QUICConn)) error {
	ln, err := quic.ListenAddr(addr, tlsConf, nil)
	if err != nil {
		return err
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			continue
		}

		handle(NewQUICConn(stream))
	}
}

func (c *QUICConn) OnSessionStart() error { return nil }

func (c *QUICConn) ReadByte() (byte, error) {
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

func (c *QUICConn) Peek() (byte, bool, error) {
	if c.failed {
		return 0, false, fmt.Errorf("gdbstub/transport: quic stream failed")
	}

	if c.hasPeek {
		return c.peeked, true, nil
	}

	if c.reader.Buffered() == 0 {
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

func (c *QUICConn) Write(p []byte) (int, error) { return c.stream.Write(p) }
func (c *QUICConn) Flush() error                { return nil }

// PollReadable blocks up to timeout waiting for at least one byte, using
// the stream's read deadline since quic.Stream has no native poll.
func (c *QUICConn) PollReadable(timeout time.Duration) bool {
	if c.hasPeek || c.reader.Buffered() > 0 {
		return true
	}

	_ = c.stream.SetReadDeadline(time.Now().Add(timeout))

	b, err := c.reader.ReadByte()

	_ = c.stream.SetReadDeadline(time.Time{})

	if err != nil {
		return false
	}

	c.peeked = b
	c.hasPeek = true

	return true
}
