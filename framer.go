package gdbstub

import "errors"

// ErrAsyncInterrupt is returned by Framer.ReadPacket when a bare 0x03 byte
// arrives outside of any packet envelope (spec.md §4.1). It is not fatal;
// the session loop logs it via diagnostics and keeps reading.
var ErrAsyncInterrupt = errors.New("gdbstub: asynchronous interrupt byte received outside a packet")

// Framer extracts RSP packets from a ByteConn: it strips the `$...#cc`
// envelope, validates the checksum, expands run-length-encoded runs, and
// drives the ack/no-ack handshake. One Framer serves one Session.
type Framer struct {
	conn  ByteConn
	noAck bool
}

// NewFramer wraps conn. No-ack mode starts disabled, per spec.md §3.
func NewFramer(conn ByteConn) *Framer {
	return &Framer{conn: conn}
}

// NoAckMode reports whether the ack/nak handshake is currently suppressed.
func (f *Framer) NoAckMode() bool { return f.noAck }

// SetNoAckMode flips ack/nak handling. Called once, after a successful
// QStartNoAckMode exchange.
func (f *Framer) SetNoAckMode(v bool) { f.noAck = v }

// CheckInterruptFunc returns a callback suitable for passing to a target's
// resume operation: it peeks (without consuming) for a pending 0x03 byte
// and reports true if one is present, or if the transport has already
// failed (spec.md §4.5).
func (f *Framer) CheckInterruptFunc() func() bool {
	return func() bool {
		b, ok, err := f.conn.Peek()
		if err != nil {
			return true
		}

		return ok && b == 0x03
	}
}

// ReadPacket reads one complete RSP packet body into buf (which is reset
// first), validates its checksum, expands run-length encoding, and sends
// the ack/nak byte when not in no-ack mode. On a checksum mismatch it NAKs
// and returns a non-fatal *PacketParseError; the caller should read again.
func (f *Framer) ReadPacket(buf *PacketBuffer) error {
	buf.Reset()

	for {
		b, err := f.conn.ReadByte()
		if err != nil {
			return &ConnReadError{Err: err}
		}

		if b == 0x03 {
			return ErrAsyncInterrupt
		}

		if b == '$' {
			break
		}
		// Anything else outside an envelope (stray '+'/'-' acks, noise) is ignored.
	}

	var raw []byte

	for {
		b, err := f.conn.ReadByte()
		if err != nil {
			return &ConnReadError{Err: err}
		}

		if b == '#' {
			break
		}

		raw = append(raw, b)
	}

	c1, err := f.conn.ReadByte()
	if err != nil {
		return &ConnReadError{Err: err}
	}

	c2, err := f.conn.ReadByte()
	if err != nil {
		return &ConnReadError{Err: err}
	}

	want, err := decodeHexByte(c1, c2)
	if err != nil {
		f.nak()

		return err
	}

	got := byte(0)
	for _, b := range raw {
		got += b
	}

	if got != want {
		f.nak()

		return &PacketParseError{Kind: ParseErrorChecksum}
	}

	expanded, err := expandRunLength(raw)
	if err != nil {
		f.nak()

		return err
	}

	if err := buf.AppendSlice(expanded); err != nil {
		f.nak()

		return &PacketParseError{Kind: ParseErrorMalformed}
	}

	f.ack()

	return nil
}

func (f *Framer) ack() {
	if f.noAck {
		return
	}

	_, _ = f.conn.Write([]byte("+"))
	_ = f.conn.Flush()
}

func (f *Framer) nak() {
	if f.noAck {
		return
	}

	_, _ = f.conn.Write([]byte("-"))
	_ = f.conn.Flush()
}

// expandRunLength expands "c*n" sequences to (n-29) extra repetitions of c,
// per spec.md §4.1/§6. The checksum is computed over the raw (unexpanded)
// bytes before this runs.
func expandRunLength(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw))

	for i := 0; i < len(raw); {
		c := raw[i]

		if c == '*' {
			// A run marker can only follow the character it repeats; one
			// appearing as the first byte of a run is malformed.
			return nil, &PacketParseError{Kind: ParseErrorBadEscape}
		}

		if i+1 < len(raw) && raw[i+1] == '*' {
			if i+2 >= len(raw) {
				return nil, &PacketParseError{Kind: ParseErrorUnterminated}
			}

			n := raw[i+2]
			if n < 29 {
				return nil, &PacketParseError{Kind: ParseErrorBadEscape}
			}

			repeat := int(n) - 29

			out = append(out, c)
			for j := 0; j < repeat; j++ {
				out = append(out, c)
			}

			i += 3

			continue
		}

		out = append(out, c)
		i++
	}

	return out, nil
}
