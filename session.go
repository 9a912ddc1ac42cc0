package gdbstub

import "log"

// Logger is the minimal logging surface Session needs. *log.Logger from the
// standard library already satisfies it; passing nil disables logging.
type Logger interface {
	Printf(format string, v ...any)
}

// Session drives one connected debugger over a single ByteConn end to end:
// framing, command parsing, dispatch, and the ack/no-ack and extended-mode
// state that spans packets. One Session per connection.
type Session struct {
	framer     *Framer
	dispatcher *Dispatcher
	buf        *PacketBuffer
	logger     Logger
}

// NewSession builds a Session for target, speaking RSP over conn.
func NewSession(target Target, conn ByteConn) *Session {
	framer := NewFramer(conn)
	buf := NewPacketBuffer(4096)

	return &Session{
		framer:     framer,
		dispatcher: NewDispatcher(target, framer, buf.Capacity()),
		buf:        buf,
		logger:     log.Default(),
	}
}

// SetLogger overrides the default *log.Logger; pass nil to silence logging.
func (s *Session) SetLogger(l Logger) { s.logger = l }

// Run reads and dispatches packets until the peer disconnects, a fatal
// transport or protocol error occurs, or the target reports it has halted.
// It always calls conn.OnSessionStart first.
func (s *Session) Run(conn ByteConn) error {
	if err := conn.OnSessionStart(); err != nil {
		return err
	}

	for {
		err := s.framer.ReadPacket(s.buf)
		if err != nil {
			if err == ErrAsyncInterrupt {
				s.logf("ignoring asynchronous interrupt outside a packet")

				continue
			}

			if !isFatal(err) {
				s.logf("dropping malformed packet: %v", err)

				continue
			}

			return err
		}

		cmd, err := ParseCommand(s.buf.Bytes())
		if err != nil {
			s.logf("dropping unparseable packet: %v", err)

			continue
		}

		status, _, err := s.dispatcher.Dispatch(cmd)
		if err != nil {
			return err
		}

		if status == StatusDisconnect {
			return nil
		}
	}
}

func (s *Session) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}
