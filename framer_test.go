package gdbstub

import "testing"

func encodePacket(body string) string {
	sum := byte(0)
	for i := 0; i < len(body); i++ {
		sum += body[i]
	}

	return "$" + body + "#" + string(appendHexByte(nil, sum))
}

func TestFramerReadPacketHappyPath(t *testing.T) {
	conn := newFakeConn(encodePacket("qSupported"))
	f := NewFramer(conn)

	buf := NewPacketBuffer(64)
	if err := f.ReadPacket(buf); err != nil {
		t.Fatal(err)
	}

	if got := string(buf.Bytes()); got != "qSupported" {
		t.Fatalf("body = %q, want %q", got, "qSupported")
	}

	if string(conn.Written) != "+" {
		t.Fatalf("ack byte = %q, want %q", conn.Written, "+")
	}
}

func TestFramerReadPacketChecksumMismatch(t *testing.T) {
	conn := newFakeConn("$qSupported#00")
	f := NewFramer(conn)

	buf := NewPacketBuffer(64)

	err := f.ReadPacket(buf)

	var parseErr *PacketParseError
	if err == nil {
		t.Fatal("expected checksum error")
	}

	if pe, ok := err.(*PacketParseError); !ok || pe.Kind != ParseErrorChecksum {
		t.Fatalf("err = %v, want *PacketParseError{ParseErrorChecksum}", err)
	}

	_ = parseErr

	if string(conn.Written) != "-" {
		t.Fatalf("nak byte = %q, want %q", conn.Written, "-")
	}
}

func TestFramerReadPacketAsyncInterrupt(t *testing.T) {
	conn := newFakeConn("\x03")
	f := NewFramer(conn)

	buf := NewPacketBuffer(64)

	if err := f.ReadPacket(buf); err != ErrAsyncInterrupt {
		t.Fatalf("err = %v, want ErrAsyncInterrupt", err)
	}
}

func TestFramerNoAckModeSkipsHandshake(t *testing.T) {
	conn := newFakeConn(encodePacket("c"))
	f := NewFramer(conn)
	f.SetNoAckMode(true)

	buf := NewPacketBuffer(64)
	if err := f.ReadPacket(buf); err != nil {
		t.Fatal(err)
	}

	if len(conn.Written) != 0 {
		t.Fatalf("no-ack mode should not write an ack byte, got %q", conn.Written)
	}
}

func TestExpandRunLength(t *testing.T) {
	// "a*$" with n = '$' (0x24 = 36) would collide with the packet start
	// marker, so use n = 32 (' ') -> repeat = 32-29 = 3 extra a's.
	raw := []byte{'a', '*', 32}

	out, err := expandRunLength(raw)
	if err != nil {
		t.Fatal(err)
	}

	if string(out) != "aaaa" {
		t.Fatalf("expandRunLength = %q, want %q", out, "aaaa")
	}
}

func TestExpandRunLengthRejectsLowCount(t *testing.T) {
	raw := []byte{'a', '*', 10}

	if _, err := expandRunLength(raw); err == nil {
		t.Fatal("expected error: run-length count below 29 is malformed")
	}
}
