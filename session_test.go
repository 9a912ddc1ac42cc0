package gdbstub_test

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/haldane-systems/gdbstub"
)

// pipeConn adapts one end of a net.Pipe to gdbstub.ByteConn, matching the
// teacher's test style of driving the server over an in-memory connection
// rather than a real socket.
type pipeConn struct {
	conn net.Conn
	r    *bufio.Reader
}

func newPipeConn(conn net.Conn) *pipeConn {
	return &pipeConn{conn: conn, r: bufio.NewReader(conn)}
}

func (p *pipeConn) OnSessionStart() error { return nil }
func (p *pipeConn) ReadByte() (byte, error) { return p.r.ReadByte() }

func (p *pipeConn) Peek() (byte, bool, error) {
	b, err := p.r.Peek(1)
	if err != nil {
		return 0, false, nil
	}

	return b[0], true, nil
}

func (p *pipeConn) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *pipeConn) Flush() error                { return nil }

func (p *pipeConn) PollReadable(timeout time.Duration) bool {
	_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
	_, err := p.r.Peek(1)
	_ = p.conn.SetReadDeadline(time.Time{})

	return err == nil
}

func encodeRSP(body string) []byte {
	sum := byte(0)
	for i := 0; i < len(body); i++ {
		sum += body[i]
	}

	return []byte(fmt.Sprintf("$%s#%02x", body, sum))
}

// readPacketBody reads an optional '+' ack then one "$...#cc" packet,
// returning its body.
func readPacketBody(r *bufio.Reader) (string, error) {
	b, err := r.ReadByte()
	if err != nil {
		return "", err
	}

	if b != '$' {
		b, err = r.ReadByte()
		if err != nil {
			return "", err
		}
	}

	if b != '$' {
		return "", fmt.Errorf("expected '$', got %q", b)
	}

	var body []byte

	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}

		if c == '#' {
			break
		}

		body = append(body, c)
	}

	if _, err := r.Discard(2); err != nil {
		return "", err
	}

	return string(body), nil
}

type haltingSingleThreadTarget struct{ done bool }

func (haltingSingleThreadTarget) Arch() gdbstub.Arch { return testArch{} }

func (haltingSingleThreadTarget) ReadRegisters(regs []byte) error  { return nil }
func (haltingSingleThreadTarget) WriteRegisters(regs []byte) error { return nil }

func (haltingSingleThreadTarget) ReadRegister(id uint32, buf []byte) (bool, error) {
	return id == 0, nil
}

func (haltingSingleThreadTarget) WriteRegister(id uint32, data []byte) (bool, error) {
	return id == 0, nil
}

func (haltingSingleThreadTarget) ReadAddrs(addr uint64, buf []byte) (bool, error) {
	return true, nil
}

func (haltingSingleThreadTarget) WriteAddrs(addr uint64, data []byte) (bool, error) {
	return true, nil
}

func (t *haltingSingleThreadTarget) Resume(action gdbstub.ResumeAction, checkInterrupt func() bool) (gdbstub.StopReason, error) {
	return gdbstub.HaltedReason(), nil
}

type testArch struct{}

func (testArch) RegisterBytes() int                    { return 4 }
func (testArch) PointerBytes() int                      { return 4 }
func (testArch) DecodeRegisterID(id uint32) (int, bool) { return 4, id == 0 }
func (testArch) ProgramCounterRegister() (uint32, bool) { return 0, true }
func (testArch) TargetDescriptionXML() ([]byte, bool)   { return nil, false }

func TestSessionHandshakeAndHalt(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	serverConn := newPipeConn(server)
	sess := gdbstub.NewSession(&haltingSingleThreadTarget{}, serverConn)

	done := make(chan error, 1)

	go func() {
		done <- sess.Run(serverConn)
	}()

	r := bufio.NewReader(client)

	if _, err := client.Write(encodeRSP("qSupported")); err != nil {
		t.Fatal(err)
	}

	if _, err := r.ReadByte(); err != nil { // ack
		t.Fatal(err)
	}

	if _, err := readPacketBody(r); err != nil {
		t.Fatalf("qSupported reply: %v", err)
	}

	if _, err := client.Write([]byte("+")); err != nil { // ack the qSupported reply so its Flush can return
		t.Fatal(err)
	}

	if _, err := client.Write(encodeRSP("c")); err != nil {
		t.Fatal(err)
	}

	if _, err := r.ReadByte(); err != nil { // ack
		t.Fatal(err)
	}

	body, err := readPacketBody(r)
	if err != nil {
		t.Fatalf("continue reply: %v", err)
	}

	if body != "W19" {
		t.Fatalf("stop reply = %q, want W19", body)
	}

	if _, err := client.Write([]byte("+")); err != nil { // ack the stop reply so Flush can return
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after target halted")
	}
}
