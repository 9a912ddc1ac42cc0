// Command armv4t-rsp-server runs the armv4t demo core behind a gdbstub
// Session, accepting one debugger connection at a time over TCP or a
// serial line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/haldane-systems/gdbstub"
	"github.com/haldane-systems/gdbstub/armv4t"
	"github.com/haldane-systems/gdbstub/transport"
)

func main() {
	var (
		addr       string
		serialPath string
		serialBaud uint
	)

	flag.StringVar(&addr, "addr", ":9000", "listen address for RSP over TCP")
	flag.StringVar(&serialPath, "serial", "", "serial device to serve RSP over instead of TCP (e.g. /dev/ttyUSB0)")
	flag.UintVar(&serialBaud, "baud", 115200, "baud rate when --serial is set")
	flag.Parse()

	if serialPath != "" {
		runSerial(serialPath, uint32(serialBaud))

		return
	}

	runTCP(addr)
}

func runTCP(addr string) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen failed:", err)
		os.Exit(1)
	}

	fmt.Println("armv4t RSP server listening on", ln.Addr().String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}

		tc, ok := c.(*net.TCPConn)
		if !ok {
			_ = c.Close()

			continue
		}

		go serveTCP(tc)
	}
}

func serveTCP(tc *net.TCPConn) {
	defer tc.Close()

	conn, err := transport.NewTCPConn(tc)
	if err != nil {
		log.Println("wrap tcp conn:", err)

		return
	}

	runSession(conn)
}

func runSerial(path string, baud uint32) {
	conn, err := transport.OpenSerial(path, baud)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open serial failed:", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("armv4t RSP server serving on", path)

	runSession(conn)
}

func runSession(conn gdbstub.ByteConn) {
	target := armv4t.New(armv4t.NewCPU())

	sess, err := gdbstub.NewSessionWithVersion(target, conn)
	if err != nil {
		log.Println("session rejected:", err)

		return
	}

	if err := sess.Run(conn); err != nil {
		log.Println("session ended:", err)
	}
}
