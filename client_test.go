package redis

import (
	"bufio"
	"net"
	"testing"
	"time"
)

// startFakeServer listens on an ephemeral local port, accepts a single
// connection, and runs handler on it: handlers read the request lines and
// write a fixed reply per request received. This lets
// Client-level tests exercise the real dial/write/read path end to end
// without talking to an actual Redis-family server.
func startFakeServer(t *testing.T, handler func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handler(conn)
	}()
	return ln.Addr().String()
}

func TestClientGetFound(t *testing.T) {
	addr := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		line, _ := r.ReadString('\n') // "*2\r\n"
		_ = line
		// Drain the rest of the GET request (2 bulk headers+bodies).
		for i := 0; i < 4; i++ {
			r.ReadString('\n')
		}
		conn.Write([]byte("$5\r\nhello\r\n"))
	})

	cl := NewClient(addr, time.Second, time.Second)
	defer cl.Close()

	value, ok, err := cl.Get("greeting")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || string(value) != "hello" {
		t.Fatalf("got (%q, %v), want (hello, true)", value, ok)
	}
}

func TestClientGetMissing(t *testing.T) {
	addr := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		for i := 0; i < 5; i++ {
			r.ReadString('\n')
		}
		conn.Write([]byte("$-1\r\n"))
	})

	cl := NewClient(addr, time.Second, time.Second)
	defer cl.Close()

	_, ok, err := cl.Get("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a nil bulk reply")
	}
}

func TestClientServerErrorSurfacesAsServerError(t *testing.T) {
	addr := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		for i := 0; i < 5; i++ {
			r.ReadString('\n')
		}
		conn.Write([]byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"))
	})

	cl := NewClient(addr, time.Second, time.Second)
	defer cl.Close()

	_, _, err := cl.Get("akey")
	if err == nil {
		t.Fatal("expected an error")
	}
	se, ok := err.(ServerError)
	if !ok {
		t.Fatalf("got %T, want ServerError", err)
	}
	if se.Prefix() != "WRONGTYPE" {
		t.Fatalf("got prefix %q, want WRONGTYPE", se.Prefix())
	}
}
