package redis

import (
	"net"
	"testing"
	"time"
)

func TestStreamReaderReadLine(t *testing.T) {
	s := newStreamReader(newFakeConn("hello\r\nworld\r\n"))
	line, err := s.readLine(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != "hello" {
		t.Errorf("got %q, want %q", line, "hello")
	}
	line, err = s.readLine(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != "world" {
		t.Errorf("got %q, want %q", line, "world")
	}
}

func TestStreamReaderReadLineAcrossFills(t *testing.T) {
	// initialBufferSize is large enough that one fakeConn.Read returns
	// everything in one shot; exercise the partial-line loop directly by
	// shrinking what's visible per read via a conn that dribbles bytes.
	s := newStreamReader(&dribbleConn{data: []byte("ab\r\ncd\r\n")})
	line, err := s.readLine(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != "ab" {
		t.Errorf("got %q, want %q", line, "ab")
	}
	line, err = s.readLine(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(line) != "cd" {
		t.Errorf("got %q, want %q", line, "cd")
	}
}

func TestStreamReaderReadExactLeavesExtraBuffered(t *testing.T) {
	s := newStreamReader(newFakeConn("abc\r\nextra"))
	data, err := s.readExact(3, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("got %q, want %q", data, "abc")
	}
	if s.buffered() != len("extra") {
		t.Errorf("got %d buffered bytes, want %d", s.buffered(), len("extra"))
	}
}

func TestStreamReaderGrow(t *testing.T) {
	s := newStreamReader(newFakeConn(""))
	before := len(s.buf)
	s.prepare(before*4, false)
	if len(s.buf) <= before {
		t.Errorf("prepare did not grow the buffer: got %d, want > %d", len(s.buf), before)
	}
}

// dribbleConn returns data one byte at a time, forcing callers through
// streamReader's fill loop multiple times for a single logical line.
type dribbleConn struct {
	data []byte
	pos  int
}

func (d *dribbleConn) Read(b []byte) (int, error) {
	if d.pos >= len(d.data) {
		return 0, net.ErrClosed
	}
	b[0] = d.data[d.pos]
	d.pos++
	return 1, nil
}
func (d *dribbleConn) Write(b []byte) (int, error)     { return len(b), nil }
func (d *dribbleConn) Close() error                    { return nil }
func (d *dribbleConn) LocalAddr() net.Addr             { return fakeAddr{} }
func (d *dribbleConn) RemoteAddr() net.Addr            { return fakeAddr{} }
func (d *dribbleConn) SetDeadline(time.Time) error     { return nil }
func (d *dribbleConn) SetReadDeadline(time.Time) error { return nil }
func (d *dribbleConn) SetWriteDeadline(time.Time) error { return nil }
