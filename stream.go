package redis

import (
	"net"
	"time"
)

// compactThreshold is the buffer size above which an emptied buffer has its
// cursors reset to the start (compacted) so later fills reuse the front of
// the array; the backing array itself keeps its size.
const compactThreshold = 65536

const initialBufferSize = 4096

// streamReader owns a resizable byte buffer filled from a net.Conn, with the
// read/toRead cursor discipline described in spec.md §4.2: readable() and
// writable() expose the two live regions, prepare/produce/consume are the
// only primitives allowed to move the cursors. This is deliberately not
// bufio.Reader — bufio hides the fill/compact decision behind Peek/Discard,
// and the parser needs readLine and readExact to share one buffer without
// double-copying or losing track of how many bytes are still unconsumed
// after a partial reply (see DESIGN.md).
type streamReader struct {
	conn   net.Conn
	buf    []byte
	read   int // start of unconsumed, already-filled data
	toRead int // end of filled data / start of writable space
}

func newStreamReader(conn net.Conn) *streamReader {
	return &streamReader{conn: conn, buf: make([]byte, initialBufferSize)}
}

// readable returns the view over already-filled, not-yet-consumed bytes.
func (s *streamReader) readable() []byte { return s.buf[s.read:s.toRead] }

// writable returns the view available to fill on the next network read.
func (s *streamReader) writable() []byte { return s.buf[s.toRead:] }

// prepare ensures at least min writable bytes are available, compacting
// and/or growing the backing array as needed. drain forces a compaction
// pass even when there is already enough room.
func (s *streamReader) prepare(min int, drain bool) {
	if drain || (s.read == s.toRead && len(s.buf) > compactThreshold) {
		s.compact()
	}
	for len(s.writable()) < min {
		s.grow()
	}
}

func (s *streamReader) compact() {
	n := copy(s.buf, s.buf[s.read:s.toRead])
	s.read = 0
	s.toRead = n
}

func (s *streamReader) grow() {
	size := len(s.buf) * 2
	if size == 0 {
		size = initialBufferSize
	}
	next := make([]byte, size)
	n := copy(next, s.buf[s.read:s.toRead])
	s.buf = next
	s.read = 0
	s.toRead = n
}

// produce advances toRead after a successful network fill of n bytes into
// writable().
func (s *streamReader) produce(n int) { s.toRead += n }

// consume copies out n bytes starting at read and advances the cursor. The
// returned slice is owned by the caller, never aliased to the buffer, since
// a later grow()/compact() may relocate or overwrite it.
func (s *streamReader) consume(n int) []byte {
	out := make([]byte, n)
	copy(out, s.buf[s.read:s.read+n])
	s.read += n
	if s.read == s.toRead && len(s.buf) > compactThreshold {
		s.compact()
	}
	return out
}

// fill performs one bounded network read into the writable region, honoring
// deadline (the zero Time means block indefinitely, the blocking-mode
// overlay of spec.md §4.5).
func (s *streamReader) fill(deadline time.Time) error {
	s.prepare(1, false)
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	n, err := s.conn.Read(s.writable())
	if n > 0 {
		s.produce(n)
	}
	return err
}

// readLine scans the readable region for a CRLF, filling from the network
// as needed, and returns the bytes before the delimiter with the delimiter
// itself consumed but not returned.
func (s *streamReader) readLine(deadline time.Time) ([]byte, error) {
	for {
		if i := indexCRLF(s.readable()); i >= 0 {
			line := s.consume(i)
			s.consume(2) // "\r\n"
			return line, nil
		}
		if err := s.fill(deadline); err != nil {
			return nil, err
		}
	}
}

// readExact reads exactly n bytes followed by a 2-byte CRLF delimiter,
// returning the n bytes with the delimiter discarded. Used for bulk string
// bodies, whose declared length is already known.
func (s *streamReader) readExact(n int, deadline time.Time) ([]byte, error) {
	for len(s.readable()) < n+2 {
		if err := s.fill(deadline); err != nil {
			return nil, err
		}
	}
	data := s.consume(n)
	s.consume(2)
	return data, nil
}

// buffered reports how many bytes are sitting in the buffer unconsumed,
// i.e. already off the wire but not yet read by the caller. Used by
// available_bytes-style liveness probes in conn.go.
func (s *streamReader) buffered() int { return s.toRead - s.read }

func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}
