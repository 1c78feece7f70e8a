package redis

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"
)

// zeroHash pins slot/seedGroup to group/partition 0 for every key, so fake
// multi-server tests can control exactly which backend is contacted first
// without reasoning about Time33Hash's actual output.
func zeroHash([]byte) uint32 { return 0 }

// drainLines consumes n RESP lines (one "*N\r\n"/"$N\r\n"/bulk-body line
// each) from conn without interpreting them, the same draining idiom
// client_test.go and transaction_test.go use for scripted fake replies.
func drainLines(r *bufio.Reader, n int) {
	for i := 0; i < n; i++ {
		r.ReadString('\n')
	}
}

func TestPartitionedClientWriteAllAbortsOnFirstFailure(t *testing.T) {
	group1Hit := make(chan struct{}, 1)

	addr0 := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		drainLines(r, 7) // SET foo value: *3 / $3 SET / $3 foo / $5 value
		conn.Write([]byte("-ERR first hop failed\r\n"))
	})
	addr1 := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		group1Hit <- struct{}{}
		r := bufio.NewReader(conn)
		drainLines(r, 7)
		conn.Write([]byte("+OK\r\n"))
	})

	pc, err := NewPartitionedClient([]string{addr0, addr1}, 0, 1, time.Second, time.Second, zeroHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pc.Close()

	err = pc.Set("foo", []byte("value"))
	if err == nil {
		t.Fatal("expected an error from the first failing replica group")
	}
	if _, ok := err.(ServerError); !ok {
		t.Fatalf("got %T, want ServerError", err)
	}

	select {
	case <-group1Hit:
		t.Fatal("writeAll should have aborted before contacting the second replica group")
	default:
	}
}

func TestPartitionedClientReadOneFailsOverToNextGroup(t *testing.T) {
	addr0 := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		drainLines(r, 5) // GET foo: *2 / $3 GET / $3 foo
		conn.Write([]byte("-ERR group0 down\r\n"))
	})
	addr1 := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		drainLines(r, 5)
		conn.Write([]byte("$3\r\nbar\r\n"))
	})

	pc, err := NewPartitionedClient([]string{addr0, addr1}, 0, 1, time.Second, time.Second, zeroHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pc.Close()

	value, ok, err := pc.Get("foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || string(value) != "bar" {
		t.Fatalf("got (%q, %v), want (bar, true) after failing over to the second group", value, ok)
	}
}

func TestPartitionedClientWriteFailureTaggedWithHost(t *testing.T) {
	addr0 := startFakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		drainLines(r, 7) // SET foo value
		conn.Close()     // drop the connection instead of replying
	})

	pc, err := NewPartitionedClient([]string{addr0}, 0, 1, time.Second, time.Second, zeroHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pc.Close()

	err = pc.Set("foo", []byte("value"))
	if err == nil {
		t.Fatal("expected an error when the connection is dropped mid-request")
	}
	if !strings.Contains(err.Error(), "["+addr0+"]") {
		t.Fatalf("got %q, want it tagged with %q", err.Error(), "["+addr0+"]")
	}
}

func TestTime33HashDeterministic(t *testing.T) {
	a := Time33Hash([]byte("user:1234"))
	b := Time33Hash([]byte("user:1234"))
	if a != b {
		t.Fatalf("hash is not deterministic: %d != %d", a, b)
	}
	if a == Time33Hash([]byte("user:1235")) {
		t.Fatalf("distinct keys hashed to the same value (allowed, but suspicious for this fixture)")
	}
}

func TestNewPartitionedClientRejectsUnevenAddrList(t *testing.T) {
	_, err := NewPartitionedClient([]string{"a:1", "b:1", "c:1"}, 0, 2, 0, 0, nil)
	if err == nil {
		t.Fatal("expected an error for an address count that is not a multiple of partitions")
	}
}

func TestPartitionedClientGroupLayout(t *testing.T) {
	addrs := []string{
		"g0p0:1", "g0p1:1", "g0p2:1",
		"g1p0:1", "g1p1:1", "g1p2:1",
	}
	p, err := NewPartitionedClient(addrs, 0, 3, 0, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.groups != 2 {
		t.Fatalf("got %d groups, want 2", p.groups)
	}
	if p.client(0, 0).Addr() != normalizeAddr("g0p0:1") {
		t.Errorf("client(0,0) = %s, want g0p0:1", p.client(0, 0).Addr())
	}
	if p.client(1, 2).Addr() != normalizeAddr("g1p2:1") {
		t.Errorf("client(1,2) = %s, want g1p2:1", p.client(1, 2).Addr())
	}
}

func TestPartitionedClientSlotStable(t *testing.T) {
	addrs := []string{"a:1", "b:1", "c:1", "d:1"}
	p, err := NewPartitionedClient(addrs, 0, 4, 0, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s1 := p.slot("some-key")
	s2 := p.slot("some-key")
	if s1 != s2 {
		t.Fatalf("slot() is not stable for the same key: %d != %d", s1, s2)
	}
	if s1 < 0 || s1 >= p.partitions {
		t.Fatalf("slot %d out of range [0, %d)", s1, p.partitions)
	}
}

func TestCombineErrorsNilOnEmpty(t *testing.T) {
	if err := combineErrors(nil); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}
