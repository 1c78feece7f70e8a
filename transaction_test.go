package redis

import (
	"bufio"
	"net"
	"testing"
	"time"
)

func TestTransactionBuildErrorDeferred(t *testing.T) {
	cl := NewClient("127.0.0.1:0", time.Second, time.Second)
	defer cl.Close()

	tx := cl.Multi().Queue(CmdGET) // GET requires exactly one argument
	_, ok, err := tx.Exec()
	if err == nil {
		t.Fatal("expected a deferred argument-validation error")
	}
	if ok {
		t.Fatal("ok should be false on a build error")
	}
}

func TestTransactionAddCommandQueuesRawCommand(t *testing.T) {
	cl := NewClient("127.0.0.1:0", time.Second, time.Second)
	defer cl.Close()

	tx := cl.Multi()
	if ok := tx.AddCommand([]byte("GET"), []byte("foo")); !ok {
		t.Fatal("expected AddCommand to report success for a well-formed command")
	}
	if len(tx.reqs) != 1 {
		t.Fatalf("got %d queued requests, want 1", len(tx.reqs))
	}
}

func TestTransactionAddCommandRejectsEmptyArgv(t *testing.T) {
	cl := NewClient("127.0.0.1:0", time.Second, time.Second)
	defer cl.Close()

	tx := cl.Multi()
	if ok := tx.AddCommand(); ok {
		t.Fatal("expected AddCommand to report failure for an empty command")
	}
	if len(tx.buildErrs) != 1 {
		t.Fatalf("got %d deferred build errors, want 1", len(tx.buildErrs))
	}
}

func TestTransactionExecRoundTrip(t *testing.T) {
	addr := startFakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)

		drain := func(n int) {
			for i := 0; i < n; i++ {
				r.ReadString('\n')
			}
		}

		drain(3) // MULTI: *1 / $5 / MULTI
		conn.Write([]byte("+OK\r\n"))

		drain(7) // SET foo bar: *3 / $3 SET / $3 foo / $3 bar
		conn.Write([]byte("+QUEUED\r\n"))

		drain(3) // EXEC: *1 / $4 / EXEC
		conn.Write([]byte("*1\r\n+OK\r\n"))
	})

	cl := NewClient(addr, time.Second, time.Second)
	defer cl.Close()

	tx := cl.Multi().Queue(CmdSET, []byte("foo"), []byte("bar"))
	replies, ok, err := tx.Exec()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for a committed transaction")
	}
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	status, isStatus := replies[0].(Status)
	if !isStatus || !status.IsOK() {
		t.Fatalf("got %#v, want Status(OK)", replies[0])
	}
}
