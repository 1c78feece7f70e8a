package redis

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed rejects command execution after Client.Close.
var ErrClosed = errors.New("redis: client closed")

// errConnLost signals connection loss to a pending command.
var errConnLost = errors.New("redis: connection lost while awaiting response")

// errProtocol signals a malformed RESP reception. Any occurrence closes the
// connection per spec: parse errors are always fatal.
var errProtocol = errors.New("redis: protocol violation")

// ErrPoolExhausted names an empty-pool condition. Pool.Get never returns
// it: Get has no option to skip dialing, and creates a fresh Client through
// the pool's factory whenever the free list is empty.
var ErrPoolExhausted = errors.New("redis: pool exhausted")

// ServerError is a `-...` error reply sent by the server. It never closes
// the connection: the server remains able to serve further commands.
type ServerError string

// Error honors the error interface.
func (e ServerError) Error() string {
	return fmt.Sprintf("redis: server error %q", string(e))
}

// Prefix returns the first word, which conventionally names the error kind
// (e.g. "WRONGTYPE", "ERR", "NOSCRIPT").
func (e ServerError) Prefix() string {
	s := string(e)
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}

// mismatchError reports that a command's observed reply kind differs from
// the kind CommandInfo declares expected. It is not a server error, but the
// connection does not survive it: conn.execRaw and conn.pipelineExec close
// the connection on any decode error, this one included, because the rest
// of the mismatched frame is left unread on the wire.
type mismatchError struct {
	command  string
	expected ReplyKind
	got      ReplyKind
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("redis: %s: reply type mismatch: expected %s, got %s", e.command, e.expected, e.got)
}

func newMismatchError(command string, expected, got ReplyKind) error {
	return &mismatchError{command: command, expected: expected, got: got}
}

// argError reports an argument-validation failure (arity, nil slot) that
// never touches the socket.
type argError struct {
	reason string
}

func (e *argError) Error() string {
	return "redis: EINVAL: " + e.reason
}

func newArgError(reason string) error {
	return &argError{reason: reason}
}

// unexpectedNilError reports a nil bulk reply from a command that cannot
// legitimately produce one (e.g. INFO).
type unexpectedNilError struct {
	command string
}

func (e *unexpectedNilError) Error() string {
	return fmt.Sprintf("redis: %s: unexpected nil reply", e.command)
}

func newUnexpectedNilError(command string) error {
	return &unexpectedNilError{command: command}
}

// hostError tags an inner error with the backend that produced it, per
// spec's "[host:port] inner_error" format used by the partitioned client.
func hostError(addr string, err error) error {
	return fmt.Errorf("[%s] %w", addr, err)
}
