package redis

import (
	"net"
	"time"
)

// connState names the lifecycle stages of a single server connection: a
// conn starts Closed, dials lazily into Idle, moves to InTransaction once a
// MULTI reply is observed, and Pipelined while a batch of requests is in
// flight without per-command round trips.
type connState int

const (
	stateClosed connState = iota
	stateIdle
	stateInTransaction
	statePipelined
)

// livenessCheckInterval rate-limits the "is this socket still alive"
// zero-byte probe: a busy connection does not need it re-checked more than
// once every few minutes.
const livenessCheckInterval = 180 * time.Second

// conn owns one network connection to one backend, plus the state needed to
// reconnect it lazily and correctly: which DB index and password were last
// applied, and whether a transaction is currently open on it.
//
// conn is not safe for concurrent use by multiple goroutines; callers
// serialize access to it (Pool hands out exclusive borrows).
type conn struct {
	addr           string
	network        string
	connectTimeout time.Duration
	commandTimeout time.Duration
	db             int64
	password       string

	nc     net.Conn
	stream *streamReader
	state  connState
	txMode bool

	lastLivenessCheck time.Time
}

func newConn(addr string, connectTimeout, commandTimeout time.Duration) *conn {
	network := "tcp"
	if isUnixAddr(addr) {
		network = "unix"
	}
	return &conn{
		addr:           addr,
		network:        network,
		connectTimeout: connectTimeout,
		commandTimeout: commandTimeout,
		state:          stateClosed,
	}
}

// assureResult reports what assureConnect had to do to hand back a usable
// connection.
type assureResult int

const (
	assureOpen     assureResult = iota // already connected; nothing redone
	assureReopened                     // freshly dialed; AUTH/SELECT reapplied
	assureFailed
)

// assureConnect dials if necessary, lazily: a connection is only ever
// opened the moment a command needs one. A freshly opened connection has
// AUTH (if a password is set) and SELECT (if the db index is non-default)
// reissued before being handed back, so callers never observe a connection
// pointed at the wrong logical database. A fresh connection also forgets
// any transaction in progress: txMode resets to false, since MULTI state
// lives on the server side of the socket that just went away.
func (c *conn) assureConnect() (assureResult, error) {
	if c.state != stateClosed && c.isOpenFast() {
		return assureOpen, nil
	}
	c.closeNet()

	dialAddr := c.addr
	if c.network == "tcp" {
		resolved, err := sharedDNSCache.resolve(c.addr)
		if err == nil {
			dialAddr = resolved
		}
		// A cache-resolve failure is not fatal here: fall through and let
		// net.DialTimeout attempt (and report) the resolution itself.
	}

	nc, err := net.DialTimeout(c.network, dialAddr, c.connectTimeout)
	if err != nil {
		c.state = stateClosed
		return assureFailed, err
	}
	if tcp, ok := nc.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}

	c.nc = nc
	c.stream = newStreamReader(nc)
	c.state = stateIdle
	c.txMode = false
	c.lastLivenessCheck = time.Time{}

	if c.password != "" {
		if err := c.reauth(); err != nil {
			c.closeNet()
			return assureFailed, err
		}
	}
	if c.db != 0 {
		if err := c.reselect(); err != nil {
			c.closeNet()
			return assureFailed, err
		}
	}
	return assureReopened, nil
}

func (c *conn) reauth() error {
	_, err := c.exec(CmdAUTH, [][]byte{[]byte(c.password)})
	return err
}

func (c *conn) reselect() error {
	_, err := c.exec(CmdSELECT, [][]byte{decimalBytes(c.db)})
	return err
}

// selectDB changes the sticky db index that assureConnect reapplies after a
// reconnect, and applies it to the live connection immediately if one is
// open.
func (c *conn) selectDB(db int64) error {
	c.db = db
	if c.isOpenFast() {
		return c.reselect()
	}
	return nil
}

// isOpenFast is the cheap liveness check: the connection handle is
// non-nil and not already known closed. It never touches the network.
func (c *conn) isOpenFast() bool {
	return c.nc != nil && c.state != stateClosed
}

// isOpenSlow performs a one-millisecond-deadline read to detect a half-closed peer,
// rate-limited to once per livenessCheckInterval so a hot connection is not
// probed on every single command.
func (c *conn) isOpenSlow() bool {
	if !c.isOpenFast() {
		return false
	}
	now := time.Now()
	if now.Sub(c.lastLivenessCheck) < livenessCheckInterval {
		return true
	}
	c.lastLivenessCheck = now

	if c.stream.buffered() > 0 {
		return true // unread data already waiting: definitely alive
	}

	c.nc.SetReadDeadline(time.Now().Add(time.Millisecond))
	var probe [1]byte
	n, err := c.nc.Read(probe[:])
	c.nc.SetReadDeadline(time.Time{})
	if n > 0 {
		// An out-of-band byte showed up outside of any pending command
		// (shouldn't happen in the non-pub/sub surface this client
		// exposes); treat the connection as suspect rather than silently
		// drop data that was never consumed.
		c.closeNet()
		return false
	}
	if err == nil {
		return true
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	c.closeNet()
	return false
}

// availableBytes reports how many bytes are already buffered locally, i.e.
// off the wire but not yet parsed. net.Conn exposes no portable way to ask
// the kernel how many bytes are queued on the socket (no FIONREAD), so this
// is strictly a userspace count rather than a true socket-level reading.
func (c *conn) availableBytes() int {
	if c.stream == nil {
		return 0
	}
	return c.stream.buffered()
}

func (c *conn) closeNet() {
	if c.nc != nil {
		c.nc.Close()
	}
	c.nc = nil
	c.stream = nil
	c.state = stateClosed
}

func (c *conn) close() { c.closeNet() }

func (c *conn) deadline() time.Time {
	if c.commandTimeout == 0 {
		return time.Time{}
	}
	return time.Now().Add(c.commandTimeout)
}

// exec sends one command and returns its parsed reply, enforcing reply-kind
// and flipping transaction-mode state exactly as decodeReply describes. A
// write failure or any decode error (a parse error or a reply-kind
// mismatch) is fatal to the connection: the caller must assureConnect
// again before the next command runs.
func (c *conn) exec(id CommandID, args [][]byte) (Reply, error) {
	req := newRequest(id)
	if err := req.build(args...); err != nil {
		return nil, err
	}
	return c.execRaw(req)
}

// execRaw sends an already-framed request — used both by exec and by the
// raw-command escape hatch in client.go, whose requests are built through
// buildRawRequest rather than the typed build(args...) path.
func (c *conn) execRaw(req *request) (Reply, error) {
	if c.state == stateClosed {
		return nil, errConnLost
	}
	deadline := c.deadline()
	if !deadline.IsZero() {
		c.nc.SetWriteDeadline(deadline)
	}
	if _, err := c.nc.Write(req.buf); err != nil {
		c.closeNet()
		return nil, err
	}

	reply, err := decodeReply(c.stream, deadline, req.id, &c.txMode)
	if err != nil {
		c.closeNet()
		return nil, err
	}
	if c.txMode {
		c.state = stateInTransaction
	} else {
		c.state = stateIdle
	}
	return reply, nil
}

// execBlocking runs a command with an explicit per-call timeout overriding
// the connection's usual command timeout — the blocking-mode overlay for
// commands whose whole point is to wait longer than normal.
func (c *conn) execBlocking(id CommandID, args [][]byte, timeout time.Duration) (Reply, error) {
	saved := c.commandTimeout
	c.commandTimeout = timeout
	defer func() { c.commandTimeout = saved }()
	return c.exec(id, args)
}

// pipelineExec writes every request back to back, then reads every reply
// back to back — the Pipelined state. It aborts the moment a write fails:
// already-sent requests still get their replies drained off the wire so
// the stream stays framed correctly, but no further requests are sent once
// the connection is known bad.
func (c *conn) pipelineExec(reqs []*request) ([]Reply, error) {
	if c.state == stateClosed {
		return nil, errConnLost
	}
	c.state = statePipelined
	deadline := c.deadline()

	sent := 0
	for _, req := range reqs {
		if !deadline.IsZero() {
			c.nc.SetWriteDeadline(deadline)
		}
		if _, err := c.nc.Write(req.buf); err != nil {
			break
		}
		sent++
	}

	replies := make([]Reply, sent)
	for i := 0; i < sent; i++ {
		reply, err := decodeReply(c.stream, deadline, reqs[i].id, &c.txMode)
		if err != nil {
			c.closeNet()
			return replies[:i], err
		}
		replies[i] = reply
	}

	if sent < len(reqs) {
		c.closeNet()
		return replies, errConnLost
	}

	if c.txMode {
		c.state = stateInTransaction
	} else {
		c.state = stateIdle
	}
	return replies, nil
}
