package redis

import (
	"strconv"
	"sync"
	"time"
)

// ClientConfig configures a single-server Client. Addr defaults as
// normalizeAddr describes; ConnectTimeout defaults to one second;
// CommandTimeout defaults to defaultCommandTimeout.
type ClientConfig struct {
	Addr           string
	Password       string
	DB             int64
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
}

// Client manages a lazily-dialed connection to one Redis-family node.
// Multiple goroutines may call methods on a Client concurrently: commands
// serialize on an internal lock, and Transaction (Multi/Exec) lets a caller
// batch several commands into one round trip explicitly rather than relying on implicit
// overlap (see DESIGN.md for why this trades the teacher's lock-free
// read/write handoff for a simpler, explicitly-batched design).
type Client struct {
	mu     sync.Mutex
	conn   *conn
	closed bool
	stats  ClientStats
}

// ClientStats holds plain counters a caller can forward to its own metrics
// sink; this client does not integrate with any metrics library itself.
type ClientStats struct {
	Reconnects    int64
	PipelineDepth int
	LastError     string
}

// Stats returns a snapshot of the client's counters.
func (cl *Client) Stats() ClientStats {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.stats
}

// NewClient launches a connection to a service address. The host defaults
// to localhost, and the port defaults to 6379: the empty string defaults to
// "localhost:6379". Use an absolute file path (e.g. "/var/run/redis.sock")
// for Unix domain sockets. A zero connectTimeout defaults to one second.
func NewClient(addr string, commandTimeout, connectTimeout time.Duration) *Client {
	return NewClientConfig(ClientConfig{
		Addr:           addr,
		CommandTimeout: commandTimeout,
		ConnectTimeout: connectTimeout,
	})
}

// NewClientConfig is the full-configuration constructor, for callers that
// need AUTH and/or a non-default DB applied on every (re)connect.
func NewClientConfig(cfg ClientConfig) *Client {
	addr := normalizeAddr(cfg.Addr)
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = time.Second
	}
	commandTimeout := cfg.CommandTimeout
	if commandTimeout == 0 {
		commandTimeout = defaultCommandTimeout
	}
	c := newConn(addr, connectTimeout, commandTimeout)
	c.password = cfg.Password
	c.db = cfg.DB
	return &Client{conn: c}
}

// Addr returns the normalized service address in use.
func (cl *Client) Addr() string { return cl.conn.addr }

// Close releases the underlying connection. Calling Close more than once
// has no effect.
func (cl *Client) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return nil
	}
	cl.closed = true
	cl.conn.close()
	return nil
}

// Select changes the logical database index for this connection, and for
// every reconnect afterwards.
func (cl *Client) Select(db int64) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return ErrClosed
	}
	if err := cl.ensureConnectedLocked(); err != nil {
		return err
	}
	if err := cl.conn.selectDB(db); err != nil {
		return hostError(cl.conn.addr, err)
	}
	return nil
}

// ExecCommand runs an arbitrary, already-known command by name — the
// raw-command escape hatch for commands this client has no typed method
// for (MONITOR included: there is no dedicated monitor type, only this
// escape hatch issuing the raw command). argv includes the command name
// as argv[0] and is sent as given, one bulk per element; there is no
// format-string form that splits a text command into argv.
func (cl *Client) ExecCommand(argv ...[]byte) (Reply, error) {
	req, err := buildRawRequest(argv)
	if err != nil {
		return nil, err
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return nil, ErrClosed
	}
	if err := cl.ensureConnectedLocked(); err != nil {
		return nil, err
	}
	reply, err := cl.conn.execRaw(req)
	if err != nil {
		err = hostError(cl.conn.addr, err)
		cl.stats.LastError = err.Error()
		return nil, err
	}
	return reply, nil
}

func (cl *Client) ensureConnectedLocked() error {
	result, err := cl.conn.assureConnect()
	if err != nil {
		err = hostError(cl.conn.addr, err)
		cl.stats.LastError = err.Error()
		return err
	}
	if result == assureReopened {
		cl.stats.Reconnects++
	}
	return nil
}

// do is the single entry point every typed command method funnels through:
// it locks, assures the connection, sends one command, and tags any error
// with the backend address.
func (cl *Client) do(id CommandID, args ...[]byte) (Reply, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return nil, ErrClosed
	}
	if err := cl.ensureConnectedLocked(); err != nil {
		return nil, err
	}
	reply, err := cl.conn.exec(id, args)
	if err != nil {
		err = hostError(cl.conn.addr, err)
		cl.stats.LastError = err.Error()
		return nil, err
	}
	return reply, nil
}

func (cl *Client) commandOK(id CommandID, args ...[]byte) error {
	reply, err := cl.do(id, args...)
	if err != nil {
		return err
	}
	return replyToErr(id, reply)
}

func replyToErr(id CommandID, reply Reply) error {
	switch r := reply.(type) {
	case Status:
		return nil
	case Err:
		return r.asServerError()
	default:
		return newMismatchError(id.Info().Name, KindStatus, reply.Kind())
	}
}

func (cl *Client) commandInteger(id CommandID, args ...[]byte) (int64, error) {
	reply, err := cl.do(id, args...)
	if err != nil {
		return 0, err
	}
	switch r := reply.(type) {
	case Integer:
		return int64(r), nil
	case Err:
		return 0, r.asServerError()
	default:
		return 0, newMismatchError(id.Info().Name, KindInteger, reply.Kind())
	}
}

// commandBulkBytes returns (nil, false, nil) for a nil bulk reply, per
// spec's nil-distinction invariant: "not found" is not an error.
func (cl *Client) commandBulkBytes(id CommandID, args ...[]byte) ([]byte, bool, error) {
	reply, err := cl.do(id, args...)
	if err != nil {
		return nil, false, err
	}
	switch r := reply.(type) {
	case Bulk:
		if r.Nil {
			return nil, false, nil
		}
		return r.Data, true, nil
	case Err:
		return nil, false, r.asServerError()
	default:
		return nil, false, newMismatchError(id.Info().Name, KindBulk, reply.Kind())
	}
}

func (cl *Client) commandBulkString(id CommandID, args ...[]byte) (string, bool, error) {
	data, ok, err := cl.commandBulkBytes(id, args...)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(data), true, nil
}

// commandBytesArray returns nil for a nil multi-bulk, and a zero-length
// non-nil slice for an empty one, preserving the distinction.
func (cl *Client) commandBytesArray(id CommandID, args ...[]byte) ([][]byte, error) {
	reply, err := cl.do(id, args...)
	if err != nil {
		return nil, err
	}
	switch r := reply.(type) {
	case MultiBulk:
		if r.Nil {
			return nil, nil
		}
		if r.Items == nil {
			return [][]byte{}, nil
		}
		return r.Items, nil
	case Err:
		return nil, r.asServerError()
	default:
		return nil, newMismatchError(id.Info().Name, KindMultiBulk, reply.Kind())
	}
}

func (cl *Client) commandStringArray(id CommandID, args ...[]byte) ([]string, error) {
	items, err := cl.commandBytesArray(id, args...)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, nil
	}
	out := make([]string, len(items))
	for i, b := range items {
		out[i] = string(b)
	}
	return out, nil
}

// --- Connection ---

// Ping checks liveness. An empty echo argument is omitted.
func (cl *Client) Ping() error { return cl.commandOK(CmdPING) }

// Auth authenticates the connection and remembers the password so future
// reconnects reauthenticate automatically.
func (cl *Client) Auth(password string) error {
	cl.mu.Lock()
	cl.conn.password = password
	cl.mu.Unlock()
	return cl.commandOK(CmdAUTH, []byte(password))
}

// Echo returns message unchanged, useful for round-trip tests.
func (cl *Client) Echo(message string) (string, error) {
	s, _, err := cl.commandBulkString(CmdECHO, []byte(message))
	return s, err
}

// --- Keys ---

// Del removes the given keys, and returns how many existed.
func (cl *Client) Del(keys ...string) (int64, error) {
	return cl.commandInteger(CmdDEL, stringsToBytes(keys)...)
}

// Exists reports how many of the given keys exist.
func (cl *Client) Exists(keys ...string) (int64, error) {
	return cl.commandInteger(CmdEXISTS, stringsToBytes(keys)...)
}

// Expire sets a key's time-to-live in seconds.
func (cl *Client) Expire(key string, seconds int64) (bool, error) {
	n, err := cl.commandInteger(CmdEXPIRE, []byte(key), decimalBytes(seconds))
	return n == 1, err
}

// TTL returns the key's remaining time-to-live in seconds, -1 if the key
// has no expiry, or -2 if the key does not exist.
func (cl *Client) TTL(key string) (int64, error) {
	return cl.commandInteger(CmdTTL, []byte(key))
}

// Keys returns all key names matching pattern. Intended for debugging on
// small keyspaces, per the usual Redis caveat.
func (cl *Client) Keys(pattern string) ([]string, error) {
	return cl.commandStringArray(CmdKEYS, []byte(pattern))
}

// Type reports the type name stored at key ("string", "list", "set",
// "zset", "hash", or "none").
func (cl *Client) Type(key string) (string, error) {
	reply, err := cl.do(CmdTYPE, []byte(key))
	if err != nil {
		return "", err
	}
	switch r := reply.(type) {
	case Status:
		return string(r), nil
	case Err:
		return "", r.asServerError()
	default:
		return "", newMismatchError("TYPE", KindStatus, reply.Kind())
	}
}

// --- Strings ---

// Get fetches key's value. ok is false when key does not exist.
func (cl *Client) Get(key string) (value []byte, ok bool, err error) {
	return cl.commandBulkBytes(CmdGET, []byte(key))
}

// GetTri is the legacy tri-state accessor: 1 if key was found (value
// populated), 0 if key does not exist, -1 on failure. Kept alongside the
// primary ok-bool API as a recovered "old style" convenience, not to be
// used in new code.
func (cl *Client) GetTri(key string) (value []byte, state int, err error) {
	value, ok, err := cl.Get(key)
	if err != nil {
		return nil, -1, err
	}
	if !ok {
		return nil, 0, nil
	}
	return value, 1, nil
}

// Set stores value at key unconditionally.
func (cl *Client) Set(key string, value []byte) error {
	return cl.commandOK(CmdSET, []byte(key), value)
}

// SetNX stores value at key only if key does not already exist.
func (cl *Client) SetNX(key string, value []byte) (bool, error) {
	n, err := cl.commandInteger(CmdSETNX, []byte(key), value)
	return n == 1, err
}

// SetEx stores value at key with a time-to-live in seconds.
func (cl *Client) SetEx(key string, seconds int64, value []byte) error {
	return cl.commandOK(CmdSETEX, []byte(key), decimalBytes(seconds), value)
}

// GetSet atomically sets key to value and returns the previous value.
func (cl *Client) GetSet(key string, value []byte) (previous []byte, ok bool, err error) {
	return cl.commandBulkBytes(CmdGETSET, []byte(key), value)
}

// Incr increments key by one and returns the new value.
func (cl *Client) Incr(key string) (int64, error) {
	return cl.commandInteger(CmdINCR, []byte(key))
}

// IncrBy increments key by delta and returns the new value.
func (cl *Client) IncrBy(key string, delta int64) (int64, error) {
	return cl.commandInteger(CmdINCRBY, []byte(key), decimalBytes(delta))
}

// MGet fetches several keys in one round trip. A nil element means that
// key did not exist.
func (cl *Client) MGet(keys ...string) ([][]byte, error) {
	return cl.commandBytesArray(CmdMGET, stringsToBytes(keys)...)
}

// MSet stores several key/value pairs atomically. pairs must have an even
// length: key, value, key, value, ...
func (cl *Client) MSet(pairs ...[]byte) error {
	return cl.commandOK(CmdMSET, pairs...)
}

// StrLen returns the byte length of the value stored at key, or 0 if key
// does not exist.
func (cl *Client) StrLen(key string) (int64, error) {
	return cl.commandInteger(CmdSTRLEN, []byte(key))
}

// --- Hashes ---

// HGet fetches field from the hash stored at key.
func (cl *Client) HGet(key, field string) (value []byte, ok bool, err error) {
	return cl.commandBulkBytes(CmdHGET, []byte(key), []byte(field))
}

// HSet sets field in the hash stored at key, returning whether field is new.
func (cl *Client) HSet(key, field string, value []byte) (bool, error) {
	n, err := cl.commandInteger(CmdHSET, []byte(key), []byte(field), value)
	return n == 1, err
}

// HSetNX sets field only if it does not already exist in the hash.
func (cl *Client) HSetNX(key, field string, value []byte) (bool, error) {
	n, err := cl.commandInteger(CmdHSETNX, []byte(key), []byte(field), value)
	return n == 1, err
}

// HDel removes fields from the hash stored at key.
func (cl *Client) HDel(key string, fields ...string) (int64, error) {
	return cl.commandInteger(CmdHDEL, append([][]byte{[]byte(key)}, stringsToBytes(fields)...)...)
}

// HGetAll returns every field/value pair in the hash stored at key, flattened
// as [field, value, field, value, ...].
func (cl *Client) HGetAll(key string) ([][]byte, error) {
	return cl.commandBytesArray(CmdHGETALL, []byte(key))
}

// HLen returns the number of fields in the hash stored at key.
func (cl *Client) HLen(key string) (int64, error) {
	return cl.commandInteger(CmdHLEN, []byte(key))
}

// --- Lists ---

// LPush prepends values to the list stored at key, returning its new length.
func (cl *Client) LPush(key string, values ...[]byte) (int64, error) {
	return cl.commandInteger(CmdLPUSH, append([][]byte{[]byte(key)}, values...)...)
}

// RPush appends values to the list stored at key, returning its new length.
func (cl *Client) RPush(key string, values ...[]byte) (int64, error) {
	return cl.commandInteger(CmdRPUSH, append([][]byte{[]byte(key)}, values...)...)
}

// LPop removes and returns the first element of the list stored at key.
func (cl *Client) LPop(key string) (value []byte, ok bool, err error) {
	return cl.commandBulkBytes(CmdLPOP, []byte(key))
}

// RPop removes and returns the last element of the list stored at key.
func (cl *Client) RPop(key string) (value []byte, ok bool, err error) {
	return cl.commandBulkBytes(CmdRPOP, []byte(key))
}

// LRange returns elements [start, stop] (inclusive, zero-based, negative
// indices count from the tail) of the list stored at key.
func (cl *Client) LRange(key string, start, stop int64) ([][]byte, error) {
	return cl.commandBytesArray(CmdLRANGE, []byte(key), decimalBytes(start), decimalBytes(stop))
}

// LLen returns the length of the list stored at key.
func (cl *Client) LLen(key string) (int64, error) {
	return cl.commandInteger(CmdLLEN, []byte(key))
}

// --- Sets ---

// SAdd adds members to the set stored at key, returning how many were new.
func (cl *Client) SAdd(key string, members ...[]byte) (int64, error) {
	return cl.commandInteger(CmdSADD, append([][]byte{[]byte(key)}, members...)...)
}

// SRem removes members from the set stored at key, returning how many were
// removed.
func (cl *Client) SRem(key string, members ...[]byte) (int64, error) {
	return cl.commandInteger(CmdSREM, append([][]byte{[]byte(key)}, members...)...)
}

// SIsMember reports whether member is in the set stored at key.
func (cl *Client) SIsMember(key string, member []byte) (bool, error) {
	n, err := cl.commandInteger(CmdSISMEMBER, []byte(key), member)
	return n == 1, err
}

// SMembers returns every member of the set stored at key.
func (cl *Client) SMembers(key string) ([][]byte, error) {
	return cl.commandBytesArray(CmdSMEMBERS, []byte(key))
}

// SCard returns the number of members in the set stored at key.
func (cl *Client) SCard(key string) (int64, error) {
	return cl.commandInteger(CmdSCARD, []byte(key))
}

// --- Sorted sets ---

// ZAdd adds member with score to the sorted set stored at key.
func (cl *Client) ZAdd(key string, score float64, member []byte) (bool, error) {
	n, err := cl.commandInteger(CmdZADD, []byte(key), floatBytes(score), member)
	return n == 1, err
}

// ZScore returns member's score in the sorted set stored at key.
func (cl *Client) ZScore(key string, member []byte) (score float64, ok bool, err error) {
	s, ok, err := cl.commandBulkString(CmdZSCORE, []byte(key), member)
	if err != nil || !ok {
		return 0, ok, err
	}
	f, perr := strconv.ParseFloat(s, 64)
	if perr != nil {
		return 0, false, newMismatchError("ZSCORE", KindBulk, KindBulk)
	}
	return f, true, nil
}

// ZRank returns member's rank (0-based, ascending by score) in the sorted
// set stored at key. ok is false if member does not exist.
func (cl *Client) ZRank(key string, member []byte) (rank int64, ok bool, err error) {
	reply, err := cl.do(CmdZRANK, []byte(key), member)
	if err != nil {
		return 0, false, err
	}
	switch r := reply.(type) {
	case Integer:
		return int64(r), true, nil
	case Bulk:
		if r.Nil {
			return 0, false, nil
		}
		return 0, false, newMismatchError("ZRANK", KindInteger, KindBulk)
	case Err:
		return 0, false, r.asServerError()
	default:
		return 0, false, newMismatchError("ZRANK", KindInteger, reply.Kind())
	}
}

// ZRange returns members [start, stop] (inclusive, zero-based) of the
// sorted set stored at key, ordered ascending by score.
func (cl *Client) ZRange(key string, start, stop int64) ([][]byte, error) {
	return cl.commandBytesArray(CmdZRANGE, []byte(key), decimalBytes(start), decimalBytes(stop))
}

// ZCard returns the number of members in the sorted set stored at key.
func (cl *Client) ZCard(key string) (int64, error) {
	return cl.commandInteger(CmdZCARD, []byte(key))
}

// --- Server ---

// FlushDB removes every key from the currently selected database.
func (cl *Client) FlushDB() error { return cl.commandOK(CmdFLUSHDB) }

// Info returns the server's INFO report as raw text. INFO cannot
// legitimately return nil, so a nil bulk reply is reported as an error
// rather than silently returning an empty string.
func (cl *Client) Info() (string, error) {
	s, ok, err := cl.commandBulkString(CmdINFO)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newUnexpectedNilError("INFO")
	}
	return s, nil
}

func stringsToBytes(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
