package redis

import "strconv"

// request is a fully framed multi-bulk ready to write to the wire. Unlike
// the teacher's channel-handed-off request, a conn here is owned exclusively
// by one Client at a time (client.go's mutex), so a request's reply is
// returned directly from exec/execRaw/pipelineExec rather than passed back
// through a per-request channel.
type request struct {
	id   CommandID
	argc int // number of arguments after the command name, for checkArgc
	buf  []byte
}

func newRequest(id CommandID) *request {
	return &request{id: id}
}

// build frames args (the arguments following the command name) as a RESP
// multi-bulk request: "*<n+1>\r\n$<len>\r\n<name>\r\n" followed by a bulk
// header + body + CRLF per argument. Binary-safe: args are opaque byte
// strings, never escaped or split.
func (r *request) build(args ...[]byte) error {
	info := r.id.Info()
	if info.ID == NOOP {
		return newArgError("unknown command")
	}
	if !checkArgc(info.Arity, len(args)) {
		return newArgError("argument count mismatch for " + info.Name)
	}
	r.argc = len(args)

	buf := r.buf[:0]
	buf = appendHeader(buf, '*', int64(len(args)+1))
	buf = appendBulk(buf, []byte(info.Name))
	for _, a := range args {
		buf = appendBulk(buf, a)
	}
	r.buf = buf
	return nil
}

// buildRawRequest frames a request from pre-split argv (command name plus
// args), used by the raw-command escape hatch (Client.ExecCommand) and by
// Transaction.AddCommand, where the command is named by argv[0] rather
// than by a CommandID.
func buildRawRequest(argv [][]byte) (*request, error) {
	if len(argv) == 0 {
		return nil, newArgError("empty command")
	}
	id := LookupCommand(string(argv[0]))
	if id == NOOP {
		return nil, newArgError("invalid command: " + string(argv[0]))
	}
	info := id.Info()
	if !checkArgc(info.Arity, len(argv)-1) {
		return nil, newArgError("argument count mismatch for " + info.Name)
	}

	req := newRequest(id)
	req.argc = len(argv) - 1
	buf := appendHeader(req.buf[:0], '*', int64(len(argv)))
	for _, a := range argv {
		buf = appendBulk(buf, a)
	}
	req.buf = buf
	return req, nil
}

func appendHeader(buf []byte, prefix byte, n int64) []byte {
	buf = append(buf, prefix)
	buf = strconv.AppendInt(buf, n, 10)
	return append(buf, '\r', '\n')
}

func appendBulk(buf []byte, data []byte) []byte {
	buf = appendHeader(buf, '$', int64(len(data)))
	buf = append(buf, data...)
	return append(buf, '\r', '\n')
}

func decimalBytes(n int64) []byte {
	return strconv.AppendInt(nil, n, 10)
}

func floatBytes(f float64) []byte {
	return strconv.AppendFloat(nil, f, 'f', -1, 64)
}
