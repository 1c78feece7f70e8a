package redis

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// decodeReply parses exactly one reply frame for a command, applying the
// reply-kind enforcement and transaction-mode flip of spec.md §4.4.
// txMode is the connection's in_transaction flag; decodeReply both reads
// and updates it, exactly as the wire parser transitions on observed
// replies (never on request emission) per original_source's
// redis_protocol.cpp::__read_reply.
func decodeReply(s *streamReader, deadline time.Time, id CommandID, txMode *bool) (Reply, error) {
	info := id.Info()
	expected := info.Reply
	// KindNone (the pub/sub commands) declares no expected reply, so like
	// KindDepends it is not enforced.
	checkKind := expected != KindDepends && expected != KindNone

	if checkKind && *txMode {
		switch id {
		case CmdMULTI, CmdEXEC, CmdDISCARD:
			// real reply kind applies
		default:
			// In transaction mode every other command is queued
			// server-side and acknowledged with a status reply.
			expected = KindStatus
		}
	}

	return decodeFrame(s, deadline, id, txMode, expected, checkKind)
}

// decodeFrame is the recursive core: called directly by decodeReply for the
// top-level frame, and by itself (with checkKind=false, per spec's
// "Depends" treatment inside a SpecialMultiBulk) for each inner frame of a
// SpecialMultiBulk. Only the top-level call (checkKind true) is allowed to
// flip transaction-mode state — inner frames describe a queued command's
// own result, not the enclosing EXEC/MULTI/DISCARD.
func decodeFrame(s *streamReader, deadline time.Time, id CommandID, txMode *bool, expected ReplyKind, checkKind bool) (Reply, error) {
	line, err := s.readLine(deadline)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, errors.Wrap(errProtocol, "empty reply line")
	}

	switch line[0] {
	case '+':
		if checkKind && expected != KindStatus {
			return nil, newMismatchError(id.Info().Name, expected, KindStatus)
		}
		status := Status(line[1:])
		if checkKind {
			if !*txMode && id == CmdMULTI {
				*txMode = true
			} else if *txMode && id == CmdDISCARD {
				*txMode = false
			}
		}
		return status, nil

	case '-':
		// Server errors are never fatal to the connection and never
		// enforce reply-kind: the caller wanted *something* back and
		// got an error reply instead.
		return Err(line[1:]), nil

	case ':':
		if checkKind && expected != KindInteger {
			return nil, newMismatchError(id.Info().Name, expected, KindInteger)
		}
		n, perr := parseReplyInteger(line)
		if perr != nil {
			return nil, errors.Wrapf(errProtocol, "malformed integer reply %q", line)
		}
		return Integer(n), nil

	case '$':
		if checkKind && expected != KindBulk {
			return nil, newMismatchError(id.Info().Name, expected, KindBulk)
		}
		return decodeBulk(s, deadline, line)

	case '*':
		if checkKind && expected != KindMultiBulk && expected != KindSpecialMultiBulk {
			return nil, newMismatchError(id.Info().Name, expected, KindMultiBulk)
		}
		if expected == KindMultiBulk {
			return decodeMultiBulk(s, deadline, line)
		}
		reply, err := decodeSpecialMultiBulk(s, deadline, id, txMode, line)
		if err != nil {
			return nil, err
		}
		if checkKind && *txMode && id == CmdEXEC {
			*txMode = false
		}
		return reply, nil

	default:
		return nil, errors.Wrapf(errProtocol, "unexpected reply lead byte %q", line[0])
	}
}

func parseReplyInteger(line []byte) (int64, error) {
	return strconv.ParseInt(string(line[1:]), 10, 64)
}

// decodeBulk parses a "$<len>" header plus, for len >= 0, its body.
func decodeBulk(s *streamReader, deadline time.Time, header []byte) (Reply, error) {
	n, err := parseReplyInteger(header)
	if err != nil {
		return nil, errors.Wrapf(errProtocol, "malformed bulk length %q", header)
	}
	if n < -1 {
		return nil, errors.Wrapf(errProtocol, "invalid bulk length %d", n)
	}
	if n == -1 {
		return Bulk{Nil: true}, nil
	}
	data, err := s.readExact(int(n), deadline)
	if err != nil {
		return nil, err
	}
	return Bulk{Data: data}, nil
}

// decodeMultiBulk parses a "*<len>" header whose inner frames must all be
// bulks (the default, non-special case of spec.md §4.4).
func decodeMultiBulk(s *streamReader, deadline time.Time, header []byte) (Reply, error) {
	n, err := parseReplyInteger(header)
	if err != nil {
		return nil, errors.Wrapf(errProtocol, "malformed multi-bulk length %q", header)
	}
	if n < -1 {
		return nil, errors.Wrapf(errProtocol, "invalid multi-bulk length %d", n)
	}
	if n == -1 {
		return MultiBulk{Nil: true}, nil
	}
	items := make([][]byte, n)
	for i := int64(0); i < n; i++ {
		line, err := s.readLine(deadline)
		if err != nil {
			return nil, err
		}
		if len(line) == 0 || line[0] != '$' {
			return nil, errors.Wrap(errProtocol, "multi-bulk element is not a bulk")
		}
		bulk, err := decodeBulk(s, deadline, line)
		if err != nil {
			return nil, err
		}
		b := bulk.(Bulk)
		if !b.Nil {
			items[i] = b.Data
		}
	}
	return MultiBulk{Items: items}, nil
}

// decodeSpecialMultiBulk parses a "*<len>" header whose inner frames may be
// any reply kind, recursing through decodeFrame for each. Used for EXEC's
// result array.
func decodeSpecialMultiBulk(s *streamReader, deadline time.Time, id CommandID, txMode *bool, header []byte) (Reply, error) {
	n, err := parseReplyInteger(header)
	if err != nil {
		return nil, errors.Wrapf(errProtocol, "malformed multi-bulk length %q", header)
	}
	if n < -1 {
		return nil, errors.Wrapf(errProtocol, "invalid multi-bulk length %d", n)
	}
	if n == -1 {
		return &SpecialMultiBulk{Nil: true}, nil
	}
	items := make([]Reply, n)
	for i := int64(0); i < n; i++ {
		reply, err := decodeFrame(s, deadline, id, txMode, KindDepends, false)
		if err != nil {
			return nil, err
		}
		items[i] = reply
	}
	return &SpecialMultiBulk{Items: items}, nil
}
