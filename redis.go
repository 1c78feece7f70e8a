// Package redis provides a client for a Redis-family in-memory key-value
// server: a wire codec, a single-connection state machine with transactions
// and lazy reconnect, a partitioned multi-server dispatcher, and a bounded
// connection pool for goroutine-scoped reuse.
// See <https://redis.io/topics/introduction> for the concept.
package redis

import (
	"net"
	"path/filepath"
	"time"
)

// Server Limits
const (
	// SizeMax is the upper boundary for byte sizes.
	// A string value can be at most 512 MiB in length.
	SizeMax = 512 << 20

	// KeyMax is the upper boundary for key counts.
	// Redis can handle up to 2^32 keys.
	KeyMax = 1 << 32

	// ElementMax is the upper boundary for element counts.
	// Every hash, list, set, and sorted set can hold 2^32 - 1 elements.
	ElementMax = 1<<32 - 1
)

// Fixed Settings
const (
	// defaultCommandTimeout bounds a single command's round trip when the
	// caller does not override it.
	defaultCommandTimeout = 50 * time.Millisecond
)

func normalizeAddr(s string) string {
	if isUnixAddr(s) {
		return filepath.Clean(s)
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		host = s
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	return net.JoinHostPort(host, port)
}

// splitAddrList parses a comma-separated host list and a matching
// comma-separated port list into a flat slice of normalized "host:port"
// addresses, the shape a partitioned client's constructor takes. A single
// port value applies to every host.
func splitAddrList(hosts, ports string) []string {
	hs := splitNonEmpty(hosts)
	ps := splitNonEmpty(ports)
	addrs := make([]string, 0, len(hs))
	for i, h := range hs {
		p := ""
		switch {
		case len(ps) == 1:
			p = ps[0]
		case i < len(ps):
			p = ps[i]
		}
		if p == "" {
			addrs = append(addrs, normalizeAddr(h))
		} else {
			addrs = append(addrs, normalizeAddr(net.JoinHostPort(h, p)))
		}
	}
	return addrs
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
