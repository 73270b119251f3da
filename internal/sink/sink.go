// Package sink provides the network destinations a traffic generator
// writes its messages to.
//
// Targets are URLs:
//
//	discard://              count only, no I/O
//	udp://host:port         one datagram per message
//	tcp://host:port         messages written back to back on one stream
//	ws://host/path          one binary WebSocket frame per message
//	wss://host/path
//
// Every message carries a big-endian sequence number in its first eight
// bytes when it is at least that long; the rest is zero filled.
package sink

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Sink writes fixed-length messages to a destination.
type Sink interface {
	// Write sends one message of length bytes.
	Write(length int) error

	// Close releases the connection.
	Close() error

	// String returns the target URL.
	String() string
}

// Options controls how a sink connects.
type Options struct {
	// DialTimeout bounds connection setup (default: 5s).
	DialTimeout time.Duration
}

// Open connects to target.
func Open(target string, opts Options) (Sink, error) {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if target == "" {
		target = "discard://"
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", target, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "discard":
		return &Discard{}, nil
	case "udp", "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid target %q: missing host:port", target)
		}
		conn, err := net.DialTimeout(u.Scheme, u.Host, opts.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
		}
		return &connSink{conn: conn, target: target}, nil
	case "ws", "wss":
		dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
		conn, _, err := dialer.Dial(target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
		}
		return &wsSink{conn: conn, target: target}, nil
	default:
		return nil, fmt.Errorf("unsupported target scheme %q (want discard, udp, tcp, ws or wss)", u.Scheme)
	}
}

// Discard accepts every message without doing I/O.
type Discard struct{}

func (*Discard) Write(int) error { return nil }
func (*Discard) Close() error    { return nil }
func (*Discard) String() string  { return "discard://" }

// payload reuses one buffer across messages.
type payload struct {
	buf []byte
	seq uint64
}

func (p *payload) next(length int) []byte {
	if cap(p.buf) < length {
		p.buf = make([]byte, length)
	}
	b := p.buf[:length]
	p.seq++
	if length >= 8 {
		binary.BigEndian.PutUint64(b, p.seq)
	}
	return b
}

type connSink struct {
	conn   net.Conn
	target string
	payload
}

func (s *connSink) Write(length int) error {
	_, err := s.conn.Write(s.next(length))
	return err
}

func (s *connSink) Close() error   { return s.conn.Close() }
func (s *connSink) String() string { return s.target }

type wsSink struct {
	conn   *websocket.Conn
	target string
	payload
}

func (s *wsSink) Write(length int) error {
	return s.conn.WriteMessage(websocket.BinaryMessage, s.next(length))
}

func (s *wsSink) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *wsSink) String() string { return s.target }
