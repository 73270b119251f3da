package sink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ReceiverStats counts what a Receiver has seen.
type ReceiverStats struct {
	Messages int64 `json:"messages"` // datagrams or frames; zero for tcp
	Bytes    int64 `json:"bytes"`
	Gaps     int64 `json:"gaps"` // sequence numbers skipped
}

// Receiver accepts traffic on a listen URL and counts it. It is the
// counterpart of the sinks and is used to check a target end to end.
type Receiver struct {
	scheme string
	addr   string
	logger *slog.Logger

	messages atomic.Int64
	bytes    atomic.Int64
	gaps     atomic.Int64

	seqMu   sync.Mutex
	lastSeq map[string]uint64

	closeFn func() error
	wg      sync.WaitGroup
}

// Listen starts a receiver on target, e.g. udp://127.0.0.1:0 or
// ws://127.0.0.1:8080/ingest. A nil logger discards output.
func Listen(target string, logger *slog.Logger) (*Receiver, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", target, err)
	}

	r := &Receiver{
		scheme:  strings.ToLower(u.Scheme),
		logger:  logger,
		lastSeq: make(map[string]uint64),
	}

	switch r.scheme {
	case "udp":
		err = r.listenUDP(u.Host)
	case "tcp":
		err = r.listenTCP(u.Host)
	case "ws":
		err = r.listenWebSocket(u.Host, u.Path)
	default:
		return nil, fmt.Errorf("unsupported listen scheme %q (want udp, tcp or ws)", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", target, err)
	}
	return r, nil
}

// Addr returns the URL the receiver is bound to, with the real port.
func (r *Receiver) Addr() string {
	return r.addr
}

// Stats returns the current counters.
func (r *Receiver) Stats() ReceiverStats {
	return ReceiverStats{
		Messages: r.messages.Load(),
		Bytes:    r.bytes.Load(),
		Gaps:     r.gaps.Load(),
	}
}

// Close stops listening and waits for connection handlers to exit.
func (r *Receiver) Close() error {
	err := r.closeFn()
	r.wg.Wait()
	return err
}

// record counts one message from source and checks its sequence number.
func (r *Receiver) record(source string, msg []byte) {
	r.messages.Add(1)
	r.bytes.Add(int64(len(msg)))
	if len(msg) < 8 {
		return
	}

	seq := binary.BigEndian.Uint64(msg)
	r.seqMu.Lock()
	last, seen := r.lastSeq[source]
	r.lastSeq[source] = seq
	r.seqMu.Unlock()

	if seen && seq > last+1 {
		r.gaps.Add(int64(seq - last - 1))
	}
}

func (r *Receiver) listenUDP(host string) error {
	pc, err := net.ListenPacket("udp", host)
	if err != nil {
		return err
	}
	r.addr = "udp://" + pc.LocalAddr().String()
	r.closeFn = pc.Close

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		buf := make([]byte, 65536)
		for {
			n, from, err := pc.ReadFrom(buf)
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					r.logger.Warn("udp receive failed", "error", err)
				}
				return
			}
			r.record(from.String(), buf[:n])
		}
	}()
	return nil
}

func (r *Receiver) listenTCP(host string) error {
	ln, err := net.Listen("tcp", host)
	if err != nil {
		return err
	}
	r.addr = "tcp://" + ln.Addr().String()

	var (
		connsMu sync.Mutex
		conns   = make(map[net.Conn]struct{})
	)
	r.closeFn = func() error {
		err := ln.Close()
		connsMu.Lock()
		for c := range conns {
			c.Close()
		}
		connsMu.Unlock()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			connsMu.Lock()
			conns[conn] = struct{}{}
			connsMu.Unlock()

			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				defer func() {
					connsMu.Lock()
					delete(conns, conn)
					connsMu.Unlock()
					conn.Close()
				}()
				// A stream has no message boundaries; only bytes are counted.
				buf := make([]byte, 32*1024)
				for {
					n, err := conn.Read(buf)
					r.bytes.Add(int64(n))
					if err != nil {
						if err != io.EOF && !errors.Is(err, net.ErrClosed) {
							r.logger.Debug("tcp receive ended", "remote", conn.RemoteAddr().String(), "error", err)
						}
						return
					}
				}
			}()
		}
	}()
	return nil
}

func (r *Receiver) listenWebSocket(host, path string) error {
	ln, err := net.Listen("tcp", host)
	if err != nil {
		return err
	}
	if path == "" {
		path = "/"
	}
	r.addr = "ws://" + ln.Addr().String() + path

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		source := conn.RemoteAddr().String()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage {
				r.record(source, data)
			}
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	r.closeFn = func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return server.Close()
		}
		return nil
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Warn("websocket server failed", "error", err)
		}
	}()
	return nil
}
