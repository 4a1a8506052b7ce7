// Package server implements the connection-multiplexing engine for the
// chat service: the reactor event loop, the fixed-capacity connection
// table, per-connection stream reassembly, the message dispatcher, and
// the broadcast fan-out.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parleychat/parley/internal/core"
	"github.com/parleychat/parley/internal/protocol"
)

const defaultWriteTimeout = 5 * time.Second

// Server owns the connection table and applies every accept, read, and
// close on a single reactor goroutine. Connections deliver raw reads
// through one event channel, so no two connections are ever processed
// concurrently and the table needs no locking.
type Server struct {
	cfg    *core.Config
	logger *logrus.Logger

	table *table

	// Disconnect frames seen so far, for the optional quorum-exit mode.
	disconnects int

	writeTimeout time.Duration
}

// event is one unit of reactor work produced by a connection's read
// loop: a chunk of raw bytes, or the error that ended the stream.
type event struct {
	conn *conn
	data []byte
	err  error
}

func New(cfg *core.Config, logger *logrus.Logger, maxClients int) *Server {
	return &Server{
		cfg:          cfg,
		logger:       logger,
		table:        newTable(maxClients),
		writeTimeout: defaultWriteTimeout,
	}
}

// ListenAndServe binds addr and runs the reactor until ctx is
// cancelled. Bind and listen failures are fatal and returned before any
// client is served.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return fmt.Errorf("resolving address %s: %w", addr, err)
	}

	listener, err := net.ListenTCP("tcp4", tcpAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve runs the reactor loop on an already bound listener. It returns
// once ctx is cancelled (after closing every live connection and the
// listener) or, in quorum-exit mode, once every connected client has
// sent a disconnect frame.
func (s *Server) Serve(ctx context.Context, listener *net.TCPListener) error {
	defer listener.Close()

	s.logger.Infof("listening on %v (capacity %d)", listener.Addr(), len(s.table.slots))

	// Closed when the reactor exits so that read loops blocked on the
	// event channel can bail out instead of leaking.
	done := make(chan struct{})
	defer close(done)

	accepts := make(chan net.Conn)
	go s.acceptLoop(ctx, listener, accepts, done)

	events := make(chan event)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case sock := <-accepts:
			s.accept(sock, events, done)
		case ev := <-events:
			if quorumMet := s.handleEvent(ev); quorumMet {
				s.shutdown()
				return nil
			}
		}
	}
}

// acceptLoop hands accepted sockets to the reactor. It exits when the
// listener is closed out from under it or the context ends.
func (s *Server) acceptLoop(ctx context.Context, listener *net.TCPListener, accepts chan<- net.Conn, done <-chan struct{}) {
	for {
		sock, err := listener.AcceptTCP()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warnf("failed to accept connection: %s", err)
			continue
		}

		select {
		case accepts <- sock:
		case <-done:
			_ = sock.Close()
			return
		}
	}
}

// accept inserts a new socket into the table, rejecting it outright if
// every slot is taken.
func (s *Server) accept(sock net.Conn, events chan<- event, done <-chan struct{}) {
	c, err := s.table.add(sock)
	if err != nil {
		connectionsRejected.Inc()
		s.logger.Warnf("table full, rejecting connection from %v", sock.RemoteAddr())
		_ = sock.Close()
		return
	}

	connectionsAccepted.Inc()
	connectionsActive.Set(float64(s.table.count))
	s.logger.Infof("accepted connection from %v (slot %d)", sock.RemoteAddr(), c.slot)

	go readLoop(c, events, done)
}

// readLoop delivers raw reads from one socket to the reactor until the
// socket fails or is closed out from under it. It owns the read side of
// the socket exclusively.
func readLoop(c *conn, events chan<- event, done <-chan struct{}) {
	for {
		chunk := make([]byte, protocol.BufSize)
		n, err := c.sock.Read(chunk)

		if n > 0 {
			select {
			case events <- event{conn: c, data: chunk[:n]}:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case events <- event{conn: c, err: err}:
			case <-done:
			}
			return
		}
	}
}

// handleEvent applies one read event: it feeds the bytes through the
// frame decoder and dispatches each complete frame in arrival order.
// The returned flag reports that the quorum-exit condition was met.
func (s *Server) handleEvent(ev event) bool {
	c := ev.conn
	if c.closed {
		// The slot was freed while this event was in flight.
		return false
	}

	if ev.err != nil {
		if ev.err != io.EOF {
			s.logger.Warnf("read error from %v: %s", c.remoteAddr(), ev.err)
		}
		s.closeConn(c, true)
		return false
	}

	frames, err := c.feed(ev.data)
	for _, frame := range frames {
		if c.closed {
			break
		}
		if quorumMet := s.dispatch(c, frame); quorumMet {
			return true
		}
	}

	if err != nil && !c.closed {
		protocolViolations.Inc()
		s.logger.Warnf("unterminated frame from %v overflowed the receive buffer, disconnecting", c.remoteAddr())
		s.closeConn(c, true)
	}
	return false
}

// closeConn frees the connection's slot, closes the socket, and, when
// the connection had registered a username and notify is set, tells the
// remaining peers. The notification is built from state captured before
// the slot is cleared; the departing connection never sees it because
// its slot is already empty when the fan-out iterates.
func (s *Server) closeConn(c *conn, notify bool) {
	peer, username, wasAuthenticated := c.peer, c.username, c.authenticated

	s.table.remove(c)
	_ = c.sock.Close()
	connectionsActive.Set(float64(s.table.count))
	s.logger.Infof("disconnected %v (slot %d)", c.remoteAddr(), c.slot)

	if notify && wasAuthenticated {
		s.broadcast(protocol.ServerDisconnect(peer, username))
	}
}

// shutdown closes every live connection before the listener is torn
// down.
func (s *Server) shutdown() {
	s.logger.Info("shutting down")
	for _, c := range s.table.live() {
		s.closeConn(c, false)
	}
}
