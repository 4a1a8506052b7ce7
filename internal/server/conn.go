package server

import (
	"bytes"
	"errors"
	"net"

	"github.com/parleychat/parley/internal/protocol"
)

var errFrameTooLong = errors.New("frame exceeds receive buffer capacity")

// conn holds the per-socket state owned by one table slot: the socket,
// the receive buffer with its cursor, the peer address, and whatever
// identity the peer has registered.
type conn struct {
	slot int
	sock net.Conn

	// buf[:n] holds bytes read from the socket but not yet framed.
	buf [protocol.BufSize]byte
	n   int

	peer          protocol.Peer
	username      []byte
	authenticated bool

	// Set when the slot is freed so that read events still in flight
	// for this connection are dropped by the reactor.
	closed bool
}

func newConn(slot int, sock net.Conn) *conn {
	c := &conn{slot: slot, sock: sock}
	if addr, ok := sock.RemoteAddr().(*net.TCPAddr); ok {
		if ip4 := addr.IP.To4(); ip4 != nil {
			copy(c.peer.IP[:], ip4)
		}
		c.peer.Port = uint16(addr.Port)
	}
	return c
}

func (c *conn) remoteAddr() string {
	return c.sock.RemoteAddr().String()
}

// feed appends freshly read bytes to the receive buffer and extracts
// every complete frame, delimiter included, in arrival order. The
// remainder is shifted to the front of the buffer for the next read.
// Filling the buffer without producing a delimiter is a protocol
// violation: feed reports errFrameTooLong and the frames extracted up
// to that point.
func (c *conn) feed(data []byte) ([][]byte, error) {
	var frames [][]byte

	for {
		m := copy(c.buf[c.n:], data)
		c.n += m
		data = data[m:]

		for {
			i := bytes.IndexByte(c.buf[:c.n], protocol.Delimiter)
			if i < 0 {
				break
			}

			frame := make([]byte, i+1)
			copy(frame, c.buf[:i+1])
			frames = append(frames, frame)

			copy(c.buf[:], c.buf[i+1:c.n])
			c.n -= i + 1
		}

		if c.n == len(c.buf) {
			return frames, errFrameTooLong
		}
		if len(data) == 0 {
			return frames, nil
		}
	}
}
