package server

import (
	"errors"
	"net"
)

var errTableFull = errors.New("connection table is full")

// table is the fixed-capacity registry of live connections. A slot is
// either nil or holds exactly one live connection; the slot index is
// stable for the connection's lifetime and is reused only after the
// prior occupant has been removed.
//
// The table is only ever touched by the reactor goroutine, so it needs
// no locking.
type table struct {
	slots []*conn
	count int
}

func newTable(capacity int) *table {
	return &table{slots: make([]*conn, capacity)}
}

// add claims the first free slot for a new connection.
func (t *table) add(sock net.Conn) (*conn, error) {
	for i, occupant := range t.slots {
		if occupant == nil {
			c := newConn(i, sock)
			t.slots[i] = c
			t.count++
			return c, nil
		}
	}
	return nil, errTableFull
}

// remove frees the connection's slot and marks it closed so that late
// events for it are dropped.
func (t *table) remove(c *conn) {
	if t.slots[c.slot] == c {
		t.slots[c.slot] = nil
		t.count--
	}
	c.closed = true
}

// live returns a snapshot of the occupied slots so that fan-out is not
// confused by removals triggered while it iterates.
func (t *table) live() []*conn {
	conns := make([]*conn, 0, t.count)
	for _, c := range t.slots {
		if c != nil {
			conns = append(conns, c)
		}
	}
	return conns
}
