package server

import (
	"errors"
	"net"
	"testing"
)

func newTestSock(t *testing.T) net.Conn {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server
}

func TestTable_AddUntilFull(t *testing.T) {
	tbl := newTable(3)

	for i := 0; i < 3; i++ {
		c, err := tbl.add(newTestSock(t))
		if err != nil {
			t.Fatalf("add() failed with %d occupied slots: %s", i, err)
		}
		if c.slot != i {
			t.Errorf("expected slot %d, got %d", i, c.slot)
		}
	}

	if _, err := tbl.add(newTestSock(t)); !errors.Is(err, errTableFull) {
		t.Errorf("expected errTableFull on a full table, got %v", err)
	}
	if tbl.count != 3 {
		t.Errorf("expected count 3, got %d", tbl.count)
	}
}

func TestTable_RemoveFreesSlotForReuse(t *testing.T) {
	tbl := newTable(2)

	first, _ := tbl.add(newTestSock(t))
	second, _ := tbl.add(newTestSock(t))

	tbl.remove(first)
	if !first.closed {
		t.Error("expected the removed connection to be marked closed")
	}
	if tbl.count != 1 {
		t.Errorf("expected count 1 after removal, got %d", tbl.count)
	}

	// The freed slot is reclaimed; the survivor keeps its index.
	third, err := tbl.add(newTestSock(t))
	if err != nil {
		t.Fatalf("add() failed after a removal: %s", err)
	}
	if third.slot != first.slot {
		t.Errorf("expected the new connection to reuse slot %d, got %d", first.slot, third.slot)
	}
	if second.slot != 1 {
		t.Errorf("expected the surviving connection to keep slot 1, got %d", second.slot)
	}
}

func TestTable_RemoveIsIdempotent(t *testing.T) {
	tbl := newTable(2)
	c, _ := tbl.add(newTestSock(t))

	tbl.remove(c)
	tbl.remove(c)

	if tbl.count != 0 {
		t.Errorf("expected count 0 after double removal, got %d", tbl.count)
	}
}

func TestTable_LiveSkipsFreedSlots(t *testing.T) {
	tbl := newTable(3)
	a, _ := tbl.add(newTestSock(t))
	b, _ := tbl.add(newTestSock(t))
	c, _ := tbl.add(newTestSock(t))

	tbl.remove(b)

	live := tbl.live()
	if len(live) != 2 {
		t.Fatalf("expected 2 live connections, got %d", len(live))
	}
	if live[0] != a || live[1] != c {
		t.Error("live() returned the wrong connections")
	}
}
