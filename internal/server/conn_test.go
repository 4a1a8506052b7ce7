package server

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/parleychat/parley/internal/protocol"
)

func frame(payload string) []byte {
	return append([]byte(payload), protocol.Delimiter)
}

// Frame extraction must not depend on how the stream is chopped into
// reads, so each case is replayed at several split granularities.
func TestConnFeed_SplitInvariance(t *testing.T) {
	stream := bytes.Join([][]byte{
		frame("\x03\x05alice"),
		frame("\x00first message"),
		frame("\x00second message"),
		frame("\x01"),
	}, nil)

	expected := [][]byte{
		frame("\x03\x05alice"),
		frame("\x00first message"),
		frame("\x00second message"),
		frame("\x01"),
	}

	for _, chunkSize := range []int{1, 2, 7, 16, len(stream)} {
		c := &conn{}
		var frames [][]byte

		for off := 0; off < len(stream); off += chunkSize {
			end := off + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			extracted, err := c.feed(stream[off:end])
			if err != nil {
				t.Fatalf("feed() returned an unexpected error at chunk size %d: %s", chunkSize, err)
			}
			frames = append(frames, extracted...)
		}

		if diff := cmp.Diff(expected, frames); diff != "" {
			t.Errorf("extracted frames differ at chunk size %d; diff:\n%s", chunkSize, diff)
		}
		if c.n != 0 {
			t.Errorf("expected an empty buffer after the stream drained, found %d bytes", c.n)
		}
	}
}

func TestConnFeed_PartialFrameStaysBuffered(t *testing.T) {
	c := &conn{}

	frames, err := c.feed([]byte("\x00incomplete"))
	if err != nil {
		t.Fatalf("feed() returned an unexpected error: %s", err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected no frames from a partial read, got %d", len(frames))
	}
	if c.n != len("\x00incomplete") {
		t.Errorf("expected %d buffered bytes, found %d", len("\x00incomplete"), c.n)
	}

	frames, err = c.feed([]byte(" but now finished\n"))
	if err != nil {
		t.Fatalf("feed() returned an unexpected error: %s", err)
	}
	expected := [][]byte{frame("\x00incomplete but now finished")}
	if diff := cmp.Diff(expected, frames); diff != "" {
		t.Errorf("reassembled frame did not match expected; diff:\n%s", diff)
	}
}

func TestConnFeed_OverflowWithoutDelimiter(t *testing.T) {
	c := &conn{}

	frames, err := c.feed(make([]byte, protocol.BufSize))
	if !errors.Is(err, errFrameTooLong) {
		t.Fatalf("expected errFrameTooLong from a full undelimited buffer, got %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames from an overflowing stream, got %d", len(frames))
	}
}

// A read larger than the free buffer space is fine as long as the data
// keeps producing delimiters; only a delimiter drought overflows.
func TestConnFeed_LargeChunkWithDelimiters(t *testing.T) {
	var stream []byte
	for i := 0; i < 20; i++ {
		stream = append(stream, frame(string(bytes.Repeat([]byte{'x'}, 100)))...)
	}

	c := &conn{}
	frames, err := c.feed(stream)
	if err != nil {
		t.Fatalf("feed() returned an unexpected error: %s", err)
	}
	if len(frames) != 20 {
		t.Errorf("expected 20 frames, got %d", len(frames))
	}
}

func TestConnFeed_OverflowAfterCompleteFrames(t *testing.T) {
	c := &conn{}

	stream := append(frame("\x00short"), make([]byte, protocol.BufSize)...)
	frames, err := c.feed(stream)
	if !errors.Is(err, errFrameTooLong) {
		t.Fatalf("expected errFrameTooLong, got %v", err)
	}

	// The complete frame ahead of the oversized one is still extracted.
	expected := [][]byte{frame("\x00short")}
	if diff := cmp.Diff(expected, frames); diff != "" {
		t.Errorf("frames extracted before the overflow did not match; diff:\n%s", diff)
	}
}

func TestNewConn_CapturesPeerAddress(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	// net.Pipe addresses are not TCP; the peer stays zero rather than
	// panicking or failing.
	c := newConn(0, server)
	if c.peer != (protocol.Peer{}) {
		t.Errorf("expected a zero peer for a non-TCP socket, got %+v", c.peer)
	}
}
