package client

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleychat/parley/internal/protocol"
)

var testPeer = protocol.Peer{IP: [4]byte{192, 168, 1, 7}, Port: 9000}

func TestFormatNotice(t *testing.T) {
	tests := []struct {
		name     string
		notice   *protocol.Notice
		expected string
	}{
		{
			name: "chat",
			notice: &protocol.Notice{
				Type:     protocol.TypeChat,
				Sender:   testPeer,
				Username: []byte("alice"),
				Text:     []byte("hello there"),
			},
			expected: "[alice@192.168.1.7:9000] hello there",
		},
		{
			name: "join",
			notice: &protocol.Notice{
				Type:     protocol.TypeJoin,
				Sender:   testPeer,
				Username: []byte("bob"),
			},
			expected: "*** bob joined the chat from 192.168.1.7:9000 ***",
		},
		{
			name: "disconnect",
			notice: &protocol.Notice{
				Type:     protocol.TypeDisconnect,
				Sender:   testPeer,
				Username: []byte("carol"),
			},
			expected: "*** carol left the chat from 192.168.1.7:9000 ***",
		},
		{
			name:     "server shutdown",
			notice:   &protocol.Notice{Type: protocol.TypeDisconnect},
			expected: "*** server is shutting down ***",
		},
		{
			name: "chat with no username",
			notice: &protocol.Notice{
				Type:   protocol.TypeChat,
				Sender: testPeer,
				Text:   []byte("hi"),
			},
			expected: "[unknown@192.168.1.7:9000] hi",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatNotice(tt.notice))
		})
	}
}

func TestReceiveNotices_WritesOneLinePerFrame(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(protocol.ServerJoin(testPeer, []byte("alice")))
	stream.Write(protocol.ServerChat(testPeer, []byte("alice"), []byte("first")))
	stream.Write(protocol.ServerChat(testPeer, []byte("alice"), []byte("second")))
	stream.Write(protocol.ServerDisconnect(testPeer, []byte("alice")))

	var log bytes.Buffer
	require.NoError(t, receiveNotices(&stream, &log))

	expected := "*** alice joined the chat from 192.168.1.7:9000 ***\n" +
		"[alice@192.168.1.7:9000] first\n" +
		"[alice@192.168.1.7:9000] second\n" +
		"*** alice left the chat from 192.168.1.7:9000 ***\n"
	assert.Equal(t, expected, log.String())
}

func TestReceiveNotices_CleanEOF(t *testing.T) {
	var log bytes.Buffer
	require.NoError(t, receiveNotices(bytes.NewReader(nil), &log))
	assert.Empty(t, log.String())
}

func TestReceiveNotices_MalformedFrame(t *testing.T) {
	// A frame with a client-only type tag cannot come from a
	// well-behaved server.
	stream := bytes.NewReader([]byte{protocol.TypeUsername, 1, 'x', protocol.Delimiter})

	var log bytes.Buffer
	err := receiveNotices(stream, &log)
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestReceiveNotices_TruncatedStream(t *testing.T) {
	// EOF in the middle of a frame is an error, unlike EOF on a frame
	// boundary.
	frame := protocol.ServerChat(testPeer, []byte("alice"), []byte("cut off"))
	stream := bytes.NewReader(frame[:len(frame)-1])

	var log bytes.Buffer
	assert.Error(t, receiveNotices(stream, &log))
}
