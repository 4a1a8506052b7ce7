// Package protocol defines the byte-level message encoding shared by
// the chat server and its clients.
//
// Every frame begins with a one-byte type tag and ends with a single
// '\n' delimiter; the delimiter is the only framing boundary, there is
// no length field. The server-emitted forms of Chat, Join, and
// Disconnect insert the originator's IPv4 address (4 bytes) and port
// (2 bytes), both in network order, followed by a length-prefixed
// username, between the type tag and any free-text payload.
package protocol

import (
	"encoding/binary"
	"errors"
)

// Frame type tags.
const (
	TypeChat       = 0x00
	TypeDisconnect = 0x01
	TypeJoin       = 0x02
	TypeUsername   = 0x03
)

const (
	// Delimiter terminates every frame.
	Delimiter = '\n'

	// BufSize is the fixed capacity of a connection's receive buffer,
	// and therefore the longest frame a peer may send.
	BufSize = 1024

	// MaxUsernameLen bounds the username length byte; valid usernames
	// are 1 to MaxUsernameLen-1 bytes.
	MaxUsernameLen = 32

	// MaxMessageLen bounds the free-text portion of a chat message.
	MaxMessageLen = 512
)

// Version is the protocol version recorded in Header.
const Version = 1

// Header is the packed fixed-width header carried over from the shared
// protocol definitions. Nothing on the wire uses it; frames are
// delimited by Delimiter alone.
type Header struct {
	Version uint8
	Type    uint8
	Length  uint16
}

// Peer identifies the originator of a server-emitted frame.
type Peer struct {
	IP   [4]byte
	Port uint16
}

// Notice is a decoded server-emitted frame.
type Notice struct {
	Type     byte
	Sender   Peer
	Username []byte
	Text     []byte
}

// ErrMalformed reports a frame that does not decode as any
// server-emitted form.
var ErrMalformed = errors.New("malformed frame")

func appendSender(frame []byte, sender Peer, username []byte) []byte {
	frame = append(frame, sender.IP[:]...)
	frame = binary.BigEndian.AppendUint16(frame, sender.Port)
	frame = append(frame, byte(len(username)))
	return append(frame, username...)
}

// ServerChat builds the server-emitted chat frame:
// [0x00][ip:4][port:2][ulen:1][uname][text...][\n].
func ServerChat(sender Peer, username, text []byte) []byte {
	frame := make([]byte, 0, 8+len(username)+len(text)+1)
	frame = append(frame, TypeChat)
	frame = appendSender(frame, sender, username)
	frame = append(frame, text...)
	return append(frame, Delimiter)
}

// ServerJoin builds the join notification broadcast when a connection
// registers a username: [0x02][ip:4][port:2][ulen:1][uname][\n].
func ServerJoin(sender Peer, username []byte) []byte {
	frame := make([]byte, 0, 8+len(username)+1)
	frame = append(frame, TypeJoin)
	frame = appendSender(frame, sender, username)
	return append(frame, Delimiter)
}

// ServerDisconnect builds the disconnect notification broadcast when a
// registered connection goes away, carrying its last-known address and
// username: [0x01][ip:4][port:2][ulen:1][uname][\n].
func ServerDisconnect(sender Peer, username []byte) []byte {
	frame := make([]byte, 0, 8+len(username)+1)
	frame = append(frame, TypeDisconnect)
	frame = appendSender(frame, sender, username)
	return append(frame, Delimiter)
}

// ClientUsername builds the registration frame a client sends once
// after connecting: [0x03][ulen:1][uname][\n].
func ClientUsername(username []byte) []byte {
	frame := make([]byte, 0, 2+len(username)+1)
	frame = append(frame, TypeUsername, byte(len(username)))
	frame = append(frame, username...)
	return append(frame, Delimiter)
}

// ClientChat builds the chat frame a client sends: [0x00][text...][\n].
func ClientChat(text []byte) []byte {
	frame := make([]byte, 0, 1+len(text)+1)
	frame = append(frame, TypeChat)
	frame = append(frame, text...)
	return append(frame, Delimiter)
}

// ClientDisconnect builds the frame a client sends to leave: [0x01][\n].
func ClientDisconnect() []byte {
	return []byte{TypeDisconnect, Delimiter}
}

// ParseNotice decodes a complete server-emitted frame, delimiter
// included. A bare disconnect frame with no sender prefix (the form the
// server fans out when it is shutting down) decodes to a Notice with a
// zero Sender and no username.
func ParseNotice(frame []byte) (*Notice, error) {
	if len(frame) < 2 || frame[len(frame)-1] != Delimiter {
		return nil, ErrMalformed
	}

	notice := &Notice{Type: frame[0]}
	body := frame[1 : len(frame)-1]

	switch notice.Type {
	case TypeChat, TypeJoin:
	case TypeDisconnect:
		if len(body) == 0 {
			return notice, nil
		}
	default:
		return nil, ErrMalformed
	}

	if len(body) < 7 {
		return nil, ErrMalformed
	}
	copy(notice.Sender.IP[:], body[:4])
	notice.Sender.Port = binary.BigEndian.Uint16(body[4:6])

	ulen := int(body[6])
	if len(body) < 7+ulen {
		return nil, ErrMalformed
	}
	notice.Username = append([]byte(nil), body[7:7+ulen]...)

	if notice.Type == TypeChat {
		notice.Text = append([]byte(nil), body[7+ulen:]...)
	}
	return notice, nil
}
