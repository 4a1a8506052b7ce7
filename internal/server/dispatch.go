package server

import "github.com/parleychat/parley/internal/protocol"

// dispatch applies one decoded frame to the protocol state machine.
// The returned flag reports that the quorum-exit condition was met.
func (s *Server) dispatch(c *conn, frame []byte) bool {
	framesDecoded.Inc()

	switch frame[0] {
	case protocol.TypeUsername:
		s.handleUsername(c, frame)
	case protocol.TypeChat:
		s.handleChat(c, frame)
	case protocol.TypeDisconnect:
		if s.cfg.Server.QuorumExit {
			s.disconnects++
			if s.disconnects >= s.table.count {
				s.broadcast(protocol.ClientDisconnect())
				return true
			}
			return false
		}
		s.closeConn(c, true)
	default:
		protocolViolations.Inc()
		s.logger.Warnf("unknown frame type %#x from %v, disconnecting", frame[0], c.remoteAddr())
		s.closeConn(c, false)
	}
	return false
}

// handleUsername registers the connection's display name and announces
// it. Malformed registrations are dropped without closing the
// connection, and a connection that already registered keeps its first
// name. Username uniqueness across connections is not enforced.
func (s *Server) handleUsername(c *conn, frame []byte) {
	if c.authenticated || len(frame) < 3 {
		return
	}

	ulen := int(frame[1])
	if ulen == 0 || ulen >= protocol.MaxUsernameLen || len(frame) < 2+ulen {
		return
	}

	c.username = append([]byte(nil), frame[2:2+ulen]...)
	c.authenticated = true

	s.logger.Infof("%v registered username %q", c.remoteAddr(), c.username)
	s.broadcast(protocol.ServerJoin(c.peer, c.username))
}

// handleChat fans a chat message out to every live connection, the
// sender included, prefixed with the sender's address and username.
// Chat frames from connections that never registered a username are
// dropped without being echoed.
func (s *Server) handleChat(c *conn, frame []byte) {
	if !c.authenticated {
		return
	}

	text := frame[1 : len(frame)-1]
	s.broadcast(protocol.ServerChat(c.peer, c.username, text))
	s.logger.Debugf("broadcast %d byte message from %q", len(text), c.username)
}
