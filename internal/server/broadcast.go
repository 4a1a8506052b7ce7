package server

import "time"

// broadcast delivers frame to every live slot. A write failure is
// logged and abandons delivery to that peer only; unlike read-path
// failures it does not close the connection.
func (s *Server) broadcast(frame []byte) {
	for _, c := range s.table.live() {
		if err := s.send(c, frame); err != nil {
			broadcastErrors.Inc()
			s.logger.Warnf("failed to send to %v: %s", c.remoteAddr(), err)
		}
	}
	messagesBroadcast.Inc()
}

// send writes the whole frame to one peer, retrying partial writes.
// The write deadline bounds how long a stalled peer can hold up the
// fan-out.
func (s *Server) send(c *conn, frame []byte) error {
	if err := c.sock.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}

	sent := 0
	for sent < len(frame) {
		n, err := c.sock.Write(frame[sent:])
		sent += n
		if err != nil {
			return err
		}
	}

	return c.sock.SetWriteDeadline(time.Time{})
}
