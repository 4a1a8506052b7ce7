// Package client implements the two chat client programs: a scripted
// client that sends a burst of generated messages and records the
// conversation to a log file, and an interactive terminal client.
//
// Both use one goroutine per socket direction; the pair shares only the
// socket and a stop flag.
package client

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parleychat/parley/internal/protocol"
)

// Number of random bytes behind each generated chat message.
const randBytesPerMessage = 10

// Options configures the scripted chat client.
type Options struct {
	// Address of the chat server, host:port.
	Addr string
	// Display name to register before chatting.
	Username string
	// Number of generated messages to send before disconnecting.
	NumMessages int
	// File to which received messages are written.
	LogPath string
}

// RunScripted connects to the server, registers the username, sends the
// configured number of generated messages, then disconnects. Everything
// received in the meantime is appended to the chat log.
func RunScripted(logger *logrus.Logger, opts Options) error {
	sock, err := net.Dial("tcp4", opts.Addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", opts.Addr, err)
	}
	defer sock.Close()

	logFile, err := os.Create(opts.LogPath)
	if err != nil {
		return fmt.Errorf("opening chat log: %w", err)
	}
	defer logFile.Close()

	logger.Infof("connected to %s as %s", opts.Addr, opts.Username)

	var stop atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := runSender(sock, opts, &stop); err != nil {
			logger.Warnf("sender stopped: %s", err)
		}
		stop.Store(true)
	}()

	go func() {
		defer wg.Done()
		if err := receiveNotices(sock, logFile); err != nil && !stop.Load() {
			logger.Warnf("receiver stopped: %s", err)
		}
		stop.Store(true)
	}()

	wg.Wait()
	logger.Info("disconnected")
	return nil
}

// runSender owns the write side of the socket: username registration,
// then NumMessages generated chat frames, then a disconnect frame.
func runSender(sock net.Conn, opts Options, stop *atomic.Bool) error {
	if _, err := sock.Write(protocol.ClientUsername([]byte(opts.Username))); err != nil {
		return fmt.Errorf("registering username: %w", err)
	}

	// Give the registration a moment to propagate before chatting.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < opts.NumMessages && !stop.Load(); i++ {
		raw := make([]byte, randBytesPerMessage)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("generating message: %w", err)
		}
		text := make([]byte, hex.EncodedLen(len(raw)))
		hex.Encode(text, raw)

		if _, err := sock.Write(protocol.ClientChat(text)); err != nil {
			return fmt.Errorf("sending message %d: %w", i+1, err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	if _, err := sock.Write(protocol.ClientDisconnect()); err != nil {
		return fmt.Errorf("sending disconnect: %w", err)
	}
	return nil
}

// receiveNotices owns the read side of the socket: it decodes
// server-emitted frames and writes one formatted line per notice until
// the server closes the connection.
func receiveNotices(sock io.Reader, out io.Writer) error {
	reader := bufio.NewReader(sock)

	for {
		frame, err := reader.ReadBytes(protocol.Delimiter)
		if err != nil {
			// EOF on a frame boundary is the server hanging up;
			// EOF mid-frame means the stream was cut short.
			if err == io.EOF {
				if len(frame) == 0 {
					return nil
				}
				return io.ErrUnexpectedEOF
			}
			return err
		}

		notice, err := protocol.ParseNotice(frame)
		if err != nil {
			return fmt.Errorf("decoding frame: %w", err)
		}

		if _, err := fmt.Fprintln(out, FormatNotice(notice)); err != nil {
			return err
		}
	}
}

// FormatNotice renders a server notice the way the chat log records it.
func FormatNotice(n *protocol.Notice) string {
	username := string(n.Username)
	if username == "" {
		username = "unknown"
	}
	ip := net.IP(n.Sender.IP[:]).String()

	switch n.Type {
	case protocol.TypeChat:
		return fmt.Sprintf("[%s@%s:%d] %s", username, ip, n.Sender.Port, n.Text)
	case protocol.TypeJoin:
		return fmt.Sprintf("*** %s joined the chat from %s:%d ***", username, ip, n.Sender.Port)
	case protocol.TypeDisconnect:
		if len(n.Username) == 0 {
			return "*** server is shutting down ***"
		}
		return fmt.Sprintf("*** %s left the chat from %s:%d ***", username, ip, n.Sender.Port)
	}
	return ""
}
