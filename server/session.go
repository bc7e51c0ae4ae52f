package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/ticketline/ticketline/protocol"
)

// Session is the server-side state of one client connection. The session
// owns its connection exclusively for its lifetime. It starts
// unauthenticated; a successful login sets the identity exactly once and it
// never changes afterwards.
type Session struct {
	conn   net.Conn
	server *Server
	peer   string

	// identity is empty until login succeeds
	identity string

	// Control
	ctx    context.Context
	cancel context.CancelFunc
}

// authenticated reports whether login has completed
func (s *Session) authenticated() bool {
	return s.identity != ""
}

// Close releases the connection and unregisters the session
func (s *Session) Close() {
	s.cancel()
	s.conn.Close()
	s.server.sessions.Delete(s.conn)
}

// handle runs the request loop: read one message, dispatch it, write one
// response, in strict order. The loop ends on exit, peer disconnect or
// server shutdown.
func (s *Session) handle() {
	defer s.server.wg.Done()
	defer s.Close()
	if s.server.metrics != nil {
		defer s.server.metrics.ActiveSessions.Dec()
	}

	logger := s.server.logger.With(slog.String("peer", s.peer))
	logger.Debug("client connected")

	// One receive call carries one message, bounded by the protocol's
	// framing contract.
	buf := make([]byte, protocol.MaxMessageSize)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if t := s.server.readTimeout; t > 0 {
			s.conn.SetReadDeadline(time.Now().Add(t))
		}

		n, err := s.conn.Read(buf)
		if err != nil {
			if s.ctx.Err() != nil {
				return // Server shutting down
			}
			if errors.Is(err, io.EOF) {
				logger.Debug("client disconnected")
			} else {
				logger.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}

		line := strings.TrimRight(string(buf[:n]), "\r\n")
		resp, terminal := s.dispatch(logger, line)

		if err := s.writeResponse(resp); err != nil {
			logger.Debug("write failed", slog.String("error", err.Error()))
			return
		}

		if terminal {
			logger.Debug("client exited")
			return
		}
	}
}

// writeResponse encodes and sends a response in a single write
func (s *Session) writeResponse(resp protocol.Response) error {
	data, err := resp.Encode()
	if err != nil {
		// The fallback body is a plain string and always encodes
		data, _ = protocol.Response{
			StatusCode: protocol.StatusInternalError,
			Body:       "internal server error",
		}.Encode()
	}

	_, werr := s.conn.Write(data)
	return werr
}
