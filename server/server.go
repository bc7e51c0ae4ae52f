package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ticketline/ticketline/metrics"
	"github.com/ticketline/ticketline/storage"
	"github.com/ticketline/ticketline/ticket"
)

// Config holds server construction parameters
type Config struct {
	// Addr is the TCP address to listen on
	Addr string

	// ReadTimeout bounds how long a session may sit idle between requests.
	// Zero means connections never time out.
	ReadTimeout time.Duration

	// Logger is the structured logger; slog.Default is used when nil
	Logger *slog.Logger

	// Metrics is optional Prometheus instrumentation
	Metrics *metrics.Metrics
}

// Server owns the listening socket and spawns one session per accepted
// connection. It never blocks on session processing.
type Server struct {
	tickets *ticket.Manager

	// Server configuration
	addr        string
	readTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics

	// Connection management
	listener net.Listener
	sessions sync.Map // map[net.Conn]*Session

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Counters
	connCount    int64
	commandCount int64
	errorCount   int64
	mu           sync.RWMutex
}

// New creates a ticket server that dispatches commands against the given
// store. The store is the only state shared across sessions.
func New(cfg Config, store storage.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		tickets:     ticket.NewManager(store),
		addr:        cfg.Addr,
		readTimeout: cfg.ReadTimeout,
		logger:      logger,
		metrics:     cfg.Metrics,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start binds the listener and begins accepting connections
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.logger.Info("server listening", slog.String("addr", s.listener.Addr().String()))

	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

// Stop closes the listener and all live sessions, then waits for their
// goroutines to finish.
func (s *Server) Stop() error {
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.sessions.Range(func(key, value interface{}) bool {
		if sess, ok := value.(*Session); ok {
			sess.Close()
		}
		return true
	})

	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stats returns server statistics
func (s *Server) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionCount := 0
	s.sessions.Range(func(key, value interface{}) bool {
		sessionCount++
		return true
	})

	return map[string]interface{}{
		"connected_clients": sessionCount,
		"total_commands":    s.commandCount,
		"total_errors":      s.errorCount,
		"total_connections": s.connCount,
	}
}

// acceptConnections accepts new client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return // Server is shutting down
			}
			continue
		}

		s.handleNewConnection(conn)
	}
}

// handleNewConnection registers a session for the connection and serves it
// on its own goroutine.
func (s *Server) handleNewConnection(conn net.Conn) {
	s.mu.Lock()
	s.connCount++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ActiveSessions.Inc()
	}

	ctx, cancel := context.WithCancel(s.ctx)
	sess := &Session{
		conn:   conn,
		server: s,
		peer:   conn.RemoteAddr().String(),
		ctx:    ctx,
		cancel: cancel,
	}

	s.sessions.Store(conn, sess)

	s.wg.Add(1)
	go sess.handle()
}

// countCommand bumps the dispatched-command counter
func (s *Server) countCommand() {
	s.mu.Lock()
	s.commandCount++
	s.mu.Unlock()
}

// countError bumps the error-response counter
func (s *Server) countError() {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()
}
