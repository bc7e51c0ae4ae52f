package ticketline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ticketline/ticketline/server"
	"github.com/ticketline/ticketline/storage"
)

// Service ties the ticket server to its storage backend and manages their
// shared lifecycle.
type Service struct {
	cfg    *config
	store  storage.Store
	server *server.Server

	mu      sync.Mutex
	started bool
	closed  bool
}

// New creates a ticket service from the given options.
//
// By default the service listens on :8080 and persists tickets in a Redis
// server at localhost:6379. Use WithMemoryStorage to run without Redis.
func New(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	var store storage.Store
	if cfg.useMemoryStore {
		store = storage.NewMemory()
	} else {
		store = storage.NewRedis(storage.RedisOptions{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
	}

	srv := server.New(server.Config{
		Addr:        cfg.listenAddr,
		ReadTimeout: cfg.readTimeout,
		Logger:      cfg.logger,
		Metrics:     cfg.metrics,
	}, store)

	return &Service{
		cfg:    cfg,
		store:  store,
		server: srv,
	}, nil
}

// Start verifies the storage backend is reachable and begins accepting
// client connections. It returns once the listener is bound; sessions are
// served on background goroutines.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.store.Ping(pingCtx); err != nil {
		return fmt.Errorf("storage unreachable: %w", err)
	}

	if err := s.server.Start(); err != nil {
		return err
	}

	s.started = true
	return nil
}

// Addr returns the address the service is listening on
func (s *Service) Addr() string {
	return s.server.Addr()
}

// Stats returns server statistics
func (s *Service) Stats() map[string]interface{} {
	return s.server.Stats()
}

// Close stops the server and releases the storage backend. It is safe to
// call more than once.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.started {
		if err := s.server.Stop(); err != nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
