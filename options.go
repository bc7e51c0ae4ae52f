package ticketline

import (
	"log/slog"
	"time"

	"github.com/ticketline/ticketline/metrics"
)

// config holds the configuration for a Service
type config struct {
	// Listener settings
	listenAddr string

	// Redis store settings
	redisAddr     string
	redisPassword string
	redisDB       int

	// Behavioral options
	useMemoryStore bool
	readTimeout    time.Duration

	// Observability
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// defaultConfig returns a configuration with sensible defaults
func defaultConfig() *config {
	return &config{
		listenAddr:  ":8080",
		redisAddr:   "localhost:6379",
		redisDB:     0,
		readTimeout: 0, // connections never idle out
		logger:      slog.Default(),
	}
}

// Option represents a configuration option for a Service
type Option func(*config) error

// WithListenAddr sets the address the ticket server listens on
//
// Example:
//
//	WithListenAddr(":8080")
//	WithListenAddr("127.0.0.1:9000")
func WithListenAddr(addr string) Option {
	return func(c *config) error {
		if addr == "" {
			return &ConfigError{Option: "WithListenAddr", Err: ErrInvalidConfig}
		}
		c.listenAddr = addr
		return nil
	}
}

// WithRedis sets the address of the Redis server that persists tickets
//
// Example:
//
//	WithRedis("redis.example.com:6379")
func WithRedis(addr string) Option {
	return func(c *config) error {
		if addr == "" {
			return &ConfigError{Option: "WithRedis", Err: ErrInvalidConfig}
		}
		c.redisAddr = addr
		c.useMemoryStore = false
		return nil
	}
}

// WithRedisAuth sets the password for the Redis connection
func WithRedisAuth(password string) Option {
	return func(c *config) error {
		c.redisPassword = password
		return nil
	}
}

// WithRedisDB selects the Redis logical database
func WithRedisDB(db int) Option {
	return func(c *config) error {
		if db < 0 {
			return &ConfigError{Option: "WithRedisDB", Err: ErrInvalidConfig}
		}
		c.redisDB = db
		return nil
	}
}

// WithMemoryStorage keeps tickets in an in-process store instead of Redis.
// Intended for tests and single-node deployments.
func WithMemoryStorage() Option {
	return func(c *config) error {
		c.useMemoryStore = true
		return nil
	}
}

// WithReadTimeout bounds how long a session may sit idle between requests.
// Zero (the default) means connections never time out.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return &ConfigError{Option: "WithReadTimeout", Err: ErrInvalidConfig}
		}
		c.readTimeout = d
		return nil
	}
}

// WithLogger sets the structured logger used by the service
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return &ConfigError{Option: "WithLogger", Err: ErrInvalidConfig}
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics attaches Prometheus instrumentation to the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}
