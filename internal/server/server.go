package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/lzulberti/robin/internal/config"
	"github.com/lzulberti/robin/internal/directory"
	"github.com/lzulberti/robin/internal/logging"
	"github.com/lzulberti/robin/internal/metrics"
	"github.com/lzulberti/robin/internal/robin"
	"github.com/lzulberti/robin/internal/workerpool"
)

// Server coordinates the listener, worker pool, and shared directory for
// the Robin service.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector metrics.Collector
	dir       *directory.Directory

	pool     *workerpool.Pool
	listener *Listener

	nextConnID atomic.Int64

	mu      sync.Mutex
	running bool
}

// Config holds configuration for creating a new Server.
type Config struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Collector metrics.Collector
	Directory *directory.Directory
}

// New creates a new Server with the given configuration.
func New(sc Config) (*Server, error) {
	logger := sc.Logger
	if logger == nil {
		logger = logging.NewLogger(sc.Cfg.LogLevel)
	}

	collector := sc.Collector
	if collector == nil {
		collector = &metrics.NoopCollector{}
	}

	dir := sc.Directory
	if dir == nil {
		dir = directory.New()
	}

	return &Server{
		cfg:       sc.Cfg,
		logger:    logger,
		collector: collector,
		dir:       dir,
	}, nil
}

// Run starts the listener and worker pool and blocks until ctx is
// canceled or the listener fails. It returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true

	s.pool = workerpool.New(s.cfg.Pool.RealWorkers, s.handleConnection, s.logger, s.collector)

	address := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.listener = NewListener(ListenerConfig{
		Address:   address,
		Logger:    s.logger,
		Collector: s.collector,
		Pool:      s.pool,
	})
	s.mu.Unlock()

	s.logger.Info("starting server",
		slog.String("address", address),
		slog.Int("real_workers", s.cfg.Pool.RealWorkers),
	)

	err := s.listener.Start(ctx)

	s.logger.Info("server shutting down")
	s.pool.Close()
	s.logger.Info("server stopped")

	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Shutdown stops the listener, causing Run to return once the worker
// pool has drained.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Directory returns the server's shared user directory.
func (s *Server) Directory() *directory.Directory {
	return s.dir
}

// Config returns the server's configuration.
func (s *Server) Config() *config.Config {
	return s.cfg
}

// handleConnection is the workerpool.Handler registered with the pool:
// it runs one Robin session to completion, then closes the connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer s.collector.ConnectionClosed()

	connID := fmt.Sprintf("%s#%d", conn.RemoteAddr(), s.nextConnID.Add(1))
	c := NewConnection(conn)
	robin.HandleConnection(connID, c, s.dir, s.logger, s.collector, s.cfg.Limits.MaxLineLength)
}
