package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/lzulberti/robin/internal/metrics"
	"github.com/lzulberti/robin/internal/workerpool"
)

// keepAlive mirrors the original daemon's socket_set_keepalive tuning
// (idle, interval, count), expressed with the stdlib's KeepAliveConfig
// instead of a raw setsockopt call.
var keepAlive = net.KeepAliveConfig{
	Enable:   true,
	Idle:     10 * time.Second,
	Interval: 10 * time.Second,
	Count:    6,
}

// ListenerConfig holds the settings needed to run a Listener.
type ListenerConfig struct {
	Address   string
	Logger    *slog.Logger
	Collector metrics.Collector
	Pool      *workerpool.Pool
}

// Listener accepts TCP connections on a single address and dispatches
// each to the worker pool.
type Listener struct {
	cfg ListenerConfig
	ln  net.Listener
}

// NewListener creates a Listener from cfg. Start must be called to begin
// accepting connections.
func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{cfg: cfg}
}

// Address returns the configured listen address.
func (l *Listener) Address() string {
	return l.cfg.Address
}

// Start opens the listening socket and accepts connections until ctx is
// canceled or Close is called. It always returns a non-nil error; a
// clean shutdown returns ctx.Err() or net.ErrClosed.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Address)
	if err != nil {
		return err
	}
	l.ln = ln

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	l.cfg.Logger.Info("listener started", "address", l.cfg.Address)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			l.cfg.Logger.Warn("accept error", "address", l.cfg.Address, "error", err)
			continue
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			if err := tc.SetKeepAliveConfig(keepAlive); err != nil {
				l.cfg.Logger.Debug("failed to set keepalive", "error", err)
			}
		}

		l.cfg.Collector.ConnectionOpened()
		l.cfg.Pool.Dispatch(conn)
	}
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}
