// Package server runs the TCP listener that hands every accepted
// connection to its own worker.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"symdex/internal/config"
	"symdex/internal/slogutil"
	"symdex/internal/symtab"
)

// ErrServerClosed is returned by Serve after Shutdown has been called.
var ErrServerClosed = stderrors.New("server: closed")

// Indexer builds the symbol table of one payload. Implementations must be
// safe for concurrent use; *indexer.Indexer is.
type Indexer interface {
	Index(ctx context.Context, payload []byte) (*symtab.Table, error)
}

// Stats counts connection outcomes since the server started.
type Stats struct {
	Accepted      int64 `json:"accepted"`
	Served        int64 `json:"served"`
	FramingErrors int64 `json:"framingErrors"`
	ParseErrors   int64 `json:"parseErrors"`
	Failures      int64 `json:"failures"`
}

// Server accepts connections and runs one worker per connection.
type Server struct {
	cfg     config.ServerConfig
	indexer Indexer
	logger  *slog.Logger

	// Shutdown coordination
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sem    chan struct{}

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closing  bool

	accepted      atomic.Int64
	served        atomic.Int64
	framingErrors atomic.Int64
	parseErrors   atomic.Int64
	failures      atomic.Int64
}

// New creates a server. A nil logger discards output.
func New(cfg config.ServerConfig, ix Indexer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		indexer: ix,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[net.Conn]struct{}),
	}
	if cfg.MaxConnections > 0 {
		s.sem = make(chan struct{}, cfg.MaxConnections)
	}
	return s
}

// ListenAndServe binds the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called or the listener
// fails. It always returns a non-nil error; after Shutdown it is
// ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Listening", "addr", ln.Addr().String(), "max_connections", s.cfg.MaxConnections)

	var backoff time.Duration
	for {
		if !s.acquire() {
			return ErrServerClosed
		}

		conn, err := ln.Accept()
		if err != nil {
			s.release()
			if s.isClosing() {
				return ErrServerClosed
			}
			var ne net.Error
			if stderrors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("Accept failed, retrying", "error", err, "backoff", backoff)
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		if !s.track(conn) {
			_ = conn.Close()
			s.release()
			return ErrServerClosed
		}
		s.accepted.Add(1)

		go func() {
			defer s.wg.Done()
			defer s.release()
			defer s.untrack(conn)
			s.newWorker(conn).run(s.ctx)
		}()
	}
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting and waits for in-flight workers. When ctx ends
// first, the remaining connections are closed and ctx's error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	ln := s.listener
	s.mu.Unlock()

	var err error
	if ln != nil {
		if cerr := ln.Close(); cerr != nil && !stderrors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
	case <-ctx.Done():
		s.cancel()
		n := s.closeConns()
		s.logger.Warn("Shutdown deadline reached, closing connections", "open", n)
		<-done
		err = ctx.Err()
	}

	st := s.Stats()
	s.logger.Info("Server stopped",
		"accepted", st.Accepted,
		"served", st.Served,
		"framing_errors", st.FramingErrors,
		"parse_errors", st.ParseErrors,
		"failures", st.Failures,
	)
	return err
}

// Stats returns a snapshot of the connection counters.
func (s *Server) Stats() Stats {
	return Stats{
		Accepted:      s.accepted.Load(),
		Served:        s.served.Load(),
		FramingErrors: s.framingErrors.Load(),
		ParseErrors:   s.parseErrors.Load(),
		Failures:      s.failures.Load(),
	}
}

func (s *Server) newWorker(conn net.Conn) *worker {
	id := uuid.NewString()
	return &worker{
		id:      id,
		conn:    conn,
		cfg:     s.cfg,
		indexer: s.indexer,
		srv:     s,
		logger:  s.logger.With(slogutil.ConnKey, id, "remote", conn.RemoteAddr().String()),
	}
}

// acquire takes a worker slot, blocking while max_connections workers are
// busy. It reports false once the server is shutting down.
func (s *Server) acquire() bool {
	if s.sem == nil {
		return !s.isClosing()
	}
	select {
	case s.sem <- struct{}{}:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Server) release() {
	if s.sem != nil {
		<-s.sem
	}
}

// track registers conn and a worker for it, unless shutdown has begun.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	return len(s.conns)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
