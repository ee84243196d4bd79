package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/auditoria/auditoria/pkg/logger"
)

type stopHook struct {
	name string
	fn   func(context.Context) error
}

type config struct {
	addr              string
	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
	stopHooks         []stopHook
}

// Server wraps http.Server with signal handling and graceful shutdown.
// Request contexts derive from a base context that is cancelled when
// shutdown begins, so long-lived streams end instead of holding Shutdown
// until its deadline.
type Server struct {
	cfg *config

	mu         sync.Mutex
	srv        *http.Server
	listener   net.Listener
	cancelBase context.CancelFunc
	once       sync.Once
	readyOnce  sync.Once
	ready      chan struct{}
}

func New(opts ...Option) *Server {
	cfg := &config{
		addr:              ":8080",
		readHeaderTimeout: 10 * time.Second,
		shutdownTimeout:   10 * time.Second,
		logger:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg, ready: make(chan struct{})}
}

// Addr returns the bound address once Run has started listening.
func (s *Server) Addr() string {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run listens and serves handler until ctx is done, SIGINT/SIGTERM arrives,
// or the listener fails.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, errors.New("server already running"))
	}

	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		s.mu.Unlock()
		s.markReady()
		return errors.Join(ErrStart, err)
	}

	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.readHeaderTimeout,
		ReadTimeout:       s.cfg.readTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ErrorLog:          slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelWarn),
	}
	s.srv = srv
	s.listener = ln
	s.cancelBase = cancelBase
	s.mu.Unlock()
	s.markReady()

	s.cfg.logger.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-ctx.Done():
		runErr = s.shutdownAndWait(errCh)
	case sig := <-stop:
		s.cfg.logger.InfoContext(ctx, "shutdown signal received", slog.String("signal", sig.String()))
		runErr = s.shutdownAndWait(errCh)
	case runErr = <-errCh:
		cancelBase()
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	return nil
}

func (s *Server) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Server) shutdownAndWait(errCh <-chan error) error {
	shutdownErr := s.Shutdown(context.Background())
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if shutdownErr != nil {
		s.cfg.logger.Error("graceful shutdown incomplete", logger.Error(shutdownErr))
	}
	return nil
}

// Shutdown cancels in-flight request contexts, stops accepting connections,
// waits for handlers to return and then runs stop hooks. Repeated calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv, cancelBase := s.srv, s.cancelBase
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()

		cancelBase()
		if serr := srv.Shutdown(ctx); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			err = errors.Join(ErrShutdown, serr)
		}

		for _, h := range s.cfg.stopHooks {
			if herr := h.fn(ctx); herr != nil {
				s.cfg.logger.ErrorContext(ctx, "stop hook failed", logger.Component(h.name), logger.Error(herr))
				err = errors.Join(err, herr)
			}
		}
		s.cfg.logger.Info("http server stopped")
	})
	return err
}
