package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for handlers that own one or more routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router mounts [Handler]s behind middleware.
type Router interface {
	http.Handler
	Use(middleware ...Middleware)
	Mount(handler Handler)
}

// Logging logs one line per request at debug level.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
		})
	}
}

// CallbackServer runs a short-lived HTTP server for one OAuth callback.
type CallbackServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *log.Logger
}

// NewCallbackServer binds addr and serves router on it. Use port 0 to pick a free port.
func NewCallbackServer(addr string, router Router, logger *log.Logger) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &CallbackServer{
		srv:      &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		listener: listener,
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// Start serves in the background until [CallbackServer.Shutdown].
func (s *CallbackServer) Start() {
	go func() {
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server error", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting at most five seconds for open requests.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// AwaitToken starts a callback server for handler and blocks until the callback arrives, ctx ends, or timeout passes.
func AwaitToken(ctx context.Context, addr string, handler *OAuthHandler, timeout time.Duration, logger *log.Logger) (*OAuthResult, error) {
	router := NewCallbackMux()
	router.Use(Logging(logger))
	router.Mount(handler)

	srv, err := NewCallbackServer(addr, router, logger)
	if err != nil {
		return nil, err
	}
	srv.Start()
	defer srv.Shutdown(context.Background())

	logger.Debug("waiting for oauth callback", "addr", srv.Addr())

	select {
	case result := <-handler.Result():
		return &result, result.Error()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("no callback received within %s", timeout)
	}
}
