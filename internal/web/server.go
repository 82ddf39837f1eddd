// Package web serves the token table as an HTML page with a small JSON API over
// the same grid.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/jask/mintpick/internal/config"
)

// Server wraps an http.Server with an origin check, CORS and gzip.
type Server struct {
	log             *zap.Logger
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServer builds a Server for handler.
func NewServer(cfg config.ServerConfig, log *zap.Logger, handler http.Handler) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://" + cfg.Addr}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(sameOrigin(origins, log, handler))
	gzipHandler := gziphandler.GzipHandler(corsHandler)

	log.Info("API created", zap.Strings("allowedOrigins", origins))

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Server{
		log: log,
		srv: &http.Server{
			Handler:           gzipHandler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// sameOrigin refuses state-changing requests sent from a page on another
// origin. A wildcard in trusted does not count. Requests carrying neither
// Origin nor Sec-Fetch-Site come from scripts, not browsers, and pass.
func sameOrigin(trusted []string, log *zap.Logger, next http.Handler) http.Handler {
	allow := make(map[string]bool, len(trusted))
	for _, o := range trusted {
		if o != "*" {
			allow[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !fromSameOrigin(r, allow) {
			log.Warn("cross-origin request refused",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("origin", r.Header.Get("Origin")),
			)
			http.Error(w, "cross-origin request refused", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func fromSameOrigin(r *http.Request, allow map[string]bool) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return r.Header.Get("Sec-Fetch-Site") != "cross-site"
	}
	if allow[strings.ToLower(origin)] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Handler returns the wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()
	s.log.Info("serving", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
