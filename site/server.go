// Package site serves the static page under test over local HTTP so the
// capture driver has something to point the browser at.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chartvoice/chartvoice/config"
	"github.com/chartvoice/chartvoice/models"
)

// Server is a GET-only static file server with a background serve loop.
type Server struct {
	cfg      config.SiteConfig
	srv      *http.Server
	listener net.Listener
	serveErr chan error
}

// New creates a Server for cfg. Nothing is bound until Start.
func New(cfg config.SiteConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.StaticFS("/", gin.Dir(cfg.Dir, false))

	return &Server{
		cfg:      cfg,
		srv:      &http.Server{Handler: r},
		serveErr: make(chan error, 1),
	}
}

// Start binds the listener and begins serving on a background goroutine.
// Bind failure is returned synchronously so the caller can abort before any
// browser work starts.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return models.NewPipelineError(
			models.ErrCodePortBind,
			fmt.Sprintf("cannot bind %s (port already in use?)", addr),
			err,
		)
	}
	s.listener = ln
	slog.Info("content server listening", "addr", ln.Addr().String(), "dir", s.cfg.Dir)

	go func() {
		err := s.srv.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			s.serveErr <- err
		}
		close(s.serveErr)
	}()
	return nil
}

// URL returns the base URL of the running server. Valid after Start; when
// Port is 0 this reflects the ephemeral port actually bound.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", s.listener.Addr().String())
}

// Shutdown stops accepting new requests, lets in-flight requests finish,
// and joins the serve goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	if err, ok := <-s.serveErr; ok && err != nil {
		return err
	}
	slog.Info("content server drained")
	return nil
}
