// Package server composes the router, middleware stack and huma API into an
// HTTP server and owns its listen/shutdown lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/iquant-greeting/internal/http/routes"
	"github.com/janisto/iquant-greeting/internal/platform/config"
	applog "github.com/janisto/iquant-greeting/internal/platform/logging"
	appmiddleware "github.com/janisto/iquant-greeting/internal/platform/middleware"
	"github.com/janisto/iquant-greeting/internal/platform/respond"
)

const (
	apiTitle       = "iQuant Greeting API"
	maxRequestBody = 1 << 10
	maxHeaderBytes = 64 << 10
)

// Server is the greeting HTTP server.
type Server struct {
	cfg    config.Config
	router chi.Router
	api    huma.API
	srv    *http.Server
}

// New builds the router, registers routes and configures the http.Server.
// Nothing is bound until Serve or ListenAndServe is called.
func New(cfg config.Config, version string) *Server {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())
	router.Use(
		appmiddleware.Security(),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(maxRequestBody),
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	// GET / is the only route: no OpenAPI document, docs UI or schema
	// endpoints, and no $schema links pointing at them.
	humaCfg := huma.DefaultConfig(apiTitle, version)
	humaCfg.OpenAPIPath = ""
	humaCfg.DocsPath = ""
	humaCfg.SchemasPath = ""
	humaCfg.CreateHooks = nil
	api := humachi.New(router, humaCfg)
	routes.Register(api)

	return &Server{
		cfg:    cfg,
		router: router,
		api:    api,
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
		},
	}
}

// Handler returns the composed router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API backing the router.
func (s *Server) API() huma.API {
	return s.api
}

// ListenAndServe binds the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests for at most the configured shutdown timeout. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening", zap.String("addr", ln.Addr().String()))
		serveErr <- s.srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	applog.LogInfo(context.Background(), "shutting down", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
