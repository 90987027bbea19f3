// ABOUTME: HTTP server lifecycle: chi router, listeners and graceful shutdown
// ABOUTME: Mounts the MCP transport, the optional OAuth proxy and the index page

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/config"
	"github.com/enapter/mcp-server/internal/mcp"
)

// MCPPath is where the MCP transport is served.
const MCPPath = "/mcp"

// Options configure a Server.
type Options struct {
	Config *config.Config
	MCP    *mcp.Server
	// Proxy protects MCPPath when set. Nil means header authentication.
	Proxy  *auth.OAuthProxy
	Logger *slog.Logger
}

// Server owns the router and the HTTP listener lifecycle.
type Server struct {
	cfg    *config.Config
	router chi.Router
	logger *slog.Logger
	index  []byte
}

// New builds the router. The index page is rendered once here.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.MCP == nil {
		return nil, errors.New("MCP server is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	index, err := renderIndex(indexData{
		Name:    mcp.ServerName,
		LogoURL: opts.Config.Server.LogoURL,
		MCPPath: MCPPath,
		OAuth:   opts.Proxy != nil,
		Tools:   opts.MCP.Tools(),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering index page: %w", err)
	}

	s := &Server{
		cfg:    opts.Config,
		logger: logger.With("component", "server"),
		index:  index,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", handleHealth)

	var mcpHandler http.Handler = opts.MCP.Handler()
	if opts.Proxy != nil {
		opts.Proxy.Mount(r)
		mcpHandler = opts.Proxy.RequireBearer(mcpHandler)
	}
	r.Handle(MCPPath, mcpHandler)

	s.router = r
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled or the server fails.
// Returns nil after a graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown(httpServer)
	})

	return g.Wait()
}

// shutdown uses a fresh context since the serving context is already done.
func (s *Server) shutdown(httpServer *http.Server) error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s.logger.Info("shutting down", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := httpServer.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("graceful shutdown timed out, closing open connections")
		return httpServer.Close()
	}
	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// handleHealth returns 200 OK while the process is alive.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
