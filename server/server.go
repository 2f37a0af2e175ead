// CLAUDE:SUMMARY MCP server assembly — workspace, extractor, audit store, tools; stdio or streamable HTTP transport.
// CLAUDE:DEPENDS tools, pdfpage, pdfsource, workspace, extractlog
// CLAUDE:EXPORTS Server, New
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/aitools/extractlog"
	"github.com/hazyhaar/aitools/pdfpage"
	"github.com/hazyhaar/aitools/pdfsource"
	"github.com/hazyhaar/aitools/tools"
	"github.com/hazyhaar/aitools/workspace"
)

// Server serves the workspace tools over MCP.
type Server struct {
	cfg   Config
	ws    *workspace.Workspace
	audit *extractlog.Store
	tools *tools.Service
	mcp   *mcp.Server

	mu   sync.Mutex
	addr string
}

// New wires the workspace, extractor, optional audit store and tools.
func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger

	ws, err := workspace.New(cfg.Workspace, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	var audit *extractlog.Store
	if cfg.AuditDB != "" {
		audit, err = extractlog.Open(ctx, cfg.AuditDB, extractlog.WithLogger(logger))
		if err != nil {
			return nil, err
		}
	}

	extractor := pdfpage.New(pdfpage.Config{
		Opener:     pdfsource.NewOpener(pdfsource.Config{MaxFormDepth: cfg.MaxFormDepth, Logger: logger}),
		Thresholds: cfg.Thresholds,
		Logger:     logger,
	})

	svc := tools.New(tools.Config{
		Workspace: ws,
		Extractor: extractor,
		Audit:     audit,
		Transport: cfg.Transport,
		Logger:    logger,
	})

	srv := mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)
	svc.RegisterMCP(srv)

	logger.Info("aitools: server ready",
		"workspace", ws.Root(), "transport", cfg.Transport, "audit", cfg.AuditDB != "")
	return &Server{cfg: cfg, ws: ws, audit: audit, tools: svc, mcp: srv}, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Handler returns the HTTP router: the health endpoint and the streamable
// MCP endpoint, the latter behind basic auth when configured.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get(s.cfg.HTTP.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "workspace": s.ws.Root()})
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
	r.Group(func(r chi.Router) {
		if s.cfg.HTTP.BasicAuthUser != "" {
			r.Use(basicAuth(s.cfg.HTTP.BasicAuthUser, s.cfg.HTTP.BasicAuthHash))
		}
		r.Handle(s.cfg.HTTP.MCPPath, mcpHandler)
	})
	return r
}

// Run serves on the configured transport until ctx is cancelled or the
// transport fails.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case TransportHTTP:
		return s.serveHTTP(ctx)
	default:
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
}

func (s *Server) serveHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.HTTP.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.cfg.Logger.Info("aitools: http transport listening",
		"url", "http://"+ln.Addr().String()+s.cfg.HTTP.MCPPath,
		"auth", s.cfg.HTTP.BasicAuthUser != "")

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(shutCtx); err != nil {
			// Open SSE streams keep Shutdown waiting; drop them.
			s.cfg.Logger.Warn("aitools: http shutdown timed out, closing connections", "error", err)
			hs.Close()
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the bound HTTP address once listening, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close releases the audit store.
func (s *Server) Close() error {
	if s.audit != nil {
		return s.audit.Close()
	}
	return nil
}

func basicAuth(user, hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="aitools"`)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
