// Package server runs the daemon's outer surfaces: the newline-delimited
// JSON protocol on the Unix socket and the optional HTTP API with its
// WebSocket feed and metrics endpoint.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/radiotoggle/internal/apikey"
	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/discovery"
	"github.com/jmylchreest/radiotoggle/internal/events"
	"github.com/jmylchreest/radiotoggle/internal/http/handlers"
	"github.com/jmylchreest/radiotoggle/internal/http/mw"
	"github.com/jmylchreest/radiotoggle/internal/http/routes"
	"github.com/jmylchreest/radiotoggle/internal/metrics"
	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/internal/ws"
	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

// Deps are the collaborators the server exposes. APIKeys and Bus default to
// fresh instances when nil.
type Deps struct {
	Shell   handlers.Shell
	Store   settings.Store
	APIKeys *apikey.Manager
	Bus     *events.Bus
	Metrics *metrics.Metrics
	Version handlers.VersionInfo
}

// Server manages the socket and HTTP listeners.
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	deps       Deps
	socketPath string
	listener   net.Listener
	shutdown   chan struct{}
	wg         sync.WaitGroup
	rootCtx    context.Context
	rootCancel context.CancelFunc

	httpServer   *http.Server
	httpListener net.Listener
	advertiser   *discovery.Advertiser
	stopOnce     sync.Once
}

// New creates a new server instance.
func New(logger *slog.Logger, cfg *config.Config, deps Deps) *Server {
	if deps.APIKeys == nil {
		deps.APIKeys = apikey.NewManager(cfg, logger)
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())

	return &Server{
		logger:     logger,
		cfg:        cfg,
		deps:       deps,
		socketPath: cfg.Server.UnixSocket,
		shutdown:   make(chan struct{}),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}
}

// SocketPath returns the Unix socket location.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// HTTPAddr returns the bound HTTP address, or "" when the API is disabled.
func (s *Server) HTTPAddr() string {
	if s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Start listens on the socket and, when configured, the HTTP API.
func (s *Server) Start() error {
	s.logger.Info("Starting radiotoggled server")

	sockDir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(sockDir, 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory %s: %w", sockDir, err)
	}

	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("failed to remove existing socket file %s: %w", s.socketPath, err)
		}
	}

	var err error
	s.listener, err = net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", s.socketPath, err)
	}
	s.logger.Info("Listening on Unix socket", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptConnections()

	if s.cfg.API.ListenAddress != "" {
		if err := s.startHTTP(); err != nil {
			_ = s.listener.Close()
			return err
		}
	}
	return nil
}

func (s *Server) startHTTP() error {
	addr := s.cfg.API.ListenAddress
	s.logger.Info("Starting HTTP API server", "address", addr)

	keys := mw.FromManager(s.deps.APIKeys)

	// Rate limiting runs before auth so key guessing is throttled too.
	router := chi.NewRouter()
	router.Use(mw.RequestLogging(s.logger))
	router.Use(mw.RateLimitByIP(s.cfg.API.RateLimit))
	router.Use(s.deps.Metrics.Middleware(routePattern))

	api := humachi.New(router, routes.NewHumaConfig(s.deps.Version.Version, ""))
	api.UseMiddleware(mw.HumaAuth(api, s.logger, keys))

	routes.Register(api, &routes.Handlers{
		HealthCheck:  handlers.HealthCheck,
		VersionCheck: handlers.VersionCheck(s.deps.Version),
		Surface:      &handlers.SurfaceHandler{Shell: s.deps.Shell, Logger: s.logger},
		Settings:     &handlers.SettingsHandler{Store: s.deps.Store},
		APIKey:       &handlers.APIKeyHandler{Manager: s.deps.APIKeys},
		Logging:      &handlers.LoggingHandler{Logger: s.logger},
	})

	hub := ws.NewHub(s.logger, s.deps.Bus, ws.WithGreeting(s.greeting))
	s.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in WebSocket hub", "recover", r)
			}
		}()
		hub.Run(s.rootCtx)
	})
	router.With(mw.APIKeyAuth(s.logger, keys)).Get("/api/v1/ws", ws.Handler(hub, s.logger))

	if s.deps.Metrics != nil {
		router.Get("/metrics", s.deps.Metrics.Handler().ServeHTTP)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.httpListener = ln
	s.httpServer = &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in HTTP server goroutine", "recover", r)
			}
		}()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", "error", err)
		}
		s.logger.Info("HTTP server stopped")
	})

	if s.cfg.API.Advertise {
		s.advertise(ln)
	}
	return nil
}

// advertise failures are logged; the API stays reachable by address.
func (s *Server) advertise(ln net.Listener) {
	port, err := discovery.PortFromAddress(ln.Addr().String())
	if err != nil {
		s.logger.Warn("Not advertising HTTP API", "error", err)
		return
	}
	adv, err := discovery.Advertise(discovery.Service{
		Port:    port,
		Version: s.deps.Version.Version,
		Auth:    s.deps.APIKeys.Required(),
	}, s.logger)
	if err != nil {
		s.logger.Warn("Failed to advertise HTTP API", "error", err)
		return
	}
	s.advertiser = adv
}

// greeting renders the current surface for a newly connected WebSocket client.
func (s *Server) greeting(ctx context.Context) (events.Event, bool) {
	snap, err := s.deps.Shell.Render(ctx)
	if err != nil {
		return events.Event{}, false
	}
	return events.NewEvent(events.SurfaceRendered, surface.RenderedEvent{Reason: "connect", Snapshot: snap}), true
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// Stop gracefully shuts down the server. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	s.logger.Info("Shutting down radiotoggled server")
	s.rootCancel()
	close(s.shutdown)

	s.advertiser.Shutdown()

	if s.listener != nil {
		s.logger.Info("Closing Unix socket listener")
		_ = s.listener.Close()
	}

	if s.httpServer != nil {
		s.logger.Info("Shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	s.logger.Info("Waiting for services to stop...")
	s.wg.Wait()
	s.logger.Info("radiotoggled server shut down gracefully")
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in acceptConnections", "recover", r)
		}
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.logger.Info("Socket listener shutting down")
				return
			default:
				s.logger.Error("Failed to accept connection", "error", err)
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in connection handler", "recover", r)
		}
	}()

	ctx, cancel := context.WithCancel(s.rootCtx)
	defer cancel()

	go func() {
		select {
		case <-s.shutdown:
			if uc, ok := conn.(*net.UnixConn); ok {
				_ = uc.CloseRead()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	reader := bufio.NewReader(conn)
	for {
		if ctx.Err() != nil {
			return
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				s.logger.Debug("Client disconnected")
			} else {
				s.logger.Error("Failed to read from connection", "error", err)
			}
			return
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Debug("Failed to unmarshal request", "error", err, "request", strings.TrimSpace(string(line)))
			s.sendError(conn, "", fmt.Sprintf("invalid JSON request: %s", err))
			continue
		}

		action, _ := req["action"].(string)
		id, _ := req["id"].(string)
		data, _ := req["data"].(map[string]any)

		s.logger.Debug("Received request", "action", action, "id", id)

		result, err := s.handleAction(ctx, action, data)
		if err != nil {
			s.sendError(conn, id, err.Error())
			continue
		}
		s.sendResponse(conn, id, result)
	}
}

func (s *Server) sendResponse(conn net.Conn, id string, data map[string]any) {
	response := map[string]any{"status": "ok"}
	if id != "" {
		response["id"] = id
	}
	maps.Copy(response, data)
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send response", "error", err)
	}
}

func (s *Server) sendError(conn net.Conn, id string, message string) {
	s.logger.Debug("Sending error response to client", "id", id, "message", message)
	response := map[string]any{"error": message}
	if id != "" {
		response["id"] = id
	}
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send error response", "error", err)
	}
}
