package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/server/endpoint"
	"github.com/kbukum/interviewscribe/server/middleware"
)

// Server is a gin engine served over HTTP/1.1 and h2c. Server-level
// middleware wraps the root mux, so it also covers handlers mounted with
// Handle.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger

	middleware []middleware.Middleware
	handler    http.Handler
	buildOnce  sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server. cfg defaults are applied here.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine: engine,
		mux:    mux,
		config: cfg,
		log:    logger.OrGlobal(log).WithComponent("server"),
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

// GinEngine returns the gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler on the root mux next to gin.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", logger.Fields("pattern", pattern))
}

// Use appends server-level middleware. It has no effect once the handler
// has been built by Handler or Start.
func (s *Server) Use(mw ...middleware.Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// ApplyMiddleware installs the standard chain: recovery, request id, CORS,
// body size limit and request logging.
func (s *Server) ApplyMiddleware() {
	s.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
		middleware.RequestLogger(s.log),
	)
}

// RegisterDefaultEndpoints registers GET /health and GET /info.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName))
}

// ApplyDefaults applies the standard middleware and default endpoints.
func (s *Server) ApplyDefaults(serviceName string, checker endpoint.HealthChecker) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(serviceName, checker)
}

// Handler returns the full handler: middleware around the root mux, with
// h2c. It is built once.
func (s *Server) Handler() http.Handler {
	s.buildOnce.Do(func() {
		h := middleware.Chain(s.middleware...)(s.mux)
		s.handler = h2c.NewHandler(h, &http2.Server{
			MaxConcurrentStreams: 250,
			IdleTimeout:          s.config.IdleTimeout,
		})
	})
	return s.handler
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.httpServer.Addr, err)
	}
	s.httpServer.Handler = s.Handler()

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop waits up to ShutdownTimeout for in-flight requests, then closes
// the remaining connections.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
	if err != nil {
		_ = s.httpServer.Close()
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Running reports whether Start has bound a listener.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}
