package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"

	"github.com/LucaCeccarelli/projet-integrateur/discovery"
	"github.com/LucaCeccarelli/projet-integrateur/hostinfo"
	"github.com/LucaCeccarelli/projet-integrateur/logutil"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"

	maxHop          = 16
	shutdownTimeout = 5 * time.Second
)

// APIResponse is the common API response shape (status + data).
type APIResponse struct {
	Status string `json:"status"` // "success" or "fail"
	Data   any    `json:"data"`
}

// Config for Server.
type Config struct {
	APIPrefix        string
	CORSAllowOrigins []string
	// AgentStats reports the local discovery agent; nil when no agent runs in-process.
	AgentStats  func() discovery.Stats
	Discover    func(ctx context.Context, hop int) (discovery.Result, error)
	GetHostInfo func() (hostinfo.Info, error)
	Interfaces  func() ([]hostinfo.Interface, error)
	Logger      *slog.Logger
}

// Server exposes the agent's status and on-demand discovery over HTTP.
type Server struct {
	apiPrefix   string
	origins     []string
	agentStats  func() discovery.Stats
	discover    func(ctx context.Context, hop int) (discovery.Result, error)
	getHostInfo func() (hostinfo.Info, error)
	interfaces  func() ([]hostinfo.Interface, error)
	log         *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	s := &Server{
		apiPrefix:   strings.TrimSuffix(cfg.APIPrefix, "/"),
		origins:     cfg.CORSAllowOrigins,
		agentStats:  cfg.AgentStats,
		discover:    cfg.Discover,
		getHostInfo: cfg.GetHostInfo,
		interfaces:  cfg.Interfaces,
		log:         cfg.Logger,
	}
	if s.getHostInfo == nil {
		s.getHostInfo = hostinfo.Get
	}
	if s.interfaces == nil {
		s.interfaces = hostinfo.Interfaces
	}
	if s.log == nil {
		s.log = logutil.Discard()
	}
	s.log = s.log.With("component", "http")
	return s
}

// Handler returns the http.Handler that serves the API and /metrics.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests, cors.New(s.corsConfig()))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api := r.Group(s.apiPrefix)
	api.GET("/self", s.handleSelf)
	api.GET("/agent", s.handleAgent)
	api.GET("/discovery", s.handleDiscovery)
	api.GET("/interfaces", s.handleInterfaces)
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet}
	if len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	return cfg
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path,
		"status", c.Writer.Status(), "duration", time.Since(start))
}

func (s *Server) send(c *gin.Context, status string, data any, code int) {
	c.JSON(code, APIResponse{Status: status, Data: data})
}

func (s *Server) handleSelf(c *gin.Context) {
	info, err := s.getHostInfo()
	if err != nil {
		s.send(c, statusFail, err.Error(), http.StatusInternalServerError)
		return
	}
	s.send(c, statusSuccess, info, http.StatusOK)
}

func (s *Server) handleAgent(c *gin.Context) {
	if s.agentStats == nil {
		s.send(c, statusFail, "no discovery agent in this process", http.StatusNotFound)
		return
	}
	s.send(c, statusSuccess, s.agentStats(), http.StatusOK)
}

func (s *Server) handleDiscovery(c *gin.Context) {
	if s.discover == nil {
		s.send(c, statusFail, "discovery disabled", http.StatusNotFound)
		return
	}
	hop := 1
	if v := c.Query("hop"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHop {
			s.send(c, statusFail, fmt.Sprintf("hop must be an integer between 1 and %d", maxHop), http.StatusBadRequest)
			return
		}
		hop = n
	}
	res, err := s.discover(c.Request.Context(), hop)
	if err != nil {
		s.send(c, statusFail, err.Error(), http.StatusInternalServerError)
		return
	}
	if res.Hosts == nil {
		res.Hosts = []string{}
	}
	s.log.Info("discovery round finished", "id", res.ID, "hop", res.Hop, "hosts", len(res.Hosts))
	s.send(c, statusSuccess, res, http.StatusOK)
}

func (s *Server) handleInterfaces(c *gin.Context) {
	ifaces, err := s.interfaces()
	if err != nil {
		s.send(c, statusFail, err.Error(), http.StatusInternalServerError)
		return
	}
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		s.send(c, statusSuccess, ifaces, http.StatusOK)
		return
	}
	iface, ok := hostinfo.Find(ifaces, name)
	if !ok {
		s.send(c, statusFail, fmt.Sprintf("interface %q not found or has no IP addresses", name), http.StatusNotFound)
		return
	}
	s.send(c, statusSuccess, iface, http.StatusOK)
}

// Service runs an http.Server as a supervised service.
type Service struct {
	srv *http.Server
	ln  net.Listener
	log *slog.Logger
}

// NewService wraps handler in an http.Server serving on ln.
func NewService(ln net.Listener, handler http.Handler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &Service{
		srv: &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		ln:  ln,
		log: logger.With("component", "http"),
	}
}

func (s *Service) String() string {
	return "http " + s.ln.Addr().String()
}

// Serve serves until ctx is cancelled, then shuts the server down gracefully.
func (s *Service) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(s.ln) }()
	s.log.Info("http listening", "addr", s.ln.Addr())
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		// the listener is gone, a restart cannot succeed
		return fmt.Errorf("%w: http: %w", suture.ErrDoNotRestart, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("http shutdown", "error", err)
	}
	return ctx.Err()
}
