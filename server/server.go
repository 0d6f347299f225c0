// Package server is the edge in front of the web app. Every navigation passes
// the route guard before it is proxied to the upstream.
package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/jrsteele09/saas-admin-client/guard"
	"github.com/jrsteele09/saas-admin-client/internal/config"
	"github.com/jrsteele09/saas-admin-client/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	rules    guard.Rules
	metrics  *metrics.Metrics
	upstream http.Handler
	logger   zerolog.Logger
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithUpstream replaces the handler allowed navigations are forwarded to
func WithUpstream(upstream http.Handler) Option {
	return func(s *Server) {
		s.upstream = upstream
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(config config.Config, options ...Option) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}

	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		rules:  guard.RulesFromConfig(config),
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.upstream == nil {
		upstream, err := s.upstreamHandler(config.GetUpstreamURL())
		if err != nil {
			return nil, fmt.Errorf("[Server New] %w", err)
		}
		s.upstream = upstream
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// upstreamHandler proxies to rawURL, or answers allowed navigations locally
// when no upstream is configured.
func (s *Server) upstreamHandler(rawURL string) (http.Handler, error) {
	if rawURL == "" {
		return http.HandlerFunc(s.AllowedHandler()), nil
	}
	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q", rawURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Err(err).Str("path", r.URL.Path).Str("upstream", target.Host).Msg("Upstream request failed")
		http.Error(w, "502 - Bad Gateway", http.StatusBadGateway)
	}
	return proxy, nil
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
