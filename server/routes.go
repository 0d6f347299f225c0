package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteMetrics, ChainMiddleware(s.metrics.Handler().ServeHTTP, s.RecoverMiddleware))

	// Everything else is a navigation of the web app
	s.RegisterRouteHandler(RouteRoot, ChainMiddleware(s.upstream.ServeHTTP, s.EdgeMiddleware(s.GuardMiddleware)...))
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "env": s.env})
	}
}

// AllowedHandler answers navigations the guard let through when there is no upstream
func (s *Server) AllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"path":  r.URL.Path,
			"class": s.rules.Classify(r.URL.Path).String(),
		})
	}
}
