package server

// Route path constants
const (
	RouteRoot    = "/"
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
