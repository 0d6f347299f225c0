package guard

import (
	"net/http"

	"github.com/jrsteele09/saas-admin-client/cookie"
	"github.com/jrsteele09/saas-admin-client/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type middlewareOptions struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Option defines a function type to modify the middleware.
type Option func(*middlewareOptions)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *middlewareOptions) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *middlewareOptions) {
		o.metrics = m
	}
}

// Middleware applies rules to every request using the access token cookie.
// Redirects use 307 so the method is preserved.
func Middleware(rules Rules, options ...Option) func(http.Handler) http.Handler {
	opts := middlewareOptions{logger: log.Logger}
	for _, opt := range options {
		opt(&opts)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rules.Skipped(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			_, hasCredential := cookie.FromRequest(r)
			decision := rules.Evaluate(r.URL.Path, hasCredential)
			opts.metrics.ObserveGuard(decision.Action.String())

			if decision.Action == Redirect {
				opts.logger.Debug().Str("path", r.URL.Path).Str("location", decision.Location).Msg("Guard redirect")
				http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
