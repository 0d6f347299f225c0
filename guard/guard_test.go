package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/saas-admin-client/cookie"
	"github.com/jrsteele09/saas-admin-client/guard"
	"github.com/jrsteele09/saas-admin-client/internal/config"
	"github.com/jrsteele09/saas-admin-client/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_DecisionTable(t *testing.T) {
	rules := guard.DefaultRules()

	tests := []struct {
		path          string
		hasCredential bool
		want          guard.Decision
	}{
		{"/login", true, guard.Decision{Action: guard.Redirect, Location: "/dashboard"}},
		{"/dashboard/billing", false, guard.Decision{Action: guard.Redirect, Location: "/login?callbackUrl=%2Fdashboard%2Fbilling"}},
		{"/pricing", false, guard.Decision{Action: guard.Allow}},
		{"/dashboard", true, guard.Decision{Action: guard.Allow}},

		{"/register", true, guard.Decision{Action: guard.Redirect, Location: "/dashboard"}},
		{"/login", false, guard.Decision{Action: guard.Allow}},
		{"/", false, guard.Decision{Action: guard.Redirect, Location: "/login?callbackUrl=%2F"}},
		{"/", true, guard.Decision{Action: guard.Allow}},
		{"/admin/companies/c1", false, guard.Decision{Action: guard.Redirect, Location: "/login?callbackUrl=%2Fadmin%2Fcompanies%2Fc1"}},
		{"/accept-invite", true, guard.Decision{Action: guard.Allow}},
		{"/reset-password", false, guard.Decision{Action: guard.Allow}},
		{"/administrator", false, guard.Decision{Action: guard.Allow}},
		{"/loginhelp", true, guard.Decision{Action: guard.Allow}},
		{"/api/v1/users", false, guard.Decision{Action: guard.Allow}},
	}

	for _, tt := range tests {
		got := rules.Evaluate(tt.path, tt.hasCredential)
		require.Equal(t, tt.want, got, "path %s credential %v", tt.path, tt.hasCredential)
	}
}

func TestClassify(t *testing.T) {
	rules := guard.DefaultRules()

	require.Equal(t, guard.ClassAuthOnly, rules.Classify("/login"))
	require.Equal(t, guard.ClassProtected, rules.Classify("/dashboard/users"))
	require.Equal(t, guard.ClassProtected, rules.Classify("/"))
	require.Equal(t, guard.ClassUnrestricted, rules.Classify("/pricing"))
	require.Equal(t, guard.ClassUnrestricted, rules.Classify("/_next/static/chunk.js"))

	rules.ProtectRoot = false
	require.Equal(t, guard.ClassUnrestricted, rules.Classify("/"))

	rules.Public = append(rules.Public, "/dashboard/help")
	require.Equal(t, guard.ClassUnrestricted, rules.Classify("/dashboard/help"))
	require.Equal(t, "protected", guard.ClassProtected.String())
}

func TestRulesFromConfig(t *testing.T) {
	t.Setenv("LOGIN_PATH", "/signin")
	t.Setenv("DASHBOARD_PATH", "/home")

	rules := guard.RulesFromConfig(config.Guard{})
	require.Equal(t, guard.Decision{Action: guard.Redirect, Location: "/home"}, rules.Evaluate("/signin", true))
	require.Equal(t, guard.Decision{Action: guard.Redirect, Location: "/signin?callbackUrl=%2Fadmin"}, rules.Evaluate("/admin", false))
}

func TestMiddleware(t *testing.T) {
	m := metrics.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := guard.Middleware(guard.DefaultRules(), guard.WithMetrics(m))(next)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantLoc    string
	}{
		{"signed in at login", "/login", "a1", http.StatusTemporaryRedirect, "/dashboard"},
		{"signed out at billing", "/dashboard/billing", "", http.StatusTemporaryRedirect, "/login?callbackUrl=%2Fdashboard%2Fbilling"},
		{"signed out at pricing", "/pricing", "", http.StatusTeapot, ""},
		{"signed in at dashboard", "/dashboard", "a1", http.StatusTeapot, ""},
		{"static asset", "/_next/static/app.js", "", http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(cookie.AccessToken(tt.token))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
		})
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("redirect")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("allow")))
}

func TestMiddleware_EmptyCookieIsAbsent(t *testing.T) {
	handler := guard.Middleware(guard.DefaultRules())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie.AccessToken(""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
}
