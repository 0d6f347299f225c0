package config

type GuardConfig interface {
	GetLoginPath() string
	GetDashboardPath() string
	GetCallbackParam() string
	GetUpstreamURL() string
}

type Guard struct{}

var _ GuardConfig = Guard{}

func (Guard) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/login")
}

func (Guard) GetDashboardPath() string {
	return GetEnv("DASHBOARD_PATH", "/dashboard")
}

func (Guard) GetCallbackParam() string {
	return "callbackUrl"
}

// GetUpstreamURL is the web app the edge server forwards allowed navigations to.
// Empty means the edge server answers allowed navigations itself.
func (Guard) GetUpstreamURL() string {
	return GetEnv("UPSTREAM_URL", "")
}
