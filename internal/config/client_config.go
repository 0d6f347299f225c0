package config

import "time"

type ClientConfig interface {
	GetAPIURL() string
	GetAppURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetUserAgent() string
	GetAuthStorageName() string
	GetCompanyStorageName() string
	GetAccessTokenCookieName() string
}

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIURL is the backend base URL, including any version prefix.
func (Client) GetAPIURL() string {
	return GetEnv("API_URL", "http://localhost:3000/api/v1")
}

// GetAppURL is the public origin of the web app, where the access-token cookie lives.
func (Client) GetAppURL() string {
	return GetEnv("APP_URL", "http://localhost:3001")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 15*time.Second)
}

func (Client) GetRefreshTimeout() time.Duration {
	return GetEnvDuration("REFRESH_TIMEOUT", 15*time.Second)
}

func (Client) GetUserAgent() string {
	return GetEnv("USER_AGENT", "saas-admin-client/1.0")
}

func (Client) GetAuthStorageName() string {
	return "auth-storage"
}

func (Client) GetCompanyStorageName() string {
	return "company-storage"
}

func (Client) GetAccessTokenCookieName() string {
	return "access-token"
}
