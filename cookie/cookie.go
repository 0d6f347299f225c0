// Package cookie mirrors the session's access token into a cookie so that a
// request-time route guard, which cannot read the session's persisted record,
// can tell whether the visitor is signed in. The mirror is a convenience cache,
// not a security boundary: the backend validates the token on every request.
package cookie

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// AccessTokenName is the name of the mirrored cookie
const AccessTokenName = "access-token"

// Mirror is a one-way projection of the session's access token.
type Mirror interface {
	// Write stores token, or clears the mirror when token is empty.
	Write(token string)
	// Read returns the mirrored token and whether one is present.
	Read() (string, bool)
}

// AccessToken builds the cookie that mirrors token
func AccessToken(token string) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredAccessToken builds the cookie that clears the mirror. The expiry is
// set in the past rather than using MaxAge so that every user agent drops it.
func ExpiredAccessToken() *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest reads the mirrored token from an incoming request
func FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(AccessTokenName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// JarMirror writes the cookie into a cookie jar scoped to the web app's origin.
// Any HTTP client sharing the jar presents the cookie to the guarded server.
type JarMirror struct {
	appURL *url.URL
	jar    http.CookieJar
	lock   sync.Mutex
}

var _ Mirror = (*JarMirror)(nil)

func NewJarMirror(appURL *url.URL, jar http.CookieJar) *JarMirror {
	return &JarMirror{appURL: appURL, jar: jar}
}

func (m *JarMirror) Write(token string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if token == "" {
		m.jar.SetCookies(m.appURL, []*http.Cookie{ExpiredAccessToken()})
		return
	}
	m.jar.SetCookies(m.appURL, []*http.Cookie{AccessToken(token)})
}

func (m *JarMirror) Read() (string, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, c := range m.jar.Cookies(m.appURL) {
		if c.Name == AccessTokenName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Jar returns the underlying cookie jar
func (m *JarMirror) Jar() http.CookieJar {
	return m.jar
}

// MemoryMirror keeps the mirrored token in process memory
type MemoryMirror struct {
	token  string
	writes int
	lock   sync.RWMutex
}

var _ Mirror = (*MemoryMirror)(nil)

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{}
}

func (m *MemoryMirror) Write(token string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.token = token
	m.writes++
}

func (m *MemoryMirror) Read() (string, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.token, m.token != ""
}

// Writes returns how many times the mirror has been written
func (m *MemoryMirror) Writes() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.writes
}
