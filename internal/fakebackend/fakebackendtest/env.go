// Package fakebackendtest wires a signed-out client stack to a fake backend
// for use in tests.
package fakebackendtest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/auth"
	"github.com/jrsteele09/saas-admin-client/cookie"
	"github.com/jrsteele09/saas-admin-client/internal/fakebackend"
	"github.com/jrsteele09/saas-admin-client/session"
	"github.com/jrsteele09/saas-admin-client/storage/memstore"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/stretchr/testify/require"
)

// Env is a signed-out client stack wired to a running Backend
type Env struct {
	Backend   *fakebackend.Backend
	Server    *httptest.Server
	Persister *memstore.Store
	Mirror    *cookie.MemoryMirror
	Tenant    *tenants.Context
	Session   *session.Store
	Client    *apiclient.Client
}

// NewEnv starts a backend and builds a client against it. Everything is
// torn down when the test ends.
func NewEnv(tb testing.TB, options ...fakebackend.Option) *Env {
	tb.Helper()

	env := &Env{
		Backend:   fakebackend.New(options...),
		Persister: memstore.New(),
		Mirror:    cookie.NewMemoryMirror(),
	}
	var baseURL string
	env.Server, baseURL = env.Backend.Start()
	tb.Cleanup(env.Server.Close)

	env.Tenant = tenants.NewContext(env.Persister)
	store, err := session.New(env.Persister, env.Mirror, session.WithTenantContext(env.Tenant))
	require.NoError(tb, err)
	env.Session = store
	tb.Cleanup(func() {
		_ = store.Close(context.Background())
		_ = env.Tenant.Close(context.Background())
	})

	env.Client, err = apiclient.New(baseURL, store, apiclient.WithTenantContext(env.Tenant))
	require.NoError(tb, err)
	return env
}

// SignIn logs an existing user in through the API and starts the session
func (e *Env) SignIn(tb testing.TB, email, password string) auth.AuthResponse {
	tb.Helper()

	var resp auth.AuthResponse
	err := e.Client.Anonymous(context.Background(), http.MethodPost, apiclient.AuthLoginRoute,
		auth.LoginRequest{Email: email, Password: password}, &resp)
	require.NoError(tb, err)
	require.NoError(tb, e.Session.SetAuth(&resp.User, resp.Tokens.AccessToken, resp.Tokens.RefreshToken, resp.Company))
	return resp
}
