package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/saas-admin-client/internal/config"
	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/fakebackend"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/stretchr/testify/require"
)

// testFixture holds all test dependencies
type testFixture struct {
	backend *fakebackend.Backend
	dataDir string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := fakebackend.New()
	server, baseURL := backend.Start()
	t.Cleanup(server.Close)

	company := backend.SeedCompany("Acme")
	backend.SeedUser(company.ID, "admin@acme.test", "Passw0rd!", users.RoleAdmin)
	backend.SeedUser(company.ID, "member@acme.test", "Passw0rd!", users.RoleMember)

	dataDir := t.TempDir()
	t.Setenv("API_URL", baseURL)
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("FOLDER", dataDir)
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("ENV", "TEST")

	return &testFixture{backend: backend, dataDir: dataDir}
}

func (f *testFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestUnknownCommand(t *testing.T) {
	setupTestFixture(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"frobnicate"}, &stdout, &stderr)
	require.ErrorContains(t, err, "unknown command")
	require.Contains(t, stderr.String(), "admin-companies")

	err = run(context.Background(), nil, &stdout, &stderr)
	require.ErrorContains(t, err, "no command")
}

func TestSessionPersistsBetweenInvocations(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "guard", "/dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "redirect /dashboard")
	require.Contains(t, out, "/login?callbackUrl=%2Fdashboard")

	_, err = f.run(t, "whoami")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	out, err = f.run(t, "login", "--email", "admin@acme.test", "--password", "Passw0rd!")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as admin@acme.test (ADMIN) at Acme")

	_, err = os.Stat(filepath.Join(f.dataDir, "auth-storage.json"))
	require.NoError(t, err)

	out, err = f.run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "admin@acme.test")
	require.Contains(t, out, "Token expires:")

	out, err = f.run(t, "guard", "/dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "allow /dashboard")

	out, err = f.run(t, "guard", "/login")
	require.NoError(t, err)
	require.Contains(t, out, "redirect /login")

	out, err = f.run(t, "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out")
	require.Equal(t, 1, f.backend.LogoutCalls())

	out, err = f.run(t, "guard", "/dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "redirect /dashboard")
}

func TestLoginFailurePrintsServerMessage(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "login", "--email", "admin@acme.test", "--password", "nope")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Contains(t, out, "error: Invalid credentials")
}

func TestDashboardRefreshesOnce(t *testing.T) {
	f := setupTestFixture(t)
	t.Setenv("SAAS_PASSWORD", "Passw0rd!")

	_, err := f.run(t, "login", "--email", "admin@acme.test")
	require.NoError(t, err)

	f.backend.ExpireAccessTokens()
	out, err := f.run(t, "dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "Acme")
	require.Contains(t, out, "Plan: Starter 29.00 USD/MONTH")
	require.Contains(t, out, "Members: 2")
	require.Contains(t, out, "Files: 0")
	require.Equal(t, 1, f.backend.RefreshCalls())

	out, err = f.run(t, "members", "--role", "MEMBER")
	require.NoError(t, err)
	require.Contains(t, out, "member@acme.test")
	require.NotContains(t, out, "admin@acme.test")
	require.Equal(t, 1, f.backend.RefreshCalls())
}

func TestListingCommands(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.run(t, "login", "--email", "member@acme.test", "--password", "Passw0rd!")
	require.NoError(t, err)

	out, err := f.run(t, "companies")
	require.NoError(t, err)
	require.Contains(t, out, "* ")
	require.Contains(t, out, "acme")

	out, err = f.run(t, "subscription")
	require.NoError(t, err)
	require.Contains(t, out, "Status: ACTIVE")

	out, err = f.run(t, "invoices")
	require.NoError(t, err)
	require.Contains(t, out, "29.00 USD")

	out, err = f.run(t, "usage")
	require.NoError(t, err)
	require.Contains(t, out, "api calls")

	out, err = f.run(t, "files")
	require.NoError(t, err)
	require.Contains(t, out, "NAME")

	out, err = f.run(t, "admin-companies")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.Contains(t, out, "Super admin access required")
}

func TestRedisStorage(t *testing.T) {
	f := setupTestFixture(t)
	mr := miniredis.RunT(t)
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())

	_, err := f.run(t, "login", "--email", "member@acme.test", "--password", "Passw0rd!")
	require.NoError(t, err)
	require.True(t, mr.Exists("saas-admin:auth-storage"))

	out, err := f.run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "member@acme.test")

	_, err = os.Stat(filepath.Join(f.dataDir, "auth-storage.json"))
	require.True(t, os.IsNotExist(err))
}

func TestConfigFileAndFlags(t *testing.T) {
	f := setupTestFixture(t)
	t.Cleanup(config.ResetFile)
	configFile := filepath.Join(t.TempDir(), "saasctl.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("LOGIN_PATH: /signin\n"), 0o600))

	out, err := f.run(t, "--config", configFile, "--storage", "memory", "guard", "/admin")
	require.NoError(t, err)
	require.Contains(t, out, "/signin?callbackUrl=%2Fadmin")

	_, err = f.run(t, "--storage", "floppy", "guard", "/")
	require.ErrorContains(t, err, "unknown storage backend")
}
