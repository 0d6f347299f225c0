package admin_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/saas-admin-client/admin"
	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/auth"
	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/fakebackend/fakebackendtest"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/stretchr/testify/require"
)

// testFixture holds all test dependencies
type testFixture struct {
	env     *fakebackendtest.Env
	acme    tenants.Company
	globex  tenants.Company
	service *admin.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	env := fakebackendtest.NewEnv(t)
	platform := env.Backend.SeedCompany("Platform")
	acme := env.Backend.SeedCompany("Acme")
	globex := env.Backend.SeedCompany("Globex")
	env.Backend.SeedUser(platform.ID, "root@platform.test", "Passw0rd!", users.RoleSuperAdmin)
	env.Backend.SeedUser(acme.ID, "admin@acme.test", "Passw0rd!", users.RoleAdmin)
	env.Backend.SeedUser(globex.ID, "admin@globex.test", "Passw0rd!", users.RoleAdmin)
	env.Backend.SeedUser(globex.ID, "member@globex.test", "Passw0rd!", users.RoleMember)

	service, err := admin.NewService(env.Client)
	require.NoError(t, err)

	return &testFixture{env: env, acme: acme, globex: globex, service: service}
}

func TestNewService_MissingClient(t *testing.T) {
	_, err := admin.NewService(nil)
	require.Error(t, err)
}

func TestCompanies(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "root@platform.test", "Passw0rd!")
	ctx := context.Background()

	page, err := f.service.Companies(ctx, apiclient.PageParams{})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Equal(t, "Acme", page.Data[0].Name)
	require.Equal(t, 1, page.Data[0].MemberCount())
	require.Empty(t, page.Data[0].Users)
	require.NotNil(t, page.Data[0].Subscription)

	page, err = f.service.Companies(ctx, apiclient.PageParams{Search: "glob"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, f.globex.ID, page.Data[0].ID)
	require.Equal(t, 2, page.Data[0].MemberCount())
}

func TestCompany(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "root@platform.test", "Passw0rd!")
	ctx := context.Background()

	details, err := f.service.Company(ctx, f.globex.ID)
	require.NoError(t, err)
	require.Equal(t, "globex", details.Slug)
	require.Len(t, details.Users, 2)
	require.Equal(t, "admin@globex.test", details.Users[0].Email)

	_, err = f.service.Company(ctx, "")
	require.Error(t, err)

	_, err = f.service.Company(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeactivateAndReactivate(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "root@platform.test", "Passw0rd!")
	ctx := context.Background()

	details, err := f.service.Deactivate(ctx, f.globex.ID)
	require.NoError(t, err)
	require.False(t, details.Active())

	var resp auth.AuthResponse
	err = f.env.Client.Anonymous(ctx, http.MethodPost, apiclient.AuthLoginRoute,
		auth.LoginRequest{Email: "member@globex.test", Password: "Passw0rd!"}, &resp)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.Equal(t, []string{"Company has been deactivated"}, apiclient.Messages(err, "Login failed"))

	details, err = f.service.Reactivate(ctx, f.globex.ID)
	require.NoError(t, err)
	require.True(t, details.Active())

	err = f.env.Client.Anonymous(ctx, http.MethodPost, apiclient.AuthLoginRoute,
		auth.LoginRequest{Email: "member@globex.test", Password: "Passw0rd!"}, &resp)
	require.NoError(t, err)
	require.Equal(t, f.globex.ID, resp.User.CompanyID)
}

func TestSubscriptions(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "root@platform.test", "Passw0rd!")

	page, err := f.service.Subscriptions(context.Background(), apiclient.PageParams{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Data, 2)
	require.True(t, page.HasNext())
}

func TestRequiresSuperAdmin(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "admin@acme.test", "Passw0rd!")
	ctx := context.Background()

	_, err := f.service.Companies(ctx, apiclient.PageParams{})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.Equal(t, http.StatusForbidden, apiclient.StatusCode(err))

	_, err = f.service.Deactivate(ctx, f.acme.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.True(t, f.env.Session.IsAuthenticated())
}
