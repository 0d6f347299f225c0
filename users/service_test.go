package users_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/fakebackend/fakebackendtest"
	"github.com/jrsteele09/saas-admin-client/internal/utils"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/stretchr/testify/require"
)

// testFixture holds all test dependencies
type testFixture struct {
	env       *fakebackendtest.Env
	companyID string
	admin     users.User
	member    users.User
	service   *users.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	env := fakebackendtest.NewEnv(t)
	company := env.Backend.SeedCompany("Acme")
	admin := env.Backend.SeedUser(company.ID, "admin@acme.test", "Passw0rd!", users.RoleAdmin)
	member := env.Backend.SeedUser(company.ID, "member@acme.test", "Passw0rd!", users.RoleMember)
	other := env.Backend.SeedCompany("Other")
	env.Backend.SeedUser(other.ID, "someone@other.test", "Passw0rd!", users.RoleAdmin)

	service, err := users.NewService(env.Client, env.Session)
	require.NoError(t, err)

	return &testFixture{env: env, companyID: company.ID, admin: admin, member: member, service: service}
}

func TestNewService_MissingDependencies(t *testing.T) {
	f := setupTestFixture(t)

	_, err := users.NewService(nil, f.env.Session)
	require.Error(t, err)
	_, err = users.NewService(f.env.Client, nil)
	require.Error(t, err)
}

func TestUpdateMe_UpdatesSessionIdentity(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "admin@acme.test", "Passw0rd!")
	accessToken := f.env.Session.AccessToken()

	updated, err := f.service.UpdateMe(context.Background(), users.ProfileUpdate{FirstName: utils.Ptr("Grace")})
	require.NoError(t, err)
	require.Equal(t, "Grace", updated.FirstName)

	require.Equal(t, "Grace", f.env.Session.User().FirstName)
	require.Equal(t, accessToken, f.env.Session.AccessToken())

	me, err := f.service.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Grace", me.FirstName)
}

func TestDeleteMe(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "member@acme.test", "Passw0rd!")

	require.Error(t, f.service.DeleteMe(context.Background(), ""))

	err := f.service.DeleteMe(context.Background(), "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	require.True(t, f.env.Session.IsAuthenticated())

	require.NoError(t, f.service.DeleteMe(context.Background(), "Passw0rd!"))
	require.False(t, f.env.Session.IsAuthenticated())
}

func TestList_ScopedToCompany(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "admin@acme.test", "Passw0rd!")

	page, err := f.service.List(context.Background(), users.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "admin@acme.test", page.Data[0].Email)
	require.Equal(t, "member@acme.test", page.Data[1].Email)

	page, err = f.service.List(context.Background(), users.ListParams{Role: users.RoleMember})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, f.member.ID, page.Data[0].ID)

	page, err = f.service.List(context.Background(), users.ListParams{PageParams: apiclient.PageParams{Page: 2, Limit: 1}})
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)
	require.False(t, page.HasNext())
	require.Equal(t, "member@acme.test", page.Data[0].Email)
}

func TestInviteUpdateAndRemove(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "admin@acme.test", "Passw0rd!")
	ctx := context.Background()

	invited, err := f.service.Invite(ctx, users.InviteRequest{Email: "new@acme.test", FirstName: "New", LastName: "Person"})
	require.NoError(t, err)
	require.Equal(t, users.RoleMember, invited.Role)
	require.False(t, invited.IsActive)

	pending, err := f.service.List(ctx, users.ListParams{IsActive: utils.Ptr(false)})
	require.NoError(t, err)
	require.Len(t, pending.Data, 1)

	firstToken, ok := f.env.Backend.InviteToken("new@acme.test")
	require.True(t, ok)
	require.NoError(t, f.service.ResendInvite(ctx, invited.ID))
	secondToken, ok := f.env.Backend.InviteToken("new@acme.test")
	require.True(t, ok)
	require.NotEqual(t, firstToken, secondToken)

	updated, err := f.service.Update(ctx, invited.ID, users.UpdateUserRequest{Role: utils.Ptr(users.RoleAdmin)})
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, updated.Role)
	require.Equal(t, "New", updated.FirstName)

	got, err := f.service.Get(ctx, invited.ID)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, got.Role)

	require.NoError(t, f.service.Remove(ctx, invited.ID))
	_, err = f.service.Get(ctx, invited.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInvite_RequiresAdmin(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, "member@acme.test", "Passw0rd!")

	_, err := f.service.Invite(context.Background(), users.InviteRequest{Email: "x@acme.test"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.Equal(t, []string{"Insufficient permissions"}, apiclient.Messages(err, "Failed to send invitation."))
}
