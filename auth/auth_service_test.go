package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/auth"
	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/fakebackend/fakebackendtest"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

// testFixture holds all test dependencies
type testFixture struct {
	env       *fakebackendtest.Env
	companyID string
	user      users.User
	service   *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	env := fakebackendtest.NewEnv(t)
	company := env.Backend.SeedCompany("Acme Corp")
	user := env.Backend.SeedUser(company.ID, testUserEmail, testUserPassword, users.RoleAdmin)

	service, err := auth.NewService(env.Client, env.Session)
	require.NoError(t, err)

	return &testFixture{env: env, companyID: company.ID, user: user, service: service}
}

func TestNewService_MissingDependencies(t *testing.T) {
	f := setupTestFixture(t)

	_, err := auth.NewService(nil, f.env.Session)
	require.Error(t, err)

	_, err = auth.NewService(f.env.Client, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Login(context.Background(), testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, resp.User.ID)
	require.NotNil(t, resp.Company)
	require.Equal(t, "acme-corp", resp.Company.Slug)

	snapshot := f.env.Session.Snapshot()
	require.True(t, snapshot.IsAuthenticated)
	require.Equal(t, resp.Tokens.AccessToken, snapshot.AccessToken)
	require.Equal(t, resp.Tokens.RefreshToken, snapshot.RefreshToken)
	require.Equal(t, testUserEmail, snapshot.User.Email)
	require.Equal(t, f.companyID, f.env.Tenant.CurrentCompanyID())

	mirrored, ok := f.env.Mirror.Read()
	require.True(t, ok)
	require.Equal(t, resp.Tokens.AccessToken, mirrored)

	expiry, ok := f.env.Session.AccessTokenExpiry()
	require.True(t, ok)
	require.False(t, expiry.IsZero())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), testUserEmail, "wrong")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Equal(t, []string{"Invalid credentials"}, apiclient.Messages(err, "Login failed"))
	require.False(t, f.env.Session.IsAuthenticated())
	require.Equal(t, 0, f.env.Backend.RefreshCalls())
}

func TestLogin_ValidationHappensLocally(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), "not-an-email", testUserPassword)
	require.ErrorIs(t, err, auth.InvalidEmailErr)
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Register(context.Background(), auth.RegisterRequest{
		Email:       "founder@newco.test",
		Password:    "Sup3rSecret",
		FirstName:   "Ada",
		LastName:    "Founder",
		CompanyName: "NewCo Ltd",
	})
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, resp.User.Role)
	require.Equal(t, "newco-ltd", resp.Company.Slug)
	require.Equal(t, resp.Company.ID, f.env.Tenant.CurrentCompanyID())
	require.Equal(t, "Ada Founder", f.env.Session.User().DisplayName())
}

func TestRegister_Conflict(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Register(context.Background(), auth.RegisterRequest{
		Email:       testUserEmail,
		Password:    "Sup3rSecret",
		FirstName:   "John",
		LastName:    "Doe",
		CompanyName: "Dupe",
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)
	require.Equal(t, http.StatusConflict, apiclient.StatusCode(err))
	require.False(t, f.env.Session.IsAuthenticated())
}

func TestAcceptInvite(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, testUserEmail, testUserPassword)

	members, err := users.NewService(f.env.Client, f.env.Session)
	require.NoError(t, err)
	_, err = members.Invite(context.Background(), users.InviteRequest{Email: "new.hire@example.com", FirstName: "New", LastName: "Hire"})
	require.NoError(t, err)

	inviteToken, ok := f.env.Backend.InviteToken("new.hire@example.com")
	require.True(t, ok)

	f.service.Logout(context.Background())
	resp, err := f.service.AcceptInvite(context.Background(), auth.AcceptInviteRequest{
		Token:     inviteToken,
		Password:  "Welc0meAboard",
		FirstName: "New",
		LastName:  "Hire",
	})
	require.NoError(t, err)
	require.Equal(t, users.RoleMember, resp.User.Role)
	require.Equal(t, f.companyID, f.env.Tenant.CurrentCompanyID())
	require.Equal(t, "new.hire@example.com", f.env.Session.User().Email)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, testUserEmail, testUserPassword)

	f.service.Logout(context.Background())
	require.Equal(t, 1, f.env.Backend.LogoutCalls())
	require.False(t, f.env.Session.IsAuthenticated())
	require.Empty(t, f.env.Tenant.CurrentCompanyID())
	_, ok := f.env.Mirror.Read()
	require.False(t, ok)

	// signed out already: no server call
	f.service.Logout(context.Background())
	require.Equal(t, 1, f.env.Backend.LogoutCalls())
}

func TestLogout_ServerUnreachable(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, testUserEmail, testUserPassword)
	f.env.Server.Close()

	f.service.Logout(context.Background())
	require.False(t, f.env.Session.IsAuthenticated())
}

func TestMe_UpdatesIdentityAfterRefresh(t *testing.T) {
	f := setupTestFixture(t)
	f.env.SignIn(t, testUserEmail, testUserPassword)
	before := f.env.Session.Snapshot()

	f.env.Backend.ExpireAccessTokens()

	me, err := f.service.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, f.user.ID, me.ID)
	require.Equal(t, 1, f.env.Backend.RefreshCalls())

	after := f.env.Session.Snapshot()
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.NotEqual(t, before.RefreshToken, after.RefreshToken)
	require.Equal(t, f.user.ID, after.User.ID)
}

func TestPasswordReset(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.service.ForgotPassword(context.Background(), testUserEmail))
	require.NoError(t, f.service.ForgotPassword(context.Background(), "nobody@example.com"))

	resetToken, ok := f.env.Backend.ResetToken(testUserEmail)
	require.True(t, ok)

	require.NoError(t, f.service.ResetPassword(context.Background(), auth.ResetPasswordRequest{Token: resetToken, Password: "N3wPassword"}))

	_, err := f.service.Login(context.Background(), testUserEmail, testUserPassword)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = f.service.Login(context.Background(), testUserEmail, "N3wPassword")
	require.NoError(t, err)

	err = f.service.ResetPassword(context.Background(), auth.ResetPasswordRequest{Token: resetToken, Password: "An0therOne"})
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}
