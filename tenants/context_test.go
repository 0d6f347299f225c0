package tenants_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/saas-admin-client/internal/utils"
	"github.com/jrsteele09/saas-admin-client/storage/memstore"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/stretchr/testify/require"
)

func TestContext_RehydrateRoundTrip(t *testing.T) {
	ctx := context.Background()
	persister := memstore.New()

	first := tenants.NewContext(persister, tenants.WithStorageName("companies"))
	first.SetCurrentCompany(&tenants.Company{ID: "c1", Name: "Acme"})
	require.NoError(t, first.Close(ctx))

	second := tenants.NewContext(persister, tenants.WithStorageName("companies"))
	require.NoError(t, second.Rehydrate(ctx))
	require.Equal(t, "c1", second.CurrentCompanyID())
	require.Equal(t, "Acme", second.CurrentCompany().Name)

	second.Clear()
	require.NoError(t, second.Flush(ctx))
	_, ok := persister.Raw("companies")
	require.False(t, ok)
}

func TestContext_UpdateWithoutCompany(t *testing.T) {
	c := tenants.NewContext(nil)
	c.UpdateCurrentCompany(tenants.CompanyPatch{Name: utils.Ptr("ignored")})
	require.Nil(t, c.CurrentCompany())
	require.NoError(t, c.Rehydrate(context.Background()))
	require.NoError(t, c.Flush(context.Background()))
}

func TestContext_CurrentCompanyIsACopy(t *testing.T) {
	c := tenants.NewContext(nil)
	company := &tenants.Company{ID: "c1", Name: "Acme"}
	c.SetCurrentCompany(company)
	company.Name = "Changed"

	got := c.CurrentCompany()
	require.Equal(t, "Acme", got.Name)
	got.Name = "Changed again"
	require.Equal(t, "Acme", c.CurrentCompany().Name)

	c.SetCurrentCompany(nil)
	require.Empty(t, c.CurrentCompanyID())
}

func TestCompanyPatch_Apply(t *testing.T) {
	c := tenants.Company{ID: "c1", Name: "Acme", LogoURL: "old"}
	patched := tenants.CompanyPatch{LogoURL: utils.Ptr("new")}.Apply(c)
	require.Equal(t, "Acme", patched.Name)
	require.Equal(t, "new", patched.LogoURL)
	require.Equal(t, "old", c.LogoURL)
	require.True(t, patched.Active())
}
