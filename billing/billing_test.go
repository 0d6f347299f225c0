package billing_test

import (
	"testing"

	"github.com/jrsteele09/saas-admin-client/billing"
	"github.com/stretchr/testify/require"
)

func TestQuota(t *testing.T) {
	tests := []struct {
		name     string
		quota    billing.Quota
		percent  int
		exceeded bool
	}{
		{name: "unlimited", quota: billing.Quota{Used: 10}, percent: 0},
		{name: "partial", quota: billing.Quota{Used: 1, Limit: 3}, percent: 33},
		{name: "at limit", quota: billing.Quota{Used: 5, Limit: 5}, percent: 100, exceeded: true},
		{name: "over limit", quota: billing.Quota{Used: 9, Limit: 5}, percent: 100, exceeded: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.percent, tt.quota.Percent())
			require.Equal(t, tt.exceeded, tt.quota.Exceeded())
		})
	}
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "12.50 USD", billing.FormatAmount(1250, "usd"))
	require.Equal(t, "0.05 EUR", billing.FormatAmount(5, "EUR"))
	require.Equal(t, "-3.00 USD", billing.FormatAmount(-300, ""))
}

func TestEntitled(t *testing.T) {
	var none *billing.Subscription
	require.False(t, none.Entitled())
	require.True(t, (&billing.Subscription{Status: billing.StatusTrialing}).Entitled())
	require.False(t, (&billing.Subscription{Status: billing.StatusPastDue}).Entitled())
}
